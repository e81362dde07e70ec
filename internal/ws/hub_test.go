package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, ch chan []byte) SeatUpdate {
	t.Helper()
	select {
	case payload := <-ch:
		var msg SeatUpdate
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return SeatUpdate{}
	}
}

func TestQueueSeatUpdateDeliversToThatClientOnly(t *testing.T) {
	h := NewHub()
	go h.Run()

	existing := &Client{ScheduleID: 7, Send: make(chan []byte, 4)}
	h.Subscribe(existing)

	fresh := &Client{ScheduleID: 7, Send: make(chan []byte, 4)}
	h.Subscribe(fresh)
	fresh.QueueSeatUpdate(7, 12)

	msg := recvFrame(t, fresh.Send)
	assert.Equal(t, "seat_update", msg.Type)
	assert.Equal(t, uint64(7), msg.ScheduleID)
	assert.Equal(t, uint32(12), msg.AvailableSeats)

	// The snapshot must not reach watchers that were already attached.
	assert.Empty(t, existing.Send)
}

func TestQueueSeatUpdateDropsWhenBufferFull(t *testing.T) {
	// No reader and no buffer: the queue call must not block.
	c := &Client{ScheduleID: 1, Send: make(chan []byte)}
	done := make(chan struct{})
	go func() {
		c.QueueSeatUpdate(1, 3)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("QueueSeatUpdate blocked on a full send channel")
	}
}

func TestBroadcastReachesOnlyScheduleWatchers(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := &Client{ScheduleID: 1, Send: make(chan []byte, 4)}
	b := &Client{ScheduleID: 2, Send: make(chan []byte, 4)}
	h.Subscribe(a)
	h.Subscribe(b)

	h.BroadcastSeatUpdate(1, 9)

	msg := recvFrame(t, a.Send)
	assert.Equal(t, uint64(1), msg.ScheduleID)
	assert.Equal(t, uint32(9), msg.AvailableSeats)
	assert.Empty(t, b.Send, "watchers of other schedules must not be notified")
}
