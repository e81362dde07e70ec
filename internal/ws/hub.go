// Package ws streams live seat availability to browsers. Each client
// subscribes to one schedule; every committed booking or cancellation
// broadcasts the new available_seats value to that schedule's watchers.
package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket subscriber watching a single schedule.
type Client struct {
	ScheduleID uint64
	Conn       *websocket.Conn
	Send       chan []byte
}

// SeatUpdate is the wire message sent on every availability change.
type SeatUpdate struct {
	Type           string `json:"type"` // always "seat_update"
	ScheduleID     uint64 `json:"schedule_id"`
	AvailableSeats uint32 `json:"available_seats"`
}

type broadcast struct {
	scheduleID uint64
	payload    []byte
}

// Hub routes seat updates to the clients subscribed to each schedule.
// All state is owned by the Run goroutine; the exported methods only
// send on channels, so they are safe from any goroutine.
type Hub struct {
	clients    map[uint64]map[*Client]bool // schedule_id -> subscribers
	register   chan *Client
	unregister chan *Client
	updates    chan broadcast
}

// NewHub returns a Hub ready to Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		updates:    make(chan broadcast, 64),
	}
}

// Run processes subscriptions and broadcasts until the process exits.
// Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			subs := h.clients[c.ScheduleID]
			if subs == nil {
				subs = make(map[*Client]bool)
				h.clients[c.ScheduleID] = subs
			}
			subs[c] = true

		case c := <-h.unregister:
			if subs, ok := h.clients[c.ScheduleID]; ok && subs[c] {
				delete(subs, c)
				close(c.Send)
				if len(subs) == 0 {
					delete(h.clients, c.ScheduleID)
				}
			}

		case b := <-h.updates:
			for c := range h.clients[b.scheduleID] {
				select {
				case c.Send <- b.payload:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients[b.scheduleID], c)
					close(c.Send)
				}
			}
		}
	}
}

// Subscribe attaches a client to its schedule's feed.
func (h *Hub) Subscribe(c *Client) {
	h.register <- c
}

// Unsubscribe detaches a client and closes its send channel.
func (h *Hub) Unsubscribe(c *Client) {
	h.unregister <- c
}

// BroadcastSeatUpdate fans the new availability out to every watcher of
// the schedule.
func (h *Hub) BroadcastSeatUpdate(scheduleID uint64, availableSeats uint32) {
	payload, err := json.Marshal(SeatUpdate{
		Type:           "seat_update",
		ScheduleID:     scheduleID,
		AvailableSeats: availableSeats,
	})
	if err != nil {
		log.Printf("ws: marshal seat update: %v", err)
		return
	}
	h.updates <- broadcast{scheduleID: scheduleID, payload: payload}
}

// QueueSeatUpdate puts a seat_update frame straight onto this client's
// send channel, bypassing the hub. Used for the snapshot right after
// subscribing so existing watchers are not re-notified. A full buffer
// drops the frame; the next broadcast supersedes it anyway.
func (c *Client) QueueSeatUpdate(scheduleID uint64, availableSeats uint32) {
	payload, err := json.Marshal(SeatUpdate{
		Type:           "seat_update",
		ScheduleID:     scheduleID,
		AvailableSeats: availableSeats,
	})
	if err != nil {
		log.Printf("ws: marshal seat update: %v", err)
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

// WritePump drains the client's send channel onto the connection and
// pings it periodically. It exits when the channel closes or a write
// fails, closing the connection either way.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// ReadPump discards client frames while keeping the read deadline fresh
// via pong handling. The feed is one-way; the read loop exists only to
// notice disconnects.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		onClose()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			return
		}
	}
}
