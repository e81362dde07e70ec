package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// memStore is an in-memory Store with the same semantics the MySQL
// implementation provides: InTx serializes transactions, mutations roll
// back when fn fails, and AdjustAvailableSeats is a conditional update
// that refuses to push the counter below zero.
type memStore struct {
	mu           sync.Mutex
	schedules    map[uint64]*ScheduleInfo
	reservations map[uint64]*ReservationRecord
	codes        map[string]struct{}
	nextID       uint64
	txCount      int
	collideNext  int // force the next N inserts to report a code collision
	failNext     int // force the next N transactions to fail with contention
}

func newMemStore() *memStore {
	return &memStore{
		schedules:    make(map[uint64]*ScheduleInfo),
		reservations: make(map[uint64]*ReservationRecord),
		codes:        make(map[string]struct{}),
	}
}

func (s *memStore) addSchedule(info ScheduleInfo) {
	cp := info
	s.schedules[info.ID] = &cp
}

func (s *memStore) available(scheduleID uint64) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedules[scheduleID].AvailableSeats
}

type memSnapshot struct {
	schedules    map[uint64]*ScheduleInfo
	reservations map[uint64]*ReservationRecord
	codes        map[string]struct{}
	nextID       uint64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		schedules:    make(map[uint64]*ScheduleInfo, len(s.schedules)),
		reservations: make(map[uint64]*ReservationRecord, len(s.reservations)),
		codes:        make(map[string]struct{}, len(s.codes)),
		nextID:       s.nextID,
	}
	for id, sc := range s.schedules {
		cp := *sc
		snap.schedules[id] = &cp
	}
	for id, r := range s.reservations {
		cp := *r
		cp.Seats = append([]uint32(nil), r.Seats...)
		snap.reservations[id] = &cp
	}
	for c := range s.codes {
		snap.codes[c] = struct{}{}
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.schedules = snap.schedules
	s.reservations = snap.reservations
	s.codes = snap.codes
	s.nextID = snap.nextID
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	if s.failNext > 0 {
		s.failNext--
		return ErrStorageContention
	}
	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memTx struct {
	s *memStore
}

func (t *memTx) ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*ScheduleInfo, error) {
	sc, ok := t.s.schedules[scheduleID]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	cp := *sc
	return &cp, nil
}

func (t *memTx) HasActiveReservation(ctx context.Context, userID, scheduleID uint64) (bool, error) {
	for _, r := range t.s.reservations {
		if r.UserID == userID && r.ScheduleID == scheduleID && r.Status != model.ReservationCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]uint32, error) {
	var out []uint32
	for _, r := range t.s.reservations {
		if r.ScheduleID == scheduleID && r.Status != model.ReservationCancelled {
			out = append(out, r.Seats...)
		}
	}
	return out, nil
}

func (t *memTx) InsertReservation(ctx context.Context, rec *ReservationRecord) error {
	if t.s.collideNext > 0 {
		t.s.collideNext--
		return ErrCodeCollision
	}
	if _, taken := t.s.codes[rec.Code]; taken {
		return ErrCodeCollision
	}
	t.s.nextID++
	rec.ID = t.s.nextID
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	cp.Seats = append([]uint32(nil), rec.Seats...)
	t.s.reservations[rec.ID] = &cp
	t.s.codes[rec.Code] = struct{}{}
	return nil
}

func (t *memTx) AdjustAvailableSeats(ctx context.Context, scheduleID uint64, delta int32) (uint32, error) {
	sc, ok := t.s.schedules[scheduleID]
	if !ok {
		return 0, ErrScheduleNotFound
	}
	if delta < 0 {
		take := uint32(-delta)
		if sc.AvailableSeats < take {
			return 0, ErrInsufficientSeats
		}
		sc.AvailableSeats -= take
	} else {
		sc.AvailableSeats += uint32(delta)
		if sc.AvailableSeats > sc.Capacity {
			sc.AvailableSeats = sc.Capacity
		}
	}
	return sc.AvailableSeats, nil
}

func (t *memTx) ReservationForUpdate(ctx context.Context, reservationID uint64) (*ReservationInfo, error) {
	r, ok := t.s.reservations[reservationID]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return &ReservationInfo{
		ID:         r.ID,
		UserID:     r.UserID,
		ScheduleID: r.ScheduleID,
		Passengers: r.Passengers,
		Status:     r.Status,
	}, nil
}

func (t *memTx) MarkCancelled(ctx context.Context, reservationID uint64) error {
	r, ok := t.s.reservations[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	r.Status = model.ReservationCancelled
	return nil
}

// eventRecorder captures post-commit notifications.
type eventRecorder struct {
	mu        sync.Mutex
	confirmed []ConfirmedEvent
	seatFeeds []uint32
}

func (r *eventRecorder) ReservationConfirmed(ctx context.Context, ev ConfirmedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, ev)
}

func (r *eventRecorder) SeatUpdate(ctx context.Context, scheduleID uint64, availableSeats uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seatFeeds = append(r.seatFeeds, availableSeats)
}

func testSchedule(id uint64, capacity, available, priceCents uint32) ScheduleInfo {
	departs := time.Now().UTC().Add(48 * time.Hour)
	return ScheduleInfo{
		ID:             id,
		Origin:         "Tehran",
		Destination:    "Isfahan",
		DepartureDate:  departs.Format("2006-01-02"),
		DepartureTime:  "08:30:00",
		DepartsAt:      departs,
		PriceCents:     priceCents,
		Capacity:       capacity,
		AvailableSeats: available,
	}
}

func TestCreateAssignsLowestFreeSeats(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 2500))
	events := &eventRecorder{}
	eng := NewEngine(store, events, Policy{MaxPassengers: 6})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 7, ScheduleID: 1, Passengers: 3})
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 2, 3}, conf.Seats)
	assert.Equal(t, uint32(3*2500), conf.TotalPriceCents)
	assert.Equal(t, uint32(37), conf.AvailableSeats)
	assert.Equal(t, "Tehran", conf.Trip.Origin)
	require.Len(t, conf.Code, 10)
	assert.Equal(t, "BR", conf.Code[:2])

	// Second booking continues from the next free seat.
	conf2, err := eng.Create(context.Background(), CreateRequest{UserID: 8, ScheduleID: 1, Passengers: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 5}, conf2.Seats)
	assert.Equal(t, uint32(35), conf2.AvailableSeats)

	require.Len(t, events.confirmed, 2)
	assert.Equal(t, conf.Code, events.confirmed[0].Code)
	assert.Equal(t, []uint32{37, 35}, events.seatFeeds)
}

func TestCreateHonorsSeatPreferences(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 6})

	conf, err := eng.Create(context.Background(), CreateRequest{
		UserID: 1, ScheduleID: 1, Passengers: 2, SeatPreferences: []uint32{12, 11},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{11, 12}, conf.Seats, "preferred seats are returned sorted")
}

func TestCreateFallsBackWhenPreferenceTaken(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 6})

	_, err := eng.Create(context.Background(), CreateRequest{
		UserID: 1, ScheduleID: 1, Passengers: 1, SeatPreferences: []uint32{5},
	})
	require.NoError(t, err)

	// Seat 5 is taken; the whole preference list is abandoned and the
	// lowest free seats win.
	conf, err := eng.Create(context.Background(), CreateRequest{
		UserID: 2, ScheduleID: 1, Passengers: 2, SeatPreferences: []uint32{5, 6},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, conf.Seats)
}

func TestCreateRejectsInvalidPassengerCount(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 4})

	for _, n := range []uint32{0, 5, 100} {
		_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: n})
		assert.ErrorIs(t, err, ErrInvalidPassengerCount, "passengers=%d", n)
	}
	assert.Equal(t, 0, store.txCount, "validation failures must not open a transaction")
}

func TestCreateRejectsUnknownSchedule(t *testing.T) {
	eng := NewEngine(newMemStore(), nil, Policy{})

	_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 99, Passengers: 1})
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestCreateRejectsPastDeparture(t *testing.T) {
	store := newMemStore()
	sched := testSchedule(1, 40, 40, 1000)
	store.addSchedule(sched)
	eng := NewEngine(store, nil, Policy{})
	eng.now = func() time.Time { return sched.DepartsAt.Add(time.Minute) }

	_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	assert.ErrorIs(t, err, ErrPastDeparture)
	assert.Equal(t, uint32(40), store.available(1), "failed booking must not consume seats")
}

func TestCreateDuplicatePolicy(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 4, RejectDuplicate: true})

	_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	require.NoError(t, err)

	_, err = eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	assert.ErrorIs(t, err, ErrDuplicateReservation)

	// A different user on the same schedule is fine.
	_, err = eng.Create(context.Background(), CreateRequest{UserID: 2, ScheduleID: 1, Passengers: 1})
	assert.NoError(t, err)
}

func TestCreateAllowsDuplicateWhenPolicyOff(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 4})

	for i := 0; i < 2; i++ {
		_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
		require.NoError(t, err)
	}
}

func TestCreateDuplicateIgnoresCancelled(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 4, RejectDuplicate: true})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	require.NoError(t, err)
	_, err = eng.Cancel(context.Background(), conf.ReservationID, 1, false)
	require.NoError(t, err)

	_, err = eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	assert.NoError(t, err, "a cancelled reservation must not count as a duplicate")
}

func TestCreateRejectsInsufficientSeats(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 2, 1000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 6})

	_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 3})
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, uint32(2), store.available(1))
}

func TestCreateRetriesCodeCollision(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	store.collideNext = codeInsertAttempts - 1
	eng := NewEngine(store, nil, Policy{})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	require.NoError(t, err, "collisions within the retry budget must be absorbed")
	assert.NotEmpty(t, conf.Code)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	store.collideNext = codeInsertAttempts
	eng := NewEngine(store, nil, Policy{})

	_, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 1})
	assert.ErrorIs(t, err, ErrCodeCollision)
	assert.Equal(t, uint32(40), store.available(1), "abandoned transaction must roll back")
}

func TestCreateCapturesPriceAtBookingTime(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 2000))
	eng := NewEngine(store, nil, Policy{MaxPassengers: 6})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 3})
	require.NoError(t, err)
	require.Equal(t, uint32(6000), conf.TotalPriceCents)

	// A fare change after booking must not touch committed totals.
	store.mu.Lock()
	store.schedules[1].PriceCents = 9900
	stored := store.reservations[conf.ReservationID].TotalPriceCents
	store.mu.Unlock()
	assert.Equal(t, uint32(6000), stored)

	// New bookings pick up the new fare.
	conf2, err := eng.Create(context.Background(), CreateRequest{UserID: 2, ScheduleID: 1, Passengers: 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(9900), conf2.TotalPriceCents)
	store.mu.Lock()
	stored = store.reservations[conf.ReservationID].TotalPriceCents
	store.mu.Unlock()
	assert.Equal(t, uint32(6000), stored)
}

func TestCreateRetriesAfterStorageContention(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	store.failNext = 1
	eng := NewEngine(store, nil, Policy{MaxPassengers: 6})

	req := CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 2}

	_, err := eng.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrStorageContention)
	assert.Empty(t, store.reservations, "lost lock race must leave no partial rows")
	assert.Equal(t, uint32(40), store.available(1))

	// The identical retry succeeds exactly once.
	conf, err := eng.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, conf.Seats)
	assert.Len(t, store.reservations, 1)
	assert.Equal(t, uint32(38), store.available(1))
}

func TestCancelRetriesAfterStorageContention(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 1, ScheduleID: 1, Passengers: 2})
	require.NoError(t, err)

	store.failNext = 1
	_, err = eng.Cancel(context.Background(), conf.ReservationID, 1, false)
	require.ErrorIs(t, err, ErrStorageContention)
	assert.Equal(t, uint32(38), store.available(1), "failed cancel must not restore seats")

	res, err := eng.Cancel(context.Background(), conf.ReservationID, 1, false)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCancelled)
	assert.Equal(t, uint32(40), store.available(1))
}

// TestCreateConcurrentNeverOverbooks is the core property: when demand
// exceeds capacity, exactly capacity seats are sold and the counter
// never goes negative.
func TestCreateConcurrentNeverOverbooks(t *testing.T) {
	const (
		capacity = 10
		workers  = 40
	)
	store := newMemStore()
	store.addSchedule(testSchedule(1, capacity, capacity, 1500))
	eng := NewEngine(store, &eventRecorder{}, Policy{MaxPassengers: 4})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed []*Confirmation
		failures  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			conf, err := eng.Create(context.Background(), CreateRequest{
				UserID: user, ScheduleID: 1, Passengers: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientSeats)
				failures++
				return
			}
			confirmed = append(confirmed, conf)
		}(uint64(i + 1))
	}
	wg.Wait()

	require.Len(t, confirmed, capacity)
	assert.Equal(t, workers-capacity, failures)
	assert.Equal(t, uint32(0), store.available(1))

	// Every sold seat is distinct.
	seen := make(map[uint32]struct{})
	for _, c := range confirmed {
		for _, seat := range c.Seats {
			_, dup := seen[seat]
			assert.False(t, dup, "seat %d sold twice", seat)
			seen[seat] = struct{}{}
		}
	}
	assert.Len(t, seen, capacity)
}

func TestCancelRestoresSeats(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	events := &eventRecorder{}
	eng := NewEngine(store, events, Policy{MaxPassengers: 6})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 3, ScheduleID: 1, Passengers: 4})
	require.NoError(t, err)
	require.Equal(t, uint32(36), store.available(1))

	res, err := eng.Cancel(context.Background(), conf.ReservationID, 3, false)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCancelled)
	assert.Equal(t, uint32(40), res.AvailableSeats)
	assert.Equal(t, uint32(40), store.available(1))

	// Seat update fired for both the booking and the cancellation.
	assert.Equal(t, []uint32{36, 40}, events.seatFeeds)

	// The freed seats are reusable immediately.
	conf2, err := eng.Create(context.Background(), CreateRequest{UserID: 4, ScheduleID: 1, Passengers: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, conf2.Seats)
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	events := &eventRecorder{}
	eng := NewEngine(store, events, Policy{})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 3, ScheduleID: 1, Passengers: 2})
	require.NoError(t, err)

	_, err = eng.Cancel(context.Background(), conf.ReservationID, 3, false)
	require.NoError(t, err)
	feeds := len(events.seatFeeds)

	res, err := eng.Cancel(context.Background(), conf.ReservationID, 3, false)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCancelled)
	assert.Equal(t, uint32(40), store.available(1), "repeat cancel must not double-restore")
	assert.Len(t, events.seatFeeds, feeds, "repeat cancel must not emit a seat update")
}

func TestCancelAuthorization(t *testing.T) {
	store := newMemStore()
	store.addSchedule(testSchedule(1, 40, 40, 1000))
	eng := NewEngine(store, nil, Policy{})

	conf, err := eng.Create(context.Background(), CreateRequest{UserID: 3, ScheduleID: 1, Passengers: 1})
	require.NoError(t, err)

	_, err = eng.Cancel(context.Background(), conf.ReservationID, 99, false)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, uint32(39), store.available(1))

	// An admin may cancel on behalf of any user.
	res, err := eng.Cancel(context.Background(), conf.ReservationID, 99, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), res.AvailableSeats)
}

func TestCancelUnknownReservation(t *testing.T) {
	eng := NewEngine(newMemStore(), nil, Policy{})

	_, err := eng.Cancel(context.Background(), 12345, 1, true)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
