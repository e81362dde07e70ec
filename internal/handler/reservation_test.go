package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticket-reservation/internal/booking"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// stubStore is a single-schedule booking.Store for handler tests. The
// engine's own tests cover concurrency and rollback; here we only need
// enough behavior to drive each HTTP status path.
type stubStore struct {
	sched  *booking.ScheduleInfo
	res    map[uint64]*booking.ReservationRecord
	nextID uint64
}

func newStubStore(sched booking.ScheduleInfo) *stubStore {
	return &stubStore{sched: &sched, res: make(map[uint64]*booking.ReservationRecord)}
}

func (s *stubStore) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	return fn(stubTx{s})
}

type stubTx struct{ s *stubStore }

func (t stubTx) ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*booking.ScheduleInfo, error) {
	if scheduleID != t.s.sched.ID {
		return nil, booking.ErrScheduleNotFound
	}
	cp := *t.s.sched
	return &cp, nil
}

func (t stubTx) HasActiveReservation(ctx context.Context, userID, scheduleID uint64) (bool, error) {
	for _, r := range t.s.res {
		if r.UserID == userID && r.ScheduleID == scheduleID && r.Status != model.ReservationCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (t stubTx) OccupiedSeats(ctx context.Context, scheduleID uint64) ([]uint32, error) {
	var out []uint32
	for _, r := range t.s.res {
		if r.Status != model.ReservationCancelled {
			out = append(out, r.Seats...)
		}
	}
	return out, nil
}

func (t stubTx) InsertReservation(ctx context.Context, rec *booking.ReservationRecord) error {
	t.s.nextID++
	rec.ID = t.s.nextID
	cp := *rec
	t.s.res[rec.ID] = &cp
	return nil
}

func (t stubTx) AdjustAvailableSeats(ctx context.Context, scheduleID uint64, delta int32) (uint32, error) {
	if delta < 0 && t.s.sched.AvailableSeats < uint32(-delta) {
		return 0, booking.ErrInsufficientSeats
	}
	t.s.sched.AvailableSeats = uint32(int32(t.s.sched.AvailableSeats) + delta)
	if t.s.sched.AvailableSeats > t.s.sched.Capacity {
		t.s.sched.AvailableSeats = t.s.sched.Capacity
	}
	return t.s.sched.AvailableSeats, nil
}

func (t stubTx) ReservationForUpdate(ctx context.Context, reservationID uint64) (*booking.ReservationInfo, error) {
	r, ok := t.s.res[reservationID]
	if !ok {
		return nil, booking.ErrReservationNotFound
	}
	return &booking.ReservationInfo{
		ID: r.ID, UserID: r.UserID, ScheduleID: r.ScheduleID,
		Passengers: r.Passengers, Status: r.Status,
	}, nil
}

func (t stubTx) MarkCancelled(ctx context.Context, reservationID uint64) error {
	t.s.res[reservationID].Status = model.ReservationCancelled
	return nil
}

func stubSchedule(available uint32) booking.ScheduleInfo {
	departs := time.Now().UTC().Add(24 * time.Hour)
	return booking.ScheduleInfo{
		ID:             1,
		Origin:         "Tehran",
		Destination:    "Shiraz",
		DepartureDate:  departs.Format("2006-01-02"),
		DepartureTime:  "09:00:00",
		DepartsAt:      departs,
		PriceCents:     3000,
		Capacity:       40,
		AvailableSeats: available,
	}
}

func newTestHandler(store booking.Store) *ReservationHandler {
	eng := booking.NewEngine(store, nil, booking.Policy{MaxPassengers: 6, RejectDuplicate: true})
	return NewReservationHandler(eng, nil)
}

func doCreate(t *testing.T, h *ReservationHandler, userID any, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
		c.Set("role", "CUSTOMER")
	}
	require.NoError(t, h.Create(c))
	return rec
}

func TestStatusForBookingErr(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{booking.ErrScheduleNotFound, http.StatusNotFound},
		{booking.ErrReservationNotFound, http.StatusNotFound},
		{booking.ErrPastDeparture, http.StatusBadRequest},
		{booking.ErrInsufficientSeats, http.StatusBadRequest},
		{booking.ErrInvalidPassengerCount, http.StatusBadRequest},
		{booking.ErrDuplicateReservation, http.StatusConflict},
		{booking.ErrNotAuthorized, http.StatusForbidden},
		{booking.ErrStorageContention, http.StatusServiceUnavailable},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusForBookingErr(tc.err), "%v", tc.err)
	}
}

func TestCreateReservationSuccess(t *testing.T) {
	h := newTestHandler(newStubStore(stubSchedule(40)))

	rec := doCreate(t, h, uint64(7), `{"schedule_id":1,"passengers":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var conf booking.Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	assert.Equal(t, []uint32{1, 2}, conf.Seats)
	assert.Equal(t, uint32(6000), conf.TotalPriceCents)
	assert.Equal(t, uint32(38), conf.AvailableSeats)
	assert.True(t, strings.HasPrefix(conf.Code, "BR"))
}

func TestCreateReservationInsufficientSeats(t *testing.T) {
	h := newTestHandler(newStubStore(stubSchedule(1)))

	rec := doCreate(t, h, uint64(7), `{"schedule_id":1,"passengers":3}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_seats", body["error"])
	assert.NotEmpty(t, body["message"])
}

func TestCreateReservationUnknownSchedule(t *testing.T) {
	h := newTestHandler(newStubStore(stubSchedule(40)))

	rec := doCreate(t, h, uint64(7), `{"schedule_id":42,"passengers":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "schedule_not_found")
}

func TestCreateReservationDuplicate(t *testing.T) {
	h := newTestHandler(newStubStore(stubSchedule(40)))

	rec := doCreate(t, h, uint64(7), `{"schedule_id":1,"passengers":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doCreate(t, h, uint64(7), `{"schedule_id":1,"passengers":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate_reservation")
}

func TestCreateReservationValidation(t *testing.T) {
	h := newTestHandler(newStubStore(stubSchedule(40)))

	t.Run("missing schedule_id", func(t *testing.T) {
		rec := doCreate(t, h, uint64(7), `{"passengers":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("zero passengers", func(t *testing.T) {
		rec := doCreate(t, h, uint64(7), `{"schedule_id":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_passenger_count")
	})
	t.Run("unauthenticated", func(t *testing.T) {
		rec := doCreate(t, h, nil, `{"schedule_id":1,"passengers":1}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCancelReservation(t *testing.T) {
	store := newStubStore(stubSchedule(40))
	h := newTestHandler(store)

	rec := doCreate(t, h, uint64(7), `{"schedule_id":1,"passengers":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var conf booking.Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))

	doCancel := func(userID uint64, role string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		w := httptest.NewRecorder()
		c := e.NewContext(req, w)
		c.SetPath("/v1/reservations/:id/cancel")
		c.SetParamNames("id")
		c.SetParamValues("1")
		c.Set("user_id", userID)
		c.Set("role", role)
		require.NoError(t, h.Cancel(c))
		return w
	}

	// A stranger cannot cancel someone else's reservation.
	w := doCancel(99, "CUSTOMER")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not_authorized")

	// The owner can, and the seats come back.
	w = doCancel(7, "CUSTOMER")
	require.Equal(t, http.StatusOK, w.Code)
	var res booking.CancelResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.AlreadyCancelled)
	assert.Equal(t, uint32(40), res.AvailableSeats)

	// Cancelling again is an idempotent 200.
	w = doCancel(7, "CUSTOMER")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.AlreadyCancelled)
}
