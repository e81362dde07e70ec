package booking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrScheduleNotFound, "schedule_not_found"},
		{ErrReservationNotFound, "reservation_not_found"},
		{ErrPastDeparture, "past_departure"},
		{ErrInsufficientSeats, "insufficient_seats"},
		{ErrDuplicateReservation, "duplicate_reservation"},
		{ErrInvalidPassengerCount, "invalid_passenger_count"},
		{ErrNotAuthorized, "not_authorized"},
		{ErrStorageContention, "storage_contention"},
		{errors.New("driver: bad connection"), "internal_error"},
		{nil, "internal_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ErrorCode(tc.err))
	}
}

func TestErrorCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create reservation: %w", ErrInsufficientSeats)
	assert.Equal(t, "insufficient_seats", ErrorCode(wrapped))
}
