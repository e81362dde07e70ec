package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrForbidden, ErrConflict, ErrNoChange}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				assert.ErrorIs(t, a, b)
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestIsDup(t *testing.T) {
	assert.True(t, isDup(errors.New("Error 1062: Duplicate entry 'BR7K2M9QD4' for key 'reservation_code'")))
	assert.False(t, isDup(errors.New("Error 1205: Lock wait timeout exceeded")))
	assert.False(t, isDup(nil))
}
