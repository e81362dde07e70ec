package booking

import "crypto/rand"

// Reservation codes are 10 characters: a fixed "BR" prefix followed by 8
// characters from an alphabet that omits 0/O/1/I/L to stay readable
// over the phone.  Uniqueness is enforced by the database
// constraint on reservations.reservation_code; the engine regenerates and
// retries on collision rather than trusting randomness alone.
const (
	codePrefix   = "BR"
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 8
)

// newReservationCode returns a fresh random reservation code.  The
// suffix space is 31^8 (~8.5e11), so collisions are negligible and a
// handful of insert retries is plenty.
func newReservationCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(codePrefix)+codeLength)
	out = append(out, codePrefix...)
	for _, b := range buf {
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}
