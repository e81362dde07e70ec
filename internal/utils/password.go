package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of the password with the given
// cost. The cost comes from BCRYPT_COST so test environments can run a
// cheap factor while production stays slow.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. The
// comparison happens inside bcrypt and is constant-time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
