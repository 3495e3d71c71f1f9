package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost matches the cost the storefront has always hashed with.
const Cost = 10

// MaxPasswordBytes is the bcrypt input limit, in bytes rather than runes.
const MaxPasswordBytes = 72

var (
	ErrMismatch = errors.New("password mismatch")
	ErrTooLong  = errors.New("password too long")
)

// dummyHash is compared against when the user does not exist so unknown
// emails take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), Cost)

func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func CheckPassword(hash, plain string) error {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
		return ErrMismatch
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrMismatch
	}
	return nil
}
