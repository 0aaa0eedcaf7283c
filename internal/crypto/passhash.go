// Package crypto implements password hashing, record key derivation and identity tokens.
package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/and161185/goods-ledger/internal/errs"
)

// PasswordCost is the bcrypt cost factor used for account passwords.
const PasswordCost = 10

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", errs.ErrInvalidArgument)
		}
		return "", fmt.Errorf("%w: %v", errs.ErrHashing, err)
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches hash.
// A mismatch is not an error; a malformed hash is.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", errs.ErrHashing, err)
	}
}

// PasswordsMatch compares a password with its confirmation in constant time.
func PasswordsMatch(password, confirmation string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(confirmation)) == 1
}
