// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across ledger/service/transport layers.
var (
	// ErrNotFound indicates the requested record does not exist on the ledger.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness invariant violation (username, email, trade licence, key).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates a credential mismatch or a token that does not belong to the account.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrHashing indicates a failure of the password hashing primitive.
	ErrHashing = errors.New("hashing backend error")

	// ErrLedger indicates the ledger call itself failed (network, consensus or chaincode).
	ErrLedger = errors.New("ledger error")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidArgument indicates a request that is missing required fields.
	ErrInvalidArgument = errors.New("invalid argument")
)
