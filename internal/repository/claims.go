// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// ClaimKind names a value space that must stay unique across the registry.
type ClaimKind string

const (
	KindUsername     ClaimKind = "username"
	KindEmail        ClaimKind = "email"
	KindTradeLicence ClaimKind = "trade_licence"
)

// ClaimRepository reserves unique values for a record key before the record is written to the ledger.
type ClaimRepository interface {
	// Claim reserves value for owner. created reports whether this call made the
	// reservation; re-claiming by the same owner succeeds with created=false.
	// A value held by another owner returns errs.ErrConflict.
	// Callers release only claims they created.
	Claim(ctx context.Context, kind ClaimKind, value, owner string) (created bool, err error)
	// Release frees value if owner holds it.
	Release(ctx context.Context, kind ClaimKind, value, owner string) error
	// Prune frees every claim of kind held by owner except keep.
	Prune(ctx context.Context, kind ClaimKind, owner, keep string) error
}
