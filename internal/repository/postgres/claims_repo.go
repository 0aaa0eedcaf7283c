package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/repository"
)

// ClaimRepo implements repository.ClaimRepository on the uniqueness_claims table.
type ClaimRepo struct{ db *DB }

// NewClaimRepo constructs a claims repository.
func NewClaimRepo(db *DB) *ClaimRepo { return &ClaimRepo{db: db} }

var _ repository.ClaimRepository = (*ClaimRepo)(nil)

// Claim inserts (kind, value, owner). When the row already exists the current owner decides the outcome.
func (r *ClaimRepo) Claim(ctx context.Context, kind repository.ClaimKind, value, owner string) (bool, error) {
	const ins = `INSERT INTO uniqueness_claims (kind, value, owner) VALUES ($1, $2, $3)
ON CONFLICT (kind, value) DO NOTHING RETURNING owner`
	var inserted string
	err := r.db.Pool.QueryRow(ctx, ins, string(kind), value, owner).Scan(&inserted)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("claim %s: %w", kind, err)
	}

	const sel = `SELECT owner FROM uniqueness_claims WHERE kind=$1 AND value=$2`
	var holder string
	if err := r.db.Pool.QueryRow(ctx, sel, string(kind), value).Scan(&holder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// released between the insert and the lookup
			return false, fmt.Errorf("claim %s: %w", kind, errs.ErrConflict)
		}
		return false, fmt.Errorf("claim %s owner: %w", kind, err)
	}
	if holder != owner {
		return false, fmt.Errorf("%s already taken: %w", kind, errs.ErrConflict)
	}
	return false, nil
}

// Release deletes the claim only when owner holds it.
func (r *ClaimRepo) Release(ctx context.Context, kind repository.ClaimKind, value, owner string) error {
	const q = `DELETE FROM uniqueness_claims WHERE kind=$1 AND value=$2 AND owner=$3`
	if _, err := r.db.Pool.Exec(ctx, q, string(kind), value, owner); err != nil {
		return fmt.Errorf("release %s: %w", kind, err)
	}
	return nil
}

// Prune deletes owner's other claims of kind.
func (r *ClaimRepo) Prune(ctx context.Context, kind repository.ClaimKind, owner, keep string) error {
	const q = `DELETE FROM uniqueness_claims WHERE kind=$1 AND owner=$2 AND value<>$3`
	if _, err := r.db.Pool.Exec(ctx, q, string(kind), owner, keep); err != nil {
		return fmt.Errorf("prune %s: %w", kind, err)
	}
	return nil
}
