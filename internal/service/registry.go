// Package service implements the registry operations on top of the ledger.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/limiter"
	"github.com/and161185/goods-ledger/internal/metrics"
	"github.com/and161185/goods-ledger/internal/repository"
)

// Registry validates requests, derives record keys and issues the ledger reads and writes
// for every registry operation. Each operation makes a single attempt.
type Registry struct {
	ledger  ledger.Ledger
	claims  repository.ClaimRepository
	tokens  *pkgcrypto.Tokens
	lim     limiter.Limiter
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewRegistry constructs a Registry with required dependencies.
func NewRegistry(
	l ledger.Ledger,
	claims repository.ClaimRepository,
	tokens *pkgcrypto.Tokens,
	lim limiter.Limiter,
	m *metrics.Metrics,
	log *zap.Logger,
) *Registry {
	return &Registry{ledger: l, claims: claims, tokens: tokens, lim: lim, metrics: m, log: log}
}

// authorize checks that token is valid and was issued for key.
func (r *Registry) authorize(token, key string) error {
	sub, err := r.tokens.Verify(token)
	if err != nil {
		return err
	}
	if sub != key {
		return fmt.Errorf("token does not belong to account: %w", errs.ErrUnauthorized)
	}
	return nil
}

// release frees a claim after a failed write. Failures are logged only.
func (r *Registry) release(ctx context.Context, kind repository.ClaimKind, value, owner string) {
	if err := r.claims.Release(context.WithoutCancel(ctx), kind, value, owner); err != nil {
		r.log.Warn("release claim", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// query evaluates a single-argument query and decodes the JSON array it returns.
// An empty or null payload is an empty set.
func query[T any](ctx context.Context, l ledger.Ledger, name, value string) ([]T, error) {
	if value == "" {
		return nil, fmt.Errorf("%s: %w: empty lookup value", name, errs.ErrInvalidArgument)
	}
	raw, err := l.Evaluate(ctx, name, value)
	if err != nil {
		return nil, err
	}
	out := []T{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w: %w", name, errs.ErrLedger, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// first returns the first match of a query or ErrNotFound.
func first[T any](ctx context.Context, l ledger.Ledger, name, value string) (T, error) {
	var zero T
	recs, err := query[T](ctx, l, name, value)
	if err != nil {
		return zero, err
	}
	if len(recs) == 0 {
		return zero, fmt.Errorf("%s: %w", name, errs.ErrNotFound)
	}
	return recs[0], nil
}

// exists reports whether a query matches anything.
func exists[T any](ctx context.Context, l ledger.Ledger, name, value string) (bool, error) {
	recs, err := query[T](ctx, l, name, value)
	return len(recs) > 0, err
}
