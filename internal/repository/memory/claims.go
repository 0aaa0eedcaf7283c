// Package memory holds process-local repository implementations for running without a database.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/repository"
)

type claimID struct {
	kind  repository.ClaimKind
	value string
}

// Claims is a mutex-guarded repository.ClaimRepository.
type Claims struct {
	mu     sync.Mutex
	owners map[claimID]string
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims { return &Claims{owners: make(map[claimID]string)} }

var _ repository.ClaimRepository = (*Claims)(nil)

func (c *Claims) Claim(_ context.Context, kind repository.ClaimKind, value, owner string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := claimID{kind, value}
	if holder, ok := c.owners[id]; ok {
		if holder != owner {
			return false, fmt.Errorf("%s already taken: %w", kind, errs.ErrConflict)
		}
		return false, nil
	}
	c.owners[id] = owner
	return true, nil
}

func (c *Claims) Release(_ context.Context, kind repository.ClaimKind, value, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := claimID{kind, value}
	if c.owners[id] == owner {
		delete(c.owners, id)
	}
	return nil
}

func (c *Claims) Prune(_ context.Context, kind repository.ClaimKind, owner, keep string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, holder := range c.owners {
		if id.kind == kind && holder == owner && id.value != keep {
			delete(c.owners, id)
		}
	}
	return nil
}
