package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/repository"
)

func claimErr(c *Claims, kind repository.ClaimKind, value, owner string) error {
	_, err := c.Claim(context.Background(), kind, value, owner)
	return err
}

func TestClaims_OwnerSemantics(t *testing.T) {
	ctx := context.Background()
	c := NewClaims()

	created, err := c.Claim(ctx, repository.KindUsername, "alice1", "a")
	require.NoError(t, err)
	require.True(t, created)

	created, err = c.Claim(ctx, repository.KindUsername, "alice1", "a")
	require.NoError(t, err)
	require.False(t, created, "repeat claim by the holder creates nothing")

	require.ErrorIs(t, claimErr(c, repository.KindUsername, "alice1", "b"), errs.ErrConflict)

	// same value in another kind is independent
	require.NoError(t, claimErr(c, repository.KindEmail, "alice1", "b"))

	require.NoError(t, c.Release(ctx, repository.KindUsername, "alice1", "b"))
	require.ErrorIs(t, claimErr(c, repository.KindUsername, "alice1", "b"), errs.ErrConflict, "non-owner release is a no-op")

	require.NoError(t, c.Release(ctx, repository.KindUsername, "alice1", "a"))
	require.NoError(t, claimErr(c, repository.KindUsername, "alice1", "b"))
}

func TestClaims_Prune(t *testing.T) {
	ctx := context.Background()
	c := NewClaims()

	require.NoError(t, claimErr(c, repository.KindEmail, "old@x.com", "a"))
	require.NoError(t, claimErr(c, repository.KindEmail, "new@x.com", "a"))
	require.NoError(t, c.Prune(ctx, repository.KindEmail, "a", "new@x.com"))

	require.NoError(t, claimErr(c, repository.KindEmail, "old@x.com", "b"))
	require.ErrorIs(t, claimErr(c, repository.KindEmail, "new@x.com", "b"), errs.ErrConflict)
}

func TestClaims_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	c := NewClaims()

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			if created, err := c.Claim(ctx, repository.KindUsername, "race", owner); err == nil && created {
				wins <- owner
			}
		}(string(rune('A' + i)))
	}
	wg.Wait()
	close(wins)
	require.Len(t, wins, 1)
}
