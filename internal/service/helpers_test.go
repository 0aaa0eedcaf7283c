package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/limiter"
	"github.com/and161185/goods-ledger/internal/metrics"
	"github.com/and161185/goods-ledger/internal/model"
	"github.com/and161185/goods-ledger/internal/repository/memory"
)

// recordingLedger counts calls on top of the in-memory ledger.
type recordingLedger struct {
	next      ledger.Ledger
	evaluates []string
	submits   []string
	submitErr error
}

func (l *recordingLedger) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	l.evaluates = append(l.evaluates, name)
	return l.next.Evaluate(ctx, name, args...)
}

func (l *recordingLedger) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	l.submits = append(l.submits, name)
	if l.submitErr != nil {
		return nil, l.submitErr
	}
	return l.next.Submit(ctx, name, args...)
}

func (l *recordingLedger) reset() {
	l.evaluates, l.submits = nil, nil
}

type fakeLimiter struct {
	allowOK   bool
	allowWait time.Duration
	allowErr  error

	failBlocked bool
	failWait    time.Duration

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, l.allowWait, l.allowErr
}

func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}

func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, l.failWait, nil
}

type fixture struct {
	reg    *Registry
	ledger *recordingLedger
	claims *memory.Claims
	lim    *fakeLimiter
	tokens *pkgcrypto.Tokens
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := pkgcrypto.NewTokens([]byte("test-secret"), 0)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	f := &fixture{
		ledger: &recordingLedger{next: ledger.NewMemory()},
		claims: memory.NewClaims(),
		lim:    &fakeLimiter{allowOK: true},
		tokens: tokens,
	}
	f.reg = NewRegistry(f.ledger, f.claims, tokens, f.lim, metrics.New(prometheus.NewRegistry()), zaptest.NewLogger(t))
	return f
}

func alice() model.RegisterAccountInput {
	return model.RegisterAccountInput{
		Type:              "individual",
		Name:              "Alice",
		Username:          "alice1",
		Email:             "a@x.com",
		Password:          "p",
		ConfirmedPassword: "p",
	}
}

func (f *fixture) mustRegister(t *testing.T, in model.RegisterAccountInput) model.AccountView {
	t.Helper()
	v, err := f.reg.RegisterAccount(context.Background(), in)
	if err != nil {
		t.Fatalf("RegisterAccount(%s): %v", in.Username, err)
	}
	return v
}

// staleReads answers every query with an empty set, as a replica that has not
// seen a concurrent commit yet, while writes reach the shared ledger.
type staleReads struct{ next ledger.Ledger }

func (l staleReads) Evaluate(context.Context, string, ...string) ([]byte, error) {
	return []byte("[]"), nil
}

func (l staleReads) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return l.next.Submit(ctx, name, args...)
}

// racer is a second registry sharing the fixture's ledger and claims but reading stale state.
func (f *fixture) racer(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(staleReads{next: f.ledger.next}, f.claims, f.tokens, f.lim,
		metrics.New(prometheus.NewRegistry()), zaptest.NewLogger(t))
}
