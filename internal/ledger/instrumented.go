package ledger

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/metrics"
)

// Instrumented records metrics, a span and a debug log line per call.
// Transaction arguments are never recorded.
type Instrumented struct {
	next    Ledger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	log     *zap.Logger
}

// NewInstrumented decorates next.
func NewInstrumented(next Ledger, m *metrics.Metrics, tr trace.Tracer, log *zap.Logger) *Instrumented {
	return &Instrumented{next: next, metrics: m, tracer: tr, log: log}
}

var _ Ledger = (*Instrumented)(nil)

func (l *Instrumented) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	return l.call(ctx, "evaluate", name, func(ctx context.Context) ([]byte, error) {
		return l.next.Evaluate(ctx, name, args...)
	})
}

func (l *Instrumented) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	return l.call(ctx, "submit", name, func(ctx context.Context) ([]byte, error) {
		return l.next.Submit(ctx, name, args...)
	})
}

func (l *Instrumented) call(ctx context.Context, kind, name string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ledger.tx", name)))
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	elapsed := time.Since(start)

	out := outcome(err)
	l.metrics.ObserveLedger(name, kind, out, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, out)
	}
	l.log.Debug("ledger call",
		zap.String("kind", kind),
		zap.String("tx", name),
		zap.String("outcome", out),
		zap.Duration("dur", elapsed),
	)
	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
