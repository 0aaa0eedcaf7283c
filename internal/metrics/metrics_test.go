package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLedger("RegisterAccount", "submit", "ok", 10*time.Millisecond)
	m.ObserveLedger("RegisterAccount", "submit", "ok", 20*time.Millisecond)
	m.ObserveHTTP("/loginAccount", "200", time.Millisecond)
	m.Login("ok")

	require.Equal(t, 2.0, testutil.ToFloat64(m.LedgerCalls.WithLabelValues("RegisterAccount", "submit", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/loginAccount", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("ok")))

	n, err := testutil.GatherAndCount(reg, "goods_ledger_ledger_call_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
