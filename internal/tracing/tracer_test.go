package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	for _, exp := range []string{"", "none"} {
		p, err := NewProvider(context.Background(), Config{Exporter: exp})
		require.NoError(t, err)
		require.False(t, p.Enabled())
		require.NotNil(t, p.Tracer())
		require.NoError(t, p.Shutdown(context.Background()))
	}
}

func TestNewProvider_Stdout(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Exporter: "stdout", ServiceName: "test"})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "op")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Exporter: "jaeger"})
	require.Error(t, err)
}
