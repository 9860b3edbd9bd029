package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workdesk/internal/config"
)

func TestSetupTracing_DisabledIsNoop(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Monitoring.Tracing.Enabled = false

	shutdown, err := SetupTracing(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_EnabledInsecure(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Monitoring.Tracing.Enabled = true
	cfg.Monitoring.Tracing.Insecure = true
	cfg.Monitoring.Tracing.Endpoint = "http://127.0.0.1:4317"

	// the grpc exporter dials lazily, so setup succeeds without a collector
	shutdown, err := SetupTracing(context.Background(), cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestEndpointHost(t *testing.T) {
	tests := map[string]string{
		"http://localhost:4317":         "localhost:4317",
		"https://otel-collector:4317":   "otel-collector:4317",
		"127.0.0.1:4317":                "127.0.0.1:4317",
		"":                              "",
		"http://":                       "http://",
		"https://example.com:4317/path": "example.com:4317/path",
	}
	for in, want := range tests {
		assert.Equal(t, want, endpointHost(in), in)
	}
}

func TestSampleRatioAndServiceName(t *testing.T) {
	assert.Equal(t, 0.1, sampleRatio(-1))
	assert.Equal(t, 0.1, sampleRatio(0))
	assert.Equal(t, 0.1, sampleRatio(1.5))
	assert.Equal(t, 0.25, sampleRatio(0.25))

	cfg := config.GetDefaultConfig()
	cfg.Monitoring.Tracing.ServiceName = " "
	assert.Equal(t, "workdesk", ServiceName(cfg))
	cfg.Monitoring.Tracing.ServiceName = "desk-api"
	assert.Equal(t, "desk-api", ServiceName(cfg))
}
