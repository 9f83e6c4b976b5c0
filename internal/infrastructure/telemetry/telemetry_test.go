package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/linkmarket/backend/internal/infrastructure/config"
)

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel-collector:4317",
		SamplingRatio:     0.25,
		ServiceName:       "linkmarket-api",
		Insecure:          true,
	})
	assert.Equal(t, Config{
		Enabled: true, CollectorEndpoint: "otel-collector:4317",
		SamplingRatio: 0.25, ServiceName: "linkmarket-api", Insecure: true,
	}, cfg)
}

func TestTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased{0.5}")
	assert.Equal(t, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(), samplerFor(2).Description())
}

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{ServiceName: "linkmarket"}, false, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Nil(t, lp.Core(zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&strings.Builder{}), zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, min: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
	assert.Nil(t, core.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil))

	with := core.With([]zapcore.Field{zap.String("component", "checkout")})
	assert.False(t, with.Enabled(zapcore.InfoLevel))
}

func TestProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler("", "linkmarket", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler("http://pyroscope:4040", "", zap.NewNop())
	assert.Error(t, err)
}

func TestSanitizeLabels(t *testing.T) {
	long := strings.Repeat("x", MaxLabelValueLength+10)
	pairs := sanitizeLabels(map[string]string{
		ProfilingLabelRoute:     "/api/v1/checkout/:id",
		ProfilingLabelMethod:    "POST",
		"order_id":              "7b1c",
		ProfilingLabelRole:      "",
		ProfilingLabelOperation: long,
	})
	assert.Equal(t, []string{
		ProfilingLabelMethod, "POST",
		ProfilingLabelOperation, long[:MaxLabelValueLength],
		ProfilingLabelRoute, "/api/v1/checkout/:id",
	}, pairs)
}

func TestWithProfilingLabels(t *testing.T) {
	var route string
	WithProfilingLabels(context.Background(), map[string]string{ProfilingLabelRoute: "/api/v1/cart"}, func(ctx context.Context) {
		route, _ = pprof.Label(ctx, ProfilingLabelRoute)
	})
	assert.Equal(t, "/api/v1/cart", route)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
