package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	t.Run("returns nop logger when absent", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotNil(t, l)
	})

	t.Run("returns stored logger", func(t *testing.T) {
		base := zap.NewExample()
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})
}

func TestWithRequestUserAndRole(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, _ := WithRequestID(context.Background(), base, "req-1")
	ctx, _ = WithUserID(ctx, FromContext(ctx), "user-1")
	ctx, l := WithRole(ctx, FromContext(ctx), "publisher")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "publisher", GetRole(ctx))

	l.Info("hello")
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "publisher", fields["role"])
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetRole(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	spanID, _ := trace.SpanIDFromHex("b7ad6b7169203331")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	t.Run("adds trace fields for a valid span", func(t *testing.T) {
		ctx := spanContext(t)
		assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", GetTraceID(ctx))

		WithTraceContext(ctx, base).Info("traced")
		fields := fieldMap(recorded.TakeAll()[0])
		assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", fields["trace_id"])
		assert.Equal(t, "b7ad6b7169203331", fields["span_id"])
	})

	t.Run("leaves logger unchanged without span", func(t *testing.T) {
		assert.Same(t, base, WithTraceContext(context.Background(), base))
	})
}

func TestContextLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := WithContext(spanContext(t), base)
	ctx, _ = WithUserID(ctx, base, "buyer-7")

	L(ctx).With(zap.String("order_number", "LM-2026-00001")).Info("order paid")
	L(ctx).Debug("d")
	L(ctx).Warn("w")
	L(ctx).Error("e")

	entries := recorded.All()
	assert.Len(t, entries, 4)
	fields := fieldMap(entries[0])
	assert.Equal(t, "buyer-7", fields["user_id"])
	assert.Equal(t, "LM-2026-00001", fields["order_number"])
	assert.NotEmpty(t, fields["trace_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestWithLogger_FallsBack(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)

	WithLogger(context.Background(), fallback).Info("background job")
	assert.Equal(t, 1, recorded.Len())
	assert.NotNil(t, WithLogger(context.Background(), fallback).Zap())
}
