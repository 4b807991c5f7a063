package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestWithContext_FromContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	logger := FromContext(context.Background())

	assert.NotNil(t, logger)
}

func TestWithRequestID(t *testing.T) {
	logger := zap.NewNop()
	requestID := "req-12345"

	newCtx, newLogger := WithRequestID(context.Background(), logger, requestID)

	assert.NotNil(t, newLogger)
	assert.Equal(t, requestID, GetRequestID(newCtx))
}

func TestWithUserID(t *testing.T) {
	logger := zap.NewNop()
	userID := "c21d3965-6ab4-4a57-9f54-5e9c9f5b8b43"

	newCtx, newLogger := WithUserID(context.Background(), logger, userID)

	assert.NotNil(t, newLogger)
	assert.Equal(t, userID, GetUserID(newCtx))
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetUserID_NotFound(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
}

func TestContextKeys_AreDistinct(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
	assert.NotEqual(t, RequestIDKey, UserIDKey)
}

func TestContextLogger_InjectsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	ctx := WithContext(context.Background(), logger)
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")

	L(ctx).Info("listing forests")

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestContextLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	cl := WithLogger(context.Background(), logger).With(zap.String("component", "importer"))
	cl.Warn("row skipped")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "importer", entries[0].ContextMap()["component"])
}
