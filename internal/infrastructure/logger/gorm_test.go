package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

// traceForests pretends a listing query ran with the given error
func traceForests(l *GormLogger, begin time.Time, rows int64, err error) {
	l.Trace(context.Background(), begin, func() (string, int64) {
		return "SELECT * FROM forests WHERE deleted_at IS NULL", rows
	}, err)
}

func TestGormLogger_Options(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	gormLog := NewGormLogger(
		zap.New(core),
		gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	gormLog := NewGormLogger(zap.New(core), gormlogger.Info)
	lowered := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)

	loweredGorm, ok := lowered.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, loweredGorm.logLevel)
}

func TestGormLogger_LevelGates(t *testing.T) {
	t.Run("info passes at info level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

		gormLog.Info(context.Background(), "migrating %s", "forests")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "migrating forests")
	})

	t.Run("silent suppresses info", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Silent)

		gormLog.Info(context.Background(), "migrating forests")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn logs at warn level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Warn)

		gormLog.Warn(context.Background(), "%d stale connections", 3)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("query errors log as SQL Error", func(t *testing.T) {
		core, recorded := observer.New(zapcore.ErrorLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Error)

		traceForests(gormLog, time.Now(), 0, errors.New("relation does not exist"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Error", logs[0].Message)
	})

	t.Run("record-not-found stays quiet by default", func(t *testing.T) {
		core, recorded := observer.New(zapcore.ErrorLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Error)

		traceForests(gormLog, time.Now(), 0, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("queries past the threshold log as slow", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Warn,
			WithSlowThreshold(time.Nanosecond))

		traceForests(gormLog, time.Now().Add(-time.Second), 10, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("ordinary queries log at debug", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

		traceForests(gormLog, time.Now(), 5, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Query", logs[0].Message)
	})

	t.Run("silent level traces nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Silent)

		traceForests(gormLog, time.Now(), 5, nil)

		assert.Empty(t, recorded.All())
	})

	t.Run("request id from context rides along", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-77")
		gormLog.Trace(ctx, time.Now(), func() (string, int64) {
			return "SELECT * FROM customers WHERE deleted_at IS NULL", 2
		}, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)

		found := false
		for _, f := range logs[0].Context {
			if f.Key == "request_id" {
				found = true
				assert.Equal(t, "req-77", f.String)
			}
		}
		assert.True(t, found, "request_id should be in log fields")
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
