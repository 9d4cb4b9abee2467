package log

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level Level) (*Logger, *observer.ObservedLogs) {
	atom := zap.NewAtomicLevelAt(toZapLevel(level))
	core, logs := observer.New(atom)
	return &Logger{zapLogger: zap.New(core), zapLevel: atom}, logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelInfo},
		{" INFO ", LevelInfo},
		{"warning", LevelWarn},
		{"warn", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		if tt.in == tt.want.String() {
			assert.Equal(t, tt.in, got.String())
		}
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerFields(t *testing.T) {
	l, logs := observed(LevelDebug)
	boom := errors.New("boom")

	l.With(String("run", "r1")).Info("visit",
		Int("i", 1),
		Int32("node", 3),
		Duration("d", time.Second),
		Error(boom),
		Field{Key: "raw", Value: "opaque"},
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "visit", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "r1", fields["run"])
	assert.Equal(t, int64(1), fields["i"])
	assert.Equal(t, int32(3), fields["node"])
	assert.Equal(t, time.Second, fields["d"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "opaque", fields["raw"])
}

func TestLoggerLevels(t *testing.T) {
	l, logs := observed(LevelWarn)
	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	assert.Equal(t, 1, logs.Len())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Log(LevelDebug, "now kept")
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[1].Level)
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	assert.False(t, l.Enabled(LevelDebug))
	l.Error("ignored", Error(errors.New("x")))
	assert.NotNil(t, Provide())
}

func TestProvideConcurrentWithNew(t *testing.T) {
	var wg sync.WaitGroup
	built := make([]*Logger, 4)
	for i := range built {
		wg.Add(2)
		go func() {
			defer wg.Done()
			built[i] = New(LevelError)
		}()
		go func() {
			defer wg.Done()
			assert.NotNil(t, Provide())
		}()
	}
	wg.Wait()

	def := Provide()
	assert.Contains(t, built, def)
	assert.Same(t, def, Provide())
}
