package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from configured names to zap levels.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got, s)
	}

	_, ok := ParseLogLevel("verbose")
	require.False(t, ok)
}

// TestContextLogger checks that names and key-values travel with the context.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "room-orchestrator")
	ctx = WithKV(ctx, "room_id", "B-204")

	InfoKV(ctx, "Room prepared", "booking_id", "42")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "room-orchestrator", entries[0].LoggerName)
	require.Equal(t, "Room prepared", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "B-204", fields["room_id"])
	require.Equal(t, "42", fields["booking_id"])
}

// TestFromContext_FallsBackToGlobal ensures a bare context still logs.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
