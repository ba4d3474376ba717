package logger

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"Info\n":  zapcore.InfoLevel,
		"DEBUG  ": zapcore.DebugLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestLevelForVerbosity checks that any -v enables debug output.
func TestLevelForVerbosity(t *testing.T) {
	t.Parallel()

	require.Equal(t, zapcore.WarnLevel, LevelForVerbosity(0))
	require.Equal(t, zapcore.DebugLevel, LevelForVerbosity(1))
	require.Equal(t, zapcore.DebugLevel, LevelForVerbosity(3))
}

// TestNewWithSinks_TimestampedLines ensures progress lines start with a [hh:mm:ss] stamp.
func TestNewWithSinks_TimestampedLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := NewWithSinks(zapcore.DebugLevel, []zapcore.WriteSyncer{zapcore.AddSync(&buf)})
	ctx := ToContext(context.Background(), l)

	Debugf(ctx, "Initializing update package installation: %s", "pkg.update")

	require.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] DEBUG Initializing update package installation: pkg.update`), buf.String())
}

// TestFromContext_FallsBackToGlobal verifies that a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	var buf bytes.Buffer

	l := NewWithSinks(zapcore.InfoLevel, []zapcore.WriteSyncer{zapcore.AddSync(&buf)})
	ctx := WithName(ToContext(context.Background(), l), "deploy")

	Info(ctx, "hello")
	require.Contains(t, buf.String(), "deploy")
	require.Contains(t, buf.String(), "hello")
}

// TestNewOperator_MessageOnly prints progress lines without level, name or fields.
func TestNewOperator_MessageOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := WithName(ToContext(context.Background(), NewOperator(zapcore.DebugLevel, &buf)), "deploy")
	ctx = WithKV(ctx, "request_id", "42")

	Debugf(ctx, "Initializing update package installation: %s", "pkg.update")
	DebugKV(ctx, "Sitecore connector deployed successfully.", "library", "bin/installer-service")

	lines := regexp.MustCompile(`\n`).Split(buf.String(), -1)
	require.Len(t, lines, 3)
	require.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] Initializing update package installation: pkg.update$`, lines[0])
	require.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] Sitecore connector deployed successfully\.$`, lines[1])
	require.Empty(t, lines[2])
}

// TestNewOperator_Level filters progress lines below the level.
func TestNewOperator_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := ToContext(context.Background(), NewOperator(zapcore.WarnLevel, &buf))

	Debug(ctx, "progress")
	Warnf(ctx, "Failed to remove Sitecore connector: %s", "access denied")

	require.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] Failed to remove Sitecore connector: access denied\n$`, buf.String())
}
