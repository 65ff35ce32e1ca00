package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	original, originalOutput := Logger, output
	t.Cleanup(func() {
		Logger, output = original, originalOutput
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warn":    log.WarnLevel,
		"error":   log.ErrorLevel,
		"fatal":   log.FatalLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestConfigure_FlagOverridesEnv(t *testing.T) {
	restoreLogger(t)
	t.Setenv("HAMMER_LOG_LEVEL", "error")

	require.NoError(t, Configure("debug", ""))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	require.NoError(t, Configure("", ""))
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())
}

func TestConfigure_LogFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "hammer.log")

	require.NoError(t, Configure("info", path))
	Info("campaign started", "name", "hammer.1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "campaign started")
	assert.Contains(t, string(data), "hammer.1")
}

func TestNewStyledLogger_FollowsGlobal(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	Logger.SetLevel(log.WarnLevel)

	l := NewStyledLogger("Scheduler")
	assert.Equal(t, log.WarnLevel, l.GetLevel())

	l.Info("hidden")
	l.Warn("generation timed out", "generation", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Scheduler")
	assert.Contains(t, buf.String(), "generation timed out")
}
