package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/motherdb/pkg/logging"
)

func TestFromEnv(t *testing.T) {
	t.Run("prefixed names win", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "error")
		t.Setenv("MOTHERDB_LOG_LEVEL", "debug")
		t.Setenv("MOTHERDB_LOG_FORMAT", "json")
		t.Setenv("LOG_OUTPUT", "stdout")

		cfg := logging.FromEnv()
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, logging.FormatJSON, cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
	})

	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"MOTHERDB_LOG_LEVEL", "LOG_LEVEL", "MOTHERDB_LOG_FORMAT", "LOG_FORMAT", "MOTHERDB_LOG_OUTPUT", "LOG_OUTPUT"} {
			t.Setenv(k, "")
		}
		cfg := logging.FromEnv()
		assert.Empty(t, cfg.Level, "no explicit level")
		assert.Equal(t, logging.FormatAuto, cfg.Format)
		assert.Equal(t, "stderr", cfg.Output)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	path := filepath.Join(t.TempDir(), "motherdb.log")
	logger := logging.NewLogger(logging.Config{Level: "warn", Format: logging.FormatAuto, Output: path})

	logger.Info().Msg("dropped")
	logger.Warn().Str("equipment_type", "etch-300").Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "etch-300", line["equipment_type"])
	assert.Equal(t, "warn", line["level"])
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := logging.WithLogger(context.Background(), &base)
	ctx = logging.WithRequestID(ctx, "req-7")
	ctx = logging.WithEquipmentType(ctx, "cvd-200")
	logging.FromContext(ctx).Info().Msg("setup")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-7", line["request_id"])
	assert.Equal(t, "cvd-200", line["equipment_type"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.FromContext(nil)) //nolint:staticcheck // nil context is handled
	ctx := logging.WithLogger(context.Background(), nil)
	assert.Same(t, logging.Default(), logging.FromContext(ctx))
}

func TestDisableLoggingForTest(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	var buf bytes.Buffer
	logging.SetDefault(zerolog.New(&buf))

	t.Run("silenced", func(t *testing.T) {
		logging.DisableLoggingForTest(t)
		logging.Default().Info().Msg("hidden")
	})
	assert.Empty(t, buf.String())

	logging.Default().Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible", "logger restored after the subtest")
}
