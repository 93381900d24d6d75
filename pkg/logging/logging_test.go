package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelshelf/modelshelf/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if strings.Contains(output, "debug message") {
		t.Errorf("Debug message should be filtered, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRun(ctx, "run-123")
	ctx = logging.WithEntry(ctx, "fox")
	ctx = logging.WithMessage(ctx, 42)
	ctx = logging.WithOperation(ctx, "merge")

	logging.FromContext(ctx).Info().Msg("entry updated")

	testLogger.AssertContains(t, `"run_id":"run-123"`)
	testLogger.AssertContains(t, `"entry_id":"fox"`)
	testLogger.AssertContains(t, `"message_id":42`)
	testLogger.AssertContains(t, `"operation":"merge"`)
	testLogger.AssertContains(t, "entry updated")
	assert.Equal(t, "run-123", logging.RunID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Equal(t, "", logging.RunID(context.Background()))
}

func TestWithFieldsAndError(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	ctx = logging.WithFields(ctx, map[string]any{"chat_id": int64(-1001), "dry": true})
	ctx = logging.WithError(ctx, errors.New("boom"))
	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	logging.Ctx(ctx).Warn().Msg("with fields")

	testLogger.AssertContains(t, `"chat_id":-1001`)
	testLogger.AssertContains(t, `"dry":true`)
	testLogger.AssertContains(t, `"error":"boom"`)
}

func TestNewLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		allowsError bool
		allowsInfo  bool
	}{
		{name: "debug level", level: "debug", allowsError: true, allowsInfo: true},
		{name: "error level only", level: "error", allowsError: true, allowsInfo: false},
		{name: "unknown falls back to info", level: "loud", allowsError: true, allowsInfo: true},
		{name: "warning alias", level: "warning", allowsError: true, allowsInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := zerolog.GlobalLevel()
			t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

			logger := logging.NewLoggerFromConfig(&logging.Config{
				Level:  tt.level,
				Format: "json",
				Output: "discard",
			})

			assert.Equal(t, tt.allowsInfo, logger.GetLevel() <= zerolog.InfoLevel)
			assert.Equal(t, tt.allowsError, logger.GetLevel() <= zerolog.ErrorLevel)
		})
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("path", "bot/models.json").Msg("catalog unreadable")

	captured.AssertContains(t, "catalog unreadable")
	assert.Len(t, captured.Lines(), 1)

	e, ok := captured.Find("catalog unreadable")
	require.True(t, ok)
	assert.Equal(t, "warn", e["level"])
	assert.Equal(t, "bot/models.json", e["path"])

	_, ok = captured.Find("panic")
	assert.False(t, ok)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_OUTPUT", "")
	t.Setenv("NO_COLOR", "1")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.True(t, cfg.NoColor)
}

func TestNewLoggerStampsChannelAndFields(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	out := filepath.Join(t.TempDir(), "sync.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:   "info",
		Format:  "auto",
		Output:  out,
		Channel: -1001234,
		Fields:  map[string]any{"tags": []string{"anime", "sdxl"}, "poll": 2 * time.Second},
	})
	logger.Info().Msg("Sync finished")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line), "a file is never a terminal, so auto writes JSON")
	assert.Equal(t, float64(-1001234), line["channel_id"])
	assert.Equal(t, []any{"anime", "sdxl"}, line["tags"])
	assert.Equal(t, "Sync finished", line["message"])
	assert.Contains(t, line, "poll")
}
