package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))

	unchanged := ContextWithLogger(context.Background(), nil)
	assert.Nil(t, FromContext(unchanged))
}

func TestNew(t *testing.T) {
	t.Run("production emits json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("production", "info", &buf)
		logger.Info("booted", "port", 8080)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "booted", record["msg"])
		assert.EqualValues(t, 8080, record["port"])
	})

	t.Run("development emits text and honours level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New("development", "warn", &buf)
		logger.Info("hidden")
		logger.Warn("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=shown")
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

func TestScoped(t *testing.T) {
	var base, scoped bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&base, nil))
	request := slog.New(slog.NewJSONHandler(&scoped, nil))

	Scoped(context.Background(), fallback, "service", "RoomService", "CreateRoom", "room_id", 3).Info("created")
	var record map[string]any
	require.NoError(t, json.Unmarshal(base.Bytes(), &record))
	assert.Equal(t, "RoomService", record["service"])
	assert.Equal(t, "CreateRoom", record["operation"])
	assert.EqualValues(t, 3, record["room_id"])

	ctx := ContextWithLogger(context.Background(), request)
	Scoped(ctx, fallback, "handler", "BookingHandler", "").Info("listed")
	record = nil
	require.NoError(t, json.Unmarshal(scoped.Bytes(), &record))
	assert.Equal(t, "BookingHandler", record["handler"])
	assert.NotContains(t, record, "operation")

	assert.Same(t, slog.Default(), OrDefault(nil))
}
