package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New("", "debug")
	require.NoError(t, err)
	assert.IsType(t, &slogLogger{}, log)

	log, err = New("zap", "warn")
	require.NoError(t, err)
	assert.IsType(t, &zapLogger{}, log)

	_, err = New("logrus", "info")
	assert.Error(t, err)

	_, err = New("zap", "loud")
	assert.Error(t, err)
}

func TestParseSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseSlogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseSlogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseSlogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseSlogLevel(""))
}
