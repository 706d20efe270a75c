package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go-reemesh/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reemesh.log")
	logger, err := New(config.LogConfig{Level: "debug", File: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)

	logger.Debug("mesh decoded", zap.Int("models", 2))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"mesh decoded"`)
	assert.Contains(t, string(data), `"models":2`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNewLevel(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))

	_, err = New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
