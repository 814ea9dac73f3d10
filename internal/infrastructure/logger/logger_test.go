package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"loud":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	} {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.log")

	log, err := New(&Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	log.Info("dropped")
	log.Warn("feed slow", zap.String("shop", "Svyaznoy"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "feed slow", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Svyaznoy", entry["shop"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNew_BadOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "shop.log")})
	assert.Error(t, err)
}

func TestNew_DefaultsToStdout(t *testing.T) {
	log, err := New(&Config{Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestFromConfig(t *testing.T) {
	t.Run("level from config", func(t *testing.T) {
		log, err := FromConfig(config.LogConfig{Level: "debug", Output: "stderr"}, "development")
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("production writes json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prod.log")
		log, err := FromConfig(config.LogConfig{Output: path}, "production")
		require.NoError(t, err)
		log.Info("started")
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(strings.TrimSpace(string(data)))))
	})
}
