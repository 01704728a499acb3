package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	req := require.New(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	req.NoError(err)

	req.Equal("0.0.0.0:8000", cfg.Server.Addr)
	req.Equal("debug", cfg.Server.Mode)
	req.Equal(DefaultPrompt, cfg.Detection.Prompt)
	req.InDelta(0.30, cfg.Detection.BoxThreshold, 1e-9)
	req.InDelta(0.20, cfg.Detection.TextThreshold, 1e-9)
	req.Equal(int64(DefaultBotID), cfg.Relay.BotID)
	req.Equal(10*time.Second, cfg.Relay.Timeout)
	req.True(cfg.Relay.Enabled)
	req.Equal(1, cfg.Model.PoolSize)
	req.Equal("file", cfg.Upload.Field)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `
server:
  addr: ":9090"
  mode: release
detection:
  box_threshold: 0.35
relay:
  endpoint: "https://ingest.example.com/classification/"
  bot_id: 7
  timeout: 3s
`)

	cfg, err := Load(path)
	req.NoError(err)

	req.Equal(":9090", cfg.Server.Addr)
	req.Equal("release", cfg.Server.Mode)
	req.InDelta(0.35, cfg.Detection.BoxThreshold, 1e-9)
	req.InDelta(DefaultTextThreshold, cfg.Detection.TextThreshold, 1e-9)
	req.Equal("https://ingest.example.com/classification/", cfg.Relay.Endpoint)
	req.Equal(int64(7), cfg.Relay.BotID)
	req.Equal(3*time.Second, cfg.Relay.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "relay:\n  bot_id: 7\n")
	t.Setenv("GROCERY_RELAY_BOT_ID", "99")
	t.Setenv("GROCERY_MODEL_POOL_SIZE", "2")

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal(int64(99), cfg.Relay.BotID)
	req.Equal(2, cfg.Model.PoolSize)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		description string
		body        string
	}{
		{"Should reject a box threshold above 1", "detection:\n  box_threshold: 1.5\n"},
		{"Should reject a negative text threshold", "detection:\n  text_threshold: -0.1\n"},
		{"Should reject a relay endpoint that is not a URL", "relay:\n  endpoint: not-a-url\n"},
		{"Should reject an unknown server mode", "server:\n  mode: verbose\n"},
		{"Should reject an empty pool", "model:\n  pool_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	require.Error(t, err)
}
