package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"mode":               "production",
		"http_addr":          "www.example:9000",
		"database_dsn":       "postgres://db",
		"session_secrets":    []string{"new", "old"},
		"csrf_secret":        "csrf",
		"honeypot_secret":    "honey",
		"verify_secret":      "verify",
		"session_ttl":        "48h",
		"verify_ttl":         "5m",
		"honeypot_min_delay": "2s",
		"bcrypt_cost":        12,
		"hash_concurrency":   2,
		"secure_cookies":     true,
		"reaper_schedule":    "@daily",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "production", cfg.Mode)
		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, []string{"new", "old"}, cfg.SessionSecrets)
		assert.Equal(t, "csrf", cfg.CSRFSecret)
		assert.Equal(t, "honey", cfg.HoneypotSecret)
		assert.Equal(t, "verify", cfg.VerifySecret)
		assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 5*time.Minute, cfg.VerifyTTL)
		assert.Equal(t, 2*time.Second, cfg.HoneypotMinDelay)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 2, cfg.HashConcurrency)
		assert.True(t, cfg.SecureCookies)
		assert.Equal(t, "@daily", cfg.ReaperSchedule)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		want := *cfg
		parseJson(cfg)

		assert.Equal(t, want, *cfg)
	})

	t.Run("partial file only overrides present keys", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"http_addr": ":9999"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":9999", cfg.HTTPAddr)
		assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
		assert.Equal(t, []string{"dev-session-secret"}, cfg.SessionSecrets)
	})
}

func Test_parseJson_Panics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("malformed json", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))
		os.Args = []string{"testbin", "-c", p}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
