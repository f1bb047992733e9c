package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://bsky.social", cfg.Bluesky.PDSHost)
	assert.Equal(t, 72, cfg.Rank.WindowHours)
	assert.Equal(t, 100, cfg.Rank.MaxPosts)
	assert.Equal(t, 5, cfg.Rank.TopN)
	assert.Equal(t, 300*time.Second, cfg.Rank.Timeout)
	assert.Equal(t, "wss://bsky.network", cfg.Firehose.RelayHost)
	assert.Equal(t, 10*time.Second, cfg.Firehose.PrintInterval)
	assert.Equal(t, 20, cfg.Firehose.TopTags)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BLUESKY_HANDLE", "alice.bsky.social")
	t.Setenv("BLUESKY_PASSWORD", "app-password")
	t.Setenv("SKYRANK_WINDOW_HOURS", "24")
	t.Setenv("SKYRANK_MAX_POSTS", "50")
	t.Setenv("SKYRANK_TOP_N", "10")
	t.Setenv("SKYRANK_TIMEOUT_SECONDS", "60")
	t.Setenv("SKYRANK_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "alice.bsky.social", cfg.Bluesky.Handle)
	assert.Equal(t, "app-password", cfg.Bluesky.Password)
	assert.Equal(t, 24, cfg.Rank.WindowHours)
	assert.Equal(t, 50, cfg.Rank.MaxPosts)
	assert.Equal(t, 10, cfg.Rank.TopN)
	assert.Equal(t, 60*time.Second, cfg.Rank.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SKYRANK_MAX_POSTS", "not-a-number")
	t.Setenv("SKYRANK_WINDOW_HOURS", "-3")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 100, cfg.Rank.MaxPosts)
	assert.Equal(t, 72, cfg.Rank.WindowHours)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
bluesky:
  handle: bob.bsky.social
  pds_host: https://pds.example.com
rank:
  window_hours: 48
  max_posts: 200
firehose:
  relay_host: wss://relay.example.com
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "bob.bsky.social", cfg.Bluesky.Handle)
	assert.Equal(t, "https://pds.example.com", cfg.Bluesky.PDSHost)
	assert.Equal(t, 48, cfg.Rank.WindowHours)
	assert.Equal(t, 200, cfg.Rank.MaxPosts)
	assert.Equal(t, "wss://relay.example.com", cfg.Firehose.RelayHost)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Values not present in the file keep their defaults
	assert.Equal(t, 5, cfg.Rank.TopN)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rank: ["), 0600))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero max posts",
			mutate:  func(c *Config) { c.Rank.MaxPosts = 0 },
			wantErr: "max posts must be positive",
		},
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.Rank.WindowHours = -1 },
			wantErr: "window hours must be positive",
		},
		{
			name:    "zero top n",
			mutate:  func(c *Config) { c.Rank.TopN = 0 },
			wantErr: "top N must be positive",
		},
		{
			name:    "missing pds host",
			mutate:  func(c *Config) { c.Bluesky.PDSHost = "" },
			wantErr: "PDS host is required",
		},
		{
			name:    "missing relay host",
			mutate:  func(c *Config) { c.Firehose.RelayHost = "" },
			wantErr: "relay host is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAllowsMissingCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bluesky.Handle = ""
	cfg.Bluesky.Password = ""
	assert.NoError(t, cfg.Validate(), "firehose commands run without credentials")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"handle":     "carol.bsky.social",
		"hours":      12,
		"max-posts":  25,
		"top":        3,
		"timeout":    120,
		"interval":   5,
		"rate-limit": 120,
		"log-level":  "debug",
	})

	assert.Equal(t, "carol.bsky.social", cfg.Bluesky.Handle)
	assert.Equal(t, 12, cfg.Rank.WindowHours)
	assert.Equal(t, 25, cfg.Rank.MaxPosts)
	assert.Equal(t, 3, cfg.Rank.TopN)
	assert.Equal(t, 120*time.Second, cfg.Rank.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Firehose.PrintInterval)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "config.yaml")

	original := DefaultConfig()
	original.Rank.WindowHours = 36
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 36, loaded.Rank.WindowHours)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rank:\n  max_posts: 200\n  top_n: 7\n"), 0600))

	t.Setenv("SKYRANK_MAX_POSTS", "300")

	cfg, err := Load(path, map[string]interface{}{"max-posts": 400})
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Rank.MaxPosts, "flags beat env and file")
	assert.Equal(t, 7, cfg.Rank.TopN, "file beats defaults")
}
