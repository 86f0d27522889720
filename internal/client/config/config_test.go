package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, BackendFile, c.CacheBackend)
	assert.Equal(t, -1, c.UserID)
	assert.Equal(t, 30*time.Second, c.SyncInterval)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	want := defaults()
	if diff := cmp.Diff(&want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_endpoint_addr": "json:9000",
		"data_root":            "/from/json",
		"cache_backend":        "sqlite",
		"sync_interval":        "1m",
		"request_timeout":      5e9,
		"user_id":              3,
	})
	t.Setenv("STATSYNC_DATA_ROOT", "/from/env")
	t.Setenv("STATSYNC_USER_ID", "4")
	t.Setenv("STATSYNC_LOG_LEVEL", "debug")

	cfg, err := LoadConfig([]string{"sync", "--watch", "-c", path, "-u", "5"})
	require.NoError(t, err)

	want := defaults()
	want.ServerEndpointAddr = "json:9000"
	want.DataRoot = "/from/env"
	want.CacheBackend = BackendSQLite
	want.SyncInterval = time.Minute
	want.RequestTimeout = 5 * time.Second
	want.UserID = 5
	want.LogLevel = "debug"

	if diff := cmp.Diff(&want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(*Config)
		wantErr bool
	}{
		{
			name: "short forms",
			args: []string{"-a", "127.0.0.1:9090", "-i", "10", "-b", "sqlite"},
			want: func(c *Config) {
				c.ServerEndpointAddr = "127.0.0.1:9090"
				c.SyncInterval = 10 * time.Second
				c.CacheBackend = BackendSQLite
			},
		},
		{
			name: "long forms between subcommand words",
			args: []string{"put", "--server=remote:1", "stats", "--token", "tok", "--log-file", "/tmp/s.log"},
			want: func(c *Config) {
				c.ServerEndpointAddr = "remote:1"
				c.AccessToken = "tok"
				c.LogFile = "/tmp/s.log"
			},
		},
		{
			name: "interval untouched without flag",
			args: []string{"status"},
			want: func(*Config) {},
		},
		{name: "bad interval", args: []string{"-i", "abc"}, wantErr: true},
		{name: "bad user", args: []string{"--user=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(&cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.want(&want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("partial file keeps other values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"log_format": "json"})
		cfg := defaults()
		require.NoError(t, parseJSON(&cfg, []string{"-config", path}))

		want := defaults()
		want.LogFormat = "json"
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no flag means no changes", func(t *testing.T) {
		cfg := Config{ServerEndpointAddr: "defaults:1234"}
		require.NoError(t, parseJSON(&cfg, []string{"status"}))
		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := defaults()
		assert.Error(t, parseJSON(&cfg, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := defaults()
		assert.Error(t, parseJSON(&cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}

func TestValidate(t *testing.T) {
	c := defaults()
	c.CacheBackend = "redis"
	assert.ErrorContains(t, c.Validate(), "redis")

	c = defaults()
	c.SyncInterval = 0
	assert.Error(t, c.Validate())

	_, err := LoadConfig([]string{"-b", "bolt"})
	assert.Error(t, err)
}
