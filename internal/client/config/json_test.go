package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/flagx"
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
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"api_url":         "https://www.example/api",
		"request_timeout": "10s",
		"opening_balance": 1200,
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"download_dir": "from-env-file",
	})

	t.Run("loads from flags", func(t *testing.T) {
		setArgs(t, "-config", pathFlag)

		cfg := &Config{DBPath: "keep.db"}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "https://www.example/api", cfg.APIURL)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "1200", cfg.OpeningBalance.String())
		assert.Equal(t, "keep.db", cfg.DBPath)
	})

	t.Run("loads from CASHTRACK_CONFIG", func(t *testing.T) {
		setArgs(t)
		t.Setenv(flagx.ConfigEnvVar, pathEnv)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "from-env-file", cfg.DownloadDir)
	})

	t.Run("no path → no changes", func(t *testing.T) {
		setArgs(t)
		t.Setenv(flagx.ConfigEnvVar, "")

		cfg := &Config{APIURL: "defaults", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults", cfg.APIURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		setArgs(t, "-config", bad)

		require.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		setArgs(t, "-c", filepath.Join(dir, "absent.json"))
		require.Error(t, parseJson(&Config{}))
	})
}
