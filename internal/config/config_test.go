package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "https://api.notion.com", cfg.NotionBaseURL)
	assert.Equal(t, "2022-02-22", cfg.NotionVersion)
	assert.Equal(t, "4f6a9d57-b8d0-4635-852a-9a49de2e7ad5", cfg.IntegrationID)
	assert.Equal(t, 10, cfg.SearchPageLimit)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDelay)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NOTION_TOKEN", "secret_abc")
	t.Setenv("SEARCH_PAGE_LIMIT", "3")
	t.Setenv("SEARCH_DELAY_MS", "0")
	t.Setenv("JWT_SECRET", "hmac-secret")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret_abc", cfg.NotionToken)
	assert.Equal(t, 3, cfg.SearchPageLimit)
	assert.Zero(t, cfg.SearchDelay)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NOTION_VERSION=2022-06-28\n"), 0o600))
	chdir(t, dir)
	// godotenv sets variables for the whole process.
	t.Cleanup(func() { os.Unsetenv("NOTION_VERSION") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "integration id", key: "INTEGRATION_ID", value: "not-a-uuid"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "page limit", key: "SEARCH_PAGE_LIMIT", value: "0"},
		{name: "notion url", key: "NOTION_BASE_URL", value: "api.notion"},
		{name: "delay", key: "SEARCH_DELAY_MS", value: "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
