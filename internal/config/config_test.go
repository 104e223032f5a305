package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)

	assert.Equal(t, 75.0, cfg.Billing.Rate)
	assert.Equal(t, 15, cfg.Billing.DueDays)
	assert.Equal(t, 30, cfg.Remote.TimeoutSeconds)
}

func TestLoadFile_Values(t *testing.T) {
	path := writeConfig(t, `
[remote]
base_url = "https://example.test"
site_id = "12"
data_page_id = "34"
team_id = "7"
csrf_token = "abc"

[billing]
rate = 90.5
issued_to = ["Customer Name", "123 Avenue Pkwy"]
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test", cfg.Remote.BaseURL)
	assert.Equal(t, 90.5, cfg.Billing.Rate)
	assert.Equal(t, 15, cfg.Billing.DueDays, "unset keys keep their default")
	assert.Equal(t, []string{"Customer Name", "123 Avenue Pkwy"}, cfg.Billing.IssuedTo)
	assert.NoError(t, cfg.Validate())

	opts := cfg.RemoteOptions()
	assert.Equal(t, 30*time.Second, opts.Timeout)
	token, err := opts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	inv := cfg.InvoiceOptions()
	assert.Equal(t, "90.5", inv.Rate.String())
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[remote\nbase_url ="))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOURLY_BASE_URL", "https://env.test")
	t.Setenv("HOURLY_CSRF_TOKEN", "from-env")
	t.Setenv("HOURLY_SOURCE_PAGE_ID", "88")
	t.Setenv("HOURLY_CSRF_TOKEN_FILE", "/run/hourly/token")

	cfg, err := LoadFile(writeConfig(t, "[remote]\nbase_url = \"https://file.test\"\nsource_page_id = \"1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.test", cfg.Remote.BaseURL)
	assert.Equal(t, "from-env", cfg.Remote.CSRFToken)
	assert.Equal(t, "88", cfg.Remote.SourcePageID)
	assert.Equal(t, "/run/hourly/token", cfg.Remote.CSRFTokenFile)
}

func TestValidate_Missing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote.base_url")
	assert.Contains(t, err.Error(), "remote.site_id")
}

func TestTokenFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("rotated\n"), 0600))

	cfg := DefaultConfig()
	cfg.Remote.CSRFTokenFile = tokenPath

	token, err := cfg.RemoteOptions().Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", token)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Billing.Rate)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOURLY_CONFIG_DIR", dir)
	t.Cleanup(func() { os.Unsetenv("HOURLY_TEAM_ID") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HOURLY_TEAM_ID=42\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[remote]\nteam_id = \"1\"\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "42", cfg.Remote.TeamID)
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv("HOURLY_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Billing.Rate)
}
