package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5000, cfg.Apollo.TimeoutMs)
	assert.Equal(t, 3, cfg.Apollo.MaxAttempts)
	assert.Equal(t, 200, cfg.Apollo.BackoffMs)
	assert.Equal(t, "/tna-api-v2/apollo", cfg.Apollo.PathPrefix)
	assert.Equal(t, 60000, cfg.Security.SignatureSkewMs)
	assert.Empty(t, cfg.Apollo.Token)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.MockAllowed())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ESIM_APOLLO_TIMEOUT_MS", "10000")
	t.Setenv("ESIM_SECURITY_INTERNAL_TOKEN", "internal")
	t.Setenv("ESIM_MOCK_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Apollo.TimeoutMs)
	assert.Equal(t, "internal", cfg.Security.InternalToken)
	assert.True(t, cfg.MockAllowed())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("APOLLO_API_TOKEN", "secret-token")
	t.Setenv("ALLOWED_PRODUCT_CODES", " PRD1, PRD2 ,,")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Apollo.Token)
	assert.Equal(t, []string{"PRD1", "PRD2"}, cfg.Security.AllowedCodeList())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.MockAllowed())
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("APOLLO_API_TOKEN", "legacy")
	t.Setenv("ESIM_APOLLO_TOKEN", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Apollo.Token)
}

func TestLoad_MergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\napollo:\n  base_url: \"http://localhost:1234\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:1234", cfg.Apollo.BaseURL)
	assert.Equal(t, 5000, cfg.Apollo.TimeoutMs)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , ,"))
	assert.Equal(t, []string{"A", "B"}, SplitList("A,B"))
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("ESIM_APOLLO_TIMEOUT_MS", "0")
	t.Setenv("ESIM_APP_ENV", "staging")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apollo.timeout_ms")
	assert.Contains(t, err.Error(), "app.env")
}

func TestLoad_NormalizesEnvCase(t *testing.T) {
	t.Setenv("APP_ENV", " Development ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.True(t, cfg.MockAllowed())
}

func TestValidate_BaseURL(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Apollo.BaseURL = "not a url"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apollo.base_url: failed url")
}

func TestLoad_MissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config "+path)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("security:\n  signing_secret: [unterminated\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config "+path)
}
