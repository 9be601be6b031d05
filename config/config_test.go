package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 5005, cfg.Port)
	assert.Equal(t, ":5005", cfg.Addr())
	assert.Equal(t, "app_data.db", cfg.DBPath)
	assert.Equal(t, 12*time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Second, cfg.AssistantTimeout)
	assert.Empty(t, cfg.HFAPIKey)
	assert.False(t, cfg.WebSearchEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/tmp/clinical.db")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "0")
	t.Setenv("HUGGINGFACE_API_KEY", "  hf_abc  ")
	t.Setenv("WEB_SEARCH_ENABLED", "true")
	t.Setenv("ASSISTANT_TIMEOUT", "5s")
	t.Setenv("ACCESS_TOKEN_DURATION", "720")
	t.Setenv("VAULT_SESSION_TTL", "90")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, 90*time.Minute, cfg.VaultSessionTTL)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/clinical.db", cfg.DBPath)
	assert.Equal(t, 0, cfg.MaxLoginAttempts)
	assert.Equal(t, "hf_abc", cfg.HFAPIKey)
	assert.True(t, cfg.WebSearchEnabled)
	assert.Equal(t, 5*time.Second, cfg.AssistantTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")
	path := filepath.Join(t.TempDir(), "clinicalai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: production\nport: 9000\nlog_file: /tmp/logs.txt\nsendgrid_api_key: SG.key\naccess_token_duration: 30\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/tmp/logs.txt", cfg.LogFile)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenDuration)
}

func TestLoad_DurationStrings(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("ACCESS_TOKEN_DURATION", "2h")
	t.Setenv("VAULT_SESSION_TTL", "45m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, 45*time.Minute, cfg.VaultSessionTTL)

	t.Setenv("ACCESS_TOKEN_DURATION", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresMailKey(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("ENV", "production")
	t.Setenv("SENDGRID_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SendgridAPIKey")

	t.Setenv("SENDGRID_API_KEY", "SG.key")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecretKey")
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")
	t.Setenv("ENV", "staging")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
