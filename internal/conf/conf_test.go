package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabot/peekabot/internal/biz/usecase"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("TOKEN", "secret")
	t.Setenv("PLATFORM", "")
	t.Setenv("MAX_DELAY_SECONDS", "")
	t.Setenv("REACTION_SUMMARY", "")
	t.Setenv("RESTART_BACKOFF_SECONDS", "")
	t.Setenv("HISTORY_DB_PATH", "")
	t.Setenv("API_PORT", "")
	t.Setenv("MESSAGES_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadFromEnv()

	require.Equal(t, PlatformDiscord, cfg.Platform)
	require.Equal(t, "secret", cfg.Discord.Token)
	require.Equal(t, int64(86400), cfg.Expiry.MaxDelaySeconds)
	require.True(t, cfg.Expiry.ReactionSummary)
	require.Equal(t, time.Hour, cfg.Expiry.SweepInterval())
	require.Equal(t, 48*time.Hour, cfg.Expiry.ReactionMaxAge())
	require.Equal(t, 5*time.Second, cfg.Expiry.RestartBackoff())
	require.Empty(t, cfg.History.DBPath)
	require.Equal(t, 30*24*time.Hour, cfg.History.Retention())
	require.Zero(t, cfg.API.Port)
	require.NoError(t, cfg.Validate())

	expireCfg := cfg.ToExpireConfig()
	require.Equal(t, usecase.DefaultMessageConfig, expireCfg.Messages)
	require.Equal(t, 10*time.Second, expireCfg.LivenessDelay)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PLATFORM", "Feishu")
	t.Setenv("FEISHU_APP_ID", "cli_a")
	t.Setenv("FEISHU_APP_SECRET", "s")
	t.Setenv("REACTION_SUMMARY", "false")
	t.Setenv("MAX_DELAY_SECONDS", "3600")
	t.Setenv("RESTART_BACKOFF_SECONDS", "not-a-number")
	t.Setenv("API_PORT", "9876")
	t.Setenv("MESSAGES_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadFromEnv()

	require.Equal(t, PlatformFeishu, cfg.Platform)
	require.False(t, cfg.Expiry.ReactionSummary)
	require.Equal(t, int64(3600), cfg.Expiry.MaxDelaySeconds)
	require.Equal(t, 5, cfg.Expiry.RestartBackoffSeconds)
	require.Equal(t, 9876, cfg.API.Port)
	require.NoError(t, cfg.Validate())

	expireCfg := cfg.ToExpireConfig()
	require.False(t, expireCfg.ReactionSummary)
	require.Equal(t, int64(3600), expireCfg.MaxDelaySeconds)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Platform: PlatformDiscord, Expiry: ExpiryConfig{MaxDelaySeconds: 1}}
	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "TOKEN", cfgErr.Field)

	cfg.Platform = "slack"
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, "PLATFORM", cfgErr.Field)

	cfg.Platform = PlatformFeishu
	cfg.Feishu.AppID = "id"
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, "FEISHU_APP_ID/FEISHU_APP_SECRET: required", cfgErr.Error())

	cfg.Feishu.AppSecret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.API.Port = 70000
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, "API_PORT", cfgErr.Field)
	cfg.API.Port = 0

	cfg.Expiry.MaxDelaySeconds = 0
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, "MAX_DELAY_SECONDS", cfgErr.Field)

	cfg.Expiry.MaxDelaySeconds = MaxDelayLimit
	require.NoError(t, cfg.Validate())
	require.Positive(t, time.Duration(cfg.Expiry.MaxDelaySeconds)*time.Second)

	cfg.Expiry.MaxDelaySeconds = MaxDelayLimit + 1
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, "MAX_DELAY_SECONDS", cfgErr.Field)
}

func TestLoadMessagesConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	content := `
errors:
  delay_too_long: "Nope, 24 hours max."
announcement:
  no_name: "Gone after %s."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadMessagesConfig(path)
	require.NoError(t, err)

	msgs := cfg.ToMessageConfig()
	require.Equal(t, "Nope, 24 hours max.", msgs.DelayTooLong)
	require.Equal(t, "Gone after %s.", msgs.AnnounceNoName)
	require.Equal(t, usecase.DefaultMessageConfig.AnnounceWithName, msgs.AnnounceWithName)
	require.Equal(t, usecase.DefaultMessageConfig.Help, msgs.Help)
}

func TestLoadMessagesConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("errors: [unclosed"), 0644))

	cfg, err := LoadMessagesConfig(path)
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, usecase.DefaultMessageConfig, cfg.ToMessageConfig())
}

func TestLoadMessagesConfig_RepoFile(t *testing.T) {
	cfg, err := LoadMessagesConfig(filepath.Join("..", "..", "configs", "messages.yaml"))
	require.NoError(t, err)
	require.Equal(t, usecase.DefaultMessageConfig, cfg.ToMessageConfig())
}

func TestDefaultMessagesConfig_RoundTrip(t *testing.T) {
	require.Equal(t, usecase.DefaultMessageConfig, DefaultMessagesConfig().ToMessageConfig())
}
