package conf

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/usecase"
)

// MaxDelayLimit is the largest MAX_DELAY_SECONDS that still fits a time.Duration
const MaxDelayLimit = math.MaxInt64 / int64(time.Second)

// Supported chat platforms
const (
	PlatformDiscord = "discord"
	PlatformFeishu  = "feishu"
)

// Config represents application configuration
type Config struct {
	// Platform selects the chat platform: discord or feishu
	Platform string

	// Discord configuration
	Discord DiscordConfig

	// Feishu configuration
	Feishu FeishuConfig

	// Expiry configuration
	Expiry ExpiryConfig

	// History configuration (optional)
	History HistoryConfig

	// API configuration (optional)
	API APIConfig

	// Messages configuration (loaded from YAML)
	Messages *MessagesConfig

	// Debug mode
	Debug bool
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// ExpiryConfig contains upload-and-expire settings
type ExpiryConfig struct {
	MaxDelaySeconds       int64
	ReactionSummary       bool
	SweepIntervalMinutes  int
	ReactionMaxAgeHours   int
	RestartBackoffSeconds int
}

// HistoryConfig contains expiry history settings
type HistoryConfig struct {
	DBPath        string // Empty disables history
	RetentionDays int
}

// APIConfig contains the local status API settings
type APIConfig struct {
	Port int // 0 disables the API
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	platform := strings.ToLower(os.Getenv("PLATFORM"))
	if platform == "" {
		platform = PlatformDiscord
	}

	maxDelay := domain.MaxDelaySeconds
	if val := os.Getenv("MAX_DELAY_SECONDS"); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			maxDelay = parsed
		}
	}

	reactionSummary := true
	if val := os.Getenv("REACTION_SUMMARY"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			reactionSummary = parsed
		}
	}

	restartBackoff := 5
	if val := os.Getenv("RESTART_BACKOFF_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			restartBackoff = parsed
		}
	}

	retentionDays := 30
	if val := os.Getenv("HISTORY_RETENTION_DAYS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			retentionDays = parsed
		}
	}

	apiPort := 0
	if val := os.Getenv("API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}

	// Load messages from YAML
	messagesConfig, _ := LoadMessagesConfig(os.Getenv("MESSAGES_CONFIG_PATH"))

	return &Config{
		Platform: platform,
		Discord: DiscordConfig{
			Token: os.Getenv("TOKEN"),
		},
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Expiry: ExpiryConfig{
			MaxDelaySeconds:       maxDelay,
			ReactionSummary:       reactionSummary,
			SweepIntervalMinutes:  60,
			ReactionMaxAgeHours:   48,
			RestartBackoffSeconds: restartBackoff,
		},
		History: HistoryConfig{
			DBPath:        os.Getenv("HISTORY_DB_PATH"),
			RetentionDays: retentionDays,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Messages: messagesConfig,
		Debug:    os.Getenv("DEBUG") == "true",
	}
}

// SweepInterval returns how often stale reaction records are swept
func (c *ExpiryConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// ReactionMaxAge returns how long a reaction record may live unconsumed
func (c *ExpiryConfig) ReactionMaxAge() time.Duration {
	return time.Duration(c.ReactionMaxAgeHours) * time.Hour
}

// RestartBackoff returns the fixed wait before reconnecting after a crash
func (c *ExpiryConfig) RestartBackoff() time.Duration {
	return time.Duration(c.RestartBackoffSeconds) * time.Second
}

// Retention returns how long history entries are kept (0 keeps them forever)
func (c *HistoryConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ToExpireConfig converts to usecase configuration
func (c *Config) ToExpireConfig() usecase.ExpireConfig {
	cfg := usecase.DefaultExpireConfig()
	cfg.MaxDelaySeconds = c.Expiry.MaxDelaySeconds
	cfg.ReactionSummary = c.Expiry.ReactionSummary
	if c.Messages != nil {
		cfg.Messages = c.Messages.ToMessageConfig()
	}
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformDiscord:
		if c.Discord.Token == "" {
			return &ConfigError{Field: "TOKEN", Message: "required"}
		}
	case PlatformFeishu:
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
		}
	default:
		return &ConfigError{Field: "PLATFORM", Message: "must be discord or feishu"}
	}

	if c.Expiry.MaxDelaySeconds <= 0 {
		return &ConfigError{Field: "MAX_DELAY_SECONDS", Message: "must be positive"}
	}
	if c.Expiry.MaxDelaySeconds > MaxDelayLimit {
		return &ConfigError{Field: "MAX_DELAY_SECONDS", Message: fmt.Sprintf("must be at most %d", MaxDelayLimit)}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "API_PORT", Message: "must be between 0 and 65535"}
	}
	if c.Expiry.RestartBackoffSeconds < 0 {
		return &ConfigError{Field: "RESTART_BACKOFF_SECONDS", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
