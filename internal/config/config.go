package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken string       `yaml:"discord_token"`
	StoreDriver  string       `yaml:"store_driver"`
	StorePath    string       `yaml:"store_path"`
	LogLevel     string       `yaml:"log_level"`
	Health       HealthConfig `yaml:"health"`
	Moderation   Moderation   `yaml:"moderation"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Moderation is the value object the decision engine consumes. Components
// read a whole snapshot per inbound event; hot reloads swap the snapshot
// through the Watcher.
type Moderation struct {
	Filters    Filters     `yaml:"filters"`
	Spam       SpamLimits  `yaml:"spam"`
	Escalation Escalation  `yaml:"escalation"`
	Alerts     Alerts      `yaml:"alerts"`
	DM         DMTemplates `yaml:"dm"`
	Bypass     Bypass      `yaml:"bypass"`
}

type Filters struct {
	BlockLinks     bool     `yaml:"block_links"`
	BlockInvites   bool     `yaml:"block_invites"`
	BlockMedia     bool     `yaml:"block_media"`
	ProfanityWords []string `yaml:"profanity_words"`
	Keywords       []string `yaml:"keywords"`
}

type SpamLimits struct {
	Enabled           bool `yaml:"enabled"`
	WindowMs          int  `yaml:"window_ms"`
	Messages          int  `yaml:"messages"`
	Mentions          int  `yaml:"mentions"`
	Links             int  `yaml:"links"`
	Emojis            int  `yaml:"emojis"`
	Attachments       int  `yaml:"attachments"`
	MessagesPerMinute int  `yaml:"messages_per_minute"`
}

const (
	DefaultSpamWindowMs = 10000
	MinSpamWindowMs     = 3000
)

// Window returns the multi-signal window clamped to the minimum.
func (s SpamLimits) Window() int {
	if s.WindowMs <= 0 {
		return DefaultSpamWindowMs
	}
	if s.WindowMs < MinSpamWindowMs {
		return MinSpamWindowMs
	}
	return s.WindowMs
}

type Escalation struct {
	WarnThreshold      int `yaml:"warn_threshold"`
	TimeoutThreshold   int `yaml:"timeout_threshold"`
	BanThreshold       int `yaml:"ban_threshold"`
	AutoTimeoutMinutes int `yaml:"auto_timeout_minutes"`
}

type Alerts struct {
	ChannelID string `yaml:"channel_id"`
}

type DMTemplates struct {
	Warn    string `yaml:"warn"`
	Timeout string `yaml:"timeout"`
	Kick    string `yaml:"kick"`
	Ban     string `yaml:"ban"`
}

type Bypass struct {
	Users    []string `yaml:"users"`
	Roles    []string `yaml:"roles"`
	Channels []string `yaml:"channels"`
}

func DefaultConfig() Config {
	return Config{
		StoreDriver: "sqlite",
		StorePath:   "/data/warden.db",
		LogLevel:    "info",
		Health:      HealthConfig{Enabled: false, Addr: ":8080"},
		Moderation: Moderation{
			Filters: Filters{
				BlockLinks:   false,
				BlockInvites: true,
				BlockMedia:   false,
			},
			Spam: SpamLimits{
				Enabled:           true,
				WindowMs:          DefaultSpamWindowMs,
				Messages:          6,
				Mentions:          8,
				Links:             4,
				Emojis:            12,
				Attachments:       5,
				MessagesPerMinute: 10,
			},
			Escalation: Escalation{
				WarnThreshold:      3,
				TimeoutThreshold:   2,
				BanThreshold:       6,
				AutoTimeoutMinutes: 10,
			},
			DM: DMTemplates{
				Warn:    "You received a warning: {reason}",
				Timeout: "You were timed out for {duration} minutes: {reason}",
				Kick:    "You were kicked: {reason}",
				Ban:     "You were banned: {reason}",
			},
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	cfg.StoreDriver = normalizeDriver(cfg.StoreDriver)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.StoreDriver = envString("STORE_DRIVER", cfg.StoreDriver)
	cfg.StorePath = envString("STORE_PATH", cfg.StorePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Moderation.Alerts.ChannelID = envString("ALERT_CHANNEL_ID", cfg.Moderation.Alerts.ChannelID)
	cfg.Moderation.Spam.Enabled = envBool("SPAM_ENABLED", cfg.Moderation.Spam.Enabled)
	cfg.Moderation.Spam.WindowMs = envInt("SPAM_WINDOW_MS", cfg.Moderation.Spam.WindowMs)
	cfg.Moderation.Spam.MessagesPerMinute = envInt("SPAM_MESSAGES_PER_MINUTE", cfg.Moderation.Spam.MessagesPerMinute)
	cfg.Moderation.Escalation.WarnThreshold = envInt("ESCALATION_WARN_THRESHOLD", cfg.Moderation.Escalation.WarnThreshold)
	cfg.Moderation.Escalation.TimeoutThreshold = envInt("ESCALATION_TIMEOUT_THRESHOLD", cfg.Moderation.Escalation.TimeoutThreshold)
	cfg.Moderation.Escalation.BanThreshold = envInt("ESCALATION_BAN_THRESHOLD", cfg.Moderation.Escalation.BanThreshold)
	cfg.Moderation.Escalation.AutoTimeoutMinutes = envInt("ESCALATION_AUTO_TIMEOUT_MINUTES", cfg.Moderation.Escalation.AutoTimeoutMinutes)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}

func normalizeDriver(value string) string {
	switch strings.ToLower(value) {
	case "file":
		return "file"
	default:
		return "sqlite"
	}
}
