// Package config loads and exposes bridge configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":3000"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "zapnode"
	DefaultPGSSLMode      = "disable"
	DefaultMediaDir       = "whatsapp-media"
	DefaultMediaMaxAge    = "24h"
	DefaultSweepInterval  = "1h"
	DefaultTypingDelay    = "2s"
	DefaultAgentFallback  = "Atendente"
	DefaultDeviceName     = "zapnode"
	DefaultRequestTimeout = "15s"
)

// Config is the root bridge configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Chatwoot ChatwootConfig `toml:"chatwoot"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Media    MediaConfig    `toml:"media"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP listen address and the externally reachable base URL.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	PublicURL string `toml:"public_url"`
}

// PostgresConfig holds PostgreSQL connection parameters. The same database
// backs the identity table and the WhatsApp session store.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// ChatwootConfig holds the Chatwoot base URL, account/inbox identifiers and
// the API access token sent on every call.
type ChatwootConfig struct {
	BaseURL        string `toml:"base_url"`
	AccountID      string `toml:"account_id"`
	InboxID        string `toml:"inbox_id"`
	APIToken       string `toml:"api_token"`
	AgentFallback  string `toml:"agent_fallback"`
	RequestTimeout string `toml:"request_timeout"`
}

// WhatsAppConfig holds the paired-device display name and the typing delay
// used in the outbound send choreography.
type WhatsAppConfig struct {
	DeviceName  string `toml:"device_name"`
	TypingDelay string `toml:"typing_delay"`
}

// MediaConfig holds the scoped media directory and its retention policy.
type MediaConfig struct {
	Dir           string `toml:"dir"`
	MaxAge        string `toml:"max_age"`
	SweepInterval string `toml:"sweep_interval"`
}

// Delay returns the parsed typing delay, or the default when unset or invalid.
func (c WhatsAppConfig) Delay() time.Duration {
	return parseDuration(c.TypingDelay, DefaultTypingDelay)
}

// RetentionMaxAge returns the parsed media retention age.
func (c MediaConfig) RetentionMaxAge() time.Duration {
	return parseDuration(c.MaxAge, DefaultMediaMaxAge)
}

// RetentionSweepInterval returns the parsed sweep interval.
func (c MediaConfig) RetentionSweepInterval() time.Duration {
	return parseDuration(c.SweepInterval, DefaultSweepInterval)
}

// Timeout returns the parsed Chatwoot request timeout.
func (c ChatwootConfig) Timeout() time.Duration {
	return parseDuration(c.RequestTimeout, DefaultRequestTimeout)
}

// Validate reports missing required Chatwoot fields.
func (c ChatwootConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("chatwoot.base_url is required")
	}
	if strings.TrimSpace(c.AccountID) == "" {
		return fmt.Errorf("chatwoot.account_id is required")
	}
	if strings.TrimSpace(c.InboxID) == "" {
		return fmt.Errorf("chatwoot.inbox_id is required")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("chatwoot.api_token is required")
	}
	return nil
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:      DefaultHTTPAddr,
			PublicURL: "http://localhost:3000",
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Chatwoot: ChatwootConfig{
			AgentFallback:  DefaultAgentFallback,
			RequestTimeout: DefaultRequestTimeout,
		},
		WhatsApp: WhatsAppConfig{
			DeviceName:  DefaultDeviceName,
			TypingDelay: DefaultTypingDelay,
		},
		Media: MediaConfig{
			Dir:           DefaultMediaDir,
			MaxAge:        DefaultMediaMaxAge,
			SweepInterval: DefaultSweepInterval,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func parseDuration(raw, fallback string) time.Duration {
	if parsed, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && parsed > 0 {
		return parsed
	}
	parsed, _ := time.ParseDuration(fallback)
	return parsed
}
