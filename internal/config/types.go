package config

// Config is the on-disk configuration (JSON or YAML).
// Any blank option falls back to its environment variable; see env.go.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Notify   NotifyConfig   `json:"notify"`
	Server   ServerConfig   `json:"server"`
	Alerta   AlertaConfig   `json:"alerta"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the default destination: a numeric chat id or an @channel name.
	ChatID            string            `json:"chat_id"`
	ChatIDPerCustomer map[string]string `json:"chat_id_per_customer,omitempty"`
	// WebhookURL enables inline ack/close/blackout buttons and is registered
	// with the Bot API at startup.
	WebhookURL    string      `json:"webhook_url,omitempty"`
	WebhookSecret string      `json:"webhook_secret,omitempty"` // do not log
	Proxy         ProxyConfig `json:"proxy,omitempty"`
	// APIURL overrides https://api.telegram.org (local Bot API server).
	APIURL string `json:"api_url,omitempty"`
	// Timeout is a Go duration string (e.g. "10s").
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type ProxyConfig struct {
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"` // do not log
}

type NotifyConfig struct {
	// Template is a literal text/template or a path to a template file.
	Template string `json:"template,omitempty"`
	// SoundSeverities are the only severities delivered with sound.
	SoundSeverities []string `json:"sound_severities,omitempty"`
	// FilterSeverities restricts which severities are sent at all.
	FilterSeverities []string `json:"filter_severities,omitempty"`
	DashboardURL     string   `json:"dashboard_url,omitempty"`
}

// ServerConfig controls the built-in HTTP ingress.
//
// Example:
//
//	"server": { "enabled": true, "addr": ":8080", "webhook_path": "/webhooks/telegram" }
type ServerConfig struct {
	Enabled     bool   `json:"enabled"`
	Addr        string `json:"addr,omitempty"`         // default: ":8080"
	WebhookPath string `json:"webhook_path,omitempty"` // default: "/webhooks/telegram"
	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

// AlertaConfig points at the alert host API used to apply button actions.
type AlertaConfig struct {
	APIURL  string `json:"api_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"` // do not log
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}
