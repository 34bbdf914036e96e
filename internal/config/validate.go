package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingToken  = errors.New("telegram.token is required (or TELEGRAM_TOKEN)")
	ErrMissingChatID = errors.New("telegram.chat_id is required (or TELEGRAM_CHAT_ID)")
)

// Validate reports the first invalid option.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	tg := cfg.Telegram
	if strings.TrimSpace(tg.Token) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(tg.ChatID) == "" {
		return ErrMissingChatID
	}
	for cust, chat := range tg.ChatIDPerCustomer {
		if strings.TrimSpace(chat) == "" {
			return fmt.Errorf("telegram.chat_id_per_customer[%s]: empty chat id", cust)
		}
	}
	if tg.RatePerSec < 0 {
		return fmt.Errorf("telegram.rate_per_sec must be >= 0")
	}

	urls := []struct{ path, raw string }{
		{"telegram.webhook_url", tg.WebhookURL},
		{"telegram.proxy.url", tg.Proxy.URL},
		{"telegram.api_url", tg.APIURL},
		{"notify.dashboard_url", cfg.Notify.DashboardURL},
		{"alerta.api_url", cfg.Alerta.APIURL},
	}
	for _, u := range urls {
		if err := checkURL(u.path, u.raw); err != nil {
			return err
		}
	}

	durations := []struct{ path, raw string }{
		{"telegram.timeout", tg.Timeout},
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.WriteTimeout},
		{"alerta.timeout", cfg.Alerta.Timeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			return err
		}
	}

	if cfg.Logging.File.Enabled && strings.TrimSpace(cfg.Logging.File.Path) == "" {
		return fmt.Errorf("logging.file.path is required when logging.file.enabled")
	}
	return nil
}

func checkURL(path, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute url", path, raw)
	}
	return nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault returns def for blank or zero values.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
