package app

import (
	"strings"
	"time"

	"tgalert/internal/alert"
	"tgalert/internal/alerta"
	"tgalert/internal/config"
	"tgalert/internal/notify"
	"tgalert/internal/server"
	"tgalert/internal/transport"
	"tgalert/internal/transport/telegram"
	logx "tgalert/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	f := cfg.Logging.File
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled:    f.Enabled,
			Path:       f.Path,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		},
	}
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	tg := cfg.Telegram
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", tg.Timeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   tg.Token,
		APIURL:  tg.APIURL,
		Timeout: timeout,
		Proxy: telegram.ProxyConfig{
			URL:      tg.Proxy.URL,
			Username: tg.Proxy.Username,
			Password: tg.Proxy.Password,
		},
		RatePerSec: tg.RatePerSec,
	}, nil
}

func mapNotifyConfig(cfg *config.Config) notify.Config {
	chats := make(map[string]transport.ChatTarget, len(cfg.Telegram.ChatIDPerCustomer))
	for cust, chat := range cfg.Telegram.ChatIDPerCustomer {
		chats[cust] = transport.ChatTarget(strings.TrimSpace(chat))
	}
	return notify.Config{
		FilterSeverities: alert.ParseSeverities(cfg.Notify.FilterSeverities...),
		SoundSeverities:  alert.ParseSeverities(cfg.Notify.SoundSeverities...),
		DefaultChat:      transport.ChatTarget(strings.TrimSpace(cfg.Telegram.ChatID)),
		CustomerChats:    chats,
		Template:         cfg.Notify.Template,
		WebhookURL:       cfg.Telegram.WebhookURL,
		DashboardURL:     cfg.Notify.DashboardURL,
	}
}

func mapServerConfig(cfg *config.Config) (server.Config, error) {
	read, err := config.ParseDurationOrDefault("server.read_timeout", cfg.Server.ReadTimeout, 10*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	write, err := config.ParseDurationOrDefault("server.write_timeout", cfg.Server.WriteTimeout, 30*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:          cfg.Server.Addr,
		WebhookPath:   cfg.Server.WebhookPath,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		ReadTimeout:   read,
		WriteTimeout:  write,
	}, nil
}

// mapAlertaConfig reports ok=false when no API url is configured.
func mapAlertaConfig(cfg *config.Config) (alerta.Config, bool, error) {
	if strings.TrimSpace(cfg.Alerta.APIURL) == "" {
		return alerta.Config{}, false, nil
	}
	timeout, err := config.ParseDurationOrDefault("alerta.timeout", cfg.Alerta.Timeout, 8*time.Second)
	if err != nil {
		return alerta.Config{}, false, err
	}
	return alerta.Config{URL: cfg.Alerta.APIURL, APIKey: cfg.Alerta.APIKey, Timeout: timeout}, true, nil
}
