package config

import (
	"encoding/json"
	"strings"
)

// Environment variables consulted for options left blank in the file.
const (
	EnvToken             = "TELEGRAM_TOKEN"
	EnvChatID            = "TELEGRAM_CHAT_ID"
	EnvChatIDPerCustomer = "TELEGRAM_CHAT_ID_PER_CUSTOMER"
	EnvWebhookURL        = "TELEGRAM_WEBHOOK_URL"
	EnvWebhookSecret     = "TELEGRAM_WEBHOOK_SECRET"
	EnvTemplate          = "TELEGRAM_TEMPLATE"
	EnvProxy             = "TELEGRAM_PROXY"
	EnvProxyUsername     = "TELEGRAM_PROXY_USERNAME"
	EnvProxyPassword     = "TELEGRAM_PROXY_PASSWORD"
	EnvSoundSeverities   = "TELEGRAM_SOUND_NOTIFICATION_SEVERITY"
	EnvFilterSeverities  = "TELEGRAM_FILTER_NOTIFICATION_SEVERITY"
	EnvDashboardURL      = "DASHBOARD_URL"
	EnvAlertaAPIURL      = "ALERTA_API_URL"
	EnvAlertaAPIKey      = "ALERTA_API_KEY"
	EnvLogLevel          = "LOG_LEVEL"
)

// ApplyEnv fills blank options from getenv. A value set in the file always wins.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil || getenv == nil {
		return
	}
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }
	fill := func(dst *string, key string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = env(key)
		}
	}

	tg := &cfg.Telegram
	fill(&tg.Token, EnvToken)
	fill(&tg.ChatID, EnvChatID)
	fill(&tg.WebhookURL, EnvWebhookURL)
	fill(&tg.WebhookSecret, EnvWebhookSecret)
	fill(&tg.Proxy.URL, EnvProxy)
	fill(&tg.Proxy.Username, EnvProxyUsername)
	fill(&tg.Proxy.Password, EnvProxyPassword)
	if len(tg.ChatIDPerCustomer) == 0 {
		tg.ChatIDPerCustomer = parseChatMap(env(EnvChatIDPerCustomer))
	}

	n := &cfg.Notify
	// TELEGRAM_TEMPLATE may hold a template literal; keep its whitespace.
	if strings.TrimSpace(n.Template) == "" {
		n.Template = getenv(EnvTemplate)
	}
	fill(&n.DashboardURL, EnvDashboardURL)
	if len(n.SoundSeverities) == 0 {
		n.SoundSeverities = splitList(env(EnvSoundSeverities))
	}
	if len(n.FilterSeverities) == 0 {
		n.FilterSeverities = splitList(env(EnvFilterSeverities))
	}

	fill(&cfg.Alerta.APIURL, EnvAlertaAPIURL)
	fill(&cfg.Alerta.APIKey, EnvAlertaAPIKey)
	fill(&cfg.Logging.Level, EnvLogLevel)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseChatMap accepts a JSON object ({"acme":"-100123"}) or
// comma separated customer=chat pairs. Malformed pairs are skipped.
func parseChatMap(s string) map[string]string {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "{") {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch x := v.(type) {
			case string:
				out[k] = x
			case json.Number:
				out[k] = x.String()
			}
		}
		return out
	}
	out := map[string]string{}
	for _, pair := range splitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
