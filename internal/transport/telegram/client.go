// Package telegram implements transport.Sender on top of telebot.
//
// The client is created once at startup and reused for every notification.
// It never polls for updates; button presses arrive through the webhook
// handled by internal/server.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	kit "tgalert/internal/transport"
	logx "tgalert/pkg/logx"
)

type ProxyConfig struct {
	URL      string
	Username string
	Password string
}

type Config struct {
	Token string
	// APIURL overrides the Bot API endpoint (tests, local bot API servers).
	APIURL     string
	Timeout    time.Duration
	Proxy      ProxyConfig
	RatePerSec int
}

type Client struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

// New creates the bot and performs the getMe identity check.
// A bad token or an unreachable API fails here.
func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 25
	}

	hc, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		URL:    strings.TrimRight(cfg.APIURL, "/"),
		Client: hc,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram identity check: %w", mapError(err))
	}

	c := &Client{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
	if b.Me != nil {
		log.Info("telegram bot ready", logx.Int64("bot_id", b.Me.ID), logx.String("username", b.Me.Username))
	}
	return c, nil
}

// newHTTPClient applies the optional outbound proxy.
// Credentials given separately take precedence over userinfo in the proxy URL.
func newHTTPClient(cfg Config) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if raw := strings.TrimSpace(cfg.Proxy.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("telegram proxy: invalid url %q", raw)
		}
		if cfg.Proxy.Username != "" {
			u.User = url.UserPassword(cfg.Proxy.Username, cfg.Proxy.Password)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: tr, Timeout: cfg.Timeout}, nil
}

// Username returns the bot's username as reported by getMe.
func (c *Client) Username() string {
	if c.bot.Me == nil {
		return ""
	}
	return c.bot.Me.Username
}

// Send delivers msg with exactly one sendMessage call.
//
// The call goes through Bot.Raw so a failed send keeps the Bot API's own
// error body: description and retry_after survive into *kit.APIError.
func (c *Client) Send(ctx context.Context, msg kit.OutgoingMessage) (kit.MessageRef, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return kit.MessageRef{}, err
	}

	params := map[string]any{
		"chat_id": string(msg.To),
		"text":    msg.Text,
	}
	if msg.ParseMode != "" {
		params["parse_mode"] = msg.ParseMode
	}
	if msg.Silent {
		params["disable_notification"] = true
	}
	if len(msg.Buttons) > 0 {
		params["reply_markup"] = inlineRow(msg.Buttons)
	}

	data, err := c.bot.Raw("sendMessage", params)
	if err != nil {
		err = apiError(data, err)
		var api *kit.APIError
		if errors.As(err, &api) && api.RetryAfter > 0 {
			c.log.Warn("telegram rate limited",
				logx.String("chat", string(msg.To)),
				logx.Int("retry_after", api.RetryAfter),
			)
		}
		return kit.MessageRef{}, err
	}

	var resp struct {
		Result struct {
			MessageID int `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return kit.MessageRef{}, fmt.Errorf("sendMessage: decode: %w", err)
	}
	return kit.MessageRef{ChatID: resp.Result.Chat.ID, MessageID: resp.Result.MessageID}, nil
}

// AnswerCallback acknowledges an inline button press so the client stops spinning.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	params := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		params["text"] = text
	}
	if data, err := c.bot.Raw("answerCallbackQuery", params); err != nil {
		return apiError(data, err)
	}
	return nil
}

// EnsureWebhook registers webhookURL unless it is already the active webhook.
func (c *Client) EnsureWebhook(ctx context.Context, webhookURL, secret string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil
	}
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := c.bot.Raw("getWebhookInfo", map[string]string{})
	if err != nil {
		return fmt.Errorf("getWebhookInfo: %w", apiError(data, err))
	}
	var info struct {
		Result struct {
			URL                string `json:"url"`
			PendingUpdateCount int    `json:"pending_update_count"`
			LastErrorMessage   string `json:"last_error_message"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("getWebhookInfo: decode: %w", err)
	}
	if info.Result.URL == webhookURL {
		c.log.Debug("webhook already registered",
			logx.String("url", webhookURL),
			logx.Int("pending", info.Result.PendingUpdateCount),
		)
		return nil
	}

	params := map[string]any{
		"url":             webhookURL,
		"allowed_updates": []string{"callback_query"},
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	if data, err := c.bot.Raw("setWebhook", params); err != nil {
		return fmt.Errorf("setWebhook: %w", apiError(data, err))
	}
	c.log.Info("webhook registered", logx.String("url", webhookURL), logx.String("previous", info.Result.URL))
	return nil
}
