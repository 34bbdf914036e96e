// Package alerta applies inline-button actions to the alert host's HTTP API.
package alerta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tgalert/internal/action"
	"tgalert/internal/alert"
	logx "tgalert/pkg/logx"
)

var ErrNotConfigured = errors.New("alerta api url is not configured")

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	base *url.URL
	key  string
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if raw == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("alerta: invalid api url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		base: u,
		key:  cfg.APIKey,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}, nil
}

// HandleAction applies a to the alert it names and returns a short
// confirmation suitable for a callback answer.
func (c *Client) HandleAction(ctx context.Context, a action.Action) (string, error) {
	switch a.Kind {
	case action.Ack, action.Close:
		if err := c.SetStatus(ctx, a.AlertID, statusFor(a.Kind), actionText(a)); err != nil {
			return "", err
		}
	case action.Blackout:
		ev, err := c.GetAlert(ctx, a.AlertID)
		if err != nil {
			return "", err
		}
		if err := c.CreateBlackout(ctx, Blackout{
			Environment: ev.Environment,
			Resource:    ev.Resource,
			Event:       ev.Event,
			Text:        actionText(a),
		}); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %q", action.ErrUnknownCommand, a.Kind)
	}

	c.log.Info("alert action applied",
		logx.String("action", string(a.Kind)),
		logx.String("alert_id", a.AlertID),
		logx.String("user", a.User),
	)
	return fmt.Sprintf("%s: %s", a.Kind, (&alert.Event{ID: a.AlertID}).ShortID()), nil
}

func statusFor(k action.Kind) alert.Status {
	if k == action.Close {
		return alert.StatusClosed
	}
	return alert.StatusAck
}

func actionText(a action.Action) string {
	if a.User == "" {
		return "status changed via Telegram"
	}
	return "status changed via Telegram by " + a.User
}

// SetStatus calls PUT /alert/{id}/status.
func (c *Client) SetStatus(ctx context.Context, alertID string, status alert.Status, text string) error {
	body := map[string]string{"status": string(status), "text": text}
	return c.do(ctx, http.MethodPut, "alert/"+url.PathEscape(alertID)+"/status", body, nil)
}

// GetAlert calls GET /alert/{id}.
func (c *Client) GetAlert(ctx context.Context, alertID string) (*alert.Event, error) {
	var out struct {
		Alert *alert.Event `json:"alert"`
	}
	if err := c.do(ctx, http.MethodGet, "alert/"+url.PathEscape(alertID), nil, &out); err != nil {
		return nil, err
	}
	if out.Alert == nil {
		return nil, fmt.Errorf("alerta: alert %s: empty response", alertID)
	}
	return out.Alert, nil
}

type Blackout struct {
	Environment string `json:"environment"`
	Resource    string `json:"resource,omitempty"`
	Event       string `json:"event,omitempty"`
	Text        string `json:"text,omitempty"`
}

// CreateBlackout calls POST /blackout.
func (c *Client) CreateBlackout(ctx context.Context, b Blackout) error {
	if b.Environment == "" {
		return errors.New("alerta: blackout requires an environment")
	}
	return c.do(ctx, http.MethodPost, "blackout", b, nil)
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("alerta %s %s failed: %s (http=%d)", e.Method, e.Path, e.Message, e.Status)
	}
	return fmt.Sprintf("alerta %s %s failed: http=%d", e.Method, e.Path, e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Key "+c.key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("alerta %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("alerta api call",
		logx.String("method", method),
		logx.String("path", path),
		logx.Int("status", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("alerta %s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: e.Message}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("alerta %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
