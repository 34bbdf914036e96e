// Package notify is the Telegram notification plugin: it filters alert
// transitions, renders them and hands them to the dispatcher.
package notify

import (
	"context"
	"errors"
	"strings"

	"tgalert/internal/alert"
	"tgalert/internal/dispatch"
	"tgalert/internal/filter"
	"tgalert/internal/plugin"
	"tgalert/internal/render"
	"tgalert/internal/transport"
	logx "tgalert/pkg/logx"
)

const Name = "telegram"

// Config is the process-wide notification configuration.
// It is copied into the plugin at construction and never changed afterwards.
type Config struct {
	FilterSeverities alert.SeveritySet
	SoundSeverities  alert.SeveritySet
	DefaultChat      transport.ChatTarget
	CustomerChats    map[string]transport.ChatTarget
	// Template is a literal template or a path to a template file.
	// Empty selects render.DefaultTemplate.
	Template   string
	WebhookURL string
	// DashboardURL is exposed to templates as dashboard_url and alert_url.
	DashboardURL string
}

type Plugin struct {
	rules     filter.Rules
	renderer  *render.Renderer
	dispatch  *dispatch.Dispatcher
	dashboard string
	log       logx.Logger
}

var _ plugin.Hooks = (*Plugin)(nil)

// New resolves and parses the template. Template errors are returned so the
// host fails at startup instead of on the first alert.
func New(cfg Config, sender transport.Sender, log logx.Logger) (*Plugin, error) {
	if sender == nil {
		return nil, errors.New("notify: sender is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	src, err := render.LoadSource(cfg.Template)
	if err != nil {
		return nil, err
	}
	r, err := render.New(src)
	if err != nil {
		return nil, err
	}
	return &Plugin{
		rules:    filter.Rules{Severities: cfg.FilterSeverities.Clone()},
		renderer: r,
		dispatch: dispatch.New(dispatch.Config{
			DefaultChat:     cfg.DefaultChat,
			CustomerChats:   cfg.CustomerChats,
			WebhookURL:      cfg.WebhookURL,
			SoundSeverities: cfg.SoundSeverities,
		}, sender, log.With(logx.String("comp", "dispatch"))),
		dashboard: strings.TrimRight(strings.TrimSpace(cfg.DashboardURL), "/"),
		log:       log,
	}, nil
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) PreReceive(_ context.Context, ev *alert.Event) (*alert.Event, error) {
	return ev, nil
}

// PostReceive sends at most one message for ev. Delivery failures are
// returned as *dispatch.DeliveryError.
func (p *Plugin) PostReceive(ctx context.Context, ev *alert.Event) error {
	fields := []logx.Field{
		logx.String("alert_id", ev.ID),
		logx.String("resource", ev.Resource),
		logx.String("status", string(ev.Status)),
		logx.String("severity", string(ev.Severity)),
		logx.String("previous_severity", string(ev.PreviousSeverity)),
	}

	d := filter.Decide(ev, p.rules)
	if !d.Send {
		p.log.Info("alert filtered", append(fields, logx.String("reason", string(d.Reason)))...)
		return nil
	}
	p.log.Debug("alert accepted", append(fields, logx.String("reason", string(d.Reason)))...)

	text, err := p.renderer.Render(p.templateFields(ev))
	if err != nil {
		p.log.Warn("message template failed; sending fallback", append(fields, logx.Err(err))...)
	}
	p.log.Debug("message rendered", logx.String("alert_id", ev.ID), logx.String("text", text))

	if err := p.dispatch.Dispatch(ctx, ev, text); err != nil {
		p.log.Error("telegram delivery failed", append(fields, logx.Err(err))...)
		return err
	}
	return nil
}

func (p *Plugin) StatusChange(context.Context, *alert.Event, alert.Status, string) error {
	return nil
}

func (p *Plugin) templateFields(ev *alert.Event) map[string]any {
	f := ev.Fields()
	f["dashboard_url"] = p.dashboard
	f["alert_url"] = ""
	if p.dashboard != "" && ev.ID != "" {
		f["alert_url"] = p.dashboard + "/#/alert/" + ev.ID
	}
	return f
}
