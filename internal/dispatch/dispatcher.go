// Package dispatch delivers rendered alert messages through a transport.Sender.
package dispatch

import (
	"context"
	"strings"

	"tgalert/internal/action"
	"tgalert/internal/alert"
	"tgalert/internal/transport"
	logx "tgalert/pkg/logx"
)

// Config is read-only after New.
type Config struct {
	DefaultChat   transport.ChatTarget
	CustomerChats map[string]transport.ChatTarget
	// WebhookURL enables the ack/close/blackout controls when set.
	WebhookURL string
	// SoundSeverities lists the severities allowed to notify audibly.
	SoundSeverities alert.SeveritySet
}

type Dispatcher struct {
	cfg    Config
	sender transport.Sender
	log    logx.Logger
}

func New(cfg Config, sender transport.Sender, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	chats := make(map[string]transport.ChatTarget, len(cfg.CustomerChats))
	for k, v := range cfg.CustomerChats {
		chats[k] = v
	}
	cfg.CustomerChats = chats
	cfg.SoundSeverities = cfg.SoundSeverities.Clone()
	return &Dispatcher{cfg: cfg, sender: sender, log: log}
}

// Destination returns the chat for customer, falling back to the default chat.
func (d *Dispatcher) Destination(customer string) transport.ChatTarget {
	if customer != "" {
		if chat, ok := d.cfg.CustomerChats[customer]; ok {
			return chat
		}
	}
	return d.cfg.DefaultChat
}

// Controls returns the inline buttons for alertID, or nil without a webhook.
func (d *Dispatcher) Controls(alertID string) []transport.Button {
	if strings.TrimSpace(d.cfg.WebhookURL) == "" {
		return nil
	}
	out := make([]transport.Button, 0, len(action.Kinds))
	for _, k := range action.Kinds {
		out = append(out, transport.Button{Text: string(k), Data: action.Data(k, alertID)})
	}
	return out
}

// Silent reports whether a message for sev should be delivered without sound.
// Only severities listed in SoundSeverities are audible; with no list configured
// every message is silent.
func (d *Dispatcher) Silent(sev alert.Severity) bool {
	if d.cfg.SoundSeverities.Empty() {
		return true
	}
	return !d.cfg.SoundSeverities.Has(sev)
}

// Dispatch performs exactly one send. Any failure is returned as *DeliveryError.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *alert.Event, text string) error {
	msg := transport.OutgoingMessage{
		To:        d.Destination(ev.Customer),
		Text:      text,
		ParseMode: transport.ParseModeMarkdown,
		Silent:    d.Silent(ev.Severity),
		Buttons:   d.Controls(ev.ID),
	}

	d.log.Debug("sending message",
		logx.String("alert_id", ev.ID),
		logx.String("chat", string(msg.To)),
		logx.Bool("silent", msg.Silent),
		logx.Int("buttons", len(msg.Buttons)),
	)

	ref, err := d.sender.Send(ctx, msg)
	if err != nil {
		return newDeliveryError(msg.To, err)
	}

	d.log.Debug("message sent",
		logx.String("alert_id", ev.ID),
		logx.Int64("chat_id", ref.ChatID),
		logx.Int("message_id", ref.MessageID),
	)
	return nil
}
