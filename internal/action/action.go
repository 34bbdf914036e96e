// Package action encodes the inline-button callbacks attached to alert messages.
//
// Callback data is a bot-style command followed by the alert id: "/ack <id>".
package action

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	Ack      Kind = "ack"
	Close    Kind = "close"
	Blackout Kind = "blackout"
)

// Kinds lists the controls in keyboard order.
var Kinds = []Kind{Ack, Close, Blackout}

var (
	ErrUnknownCommand = errors.New("unknown alert command")
	ErrMissingAlertID = errors.New("alert id missing")
)

// Action is a parsed button press.
type Action struct {
	Kind    Kind
	AlertID string
	// User is the Telegram username (or id) that pressed the button, if known.
	User string
}

// Data returns the callback payload for kind and alert id.
func Data(kind Kind, alertID string) string {
	return "/" + string(kind) + " " + alertID
}

// Parse decodes callback data produced by Data.
func Parse(data string) (Action, error) {
	data = strings.TrimSpace(data)
	cmd, id, _ := strings.Cut(data, " ")
	cmd = strings.TrimPrefix(cmd, "/")
	// Commands typed in groups may carry the bot name: /ack@my_bot
	cmd, _, _ = strings.Cut(cmd, "@")

	var kind Kind
	switch Kind(strings.ToLower(cmd)) {
	case Ack:
		kind = Ack
	case Close:
		kind = Close
	case Blackout:
		kind = Blackout
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Action{}, fmt.Errorf("%s: %w", kind, ErrMissingAlertID)
	}
	return Action{Kind: kind, AlertID: id}, nil
}
