package transport

import (
	"context"
	"fmt"
)

const ParseModeMarkdown = "Markdown"

// ChatTarget is a provider chat identifier: a numeric id ("-1001234") or a
// public channel name ("@alerts").
type ChatTarget string

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is one inline control. Data is returned to the bot verbatim when pressed.
type Button struct {
	Text string
	Data string
}

type OutgoingMessage struct {
	To        ChatTarget
	Text      string
	ParseMode string
	Silent    bool
	// Buttons are laid out as a single inline row.
	Buttons []Button
}

// Sender delivers one message per call. Implementations must not retry.
type Sender interface {
	Send(ctx context.Context, msg OutgoingMessage) (MessageRef, error)
}

// CallbackAnswerer acknowledges a pressed inline button.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// APIError is a structured error reported by the messaging provider.
type APIError struct {
	Code        int
	Description string
	// Payload is the raw provider response or message when available.
	Payload    string
	RetryAfter int
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Description)
}

func (e *APIError) Unwrap() error { return e.Err }
