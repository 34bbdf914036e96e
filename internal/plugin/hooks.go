package plugin

import (
	"context"

	"tgalert/internal/alert"
)

// Hooks is the contract between the alert host and a notification plugin.
// The host calls the hooks synchronously, once per alert transition.
type Hooks interface {
	Name() string
	// PreReceive may rewrite or reject an incoming alert before the host stores it.
	PreReceive(ctx context.Context, ev *alert.Event) (*alert.Event, error)
	// PostReceive runs after the host has processed the alert.
	PostReceive(ctx context.Context, ev *alert.Event) error
	// StatusChange runs when an operator changes the alert status.
	StatusChange(ctx context.Context, ev *alert.Event, status alert.Status, summary string) error
}
