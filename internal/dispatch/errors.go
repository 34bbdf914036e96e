package dispatch

import (
	"errors"
	"fmt"

	"tgalert/internal/transport"
)

// DeliveryError is the single error kind returned for a failed send,
// whatever the underlying cause.
type DeliveryError struct {
	ChatID      transport.ChatTarget
	Code        int
	Description string
	Payload     string
	Err         error
}

func (e *DeliveryError) Error() string {
	if e.Code != 0 || e.Description != "" {
		return fmt.Sprintf("telegram: delivery to %s failed: code=%d description=%q payload=%q",
			e.ChatID, e.Code, e.Description, e.Payload)
	}
	if e.Err != nil {
		return fmt.Sprintf("telegram: delivery to %s failed: %v", e.ChatID, e.Err)
	}
	return fmt.Sprintf("telegram: delivery to %s failed", e.ChatID)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// newDeliveryError keeps provider details when the sender reported them.
func newDeliveryError(to transport.ChatTarget, err error) *DeliveryError {
	de := &DeliveryError{ChatID: to, Err: err}
	var api *transport.APIError
	if errors.As(err, &api) {
		de.Code = api.Code
		de.Description = api.Description
		de.Payload = api.Payload
	}
	return de
}
