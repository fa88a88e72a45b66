// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingToken is returned when an unsubscribe request carries no token.
var ErrMissingToken = errors.New("unsubscribe token is missing")

// ConfigurationError reports required credentials that are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

func NewConfigurationError(missing ...string) error {
	return &ConfigurationError{Missing: missing}
}

// NotFoundError is returned when a referenced row does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewCampaignNotFound is kept for the campaign paths that only know the id.
func NewCampaignNotFound(id string) error {
	return &NotFoundError{Entity: "campaign", ID: id}
}

// InvalidStateError is returned when an entity is not in a state that allows the operation.
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %q cannot be processed in state %q: %s", e.Entity, e.ID, e.State, e.Reason)
	}
	return fmt.Sprintf("%s %q cannot be processed in state %q", e.Entity, e.ID, e.State)
}

func NewInvalidState(entity, id, state, reason string) error {
	return &InvalidStateError{Entity: entity, ID: id, State: state, Reason: reason}
}

// ValidationError rejects malformed input before it reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RecipientDeliveryError wraps a single recipient failure. It is recorded in
// the send log and never propagated past the sender.
type RecipientDeliveryError struct {
	SubscriberID string
	Stage        string
	Err          error
}

func (e *RecipientDeliveryError) Error() string {
	return fmt.Sprintf("delivery to subscriber %s failed at %s: %v", e.SubscriberID, e.Stage, e.Err)
}

func (e *RecipientDeliveryError) Unwrap() error { return e.Err }

// IsPermanent reports whether retrying the same operation can never succeed.
func IsPermanent(err error) bool {
	var cfgErr *ConfigurationError
	var nfErr *NotFoundError
	var stErr *InvalidStateError
	var vErr *ValidationError
	return errors.As(err, &cfgErr) || errors.As(err, &nfErr) || errors.As(err, &stErr) || errors.As(err, &vErr)
}
