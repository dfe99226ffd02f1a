// Package mail relays contact-form submissions to the site owner.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrInvalidContact is returned when a required form field is missing.
	ErrInvalidContact = errors.New("invalid contact request")
	// ErrRelayFailure wraps any error from the outbound mail provider.
	ErrRelayFailure = errors.New("mail relay failed")
)

// ContactRequest is one interview invitation sent from the site's form.
type ContactRequest struct {
	Name          string
	Email         string
	Company       string
	Location      string
	PreferredTime string
	Message       string
}

// Validate checks the required fields and the sender address.
func (r ContactRequest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"name", r.Name},
		{"email", r.Email},
		{"location", r.Location},
		{"preferred_time", r.PreferredTime},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidContact, f.name)
		}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email %q is not an address", ErrInvalidContact, r.Email)
	}
	return nil
}

// Sender delivers a contact request.
type Sender interface {
	Send(ctx context.Context, req ContactRequest) error
}
