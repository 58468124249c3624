// Package notify provides alert delivery channels.
//
// Delivery is fire-and-forget from the monitor's point of view: a
// failure is surfaced to the caller and logged, never retried here,
// and never rolls back ledger state.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/justin7251/IG-stock/internal/config"
)

// Notifier delivers a message with a subject and body.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Channel is one concrete delivery transport.
type Channel interface {
	Notifier
	Name() string
	IsEnabled() bool
}

// Multi fans a notification out to every enabled channel and collects
// per-channel failures into one error.
type Multi struct {
	channels []Channel
}

// NewMulti builds the channel set from configuration.
func NewMulti(cfg config.NotificationConfig) *Multi {
	m := &Multi{}
	if cfg.EmailJS.Enabled {
		m.channels = append(m.channels, NewEmailJS(cfg.EmailJS))
	}
	if cfg.Webhook.Enabled {
		m.channels = append(m.channels, NewWebhook(cfg.Webhook))
	}
	return m
}

// AddChannel appends a delivery channel.
func (m *Multi) AddChannel(ch Channel) {
	m.channels = append(m.channels, ch)
}

// Notify sends to all enabled channels.
func (m *Multi) Notify(ctx context.Context, subject, body string) error {
	var errs []string
	for _, ch := range m.channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Notify(ctx, subject, body); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Noop is a notifier that does nothing, for tests and disabled setups.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(ctx context.Context, subject, body string) error {
	return nil
}
