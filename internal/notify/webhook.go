package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/justin7251/IG-stock/internal/config"
	igerrors "github.com/justin7251/IG-stock/internal/errors"
)

// Webhook delivers alerts by POSTing JSON to a configured URL.
type Webhook struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhook creates a webhook channel from configuration.
func NewWebhook(cfg config.WebhookConfig) *Webhook {
	return &Webhook{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the name of the channel.
func (w *Webhook) Name() string {
	return "webhook"
}

// IsEnabled returns whether the channel is enabled.
func (w *Webhook) IsEnabled() bool {
	return w.enabled
}

// Notify posts the subject and body to the webhook URL.
func (w *Webhook) Notify(ctx context.Context, subject, body string) error {
	payload := map[string]string{
		"subject":   subject,
		"message":   body,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return igerrors.NewDeliveryError(w.Name(), 0, fmt.Errorf("marshaling payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return igerrors.NewDeliveryError(w.Name(), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return igerrors.NewDeliveryError(w.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return igerrors.NewDeliveryError(w.Name(), resp.StatusCode, nil)
	}
	return nil
}
