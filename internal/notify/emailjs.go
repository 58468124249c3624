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

// DefaultEmailJSEndpoint is the public EmailJS REST endpoint.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJS delivers alerts through the EmailJS send API.
type EmailJS struct {
	endpoint   string
	serviceID  string
	templateID string
	userID     string
	privateKey string
	enabled    bool
	client     *http.Client
}

// NewEmailJS creates an EmailJS channel from configuration.
func NewEmailJS(cfg config.EmailJSConfig) *EmailJS {
	return &EmailJS{
		endpoint:   DefaultEmailJSEndpoint,
		serviceID:  cfg.ServiceID,
		templateID: cfg.TemplateID,
		userID:     cfg.UserID,
		privateKey: cfg.PrivateKey,
		enabled:    cfg.Enabled && cfg.ServiceID != "" && cfg.TemplateID != "" && cfg.UserID != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the name of the channel.
func (e *EmailJS) Name() string {
	return "emailjs"
}

// IsEnabled returns whether the channel is enabled.
func (e *EmailJS) IsEnabled() bool {
	return e.enabled
}

// SetEndpoint overrides the EmailJS endpoint. Used by tests.
func (e *EmailJS) SetEndpoint(url string) {
	e.endpoint = url
}

// Notify posts the subject and body as template parameters.
func (e *EmailJS) Notify(ctx context.Context, subject, body string) error {
	payload := map[string]interface{}{
		"service_id":  e.serviceID,
		"template_id": e.templateID,
		"user_id":     e.userID,
		"accessToken": e.privateKey,
		"template_params": map[string]string{
			"subject": subject,
			"message": body,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return igerrors.NewDeliveryError(e.Name(), 0, fmt.Errorf("marshaling payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(data))
	if err != nil {
		return igerrors.NewDeliveryError(e.Name(), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return igerrors.NewDeliveryError(e.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return igerrors.NewDeliveryError(e.Name(), resp.StatusCode, nil)
	}
	return nil
}
