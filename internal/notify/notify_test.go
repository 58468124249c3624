package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justin7251/IG-stock/internal/config"
	igerrors "github.com/justin7251/IG-stock/internal/errors"
)

func TestEmailJSPayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewEmailJS(config.EmailJSConfig{
		Enabled:    true,
		ServiceID:  "svc",
		TemplateID: "tpl",
		UserID:     "usr",
		PrivateKey: "pk",
	})
	ch.SetEndpoint(srv.URL)

	if err := ch.Notify(context.Background(), "subject line", "body text"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got["service_id"] != "svc" || got["template_id"] != "tpl" || got["user_id"] != "usr" || got["accessToken"] != "pk" {
		t.Errorf("credential fields wrong: %v", got)
	}
	params, ok := got["template_params"].(map[string]interface{})
	if !ok {
		t.Fatalf("template_params missing: %v", got)
	}
	if params["subject"] != "subject line" || params["message"] != "body text" {
		t.Errorf("template params wrong: %v", params)
	}
}

func TestEmailJSDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	ch := NewEmailJS(config.EmailJSConfig{Enabled: true, ServiceID: "s", TemplateID: "t", UserID: "u"})
	ch.SetEndpoint(srv.URL)

	err := ch.Notify(context.Background(), "s", "b")
	var dErr *igerrors.DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if dErr.Status != http.StatusBadRequest || dErr.Channel != "emailjs" {
		t.Errorf("unexpected error detail: %+v", dErr)
	}
}

func TestWebhookNotify(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookConfig{Enabled: true, URL: srv.URL})
	if err := ch.Notify(context.Background(), "s", "b"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["subject"] != "s" || got["message"] != "b" {
		t.Errorf("payload wrong: %v", got)
	}
}

func TestMultiCollectsFailures(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	var delivered int
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	m := &Multi{}
	m.AddChannel(NewWebhook(config.WebhookConfig{Enabled: true, URL: bad.URL}))
	m.AddChannel(NewWebhook(config.WebhookConfig{Enabled: true, URL: good.URL}))

	err := m.Notify(context.Background(), "s", "b")
	if err == nil {
		t.Error("expected aggregated failure")
	}
	if delivered != 1 {
		t.Errorf("healthy channel should still deliver, got %d", delivered)
	}
}

func TestDisabledChannelSkipped(t *testing.T) {
	ch := NewWebhook(config.WebhookConfig{Enabled: false, URL: "http://example.invalid"})
	m := &Multi{}
	m.AddChannel(ch)
	if err := m.Notify(context.Background(), "s", "b"); err != nil {
		t.Errorf("disabled channel must not fail the fanout: %v", err)
	}
}
