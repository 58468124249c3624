package ig

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	igerrors "github.com/justin7251/IG-stock/internal/errors"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:  url,
		APIKey:   "test-key",
		Username: "tester",
		Password: "secret",
	})
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-IG-API-KEY"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		w.Header().Set("CST", "cst-token")
		w.Header().Set("X-SECURITY-TOKEN", "sec-token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sess, err := newTestClient(srv.URL).Login(context.Background())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.CST != "cst-token" || sess.SecurityToken != "sec-token" {
		t.Errorf("tokens not extracted: %+v", sess)
	}
	if sess.IssuedAt.IsZero() {
		t.Error("IssuedAt not set")
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background())
	var authErr *igerrors.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", authErr.Status)
	}
}

func TestLoginMissingTokenHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // 200 but no tokens
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background())
	var authErr *igerrors.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestMarketSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/IX.D.AAPL.DAILY.IP" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("CST") != "cst" || r.Header.Get("X-SECURITY-TOKEN") != "sec" {
			t.Error("session tokens not attached to request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"instrument":{"name":"Apple Inc."},"snapshot":{"bid":151.25,"offer":151.40,"marketStatus":"TRADEABLE"}}`))
	}))
	defer srv.Close()

	sess := &Session{CST: "cst", SecurityToken: "sec"}
	quote, err := newTestClient(srv.URL).MarketSnapshot(context.Background(), sess, "IX.D.AAPL.DAILY.IP")
	if err != nil {
		t.Fatalf("MarketSnapshot: %v", err)
	}
	if quote.Price != 151.25 {
		t.Errorf("expected bid 151.25, got %g", quote.Price)
	}
	if quote.Epic != "IX.D.AAPL.DAILY.IP" {
		t.Errorf("epic not set on quote: %q", quote.Epic)
	}
}

func TestMarketSnapshotMissingBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"snapshot":{"marketStatus":"CLOSED"}}`))
	}))
	defer srv.Close()

	sess := &Session{CST: "cst", SecurityToken: "sec"}
	_, err := newTestClient(srv.URL).MarketSnapshot(context.Background(), sess, "X")
	var fetchErr *igerrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != igerrors.FetchMalformed {
		t.Errorf("expected malformed kind, got %s", fetchErr.Kind)
	}
}

func TestMarketSnapshotUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sess := &Session{CST: "cst", SecurityToken: "sec"}
	_, err := newTestClient(srv.URL).MarketSnapshot(context.Background(), sess, "X")
	var fetchErr *igerrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != igerrors.FetchStatus || fetchErr.Status != http.StatusNotFound {
		t.Errorf("expected status kind 404, got %s %d", fetchErr.Kind, fetchErr.Status)
	}
	if fetchErr.Unauthorized() {
		t.Error("404 must not look like an expired session")
	}
}

func TestFetchErrorUnauthorized(t *testing.T) {
	err := igerrors.NewFetchError("X", igerrors.FetchStatus, http.StatusUnauthorized, nil)
	if !err.Unauthorized() {
		t.Error("401 should report Unauthorized")
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("searchTerm"); got != "apple" {
			t.Errorf("searchTerm = %q", got)
		}
		w.Write([]byte(`{"markets":[{"epic":"IX.D.AAPL.DAILY.IP","instrumentName":"Apple Inc.","bid":151.25,"offer":151.40,"marketStatus":"TRADEABLE"}]}`))
	}))
	defer srv.Close()

	sess := &Session{CST: "cst", SecurityToken: "sec"}
	markets, err := newTestClient(srv.URL).Search(context.Background(), sess, "apple")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(markets) != 1 || markets[0].Epic != "IX.D.AAPL.DAILY.IP" {
		t.Errorf("unexpected markets: %+v", markets)
	}
}

func TestSessionManagerSingleReLogin(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Header().Set("CST", "cst")
		w.Header().Set("X-SECURITY-TOKEN", "sec")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mgr := NewSessionManager(newTestClient(srv.URL), zerolog.Nop())
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if logins.Load() != 1 {
		t.Fatalf("expected 1 login after Start, got %d", logins.Load())
	}

	_, gen, err := mgr.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if logins.Load() != 1 {
		t.Errorf("Current must not re-login while a session is held")
	}

	// Two pollers observe the same expired generation; only one re-login happens.
	_, gen2, err := mgr.Invalidate(context.Background(), gen)
	if err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if gen2 == gen {
		t.Error("generation should advance after re-login")
	}
	_, gen3, err := mgr.Invalidate(context.Background(), gen)
	if err != nil {
		t.Fatalf("second Invalidate: %v", err)
	}
	if gen3 != gen2 {
		t.Errorf("stale invalidate should reuse the fresh session, gen %d vs %d", gen3, gen2)
	}
	if logins.Load() != 2 {
		t.Errorf("expected exactly 2 logins, got %d", logins.Load())
	}
}

func TestSessionManagerReLoginFailureIsRecoverable(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("CST", "cst")
		w.Header().Set("X-SECURITY-TOKEN", "sec")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	mgr := NewSessionManager(newTestClient(srv.URL), zerolog.Nop())
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, gen, _ := mgr.Current(context.Background())

	fail.Store(true)
	if _, _, err := mgr.Invalidate(context.Background(), gen); err == nil {
		t.Fatal("expected re-login failure")
	}

	// Next tick retries and succeeds.
	fail.Store(false)
	if _, _, err := mgr.Current(context.Background()); err != nil {
		t.Fatalf("Current after recovery: %v", err)
	}
}
