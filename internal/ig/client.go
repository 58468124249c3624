// Package ig implements a client for the IG Markets REST API.
//
// Authentication returns two bearer-style tokens in the CST and
// X-SECURITY-TOKEN response headers; both must accompany every
// subsequent request.
package ig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	igerrors "github.com/justin7251/IG-stock/internal/errors"
	"github.com/justin7251/IG-stock/internal/models"
)

const (
	headerAPIKey        = "X-IG-API-KEY"
	headerCST           = "CST"
	headerSecurityToken = "X-SECURITY-TOKEN"
)

// Session is the credential pair obtained from a successful login. It
// is an immutable value: re-authentication produces a new Session
// rather than mutating an existing one. Never persisted.
type Session struct {
	CST           string
	SecurityToken string
	IssuedAt      time.Time
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	APIKey   string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the IG Markets gateway.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string
	http     *http.Client
}

// NewClient creates a new IG API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Login authenticates against POST /session and returns a new Session
// built from the token response headers. On any failure no partial
// state is retained.
func (c *Client) Login(ctx context.Context) (*Session, error) {
	payload, err := json.Marshal(map[string]string{
		"identifier": c.username,
		"password":   c.password,
	})
	if err != nil {
		return nil, igerrors.NewAuthError(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(payload))
	if err != nil {
		return nil, igerrors.NewAuthError(0, err)
	}
	c.setCommonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, igerrors.NewAuthError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, igerrors.NewAuthError(resp.StatusCode, nil)
	}

	cst := resp.Header.Get(headerCST)
	security := resp.Header.Get(headerSecurityToken)
	if cst == "" || security == "" {
		return nil, igerrors.NewAuthError(resp.StatusCode, fmt.Errorf("token headers missing from response"))
	}

	return &Session{
		CST:           cst,
		SecurityToken: security,
		IssuedAt:      time.Now(),
	}, nil
}

// snapshotResponse mirrors the subset of GET /markets/{epic} we read.
// Bid is a pointer so an absent field is distinguishable from zero.
type snapshotResponse struct {
	Instrument struct {
		Name string `json:"name"`
	} `json:"instrument"`
	Snapshot struct {
		Bid          *float64 `json:"bid"`
		Offer        *float64 `json:"offer"`
		MarketStatus string   `json:"marketStatus"`
	} `json:"snapshot"`
}

// MarketSnapshot fetches the current quoted price for one instrument.
// A non-2xx response or a 2xx body without a bid price yields a
// FetchError; a missing quote is never a price of zero.
func (c *Client) MarketSnapshot(ctx context.Context, sess *Session, epic string) (models.PriceQuote, error) {
	var quote models.PriceQuote

	var body snapshotResponse
	if err := c.getJSON(ctx, sess, "/markets/"+url.PathEscape(epic), epic, &body); err != nil {
		return quote, err
	}

	if body.Snapshot.Bid == nil {
		return quote, igerrors.NewFetchError(epic, igerrors.FetchMalformed, 0,
			fmt.Errorf("snapshot.bid missing from market response"))
	}

	return models.PriceQuote{
		Epic:       epic,
		Price:      *body.Snapshot.Bid,
		ObservedAt: time.Now(),
	}, nil
}

// Market is one entry from a market search.
type Market struct {
	Epic           string   `json:"epic"`
	InstrumentName string   `json:"instrumentName"`
	Bid            *float64 `json:"bid"`
	Offer          *float64 `json:"offer"`
	MarketStatus   string   `json:"marketStatus"`
}

// Search looks up markets by name or EPIC via GET /markets?searchTerm=.
func (c *Client) Search(ctx context.Context, sess *Session, term string) ([]Market, error) {
	var body struct {
		Markets []Market `json:"markets"`
	}
	path := "/markets?searchTerm=" + url.QueryEscape(term)
	if err := c.getJSON(ctx, sess, path, term, &body); err != nil {
		return nil, err
	}
	return body.Markets, nil
}

// MarketDetails holds the fields shown by the market lookup command.
type MarketDetails struct {
	Epic   string
	Name   string
	Bid    float64
	Offer  float64
	Status string
}

// MarketDetail fetches display details for a single EPIC.
func (c *Client) MarketDetail(ctx context.Context, sess *Session, epic string) (MarketDetails, error) {
	var body snapshotResponse
	if err := c.getJSON(ctx, sess, "/markets/"+url.PathEscape(epic), epic, &body); err != nil {
		return MarketDetails{}, err
	}

	d := MarketDetails{
		Epic:   epic,
		Name:   body.Instrument.Name,
		Status: body.Snapshot.MarketStatus,
	}
	if body.Snapshot.Bid != nil {
		d.Bid = *body.Snapshot.Bid
	}
	if body.Snapshot.Offer != nil {
		d.Offer = *body.Snapshot.Offer
	}
	return d, nil
}

func (c *Client) getJSON(ctx context.Context, sess *Session, path, epic string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return igerrors.NewFetchError(epic, igerrors.FetchTransport, 0, err)
	}
	c.setCommonHeaders(req)
	req.Header.Set(headerCST, sess.CST)
	req.Header.Set(headerSecurityToken, sess.SecurityToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return igerrors.NewFetchError(epic, igerrors.FetchTransport, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return igerrors.NewFetchError(epic, igerrors.FetchStatus, resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return igerrors.NewFetchError(epic, igerrors.FetchMalformed, 0, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json; charset=UTF-8")
	req.Header.Set(headerAPIKey, c.apiKey)
}
