// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrNoPositions      = errors.New("no monitorable positions")
	ErrLedgerCorrupt    = errors.New("alert ledger corrupt")
)

// AuthError represents a failed authentication against the IG API.
// Fatal at startup; recoverable mid-run (the cycle is skipped).
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("authentication failed (status %d)", e.Status)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError.
func NewAuthError(status int, err error) *AuthError {
	return &AuthError{Status: status, Err: err}
}

// FetchKind distinguishes why a price fetch failed.
type FetchKind string

const (
	// FetchStatus means the upstream returned a non-2xx status.
	FetchStatus FetchKind = "status"
	// FetchMalformed means a 2xx body lacked the expected price field.
	FetchMalformed FetchKind = "malformed"
	// FetchTransport means the request never produced a response.
	FetchTransport FetchKind = "transport"
)

// FetchError represents a failed price fetch for one instrument. The
// quote is unavailable; it must never be treated as a price of zero.
type FetchError struct {
	Epic   string
	Kind   FetchKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s failed (%s, status %d)", e.Epic, e.Kind, e.Status)
	}
	return fmt.Sprintf("fetch %s failed (%s): %v", e.Epic, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the fetch failed because the session is
// no longer valid and a re-login is required.
func (e *FetchError) Unauthorized() bool {
	return e.Kind == FetchStatus && (e.Status == 401 || e.Status == 403)
}

// NewFetchError creates a new FetchError.
func NewFetchError(epic string, kind FetchKind, status int, err error) *FetchError {
	return &FetchError{Epic: epic, Kind: kind, Status: status, Err: err}
}

// DeliveryError represents a failed notification delivery. It is logged
// and surfaced but never retried, and never rolls back a ledger record.
type DeliveryError struct {
	Channel string
	Status  int
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("delivery via %s failed (status %d)", e.Channel, e.Status)
	}
	return fmt.Sprintf("delivery via %s failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(channel string, status int, err error) *DeliveryError {
	return &DeliveryError{Channel: channel, Status: status, Err: err}
}

// PersistenceError represents a failed ledger write. The in-memory
// record is kept; a restart before a successful persist can duplicate
// an alert, so callers must surface this loudly.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting ledger %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(path string, err error) *PersistenceError {
	return &PersistenceError{Path: path, Err: err}
}
