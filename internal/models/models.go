// Package models defines the shared data types for the application.
package models

import "time"

// TrackedPosition is one purchased stock being watched for a price drop.
// The EPIC is the identifier the IG API uses to address the instrument.
type TrackedPosition struct {
	Symbol        string    // display name, e.g. "Apple Inc."
	Epic          string    // IG instrument identifier
	PurchasePrice float64   // must be > 0 to be monitored
	PurchaseDate  time.Time
	Sold          bool
}

// Monitorable reports whether the position qualifies for monitoring.
// Sold positions, positions without an EPIC and positions with a
// non-positive purchase price are skipped.
func (p TrackedPosition) Monitorable() bool {
	return !p.Sold && p.Epic != "" && p.PurchasePrice > 0
}

// PriceQuote is a single observed price for an instrument. Quotes are
// ephemeral: produced per poll, never persisted.
type PriceQuote struct {
	Epic       string
	Price      float64
	ObservedAt time.Time
}

// AlertRecord is one entry in the alert ledger. Date is a local calendar
// day ("2006-01-02"), not a timestamp, because dedup is per-day.
type AlertRecord struct {
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	CurrentPrice float64 `json:"current_price"`
}
