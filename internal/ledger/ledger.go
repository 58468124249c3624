// Package ledger persists the per-instrument, per-day record of alerts
// already sent. It is the only durable artifact the monitor owns.
//
// The file is a JSON map of EPIC to an ordered list of entries, the
// same human-inspectable shape the alert log has always had. Every
// append rewrites the whole file through a temp file and rename so a
// crash can never leave a torn file behind; a missing file is an empty
// ledger.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	igerrors "github.com/justin7251/IG-stock/internal/errors"
	"github.com/justin7251/IG-stock/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Ledger is the in-memory alert log backed by one JSON file. All
// load-modify-persist sequences are serialized under a single mutex so
// concurrent instrument ticks cannot clobber each other's appends.
type Ledger struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string][]models.AlertRecord
}

// Open loads the ledger file at path. A missing file yields an empty
// ledger; an unparseable file is an error, never silently discarded.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		now:     time.Now,
		entries: make(map[string][]models.AlertRecord),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading alert ledger %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", igerrors.ErrLedgerCorrupt, path, err)
	}
	return l, nil
}

// AlreadyAlertedToday reports whether any record for epic carries
// today's local calendar date. A poll just before and just after local
// midnight land on different days.
func (l *Ledger) AlreadyAlertedToday(epic string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(dateLayout)
	for _, rec := range l.entries[epic] {
		if rec.Date == today {
			return true
		}
	}
	return false
}

// Record appends an alert entry for epic with today's date and time
// and persists the full ledger atomically. On a persistence failure
// the in-memory record is kept and the error surfaced: the next
// restart would reload from disk and risk a duplicate alert, so
// callers must log it loudly.
func (l *Ledger) Record(epic string, price float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.entries[epic] = append(l.entries[epic], models.AlertRecord{
		Date:         now.Format(dateLayout),
		Time:         now.Format(timeLayout),
		CurrentPrice: price,
	})

	if err := l.persistLocked(); err != nil {
		return igerrors.NewPersistenceError(l.path, err)
	}
	return nil
}

// History returns a copy of the records for epic, oldest first.
func (l *Ledger) History(epic string) []models.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.entries[epic]
	out := make([]models.AlertRecord, len(recs))
	copy(out, recs)
	return out
}

// persistLocked rewrites the whole file via temp-then-rename. Must be
// called with l.mu held.
func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
