package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/justin7251/IG-stock/internal/models"
)

// SQLiteStore implements PositionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed position store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		epic TEXT NOT NULL UNIQUE,
		purchase_price REAL NOT NULL,
		purchase_date DATETIME,
		sold INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_positions_sold ON positions(sold);
	`
	_, err := s.db.Exec(schema)
	return err
}

func validatePosition(pos models.TrackedPosition) error {
	if pos.Epic == "" {
		return fmt.Errorf("position %q has no epic", pos.Symbol)
	}
	if pos.PurchasePrice <= 0 {
		return fmt.Errorf("position %q purchase price must be positive, got %g", pos.Symbol, pos.PurchasePrice)
	}
	return nil
}

// AddPosition inserts a tracked position. The EPIC must be unique.
func (s *SQLiteStore) AddPosition(ctx context.Context, pos models.TrackedPosition) error {
	if err := validatePosition(pos); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (symbol, epic, purchase_price, purchase_date, sold)
		VALUES (?, ?, ?, ?, ?)`,
		pos.Symbol, pos.Epic, pos.PurchasePrice, pos.PurchaseDate, boolToInt(pos.Sold))
	if err != nil {
		return fmt.Errorf("inserting position %s: %w", pos.Epic, err)
	}
	return nil
}

// AddPositions inserts all positions in one transaction: on any
// failure (a duplicate EPIC, an invalid entry) nothing is inserted and
// the store is left as it was.
func (s *SQLiteStore) AddPositions(ctx context.Context, positions []models.TrackedPosition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (symbol, epic, purchase_price, purchase_date, sold)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	for _, pos := range positions {
		if err := validatePosition(pos); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, pos.Symbol, pos.Epic, pos.PurchasePrice, pos.PurchaseDate, boolToInt(pos.Sold)); err != nil {
			return fmt.Errorf("inserting position %s: %w", pos.Epic, err)
		}
	}
	return tx.Commit()
}

// ListPositions returns all positions, oldest first.
func (s *SQLiteStore) ListPositions(ctx context.Context) ([]models.TrackedPosition, error) {
	return s.list(ctx, `SELECT symbol, epic, purchase_price, purchase_date, sold
		FROM positions ORDER BY id`)
}

// ListActive returns positions not marked sold, oldest first.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]models.TrackedPosition, error) {
	return s.list(ctx, `SELECT symbol, epic, purchase_price, purchase_date, sold
		FROM positions WHERE sold = 0 ORDER BY id`)
}

func (s *SQLiteStore) list(ctx context.Context, query string) ([]models.TrackedPosition, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var positions []models.TrackedPosition
	for rows.Next() {
		var pos models.TrackedPosition
		var sold int
		var purchaseDate sql.NullTime
		if err := rows.Scan(&pos.Symbol, &pos.Epic, &pos.PurchasePrice, &purchaseDate, &sold); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		if purchaseDate.Valid {
			pos.PurchaseDate = purchaseDate.Time
		}
		pos.Sold = sold != 0
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// MarkSold flags a position as sold so monitoring excludes it on the
// next startup.
func (s *SQLiteStore) MarkSold(ctx context.Context, epic string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE positions SET sold = 1 WHERE epic = ?`, epic)
	if err != nil {
		return fmt.Errorf("marking %s sold: %w", epic, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no position with epic %s", epic)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseDate accepts the date formats the import file has carried.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
