package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/justin7251/IG-stock/internal/models"
)

// stockDataEntry mirrors one value of the legacy stock_data.json file:
// a map of display name to purchase details.
type stockDataEntry struct {
	EpicCode      string  `json:"epic_code"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  string  `json:"purchase_date"`
	Sold          bool    `json:"sold"`
}

// ImportStockData reads the legacy stock_data.json shape and inserts
// every entry with an EPIC into the store in one transaction: a
// duplicate or invalid entry fails the whole import and leaves the
// store as it was. Entries without an EPIC are skipped and counted.
func ImportStockData(ctx context.Context, s PositionStore, r io.Reader) (imported, skipped int, err error) {
	var raw map[string]stockDataEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, 0, fmt.Errorf("parsing stock data: %w", err)
	}

	var positions []models.TrackedPosition
	for name, entry := range raw {
		if entry.EpicCode == "" {
			skipped++
			continue
		}
		pos := models.TrackedPosition{
			Symbol:        name,
			Epic:          entry.EpicCode,
			PurchasePrice: entry.PurchasePrice,
			Sold:          entry.Sold,
		}
		if t, ok := parseDate(entry.PurchaseDate); ok {
			pos.PurchaseDate = t
		}
		positions = append(positions, pos)
	}

	if err := s.AddPositions(ctx, positions); err != nil {
		return 0, skipped, err
	}
	return len(positions), skipped, nil
}
