package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justin7251/IG-stock/internal/models"
	"github.com/justin7251/IG-stock/internal/store"
)

func newPositionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Manage tracked positions",
	}
	cmd.AddCommand(newPositionAddCmd(app))
	cmd.AddCommand(newPositionListCmd(app))
	cmd.AddCommand(newPositionSoldCmd(app))
	cmd.AddCommand(newPositionImportCmd(app))
	return cmd
}

func openStore(app *App) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(app.Config.Monitor.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening position store: %w", err)
	}
	return st, nil
}

func newPositionAddCmd(app *App) *cobra.Command {
	var (
		name  string
		epic  string
		price float64
		date  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a purchased stock to watch",
		Example: `  igstock position add --name "Apple Inc." --epic IX.D.AAPL.DAILY.IP --price 150.00
  igstock position add --name "Apple Inc." --epic IX.D.AAPL.DAILY.IP --price 150.00 --date 2026-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			pos := models.TrackedPosition{
				Symbol:        name,
				Epic:          epic,
				PurchasePrice: price,
			}
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
				pos.PurchaseDate = d
			}

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.AddPosition(cmd.Context(), pos); err != nil {
				return err
			}
			output.Success("Tracking %s (EPIC: %s) from purchase price %.2f", name, epic, price)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name of the stock")
	cmd.Flags().StringVar(&epic, "epic", "", "IG EPIC identifier")
	cmd.Flags().Float64Var(&price, "price", 0, "Purchase price")
	cmd.Flags().StringVar(&date, "date", "", "Purchase date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("epic")
	cmd.MarkFlagRequired("price")

	return cmd
}

func newPositionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			positions, err := st.ListPositions(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Info("No positions recorded. Use 'igstock position add'.")
				return nil
			}

			output.Printf("%-24s %-30s %12s %-12s %s\n", "NAME", "EPIC", "PRICE", "DATE", "STATUS")
			for _, p := range positions {
				status := "watching"
				if p.Sold {
					status = "sold"
				}
				date := "-"
				if !p.PurchaseDate.IsZero() {
					date = p.PurchaseDate.Format("2006-01-02")
				}
				output.Printf("%-24s %-30s %12.2f %-12s %s\n", p.Symbol, p.Epic, p.PurchasePrice, date, status)
			}
			return nil
		},
	}
}

func newPositionSoldCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "sold <epic>",
		Short:   "Mark a position as sold and stop watching it",
		Example: `  igstock position sold IX.D.AAPL.DAILY.IP`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.MarkSold(cmd.Context(), args[0]); err != nil {
				return err
			}
			output.Success("%s marked sold; restart the monitor to apply", args[0])
			return nil
		},
	}
}

func newPositionImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "import <file>",
		Short:   "Import positions from a stock_data.json file",
		Example: `  igstock position import stock_data.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := openStore(app)
			if err != nil {
				return err
			}
			defer st.Close()

			imported, skipped, err := store.ImportStockData(cmd.Context(), st, f)
			if err != nil {
				return err
			}
			output.Success("Imported %d positions", imported)
			if skipped > 0 {
				output.Warning("Skipped %d entries without an EPIC", skipped)
			}
			return nil
		},
	}
}
