package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justin7251/IG-stock/internal/ig"
)

func newMarketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Look up markets on the IG API",
	}
	cmd.AddCommand(newMarketSearchCmd(app))
	cmd.AddCommand(newMarketGetCmd(app))
	return cmd
}

// marketSession validates credentials and performs a one-shot login
// for a lookup command.
func marketSession(ctx context.Context, app *App) (*ig.Client, *ig.Session, error) {
	if err := app.Config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration: %w", err)
	}
	client := app.apiClient()
	sess, err := client.Login(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client, sess, nil
}

func newMarketSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "search <term>",
		Short:   "Search markets by name or EPIC",
		Example: `  igstock market search apple`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			client, sess, err := marketSession(ctx, app)
			if err != nil {
				return err
			}

			markets, err := client.Search(ctx, sess, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(markets)
			}
			if len(markets) == 0 {
				output.Warning("No markets found for %q", args[0])
				return nil
			}

			output.Printf("%-30s %-38s %10s %10s\n", "EPIC", "NAME", "BID", "OFFER")
			for _, m := range markets {
				bid, offer := "-", "-"
				if m.Bid != nil {
					bid = fmt.Sprintf("%.2f", *m.Bid)
				}
				if m.Offer != nil {
					offer = fmt.Sprintf("%.2f", *m.Offer)
				}
				output.Printf("%-30s %-38s %10s %10s\n", m.Epic, m.InstrumentName, bid, offer)
			}
			return nil
		},
	}
}

func newMarketGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "get <epic>",
		Short:   "Show current details for one EPIC",
		Example: `  igstock market get IX.D.AAPL.DAILY.IP`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			client, sess, err := marketSession(ctx, app)
			if err != nil {
				return err
			}

			detail, err := client.MarketDetail(ctx, sess, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(detail)
			}

			output.Printf("EPIC:   %s\n", detail.Epic)
			output.Printf("Name:   %s\n", detail.Name)
			output.Printf("Bid:    %.2f\n", detail.Bid)
			output.Printf("Offer:  %.2f\n", detail.Offer)
			output.Printf("Status: %s\n", detail.Status)
			return nil
		},
	}
}
