package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justin7251/IG-stock/internal/ig"
	"github.com/justin7251/IG-stock/internal/ledger"
	"github.com/justin7251/IG-stock/internal/models"
	"github.com/justin7251/IG-stock/internal/monitor"
	"github.com/justin7251/IG-stock/internal/notify"
	"github.com/justin7251/IG-stock/internal/store"
)

func newMonitorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch tracked positions and alert on price drops",
		Long: `Start the monitoring loop. Every unsold position is polled on its own
timer; a drop of the configured threshold (default 10%) below the purchase
price sends one alert per stock per day.

The loop runs until interrupted. Position changes require a restart.`,
		Example: `  igstock monitor
  igstock monitor --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			log := app.Logger

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			if err := cfg.ValidateNotifications(); err != nil {
				return fmt.Errorf("configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			positions, err := loadPositions(ctx, app)
			if err != nil {
				return err
			}

			led, err := ledger.Open(cfg.Monitor.LedgerPath)
			if err != nil {
				return fmt.Errorf("opening alert ledger: %w", err)
			}

			sessions := ig.NewSessionManager(app.apiClient(), log)
			if err := sessions.Start(ctx); err != nil {
				// No session means no monitoring; abort rather than run blind.
				return fmt.Errorf("startup authentication: %w", err)
			}

			sup := monitor.NewSupervisor(
				monitor.Config{
					Interval:      cfg.Monitor.Interval,
					DropThreshold: cfg.Monitor.DropThreshold,
				},
				sessions,
				app.apiClient(),
				led,
				notify.NewMulti(cfg.Notifications),
				log,
			)
			return sup.Run(ctx, positions)
		},
	}
}

// loadPositions reads the tracked set once; the monitor never re-reads
// it, so changes made while running take effect on the next start.
func loadPositions(ctx context.Context, app *App) ([]models.TrackedPosition, error) {
	st, err := store.NewSQLiteStore(app.Config.Monitor.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening position store: %w", err)
	}
	defer st.Close()

	positions, err := st.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	return positions, nil
}
