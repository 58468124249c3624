package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justin7251/IG-stock/internal/config"
	"github.com/justin7251/IG-stock/internal/ig"
	"github.com/justin7251/IG-stock/internal/logging"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "igstock",
		Short: "IG stock watcher - price drop alerts for purchased stocks",
		Long: `igstock watches a portfolio of purchased stocks against the IG Markets API
and emails an alert when a stock drops 10% or more below its purchase price,
at most once per stock per day.

Use 'igstock position add' to record purchases, then 'igstock monitor' to
start watching.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(newMonitorCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
	rootCmd.AddCommand(newPositionCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// apiClient builds an IG client from the loaded configuration.
func (a *App) apiClient() *ig.Client {
	return ig.NewClient(ig.Config{
		BaseURL:  a.Config.IG.BaseURL,
		APIKey:   a.Config.IG.APIKey,
		Username: a.Config.IG.Username,
		Password: a.Config.IG.Password,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			NewOutput(cmd).Printf("igstock %s\n", Version)
		},
	}
}
