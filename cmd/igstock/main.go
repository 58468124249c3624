package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/justin7251/IG-stock/internal/cli"
	"github.com/justin7251/IG-stock/internal/config"
	"github.com/justin7251/IG-stock/internal/logging"
)

func main() {
	// Best effort: credentials may come from a .env file instead of
	// the environment or config file.
	_ = godotenv.Load()

	logger := logging.NewLogger()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal().Err(err).Msg("loading configuration")
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
