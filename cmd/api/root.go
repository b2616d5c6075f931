package main

import (
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"userauth/api/internal/config"
	"userauth/api/internal/log"
)

var configFile string

// NewRootCmd creates the root command for the auth service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "userauth",
		Short:        "User authentication service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads and validates configuration and builds the process logger.
func loadConfig() (*config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), oops.Code("CONFIG_LOAD_FAILED").With("file", configFile).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, log.New(cfg.Environment, cfg.Logging.Level), nil
}
