// Package main implements the taskboard-api server and its operator commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every subcommand shares --config.
func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Collaborative task board API with real-time notifications",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "",
		"path to a config file (defaults to ./config.yaml when present)")

	root.AddCommand(
		newServeCmd(&configFile),
		newMigrateCmd(&configFile),
		newTokenCmd(&configFile),
		newHashPasswordCmd(),
	)
	return root
}

// loadConfig loads configuration and installs the configured default logger.
func loadConfig(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"redis_enabled", cfg.Redis.URL != "",
		"reminder_enabled", cfg.Reminder.Enabled)
	return cfg, log, nil
}
