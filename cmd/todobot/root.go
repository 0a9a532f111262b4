package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/todobot/internal/cli"
	"github.com/aretw0/todobot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todobot",
	Short: "todobot is a conversational to-do list bot",
	Long: `todobot keeps a per-user to-do list behind a small conversational state machine.
Run it as an HTTP/WebSocket service or chat with it in the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("storage", "", "Override the storage driver (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "Override the storage DSN")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if driver, _ := cmd.Flags().GetString("storage"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logger, err := cli.NewLogger(cfg, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
