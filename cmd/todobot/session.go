package main

import (
	"os"

	"github.com/aretw0/todobot/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove conversations kept by the configured session backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInfra(cmd, func(infra *cli.Infra) error {
			return cli.ListSessions(cmd.Context(), infra, os.Stdout)
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user>",
	Short: "Print the redacted state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := cli.ParseUsers(args)
		if err != nil {
			return err
		}
		return withInfra(cmd, func(infra *cli.Infra) error {
			return cli.InspectSession(cmd.Context(), infra, users[0], os.Stdout)
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := cli.ParseUsers(args)
		if err != nil {
			return err
		}
		return withInfra(cmd, func(infra *cli.Infra) error {
			return cli.RemoveSessions(cmd.Context(), infra, users, os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

func withInfra(cmd *cobra.Command, fn func(*cli.Infra) error) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	infra, err := cli.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()
	return fn(infra)
}
