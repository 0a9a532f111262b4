package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/internal/cli"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Starts an interactive conversation as one user.
Type a button number or :<action> to press a button, "exit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		userID, _ := cmd.Flags().GetInt64("user")
		handle, _ := cmd.Flags().GetString("handle")
		headless, _ := cmd.Flags().GetBool("headless")
		if userID == 0 {
			return fmt.Errorf("--user must be non-zero")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.Chat(ctx, cfg, logger, cli.ChatOptions{
			User:     domain.UserID(userID),
			Handle:   handle,
			Input:    os.Stdin,
			Output:   os.Stdout,
			Headless: headless,
			Version:  todobot.Version,
		})
		if errors.Is(err, ctx.Err()) && ctx.Signal() != nil {
			fmt.Printf("\nInterrupted (%v)\n", ctx.Signal())
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Int64P("user", "u", 1, "User id of the conversation")
	chatCmd.Flags().String("handle", os.Getenv("USER"), "Platform handle offered as login")
	chatCmd.Flags().Bool("headless", false, "Plain output without banner, colors or prompts")
}
