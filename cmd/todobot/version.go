package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/todobot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of todobot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("todobot version %s\n", strings.TrimSpace(todobot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
