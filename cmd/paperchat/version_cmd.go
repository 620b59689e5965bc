package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at release build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the paperchat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paperchat %s (commit %s, built %s)\n", version, commit, date)
	},
}
