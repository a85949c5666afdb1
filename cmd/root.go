// Package cmd defines and implements the CLI commands for the keno-monitor
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	development bool
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keno-monitor",
		Short: "Watches FlashSport Keno for bright numbers and alerts over Telegram.",
		Long: `keno-monitor polls the FlashSport Keno page, detects numbers that
brighten up ahead of a draw, and pushes a Telegram alert the moment they
appear. A small HTTP surface exposes the landing page, health, status,
and Prometheus metrics for uptime checkers.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (searches ./config.yaml when unset)")
	cmd.PersistentFlags().BoolVar(&development, "dev", false, "enable development logging")

	cmd.AddCommand(newMonitorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
