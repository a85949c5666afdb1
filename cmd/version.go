package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via
// -ldflags "-X github.com/JakeFAU/keno-monitor/cmd.Version=v1.2.3".
var Version = "dev"

// newVersionCmd creates the 'version' subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the keno-monitor version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "keno-monitor "+Version)
		},
	}
}
