// Command votesheetctl works with vote sheets offline and drives a running
// vote sheet service.
package main

import (
	"fmt"
	"os"

	"github.com/okian/votesheet/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "votesheetctl",
		Short:         "Rank, export and load-test weighted vote sheets",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv()
		},
	}
	root.PersistentFlags().String("config", "", "YAML sheet definition (default: built-in sheet, or VOTESHEET_CONFIG)")

	root.AddCommand(newRankCmd(), newExportCmd(), newDriveCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
