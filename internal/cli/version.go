package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/app"
)

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.GetVersionInfo()
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
			return err
		},
	}
}
