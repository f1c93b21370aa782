package cli

import (
	"github.com/spf13/cobra"
)

func NewScanCommand(globalOptions *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the library once and reconcile it with the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				report, err := a.Rescan.TriggerRescan(cmd.Context())
				if report != nil {
					if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}
