package cli

import (
	"github.com/spf13/cobra"
)

func NewTagCommand(globalOptions *GlobalOptions) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage the tag catalog",
	}

	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "List every tag with the number of items carrying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				usage, err := a.Tags.ListUsage(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), usage)
			})
		},
	}

	var setDeps []string
	var replaceDeps bool
	depsCmd := &cobra.Command{
		Use:   "deps <tag>",
		Short: "Show or replace the dependencies of a tag",
		Long:  "Without --set, prints the tags implied by <tag>. With --set (repeatable) or --clear, replaces them; new dependencies are added to items already carrying <tag>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				if len(setDeps) > 0 || replaceDeps {
					if err := a.Tags.SetDependencies(cmd.Context(), args[0], setDeps); err != nil {
						return err
					}
				}
				deps, err := a.Tags.GetDependencies(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), deps)
			})
		},
	}
	depsCmd.Flags().StringArrayVar(&setDeps, "set", nil, "Dependency name. May be repeated.")
	depsCmd.Flags().BoolVar(&replaceDeps, "clear", false, "Remove every dependency not given with --set.")

	var newName string
	var updateDeps []string
	updateCmd := &cobra.Command{
		Use:   "update <tag>",
		Short: "Rename a tag and replace its dependencies in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				tag, err := a.Tags.UpdateTag(cmd.Context(), args[0], newName, updateDeps)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tag)
			})
		},
	}
	updateCmd.Flags().StringVar(&newName, "name", "", "New name of the tag. Empty keeps the current name.")
	updateCmd.Flags().StringArrayVar(&updateDeps, "dep", nil, "Dependency name. May be repeated.")

	aliasCmd := &cobra.Command{
		Use:   "alias <tag> [target]",
		Short: "Make a tag an alias of another tag, or clear the alias",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			return withApp(globalOptions, func(a *app) error {
				return a.Tags.SetAlias(cmd.Context(), args[0], target)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a tag, its links and its dependency edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				return a.Tags.DeleteTag(cmd.Context(), args[0])
			})
		},
	}

	tagCmd.AddCommand(usageCmd, depsCmd, updateCmd, aliasCmd, deleteCmd)
	return tagCmd
}
