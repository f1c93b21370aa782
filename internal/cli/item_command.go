package cli

import (
	"fmt"
	"strconv"

	"mediashelf/internal/logging"
	"mediashelf/internal/shared"

	"github.com/spf13/cobra"
)

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid item id %q", shared.ErrValidation, arg)
	}
	return id, nil
}

func NewItemCommand(globalOptions *GlobalOptions) *cobra.Command {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Tag, move or delete library items",
	}

	tagCmd := &cobra.Command{
		Use:   "tag <id> [tag...]",
		Short: "Replace the tags of an item",
		Long:  "Replaces the tags of an item with the given names and every tag they depend on. Without names, all tags are removed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withApp(globalOptions, func(a *app) error {
				result, err := a.Tags.UpdateItemTags(cmd.Context(), id, args[1:])
				if result != nil {
					if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}

	var parent int64
	var newName string
	moveCmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an item under another folder",
		Long:  "Moves the file or folder on disk and in the database. Without --parent the item moves to the library root.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			var parentID *int64
			if cmd.Flags().Changed("parent") {
				parentID = &parent
			}
			return withApp(globalOptions, func(a *app) error {
				result, err := a.Items.Move(cmd.Context(), id, parentID, newName)
				if err != nil {
					return err
				}
				if result.ThumbnailErr != nil {
					logging.Log.Warnf("Item moved but its thumbnail did not follow: %v", result.ThumbnailErr)
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	moveCmd.Flags().Int64Var(&parent, "parent", 0, "Id of the destination folder.")
	moveCmd.Flags().StringVar(&newName, "name", "", "New display name. Empty keeps the current name.")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item with everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withApp(globalOptions, func(a *app) error {
				result, err := a.Items.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
					return perr
				}
				return result.Err()
			})
		},
	}

	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "List every folder, the possible move destinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(globalOptions, func(a *app) error {
				folders, err := a.Items.Folders(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), folders)
			})
		},
	}

	itemCmd.AddCommand(tagCmd, moveCmd, deleteCmd, foldersCmd)
	return itemCmd
}
