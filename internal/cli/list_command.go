package cli

import (
	"mediashelf/internal/models"

	"github.com/spf13/cobra"
)

type ListOptions struct {
	ItemID int64
	Tags   []string
	Page   int
}

func NewListCommand(globalOptions *GlobalOptions) *cobra.Command {
	listOptions := &ListOptions{}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the library",
		Long:  "Prints the top level of the library, the contents of one item (--item) or the items carrying every given tag (--tag, repeatable).",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.ListingRequest{Tags: listOptions.Tags, Page: listOptions.Page}
			if cmd.Flags().Changed("item") {
				id := listOptions.ItemID
				req.ItemID = &id
			}
			return withApp(globalOptions, func(a *app) error {
				listing, err := a.Listing.List(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), listing)
			})
		},
	}

	listCmd.Flags().Int64Var(&listOptions.ItemID, "item", 0, "Show this item, or the children of this folder.")
	listCmd.Flags().StringArrayVar(&listOptions.Tags, "tag", nil, "Only list items carrying this tag. May be repeated.")
	listCmd.Flags().IntVar(&listOptions.Page, "page", 1, "Page number, starting at 1.")

	return listCmd
}
