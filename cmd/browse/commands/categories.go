package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List image categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := c.catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cat := range categories {
				_, _ = fmt.Fprintf(out, "%4d  %s\n", cat.ID, cat.Name)
			}
			return nil
		},
	}
}
