// Package commands implements the browse CLI on top of the proxy client and
// the incremental loader.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/loader"
)

// Catalog is the proxy surface the commands need.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CatDetails(ctx context.Context, id string) (*domain.CatImage, error)
	PageSource() loader.FetchFunc[domain.CatImage]
}

// Options are defaults taken from configuration.
type Options struct {
	PageSize    int
	InitialPage int
}

// CLI represents the command line interface for browsing the catalog.
type CLI struct {
	catalog Catalog
	opts    Options
	rootCmd *cobra.Command
}

// New creates a new CLI instance.
func New(catalog Catalog, opts Options) *CLI {
	if opts.PageSize <= 0 {
		opts.PageSize = loader.DefaultPageSize
	}

	rootCmd := &cobra.Command{
		Use:           "browse",
		Short:         "Browse cat images through the catknow proxy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{
		catalog: catalog,
		opts:    opts,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCatsCmd())
	rootCmd.AddCommand(c.newCategoriesCmd())
	rootCmd.AddCommand(c.newShowCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
