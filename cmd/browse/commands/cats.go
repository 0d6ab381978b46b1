package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/loader"
)

// rowHeight converts list rows into the sentinel's pixel units.
const rowHeight = 40

type catsFlags struct {
	category string
	limit    int
	screens  int
	rows     int
}

func (c *CLI) newCatsCmd() *cobra.Command {
	var flags catsFlags

	cmd := &cobra.Command{
		Use:   "cats",
		Short: "Scroll through cat images, loading pages as the end comes into view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runCats(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "", "Category ID to filter by")
	cmd.Flags().IntVar(&flags.limit, "limit", c.opts.PageSize, "Images per page")
	cmd.Flags().IntVar(&flags.screens, "screens", 3, "Number of screens to scroll")
	cmd.Flags().IntVar(&flags.rows, "rows", 10, "Rows visible per screen")

	return cmd
}

func (c *CLI) runCats(cmd *cobra.Command, flags catsFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	l := loader.New(
		c.catalog.PageSource(),
		loader.WithPageSize(flags.limit),
		loader.WithInitialPage(c.opts.InitialPage),
		loader.WithKey(flags.category),
	)

	r := &listRenderer{w: out}
	sentinel := loader.NewSentinel(l, func() { l.LoadNext(ctx) })
	l.Subscribe(func(s loader.State[domain.CatImage]) {
		r.render(s)
		// a failed page is not retried automatically
		if !s.IsLoading && s.Err == nil {
			sentinel.UpdateBoundary(len(s.Items) * rowHeight)
		}
	})

	height := flags.rows * rowHeight
	for screen := 0; screen < flags.screens; screen++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s := l.State()
		sentinel.Observe(loader.Viewport{
			Offset:   screen * height,
			Height:   height,
			Boundary: len(s.Items) * rowHeight,
		})
		if s = l.State(); s.Err != nil || !s.HasMore {
			break
		}
	}

	s := l.State()
	if s.Err != nil {
		return s.Err
	}
	if len(s.Items) == 0 {
		_, _ = fmt.Fprintln(out, "No cats found")
		return nil
	}
	more := "more available"
	if !s.HasMore {
		more = "end of list"
	}
	_, _ = fmt.Fprintf(out, "-- %d cats, %s --\n", len(s.Items), more)
	return nil
}

// listRenderer prints items appended since the last render.
type listRenderer struct {
	w        io.Writer
	rendered int
}

func (r *listRenderer) render(s loader.State[domain.CatImage]) {
	if len(s.Items) < r.rendered {
		r.rendered = 0
	}
	for i := r.rendered; i < len(s.Items); i++ {
		img := s.Items[i]
		label := "-"
		if breed, ok := img.PrimaryBreed(); ok {
			label = breed.Name
		}
		_, _ = fmt.Fprintf(r.w, "%4d. %-12s %-20s %s\n", i+1, img.ID, label, img.URL)
	}
	r.rendered = len(s.Items)
}
