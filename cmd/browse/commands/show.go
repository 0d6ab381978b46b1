package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timmy/catknow/internal/domain"
)

func (c *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one image and its breed details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := c.catalog.CatDetails(cmd.Context(), args[0])
			if domain.IsNotFound(err) {
				return fmt.Errorf("cat %q not found", args[0])
			}
			if err != nil {
				return err
			}
			renderDetails(cmd.OutOrStdout(), img)
			return nil
		},
	}
}

func renderDetails(w io.Writer, img *domain.CatImage) {
	_, _ = fmt.Fprintf(w, "Image   %s\n", img.ID)
	_, _ = fmt.Fprintf(w, "URL     %s\n", img.URL)
	if img.Width > 0 && img.Height > 0 {
		_, _ = fmt.Fprintf(w, "Size    %dx%d\n", img.Width, img.Height)
	}

	breed, ok := img.PrimaryBreed()
	if !ok {
		_, _ = fmt.Fprintln(w, "No breed information")
		return
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", breed.Name)
	printField(w, "Origin", breed.Origin)
	printField(w, "Temperament", breed.Temperament)
	printField(w, "Life span", withUnit(breed.LifeSpan, "years"))
	printField(w, "Weight", withUnit(breed.Weight.Metric, "kg"))
	if breed.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", breed.Description)
	}

	traits := breed.Traits()
	if len(traits) > 0 {
		_, _ = fmt.Fprintln(w)
	}
	for _, tr := range traits {
		_, _ = fmt.Fprintf(w, "%-18s %s\n", tr.Name, stars(tr.Score))
	}
	if breed.WikipediaURL != "" {
		_, _ = fmt.Fprintf(w, "\nMore: %s\n", breed.WikipediaURL)
	}
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-12s %s\n", label, value)
}

func withUnit(value, unit string) string {
	if value == "" {
		return ""
	}
	return value + " " + unit
}

// stars renders a 1-5 score.
func stars(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return strings.Repeat("★", score) + strings.Repeat("☆", 5-score)
}
