package main

import (
	"fmt"
	"io"

	"github.com/bierlingm/worldview-extractor/internal/domain"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDiffCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "diff A B",
		Short: "Compare two worldviews",
		Long: `Match the points of A against B by theme and report agreements,
tensions and the points unique to each side.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.readWorldviews(args)
			if err != nil {
				return err
			}

			diff := c.comparator.Compare(c.context(cmd), &ws[0], &ws[1])
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), diff)
			}
			printDiff(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}

func printDiff(out io.Writer, d *domain.WorldviewDiff) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(out, "%s vs %s (similarity %.0f%%)\n\n", bold(d.SubjectA), bold(d.SubjectB), d.SimilarityScore*100)

	fmt.Fprintf(out, "%s (%d)\n", green("Agreements"), len(d.Agreements))
	for _, cmp := range d.Agreements {
		printComparison(out, d, cmp)
	}
	fmt.Fprintf(out, "\n%s (%d)\n", red("Tensions"), len(d.Tensions))
	for _, cmp := range d.Tensions {
		printComparison(out, d, cmp)
	}

	fmt.Fprintf(out, "\n%s (%d)\n", cyan("Unique to "+d.SubjectA), len(d.UniqueToA))
	for _, p := range d.UniqueToA {
		fmt.Fprintf(out, "  - %s: %s\n", p.Theme, p.Stance)
	}
	fmt.Fprintf(out, "\n%s (%d)\n", cyan("Unique to "+d.SubjectB), len(d.UniqueToB))
	for _, p := range d.UniqueToB {
		fmt.Fprintf(out, "  - %s: %s\n", p.Theme, p.Stance)
	}
}

func printComparison(out io.Writer, d *domain.WorldviewDiff, cmp domain.PointComparison) {
	fmt.Fprintf(out, "  %s\n", cmp.Theme)
	fmt.Fprintf(out, "    %s: %s\n", d.SubjectA, cmp.PointA.Stance)
	fmt.Fprintf(out, "    %s: %s\n", d.SubjectB, cmp.PointB.Stance)
}
