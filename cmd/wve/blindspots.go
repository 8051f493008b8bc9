package main

import (
	"fmt"

	"github.com/bierlingm/worldview-extractor/internal/comparison"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBlindspotsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "blindspots TARGET OTHERS...",
		Short: "Find themes others address that TARGET does not",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.readWorldviews(args)
			if err != nil {
				return err
			}

			spots := comparison.FindBlindspots(&ws[0], ws[1:])
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), spots)
			}

			out := cmd.OutOrStdout()
			if len(spots) == 0 {
				fmt.Fprintf(out, "%s addresses every theme the others raise\n", ws[0].Subject)
				return nil
			}
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Fprintf(out, "%d blindspot(s) for %s:\n\n", len(spots), ws[0].Subject)
			for _, b := range spots {
				fmt.Fprintf(out, "%s\n", yellow(b.MissingTheme))
				for i, subject := range b.AddressedBy {
					fmt.Fprintf(out, "  %s: %s\n", subject, b.Examples[i].Stance)
				}
			}
			return nil
		},
	}
}
