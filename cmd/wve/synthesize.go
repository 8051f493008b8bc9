package main

import (
	"fmt"
	"os"

	"github.com/bierlingm/worldview-extractor/internal/synthesis"
	"github.com/spf13/cobra"
)

func newSynthesizeCmd(c *cli) *cobra.Command {
	var (
		title  string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "synthesize FILES...",
		Short: "Synthesize worldviews into a movement document",
		Long: `Compare every pair of worldviews and collect convergences, tensions
and unique voices into one document.

Formats: markdown (default), json, both.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.readWorldviews(args)
			if err != nil {
				return err
			}

			m := c.synthesizer.GenerateMovement(c.context(cmd), ws, title)

			if c.jsonOut {
				format = synthesis.FormatJSON
			}
			rendered, err := synthesis.Render(m, format)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			}
			if err := os.WriteFile(output, []byte(rendered+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", output, m.Summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Movement title")
	cmd.Flags().StringVar(&format, "format", synthesis.FormatMarkdown, "Output format: markdown, json, both")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
