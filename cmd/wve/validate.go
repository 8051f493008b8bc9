package main

import (
	"fmt"

	"github.com/bierlingm/worldview-extractor/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a worldview file is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.readWorldview(args[0])
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), w.Meta())
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s): %d points, %d sources\n",
				green("✓"), w.Subject, w.Slug, len(w.Points), w.SourceCount())
			return nil
		},
	}
}

type evalResult struct {
	Subject    string                      `json:"subject"`
	Passed     bool                        `json:"passed"`
	Violations []service.CriteriaViolation `json:"violations"`
}

func newEvalCmd(c *cli) *cobra.Command {
	criteria := service.DefaultStrictCriteria()

	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Score a worldview against quality criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.readWorldview(args[0])
			if err != nil {
				return err
			}

			violations := criteria.Evaluate(w)
			if c.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), evalResult{
					Subject:    w.Subject,
					Passed:     len(violations) == 0,
					Violations: violations,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if len(violations) == 0 {
					fmt.Fprintf(out, "%s %s passes all criteria\n", color.GreenString("✓"), w.Subject)
					return nil
				}
				fmt.Fprintf(out, "%s %s: %d violation(s)\n", color.RedString("✗"), w.Subject, len(violations))
				for _, v := range violations {
					fmt.Fprintf(out, "  [%s] %s\n", v.Criterion, v.Message)
				}
			}

			if len(violations) > 0 {
				return fmt.Errorf("%d criteria violated", len(violations))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&criteria.MinPoints, "min-points", criteria.MinPoints, "Minimum number of points")
	cmd.Flags().IntVar(&criteria.MaxPoints, "max-points", criteria.MaxPoints, "Maximum number of points")
	cmd.Flags().Float64Var(&criteria.MinAvgConfidence, "min-avg-confidence", criteria.MinAvgConfidence, "Minimum average confidence")
	cmd.Flags().BoolVar(&criteria.RequireEvidence, "require-evidence", criteria.RequireEvidence, "Require evidence on every point")
	return cmd
}
