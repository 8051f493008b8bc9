package service

import (
	"fmt"

	"github.com/bierlingm/worldview-extractor/internal/domain"
)

// EvalCriteria are quality bounds for an extracted worldview. A zero
// field disables its check.
type EvalCriteria struct {
	MinPoints        int     `json:"min_points"`
	MaxPoints        int     `json:"max_points"`
	MinAvgConfidence float64 `json:"min_avg_confidence"`
	RequireEvidence  bool    `json:"require_evidence"`
}

type CriteriaViolation struct {
	Criterion string `json:"criterion"`
	Message   string `json:"message"`
}

func DefaultStrictCriteria() EvalCriteria {
	return EvalCriteria{
		MinPoints:        5,
		MaxPoints:        25,
		MinAvgConfidence: 0.5,
		RequireEvidence:  true,
	}
}

// Evaluate returns every criterion w fails, in a fixed order. An empty
// result means w passes.
func (c EvalCriteria) Evaluate(w *domain.Worldview) []CriteriaViolation {
	violations := []CriteriaViolation{}
	n := len(w.Points)

	if c.MinPoints > 0 && n < c.MinPoints {
		violations = append(violations, CriteriaViolation{
			Criterion: "min_points",
			Message:   fmt.Sprintf("Only %d points, expected at least %d", n, c.MinPoints),
		})
	}
	if c.MaxPoints > 0 && n > c.MaxPoints {
		violations = append(violations, CriteriaViolation{
			Criterion: "max_points",
			Message:   fmt.Sprintf("%d points exceeds max %d", n, c.MaxPoints),
		})
	}

	if n > 0 && c.MinAvgConfidence > 0 {
		var sum float64
		for _, p := range w.Points {
			sum += p.Confidence
		}
		if avg := sum / float64(n); avg < c.MinAvgConfidence {
			violations = append(violations, CriteriaViolation{
				Criterion: "min_avg_confidence",
				Message:   fmt.Sprintf("Average confidence %.2f below minimum %.2f", avg, c.MinAvgConfidence),
			})
		}
	}

	if c.RequireEvidence {
		for i, p := range w.Points {
			if len(p.Evidence) == 0 {
				violations = append(violations, CriteriaViolation{
					Criterion: "require_evidence",
					Message:   fmt.Sprintf("Point %d '%s' has no evidence", i, p.Theme),
				})
			}
		}
	}

	return violations
}
