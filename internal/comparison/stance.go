package comparison

import (
	"strings"

	"github.com/bierlingm/worldview-extractor/internal/domain"
)

// negationMarkers are matched as case-insensitive substrings of a stance.
var negationMarkers = []string{"not", "against", "oppose", "reject", "deny"}

// NegationMarkers returns a copy of the fixed marker set.
func NegationMarkers() []string {
	return append([]string(nil), negationMarkers...)
}

// StanceClassifier decides how two stances on the same theme relate.
type StanceClassifier interface {
	Classify(stanceA, stanceB string) domain.Alignment
}

// NegationClassifier reports Tension when exactly one stance carries a
// negation marker and Agreement otherwise. It never reports Nuance.
type NegationClassifier struct{}

func (NegationClassifier) Classify(stanceA, stanceB string) domain.Alignment {
	if hasNegation(stanceA) != hasNegation(stanceB) {
		return domain.AlignmentTension
	}
	return domain.AlignmentAgreement
}

func hasNegation(stance string) bool {
	s := strings.ToLower(stance)
	for _, m := range negationMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
