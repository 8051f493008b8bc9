package domain

// Alignment classifies a matched pair of points.
type Alignment string

const (
	AlignmentAgreement Alignment = "Agreement"
	AlignmentTension   Alignment = "Tension"
	// AlignmentNuance is reserved for classifiers that can detect partial
	// overlap. NegationClassifier never returns it.
	AlignmentNuance Alignment = "Nuance"
)

func ValidAlignment(a string) bool {
	switch Alignment(a) {
	case AlignmentAgreement, AlignmentTension, AlignmentNuance:
		return true
	}
	return false
}

// PointComparison is a matched pair of points from two worldviews. Points
// are held by value so later edits to the source worldviews cannot change it.
type PointComparison struct {
	Theme     string    `json:"theme"`
	PointA    Point     `json:"point_a"`
	PointB    Point     `json:"point_b"`
	Alignment Alignment `json:"alignment"`
}

// WorldviewDiff is the result of comparing worldview A against worldview B.
// Every point of A lands in exactly one of Agreements, Tensions or UniqueToA;
// every point of B is either matched by some comparison or in UniqueToB.
type WorldviewDiff struct {
	SubjectA        string            `json:"subject_a"`
	SubjectB        string            `json:"subject_b"`
	Agreements      []PointComparison `json:"agreements"`
	Tensions        []PointComparison `json:"tensions"`
	UniqueToA       []Point           `json:"unique_to_a"`
	UniqueToB       []Point           `json:"unique_to_b"`
	SimilarityScore float64           `json:"similarity_score"`
}

// Blindspot is a theme raised by other worldviews but absent from the target.
type Blindspot struct {
	Subject      string   `json:"subject"`
	MissingTheme string   `json:"missing_theme"`
	AddressedBy  []string `json:"addressed_by"`
	Examples     []Point  `json:"examples"`
}
