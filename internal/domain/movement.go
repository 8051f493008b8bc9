package domain

import "time"

// Section names, in the order they appear in a Movement.
const (
	SectionConvergences = "Convergences"
	SectionTensions     = "Tensions"
	SectionUniqueVoices = "Unique Voices"
)

// DefaultMovementTitle is used when a synthesis is requested without a title.
const DefaultMovementTitle = "Synthesis Movement"

// Movement is a synthesized snapshot of discourse across N worldviews.
type Movement struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Subjects    []string  `json:"subjects"`
	Sections    []Section `json:"sections"`
	Summary     string    `json:"summary"`
}

type Section struct {
	Name    string        `json:"name"`
	Content []SectionItem `json:"content"`
}

// SectionItem groups the voices on one theme. Synthesis is a fixed template
// over the structured fields, not generated prose.
type SectionItem struct {
	Theme     string          `json:"theme"`
	Voices    []VoicePosition `json:"voices"`
	Synthesis string          `json:"synthesis"`
}

type VoicePosition struct {
	Subject    string  `json:"subject"`
	Stance     string  `json:"stance"`
	Confidence float64 `json:"confidence"`
}

// Section returns the section with the given name, or nil.
func (m *Movement) Section(name string) *Section {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i]
		}
	}
	return nil
}
