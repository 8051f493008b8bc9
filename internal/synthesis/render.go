package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bierlingm/worldview-extractor/internal/domain"
)

// Output formats accepted by Render.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatBoth     = "both"
)

// Render renders m in the given format. Unknown formats render as markdown.
func Render(m *domain.Movement, format string) (string, error) {
	switch format {
	case FormatJSON:
		return RenderJSON(m)
	case FormatBoth:
		js, err := RenderJSON(m)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s\n\n---\n\n```json\n%s\n```", RenderMarkdown(m), js), nil
	default:
		return RenderMarkdown(m), nil
	}
}

func RenderJSON(m *domain.Movement) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal movement: %w", err)
	}
	return string(b), nil
}

func RenderMarkdown(m *domain.Movement) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", m.Title)
	fmt.Fprintf(&b, "*Generated: %s*\n\n", m.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "**Subjects:** %s\n\n", strings.Join(m.Subjects, ", "))
	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", m.Summary)

	for _, section := range m.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Name)
		for _, item := range section.Content {
			fmt.Fprintf(&b, "### %s\n\n", item.Theme)
			for _, v := range item.Voices {
				fmt.Fprintf(&b, "**%s** (confidence: %.0f%%): %s\n\n", v.Subject, v.Confidence*100, v.Stance)
			}
			fmt.Fprintf(&b, "*%s*\n\n", item.Synthesis)
			b.WriteString("---\n\n")
		}
	}

	return b.String()
}
