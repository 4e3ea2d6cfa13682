package report

import "github.com/charmbracelet/lipgloss"

// Adaptive colors, light and dark terminal variants.
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF5F"}
	colorEdit   = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#87D787"}
)

// Styles holds the report's styles by role.
type Styles struct {
	Target   lipgloss.Style
	Header   lipgloss.Style
	Title    lipgloss.Style
	Value    lipgloss.Style
	Absent   lipgloss.Style
	Detail   lipgloss.Style
	Editable lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Target:   lipgloss.NewStyle().Bold(true).Underline(true),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginTop(1),
		Title:    lipgloss.NewStyle().PaddingLeft(2),
		Value:    lipgloss.NewStyle(),
		Absent:   lipgloss.NewStyle().Foreground(colorWarn),
		Detail:   lipgloss.NewStyle().Italic(true).Foreground(colorMuted),
		Editable: lipgloss.NewStyle().Foreground(colorEdit),
	}
}

// PlainStyles returns styles without colors or decoration, for pipes and
// tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Target:   plain,
		Header:   plain.MarginTop(1),
		Title:    plain.PaddingLeft(2),
		Value:    plain,
		Absent:   plain,
		Detail:   plain,
		Editable: plain,
	}
}
