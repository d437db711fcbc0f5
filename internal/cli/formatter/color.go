package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StageBadge renders the creation stage with a step counter, e.g. "3/6 structure".
func StageBadge(s domain.Stage) string {
	switch {
	case s == domain.StagePublished:
		return StyleGreen.Render("published")
	case s.Linear():
		return StyleYellow.Render(fmt.Sprintf("%d/6 %s", int(s), s))
	default:
		return StyleRed.Render(fmt.Sprintf("stage %d", int(s)))
	}
}

// StatusPill renders a course status as a colored dot and label.
func StatusPill(s domain.CourseStatus) string {
	switch s {
	case domain.CoursePublished:
		return StyleGreen.Render("● published")
	case domain.CourseArchived:
		return StyleDim.Render("● archived")
	default:
		return StyleBlue.Render("● draft")
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
