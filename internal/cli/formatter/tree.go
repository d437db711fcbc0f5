package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeSpace  = "   "
)

// StructureView is the input of RenderStructure.
type StructureView struct {
	Weeks      []domain.Week
	SelectedID string
	// Expanded lists weeks whose tasks are shown. Nil shows every week.
	Expanded map[string]bool
	// Materials maps material ids to titles for resource lines.
	Materials map[string]string
}

// RenderStructure draws weeks as numbered rows with their tasks as a tree
// underneath. The selected week gets a marker and task counts are
// right-aligned.
func RenderStructure(v StructureView) string {
	if len(v.Weeks) == 0 {
		return Dim("No weeks yet. Use `add week` to start.") + "\n"
	}

	heads := make([]string, len(v.Weeks))
	width := 0
	for i, w := range v.Weeks {
		marker := "  "
		title := OrDash(w.Title)
		if w.ID == v.SelectedID {
			marker = StyleYellow.Render("▶ ")
			title = StyleYellow.Bold(true).Render(w.Title)
		}
		heads[i] = fmt.Sprintf("%s%s %s", marker, StyleDim.Render(fmt.Sprintf("%d.", w.WeekNumber)), title)
		if n := lipgloss.Width(heads[i]); n > width {
			width = n
		}
	}

	var b strings.Builder
	for i, w := range v.Weeks {
		pad := width - lipgloss.Width(heads[i])
		b.WriteString(heads[i] + strings.Repeat(" ", pad) + "  " + StyleBlue.Render(fmt.Sprintf("[ %s ]", Plural(len(w.Tasks), "task"))) + "\n")
		if v.Expanded != nil && !v.Expanded[w.ID] {
			continue
		}
		for j, t := range w.Tasks {
			last := j == len(w.Tasks)-1
			branch, cont := treeBranch, treePipe
			if last {
				branch, cont = treeCorner, treeSpace
			}
			b.WriteString(fmt.Sprintf("     %s%d. %s %s\n", StyleDim.Render(branch), j+1, OrDash(t.Title), StylePurple.Render("("+string(t.Type)+")")))
			for _, id := range t.ResourceIDs {
				name := v.Materials[id]
				if name == "" {
					name = TruncID(id)
				}
				b.WriteString(fmt.Sprintf("     %s   %s %s\n", StyleDim.Render(cont), StyleDim.Render("↳"), name))
			}
		}
	}
	return b.String()
}
