package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/intelligence"
	"github.com/alexanderramin/coachlab/internal/stage"
)

// FormatCourseList renders the owner's courses with the view each opens in.
func FormatCourseList(courses []*domain.Course) string {
	headers := []string{"ID", "TITLE", "STAGE", "STATUS", "WEEKS", "OPENS IN"}
	rows := make([][]string, 0, len(courses))
	for _, c := range courses {
		id := TruncID(c.ID)
		if id == "" {
			id = "--"
		}
		rows = append(rows, []string{
			id,
			Bold(Truncate(c.Title, 40)),
			StageBadge(c.CreationStage),
			StatusPill(c.Status),
			fmt.Sprintf("%d", len(c.Weeks)),
			string(stage.EntryFor(c).Entry),
		})
	}
	return RenderBox("Courses", RenderTable(headers, rows))
}

// FormatCourseOverview renders the course card followed by its full structure.
func FormatCourseOverview(c *domain.Course, materialTitles map[string]string) string {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", StyleDim.Render(fmt.Sprintf("%-12s", label)), value))
	}
	field("Title", Bold(c.Title))
	field("Description", OrDash(c.Description))
	field("Category", OrDash(c.Category))
	field("Duration", Plural(c.DurationValue, "week"))
	field("Tags", OrDash(strings.Join(c.Tags, ", ")))
	field("Stage", StageBadge(c.CreationStage))
	field("Status", StatusPill(c.Status))
	if c.Status == domain.CoursePublished {
		field("Pricing", formatPricing(c))
	}
	field("Materials", fmt.Sprintf("%d linked", len(c.MaterialIDs)))
	field("Coaches", fmt.Sprintf("%d of %d", len(c.PersonaIDs), domain.MaxCoursePersonas))

	b.WriteString("\n")
	b.WriteString(Header("Structure") + "\n")
	b.WriteString(RenderStructure(StructureView{Weeks: c.Weeks, Materials: materialTitles}))
	return RenderBox(TruncID(c.ID), strings.TrimRight(b.String(), "\n"))
}

func formatPricing(c *domain.Course) string {
	var s string
	switch c.PricingModel {
	case domain.PricingFree:
		s = "free"
	case domain.PricingSubscription:
		s = fmt.Sprintf("%.2f / month", c.Price)
		if c.TrialEnabled {
			s += fmt.Sprintf(", %d-day trial", c.TrialDays)
		}
	default:
		s = fmt.Sprintf("%.2f one-time", c.Price)
	}
	if c.MaxEnrollments > 0 {
		s += fmt.Sprintf(", max %d clients", c.MaxEnrollments)
	}
	if c.StartDate != nil {
		s += ", starts " + c.StartDate.Format("Jan 2, 2006")
	}
	return s
}

// FormatHint renders a "Next:" line pointing at a command.
func FormatHint(command string) string {
	return Dim("Next: ") + Bold(command)
}

// FormatMaterialList renders the material library. When selected is non-nil
// a checkbox column shows which materials are linked.
func FormatMaterialList(materials []*domain.Material, selected map[string]bool) string {
	if len(materials) == 0 {
		return Dim("No materials yet. Add one with `material add`.") + "\n"
	}
	headers := []string{"ID", "TITLE", "TYPE", "TAGS"}
	if selected != nil {
		headers = append([]string{""}, headers...)
	}
	rows := make([][]string, 0, len(materials))
	for _, m := range materials {
		row := []string{TruncID(m.ID), Bold(m.Title), StylePurple.Render(string(m.Type)), OrDash(strings.Join(m.Tags, ", "))}
		if selected != nil {
			row = append([]string{checkbox(selected[m.ID])}, row...)
		}
		rows = append(rows, row)
	}
	return RenderTable(headers, rows)
}

// FormatPersonaList renders the owner's coach personas, marking selected ones.
func FormatPersonaList(personas []*domain.Persona, selected map[string]bool) string {
	if len(personas) == 0 {
		return Dim("No coaches yet. Add one with `persona add`.") + "\n"
	}
	headers := []string{"ID", "NAME", "TONE", "STYLE"}
	if selected != nil {
		headers = append([]string{""}, headers...)
	}
	rows := make([][]string, 0, len(personas))
	for _, p := range personas {
		row := []string{TruncID(p.ID), Bold(p.Name), OrDash(strings.Join(p.ToneTags, ", ")), OrDash(Truncate(p.ResponseStyle, 30))}
		if selected != nil {
			row = append([]string{checkbox(selected[p.ID])}, row...)
		}
		rows = append(rows, row)
	}
	return RenderTable(headers, rows)
}

func checkbox(on bool) string {
	if on {
		return StyleGreen.Render("[x]")
	}
	return Dim("[ ]")
}

// FormatEntry renders one transcript entry of the drafting conversation.
func FormatEntry(e intelligence.Entry) string {
	switch {
	case e.Role == intelligence.RoleUser:
		return Dim("You: ") + e.Text
	case e.Kind == intelligence.KindConfirmation:
		return StyleGreen.Render("✔ " + e.Text)
	case e.Kind == intelligence.KindError:
		return StyleRed.Render("✖ " + e.Text)
	default:
		return StylePurple.Render("Assistant: ") + e.Text
	}
}

// FormatImpact describes what a delete would affect for enrolled clients.
func FormatImpact(kind, title string, weekNumber int, im domain.Impact) string {
	var b strings.Builder
	what := fmt.Sprintf("%s %q", kind, title)
	if kind == "week" {
		what = fmt.Sprintf("week %d %q", weekNumber, title)
	}
	b.WriteString(StyleYellow.Render("Deleting "+what+" affects enrolled clients:") + "\n")
	b.WriteString(fmt.Sprintf("  %s enrolled\n", Plural(im.Clients, "client")))
	b.WriteString(fmt.Sprintf("  %s recorded\n", Plural(im.Completions, "completion")))
	b.WriteString(fmt.Sprintf("  %s attached\n", Plural(im.Resources, "resource")))
	return b.String()
}
