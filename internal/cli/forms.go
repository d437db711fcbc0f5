package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/editor"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// coachlabHuhTheme returns a huh theme using the formatter palette.
func coachlabHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// taskTypeOptions lists every task type for a select field.
func taskTypeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(domain.TaskTypes))
	for i, tt := range domain.TaskTypes {
		opts[i] = huh.NewOption(string(tt), string(tt))
	}
	return opts
}

// taskForm edits every field of t in place. typ receives the chosen type.
func taskForm(t *domain.Task, typ *string) *huh.Form {
	*typ = string(t.Type)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&t.Title),
			huh.NewSelect[string]().Title("Type").Options(taskTypeOptions()...).Value(typ),
			huh.NewText().Title("Description").Value(&t.Description),
			huh.NewInput().Title("Objective").Value(&t.Objective),
		),
		huh.NewGroup(
			huh.NewText().Title("Context").Description("What the client should know going in").Value(&t.Context),
			huh.NewText().Title("Coach notes").Description("Private to you").Value(&t.CoachNotes),
			huh.NewText().Title("AI instructions").Description("How the AI coach should run this task").Value(&t.AIInstructions),
		),
	).WithTheme(coachlabHuhTheme()).WithShowHelp(false)
}

// materialsForm picks the materials linked to a course.
func materialsForm(library []*domain.Material, chosen *[]string) *huh.Form {
	opts := make([]huh.Option[string], len(library))
	for i, m := range library {
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s)", m.Title, m.Type), m.ID)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Materials for this course").
				Options(opts...).
				Value(chosen),
		),
	).WithTheme(coachlabHuhTheme()).WithShowHelp(false)
}

// formConfirmer asks for delete confirmation in a huh form.
func formConfirmer() editor.Confirmer {
	return editor.ConfirmFunc(func(ctx context.Context, req editor.DeleteRequest) (bool, error) {
		ok := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete %s %q?", req.Kind, req.Title)).
					Description(formatter.FormatImpact(req.Kind, req.Title, req.WeekNumber, req.Impact)).
					Affirmative("Delete").
					Negative("Keep").
					Value(&ok),
			),
		).WithTheme(coachlabHuhTheme()).WithShowHelp(false).RunWithContext(ctx)
		return ok, err
	})
}
