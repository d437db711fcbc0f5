package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/intelligence"
	"github.com/alexanderramin/coachlab/internal/stage"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var errAIDisabled = errors.New("AI drafting is disabled; set COACHLAB_LLM_ENABLED=true (or llm.enabled in config.yaml), or use --manual")

func newCourseDraftCmd(app *App) *cobra.Command {
	var manual bool

	cmd := &cobra.Command{
		Use:   "draft ID",
		Short: "Draft a course structure in conversation with the AI assistant",
		Long: `Chat with the assistant about the course. When it replies with a complete
structure the weeks and tasks are saved and the course moves on to the
structure editor. --manual skips the conversation and builds the structure
by hand instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if c.CreationStage != domain.StageDetails && c.CreationStage != domain.StageAIStructure {
				return fmt.Errorf("course %s already has a structure; continue with `%s`",
					c.DisplayID(), commandFor(stage.EntryFor(c).Entry, c.ID))
			}

			if manual {
				if err := app.Authoring.ChooseManual(ctx, c); err != nil {
					return err
				}
				fmt.Fprintln(out, "Manual authoring selected.")
				fmt.Fprintln(out, formatter.FormatHint(commandFor(stage.ViewStructureEditor, c.ID)))
				return nil
			}
			if app.AI == nil {
				return errAIDisabled
			}

			if app.interactive() {
				err = runDraftTUI(ctx, app, c)
			} else {
				err = runDraftLines(ctx, app, c, cmd.InOrStdin(), out)
			}
			if err != nil {
				return err
			}
			if c.CreationStage == domain.StageStructureEdit {
				app.printReturn(out)
				fmt.Fprintln(out, formatter.FormatHint(commandFor(stage.ViewStructureEditor, c.ID)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "Build the structure by hand instead")

	return cmd
}

func newDriver(app *App, c *domain.Course, opts ...intelligence.DriverOption) *intelligence.CurriculumDriver {
	base := []intelligence.DriverOption{
		intelligence.WithConfirmDelay(app.ConfirmDelay),
		intelligence.WithLogger(app.logger()),
	}
	if app.Catalog != nil {
		base = append(base, intelligence.WithCatalog(app.Catalog))
	}
	return intelligence.NewCurriculumDriver(app.AI, app.Store, app.Flow, c, append(base, opts...)...)
}

// runDraftLines is the scripted front end: one line per turn, replies
// printed as they arrive.
func runDraftLines(ctx context.Context, app *App, c *domain.Course, in io.Reader, out io.Writer) error {
	dr := newDriver(app, c, intelligence.OnConfirmation(func(e intelligence.Entry) {
		fmt.Fprintln(out, formatter.FormatEntry(e))
	}))

	fmt.Fprintln(out, formatter.Header("Drafting: "+c.Title))
	fmt.Fprintln(out, formatter.Dim("Describe the course you want. Type /quit to leave."))
	for !dr.Completed() {
		fmt.Fprint(out, formatter.StylePurple.Render("draft")+formatter.Dim("> "))
		line, err := readPromptLine(in)
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit", "/q":
			return nil
		}

		res, err := dr.Send(ctx, line)
		if res.Reply.Kind != intelligence.KindConfirmation && res.Reply.Text != "" {
			fmt.Fprintln(out, formatter.FormatEntry(res.Reply))
		}
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func runDraftTUI(ctx context.Context, app *App, c *domain.Course) error {
	var prog *tea.Program
	dr := newDriver(app, c, intelligence.OnConfirmation(func(e intelligence.Entry) {
		if prog != nil {
			prog.Send(confirmationMsg{entry: e})
		}
	}))
	prog = tea.NewProgram(newChatModel(ctx, dr, c.Title), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
