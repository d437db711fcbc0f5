package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/editor"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/spf13/cobra"
)

const structureHelp = `Commands (weeks and tasks are numbered from 1):
  show [all]                         show the structure (all: every week's tasks)
  select W | expand W                focus week W (its tasks are shown) | toggle tasks of W
  add week | add task W              append a week | append a task to week W
  move week W up|down                reorder weeks
  move task W T up|down              reorder tasks inside a week
  rename week W TITLE                set a week title
  overview week W TEXT               set a week overview
  objectives week W A; B; C          set week objectives
  edit task W T [field=value ...]    fields: title type description objective context notes ai
  delete week W | delete task W T    asks first when enrolled clients are affected
  attach W T MATERIAL                link a library material to a task
  detach W T MATERIAL                unlink it
  save                               write the whole structure
  dismiss                            clear a failed save and keep editing
  quit                               leave (asks when there are unsaved changes)`

func newCourseStructureCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "structure ID",
		Short: "Edit a course's weeks and tasks",
		Long: `Opens the structure editor. Edits apply to a working copy and are written
together with save. A course still at the details step is switched to
manual authoring first.

` + structureHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if c.CreationStage == domain.StageDetails {
				if err := app.Authoring.ChooseManual(ctx, c); err != nil {
					return err
				}
				fmt.Fprintln(out, formatter.Dim("Manual authoring selected."))
			}
			if err := requireView(c, stage.ViewStructureEditor); err != nil {
				return err
			}

			sh, err := newStructureShell(ctx, app, c.ID, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			return sh.run(ctx)
		},
	}
}

// structureShell is a line-oriented front end for editor.Editor. Interactive
// terminals get huh forms for task edits and delete confirmations.
type structureShell struct {
	app    *App
	ed     *editor.Editor
	in     io.Reader
	out    io.Writer
	titles map[string]string
	done   bool
}

func newStructureShell(ctx context.Context, app *App, courseID string, in io.Reader, out io.Writer) (*structureShell, error) {
	sh := &structureShell{app: app, in: in, out: out}

	var confirm editor.Confirmer = editor.ConfirmFunc(sh.promptDelete)
	if app.interactive() {
		confirm = formConfirmer()
	}
	opts := []editor.Option{
		editor.WithConfirmer(confirm),
		editor.WithLogger(app.logger()),
	}
	if app.Enrollment != nil {
		opts = append(opts, editor.WithImpactReporter(app.Enrollment))
	}
	if app.Catalog != nil {
		opts = append(opts, editor.WithCatalog(app.Catalog))
		materials, err := app.Catalog.ListMaterials(ctx, app.OwnerID)
		if err != nil {
			return nil, err
		}
		sh.titles = make(map[string]string, len(materials))
		for _, m := range materials {
			sh.titles[m.ID] = m.Title
		}
	}
	sh.ed = editor.New(app.Store, app.Flow, opts...)
	if err := sh.ed.Load(ctx, courseID); err != nil {
		return nil, err
	}
	return sh, nil
}

func (sh *structureShell) promptDelete(_ context.Context, req editor.DeleteRequest) (bool, error) {
	fmt.Fprint(sh.out, formatter.FormatImpact(req.Kind, req.Title, req.WeekNumber, req.Impact))
	return promptYesNoIO(sh.in, sh.out, "Delete anyway? [y/N]: "), nil
}

func (sh *structureShell) run(ctx context.Context) error {
	snap := sh.ed.Snapshot()
	fmt.Fprintln(sh.out, formatter.Header("Structure: "+snap.CourseTitle))
	sh.show(false)
	fmt.Fprintln(sh.out, formatter.Dim("Type `help` for commands."))

	for !sh.done {
		prompt := "structure> "
		if sh.ed.Snapshot().Dirty {
			prompt = "structure*> "
		}
		fmt.Fprint(sh.out, formatter.StylePurple.Render(prompt))

		line, err := readPromptLine(sh.in)
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.out)
				if sh.ed.Snapshot().Dirty {
					fmt.Fprintln(sh.out, formatter.StyleYellow.Render("Unsaved changes discarded."))
				}
				return nil
			}
			return err
		}
		if err := sh.exec(ctx, strings.TrimSpace(line)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(sh.out, formatter.StyleRed.Render("Error: "+err.Error()))
		}
	}
	return nil
}

func (sh *structureShell) exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	verb, rest := strings.ToLower(args[0]), args[1:]

	switch verb {
	case "help", "?":
		fmt.Fprintln(sh.out, structureHelp)
		return nil
	case "show", "ls":
		sh.show(len(rest) > 0 && rest[0] == "all")
		return nil
	case "select", "expand":
		w, err := sh.week(rest, 0)
		if err != nil {
			return err
		}
		if verb == "expand" {
			sh.ed.ToggleExpanded(w.ID)
			sh.show(false)
			return nil
		}
		return sh.ed.SelectWeek(w.ID)
	case "add":
		return sh.add(rest)
	case "move":
		return sh.move(rest)
	case "rename", "overview", "objectives":
		return sh.setWeekField(verb, rest)
	case "edit":
		return sh.editTask(rest)
	case "delete", "rm":
		return sh.delete(ctx, rest)
	case "attach", "detach":
		return sh.resource(ctx, verb == "attach", rest)
	case "save":
		return sh.save(ctx)
	case "dismiss":
		sh.ed.Dismiss()
		return nil
	case "quit", "exit", "q":
		if sh.ed.Snapshot().Dirty && !promptYesNoIO(sh.in, sh.out, "Discard unsaved changes? [y/N]: ") {
			return nil
		}
		sh.done = true
		return nil
	default:
		return fmt.Errorf("unknown command %q (type `help`)", verb)
	}
}

func (sh *structureShell) show(all bool) {
	snap := sh.ed.Snapshot()
	view := formatter.StructureView{Weeks: snap.Weeks, SelectedID: snap.SelectedWeekID, Materials: sh.titles}
	if !all {
		view.Expanded = snap.Expanded
		if snap.SelectedWeekID != "" {
			view.Expanded[snap.SelectedWeekID] = true
		}
	}
	fmt.Fprint(sh.out, formatter.RenderStructure(view))
}

func (sh *structureShell) add(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add week | add task W")
	}
	switch args[0] {
	case "week":
		w, err := sh.ed.AddWeek()
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Added week %d\n", w.WeekNumber)
		return nil
	case "task":
		w, err := sh.week(args[1:], 0)
		if err != nil {
			return err
		}
		t, err := sh.ed.AddTask(w.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Added task %d to week %d (%s)\n", len(w.Tasks)+1, w.WeekNumber, t.Type)
		return nil
	default:
		return errors.New("usage: add week | add task W")
	}
}

func (sh *structureShell) move(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: move week W up|down | move task W T up|down")
	}
	dir, err := parseDirection(args[len(args)-1])
	if err != nil {
		return err
	}
	var moved bool
	switch args[0] {
	case "week":
		w, err := sh.week(args[1:], 0)
		if err != nil {
			return err
		}
		moved, err = sh.ed.MoveWeek(w.WeekNumber-1, dir)
		if err != nil {
			return err
		}
	case "task":
		w, _, ti, err := sh.task(args[1:])
		if err != nil {
			return err
		}
		moved, err = sh.ed.MoveTask(w.ID, ti, dir)
		if err != nil {
			return err
		}
	default:
		return errors.New("usage: move week W up|down | move task W T up|down")
	}
	if !moved {
		fmt.Fprintln(sh.out, formatter.Dim("Already at the edge; nothing moved."))
	}
	return nil
}

func parseDirection(s string) (editor.Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return editor.Up, nil
	case "down":
		return editor.Down, nil
	default:
		return 0, fmt.Errorf("direction must be up or down, got %q", s)
	}
}

func (sh *structureShell) setWeekField(verb string, args []string) error {
	if len(args) < 2 || args[0] != "week" {
		return fmt.Errorf("usage: %s week W ...", verb)
	}
	w, err := sh.week(args[1:], 0)
	if err != nil {
		return err
	}
	text := strings.Join(args[2:], " ")
	f := editor.WeekFields{Title: w.Title, Overview: w.Overview, Objectives: w.Objectives}
	switch verb {
	case "rename":
		f.Title = text
	case "overview":
		f.Overview = text
	case "objectives":
		f.Objectives = nil
		for _, o := range strings.Split(text, ";") {
			if o = strings.TrimSpace(o); o != "" {
				f.Objectives = append(f.Objectives, o)
			}
		}
	}
	return sh.ed.UpdateWeek(w.ID, f)
}

// taskFieldKeys maps edit keys to task fields.
var taskFieldKeys = map[string]func(t *domain.Task, v string){
	"title":       func(t *domain.Task, v string) { t.Title = v },
	"type":        func(t *domain.Task, v string) { t.Type = domain.TaskType(v) },
	"description": func(t *domain.Task, v string) { t.Description = v },
	"objective":   func(t *domain.Task, v string) { t.Objective = v },
	"context":     func(t *domain.Task, v string) { t.Context = v },
	"notes":       func(t *domain.Task, v string) { t.CoachNotes = v },
	"ai":          func(t *domain.Task, v string) { t.AIInstructions = v },
}

func (sh *structureShell) editTask(args []string) error {
	if len(args) < 3 || args[0] != "task" {
		return errors.New("usage: edit task W T [field=value ...]")
	}
	w, t, _, err := sh.task(args[1:3])
	if err != nil {
		return err
	}

	if len(args) == 3 {
		if !sh.app.interactive() {
			return errors.New("give fields to change, e.g. edit task 1 2 title=Morning check-in type=daily")
		}
		var typ string
		if err := taskForm(&t, &typ).Run(); err != nil {
			return err
		}
		t.Type = domain.TaskType(typ)
		return sh.ed.UpdateTask(w.ID, t)
	}

	fields, err := parseFieldAssignments(args[3:])
	if err != nil {
		return err
	}
	for _, f := range fields {
		taskFieldKeys[f[0]](&t, f[1])
	}
	return sh.ed.UpdateTask(w.ID, t)
}

// parseFieldAssignments splits "title=Morning check in type=lesson" into
// key/value pairs. A value runs until the next token that starts with a
// known key and "=".
func parseFieldAssignments(tokens []string) ([][2]string, error) {
	var out [][2]string
	for _, tok := range tokens {
		if k, v, ok := strings.Cut(tok, "="); ok {
			if _, known := taskFieldKeys[strings.ToLower(k)]; known {
				out = append(out, [2]string{strings.ToLower(k), v})
				continue
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("expected field=value, got %q", tok)
		}
		out[len(out)-1][1] += " " + tok
	}
	return out, nil
}

func (sh *structureShell) delete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: delete week W | delete task W T")
	}
	var deleted bool
	var err error
	switch args[0] {
	case "week":
		w, werr := sh.week(args[1:], 0)
		if werr != nil {
			return werr
		}
		deleted, err = sh.ed.DeleteWeek(ctx, w.ID)
	case "task":
		w, t, _, terr := sh.task(args[1:])
		if terr != nil {
			return terr
		}
		deleted, err = sh.ed.DeleteTask(ctx, w.ID, t.ID)
	default:
		return errors.New("usage: delete week W | delete task W T")
	}
	if err != nil {
		return err
	}
	if deleted {
		fmt.Fprintf(sh.out, "Deleted %s\n", args[0])
	} else {
		fmt.Fprintln(sh.out, formatter.Dim("Kept."))
	}
	return nil
}

func (sh *structureShell) resource(ctx context.Context, attach bool, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: attach|detach W T MATERIAL")
	}
	w, t, _, err := sh.task(args[:2])
	if err != nil {
		return err
	}
	id, err := resolveMaterialID(ctx, sh.app, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	if attach {
		return sh.ed.AttachResource(ctx, w.ID, t.ID, id)
	}
	return sh.ed.DetachResource(w.ID, t.ID, id)
}

func (sh *structureShell) save(ctx context.Context) error {
	res, err := sh.ed.Commit(ctx)
	if err != nil {
		return fmt.Errorf("save failed, your changes are kept (`save` to retry, `dismiss` to keep editing): %w", err)
	}
	fmt.Fprintln(sh.out, formatter.StyleGreen.Render(res.Message))
	if res.Advanced {
		sh.app.printReturn(sh.out)
		snap := sh.ed.Snapshot()
		fmt.Fprintln(sh.out, formatter.FormatHint(commandFor(stage.ViewMaterials, snap.CourseID)))
		sh.done = true
	}
	return nil
}

// week resolves the 1-based week number at args[i].
func (sh *structureShell) week(args []string, i int) (domain.Week, error) {
	if len(args) <= i {
		return domain.Week{}, errors.New("week number is required")
	}
	n, err := strconv.Atoi(args[i])
	weeks := sh.ed.Snapshot().Weeks
	if err != nil || n < 1 || n > len(weeks) {
		return domain.Week{}, fmt.Errorf("no week %q (have %d)", args[i], len(weeks))
	}
	return weeks[n-1], nil
}

// task resolves "W T" to the week, the task and the task's index.
func (sh *structureShell) task(args []string) (domain.Week, domain.Task, int, error) {
	w, err := sh.week(args, 0)
	if err != nil {
		return domain.Week{}, domain.Task{}, 0, err
	}
	if len(args) < 2 {
		return domain.Week{}, domain.Task{}, 0, errors.New("task number is required")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 || n > len(w.Tasks) {
		return domain.Week{}, domain.Task{}, 0, fmt.Errorf("no task %q in week %d (has %d)", args[1], w.WeekNumber, len(w.Tasks))
	}
	return w, w.Tasks[n-1], n - 1, nil
}
