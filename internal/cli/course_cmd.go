package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/spf13/cobra"
)

func newCourseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Create and author courses",
	}

	cmd.AddCommand(
		newCourseListCmd(app),
		newCourseCreateCmd(app),
		newCourseOpenCmd(app),
		newCourseDetailsCmd(app),
		newCourseDraftCmd(app),
		newCourseStructureCmd(app),
		newCourseMaterialsCmd(app),
		newCourseCoachesCmd(app),
		newCoursePublishCmd(app),
		newCourseEnrollCmd(app),
		newCourseCompleteCmd(app),
	)

	return cmd
}

func newCourseListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your courses and where each one continues",
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := app.Store.ListCourses(cmd.Context(), app.OwnerID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(courses) == 0 {
				fmt.Fprintln(out, "No courses found.")
				return nil
			}
			fmt.Fprintln(out, formatter.FormatCourseList(courses))
			return nil
		},
	}
}

func newCourseCreateCmd(app *App) *cobra.Command {
	var title, description, category string
	var weeks int
	var tags, materials []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a course from its details",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			materialIDs := make([]string, 0, len(materials))
			for _, m := range materials {
				id, err := resolveMaterialID(ctx, app, m)
				if err != nil {
					return err
				}
				materialIDs = append(materialIDs, id)
			}

			c, err := app.Authoring.CreateDetails(ctx, app.OwnerID, domain.CourseFields{
				Title:         title,
				Description:   description,
				Category:      category,
				DurationValue: weeks,
				Tags:          tags,
			}, materialIDs)
			if err != nil {
				return err
			}
			app.returned = nil

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created course %s [%s]\n", c.Title, c.DisplayID())
			fmt.Fprintln(out, formatter.FormatHint(commandFor(stage.ViewAIStructure, c.ID)+"  (add --manual to build it yourself)"))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Course title")
	cmd.Flags().StringVar(&description, "description", "", "What clients will get out of the course")
	cmd.Flags().StringVar(&category, "category", "", "Course category")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "Planned duration in weeks")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringArrayVar(&materials, "material", nil, "Material id or title to link (repeatable)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newCourseOpenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open ID",
		Short: "Show a course and the step it continues at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			titles, err := materialTitles(cmd, app)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatCourseOverview(c, titles))
			nav := stage.EntryFor(c)
			if nav.FreeNav {
				fmt.Fprintln(out, formatter.Dim("Published: every section can be edited in any order."))
				for _, v := range stage.Sections {
					fmt.Fprintf(out, "  %-10s %s\n", v, formatter.Bold(commandFor(v, c.ID)))
				}
				return nil
			}
			fmt.Fprintln(out, formatter.FormatHint(commandFor(nav.Entry, c.ID)))
			return nil
		},
	}
}

func newCourseDetailsCmd(app *App) *cobra.Command {
	var title, description, category string
	var weeks int
	var tags []string

	cmd := &cobra.Command{
		Use:   "details ID",
		Short: "Show or update course details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}

			var patch domain.CoursePatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("weeks") {
				patch.DurationValue = &weeks
			}
			if flags.Changed("tag") {
				patch.Tags = &tags
			}

			out := cmd.OutOrStdout()
			if !patch.IsEmpty() {
				if err := app.Authoring.UpdateDetails(ctx, c, patch); err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated course %s [%s]\n", c.Title, c.DisplayID())
			}
			fmt.Fprintln(out, formatter.FormatCourseOverview(c, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "New duration in weeks")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Replace tags (repeatable)")

	return cmd
}

func newCourseMaterialsCmd(app *App) *cobra.Command {
	var selectIDs []string
	var none bool

	cmd := &cobra.Command{
		Use:   "materials ID",
		Short: "Choose the materials a course uses",
		Long: `Without --select the current selection is listed (or picked in a form when
running in a terminal). --select saves the whole selection in one batch and
completes the materials step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := requireView(c, stage.ViewMaterials); err != nil {
				return err
			}
			library, err := app.Catalog.ListMaterials(ctx, app.OwnerID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var chosen []string
			switch {
			case none:
			case len(selectIDs) > 0:
				for _, s := range selectIDs {
					id, err := resolveMaterialID(ctx, app, s)
					if err != nil {
						return err
					}
					chosen = append(chosen, id)
				}
			case app.interactive() && len(library) > 0:
				chosen = append([]string(nil), c.MaterialIDs...)
				if err := materialsForm(library, &chosen).Run(); err != nil {
					return err
				}
			default:
				fmt.Fprintln(out, formatter.FormatMaterialList(library, toSet(c.MaterialIDs)))
				fmt.Fprintln(out, formatter.Dim("Save a selection with --select id1,id2 (or --none)."))
				return nil
			}

			if err := app.Authoring.SaveMaterials(ctx, c, chosen); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s for %s\n", formatter.Plural(len(c.MaterialIDs), "material"), c.Title)
			app.printReturn(out)
			fmt.Fprintln(out, formatter.FormatHint(commandFor(stage.EntryFor(c).Entry, c.ID)))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&selectIDs, "select", nil, "Material ids or titles to link, comma separated")
	cmd.Flags().BoolVar(&none, "none", false, "Save an empty selection")

	return cmd
}

func newCourseCoachesCmd(app *App) *cobra.Command {
	var add, remove []string
	var done bool

	cmd := &cobra.Command{
		Use:   "coaches ID",
		Short: "Pick up to four AI coaches for a course",
		Long: `Each --add or --remove is saved immediately. --done completes the coaches
step once the selection is final.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := requireView(c, stage.ViewPersonas); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			toggle := func(input string, want bool) error {
				id, err := resolvePersonaID(ctx, app, input)
				if err != nil {
					return err
				}
				if toSet(c.PersonaIDs)[id] == want {
					return nil
				}
				selected, err := app.Authoring.TogglePersona(ctx, c, id)
				if err != nil {
					return fmt.Errorf("updating coach %s: %w", input, err)
				}
				verb := "Removed"
				if selected {
					verb = "Added"
				}
				fmt.Fprintf(out, "%s coach %s\n", verb, input)
				return nil
			}
			for _, p := range remove {
				if err := toggle(p, false); err != nil {
					return err
				}
			}
			for _, p := range add {
				if err := toggle(p, true); err != nil {
					return err
				}
			}

			personas, err := app.Store.ListPersonasAvailable(ctx, app.OwnerID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatPersonaList(personas, toSet(c.PersonaIDs)))

			if !done {
				return nil
			}
			if err := app.Authoring.ConfirmPersonas(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(out, "Coaches confirmed for %s\n", c.Title)
			app.printReturn(out)
			fmt.Fprintln(out, formatter.FormatHint(commandFor(stage.EntryFor(c).Entry, c.ID)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&add, "add", nil, "Coach id or name to add (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Coach id or name to remove (repeatable)")
	cmd.Flags().BoolVar(&done, "done", false, "Finish the coaches step")

	return cmd
}

func newCoursePublishCmd(app *App) *cobra.Command {
	var pricing, start string
	var price float64
	var trialDays, maxEnrollments int

	cmd := &cobra.Command{
		Use:   "publish ID",
		Short: "Set pricing and publish a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := requireView(c, stage.ViewPricing); err != nil {
				return err
			}

			settings := domain.PublishSettings{
				PricingModel:   domain.PricingModel(strings.ToLower(pricing)),
				Price:          price,
				TrialEnabled:   trialDays > 0,
				TrialDays:      trialDays,
				MaxEnrollments: maxEnrollments,
			}
			if start != "" {
				d, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
				settings.StartDate = &d
			}

			if err := app.Authoring.Publish(ctx, c, settings); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Published %s [%s]\n", c.Title, c.DisplayID())
			app.printReturn(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&pricing, "pricing", "", "free, one_time or subscription")
	cmd.Flags().Float64Var(&price, "price", 0, "Price (one-time or per month)")
	cmd.Flags().IntVar(&trialDays, "trial-days", 0, "Free trial length for subscriptions")
	cmd.Flags().IntVar(&maxEnrollments, "max-enrollments", 0, "Enrollment limit (0 = unlimited)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("pricing")

	return cmd
}

func newCourseEnrollCmd(app *App) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "enroll ID",
		Short: "Enroll a client in a published course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Enrollment.Enroll(ctx, c.ID, client); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s in %s\n", client, c.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name or id")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

func newCourseCompleteCmd(app *App) *cobra.Command {
	var client, task string

	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Record that a client completed a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCourse(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := resolveTask(c.Weeks, task)
			if err != nil {
				return err
			}
			if err := app.Enrollment.RecordCompletion(ctx, c.ID, t.ID, client); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %q for %s\n", t.Title, client)
			return nil
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task as WEEK.TASK (e.g. 2.1) or task id")
	cmd.Flags().StringVar(&client, "client", "", "Client name or id")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

// resolveTask accepts "week.task" positions (1-based) or a task id prefix.
func resolveTask(weeks []domain.Week, input string) (domain.Task, error) {
	if w, t, ok := strings.Cut(input, "."); ok {
		wi, err1 := strconv.Atoi(w)
		ti, err2 := strconv.Atoi(t)
		if err1 == nil && err2 == nil {
			if wi < 1 || wi > len(weeks) || ti < 1 || ti > len(weeks[wi-1].Tasks) {
				return domain.Task{}, fmt.Errorf("no task at %s", input)
			}
			return weeks[wi-1].Tasks[ti-1], nil
		}
	}
	var found []domain.Task
	for _, w := range weeks {
		for _, t := range w.Tasks {
			if t.ID == input {
				return t, nil
			}
			if input != "" && strings.HasPrefix(t.ID, input) {
				found = append(found, t)
			}
		}
	}
	switch len(found) {
	case 0:
		return domain.Task{}, errors.New("task not found: " + strconv.Quote(input))
	case 1:
		return found[0], nil
	default:
		return domain.Task{}, fmt.Errorf("task %q is ambiguous (%d matches)", input, len(found))
	}
}

func materialTitles(cmd *cobra.Command, app *App) (map[string]string, error) {
	materials, err := app.Catalog.ListMaterials(cmd.Context(), app.OwnerID)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(materials))
	for _, m := range materials {
		titles[m.ID] = m.Title
	}
	return titles, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
