package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/cli/formatter"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/service"
	"github.com/alexanderramin/coachlab/internal/stage"
	"go.uber.org/zap"
)

// App holds the services CLI commands run against. Commands read its fields
// at run time, so main may fill them in a PersistentPreRunE.
type App struct {
	OwnerID    string
	Store      app.EntityStore
	Flow       *stage.Flow
	Authoring  *service.AuthoringService
	Catalog    *service.CatalogService
	Enrollment *service.EnrollmentService

	// AI is nil when LLM drafting is disabled.
	AI           app.AICollaborator
	ConfirmDelay time.Duration

	Logger        *zap.Logger
	IsInteractive func() bool

	returned []*domain.Course
}

// OnReturn is the stage.ReturnHandler for the CLI: it keeps the refreshed
// course list so the finishing command can print it.
func (a *App) OnReturn(_ context.Context, courses []*domain.Course) {
	a.returned = courses
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// printReturn shows the course list a completed step returned to.
func (a *App) printReturn(w io.Writer) {
	if a.returned == nil {
		return
	}
	fmt.Fprintln(w, formatter.FormatCourseList(a.returned))
	a.returned = nil
}

// resolveCourse finds one of the owner's courses by full id, unique id
// prefix or exact title. The course comes back hydrated.
func resolveCourse(ctx context.Context, a *App, input string) (*domain.Course, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("course ID is required")
	}
	courses, err := a.Store.ListCourses(ctx, a.OwnerID)
	if err != nil {
		return nil, err
	}

	for _, c := range courses {
		if c.ID == input {
			return c, nil
		}
	}
	var matches []*domain.Course
	for _, c := range courses {
		if strings.HasPrefix(c.ID, input) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		for _, c := range courses {
			if strings.EqualFold(c.Title, input) {
				matches = append(matches, c)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("course not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("course %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveMaterialID maps an id, id prefix or exact title to a material id.
func resolveMaterialID(ctx context.Context, a *App, input string) (string, error) {
	materials, err := a.Catalog.ListMaterials(ctx, a.OwnerID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(materials))
	titles := make([]string, len(materials))
	for i, m := range materials {
		ids[i], titles[i] = m.ID, m.Title
	}
	return matchID("material", input, ids, titles)
}

func resolvePersonaID(ctx context.Context, a *App, input string) (string, error) {
	personas, err := a.Catalog.ListPersonas(ctx, a.OwnerID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(personas))
	names := make([]string, len(personas))
	for i, p := range personas {
		ids[i], names[i] = p.ID, p.Name
	}
	return matchID("coach", input, ids, names)
}

func matchID(kind, input string, ids, names []string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}
	var matches []string
	for i, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) || strings.EqualFold(names[i], input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// commandFor is the command that opens view v for course id.
func commandFor(v stage.View, id string) string {
	short := formatter.TruncID(id)
	switch v {
	case stage.ViewAIStructure:
		return "coachlab course draft " + short
	case stage.ViewStructureEditor:
		return "coachlab course structure " + short
	case stage.ViewMaterials:
		return "coachlab course materials " + short
	case stage.ViewPersonas:
		return "coachlab course coaches " + short
	case stage.ViewPricing:
		return "coachlab course publish " + short
	case stage.ViewDetails:
		return "coachlab course details " + short
	default:
		return "coachlab course open " + short
	}
}

// requireView rejects opening v while the course sits at another step of
// the linear flow. Details are always editable; published courses may open
// any section.
func requireView(c *domain.Course, v stage.View) error {
	nav := stage.EntryFor(c)
	if v == stage.ViewDetails || nav.Entry == v {
		return nil
	}
	if nav.FreeNav {
		for _, s := range stage.Sections {
			if s == v {
				return nil
			}
		}
	}
	return fmt.Errorf("course %s is at the %s step; continue with `%s`",
		c.DisplayID(), c.CreationStage, commandFor(nav.Entry, c.ID))
}
