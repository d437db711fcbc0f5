// Package editor holds the structure editor: one in-memory working copy of
// a course's weeks, the mutations allowed on it and the commit that writes
// it back.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/curriculum"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/stage"
	"go.uber.org/zap"
)

var (
	ErrNotReady             = errors.New("editor is not ready")
	ErrConfirmationRequired = errors.New("delete needs confirmation")
	ErrWeekNotFound         = errors.New("week not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrUnknownMaterial      = errors.New("unknown material")

	errNoChange = errors.New("no change")
)

// State is the lifecycle of the editor screen.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Store is the slice of the entity store the editor needs.
type Store interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	ReplaceCourseStructure(ctx context.Context, id string, weeks []domain.Week) error
}

// DeleteRequest describes a pending delete shown to the user for confirmation.
type DeleteRequest struct {
	Kind       string // "week" or "task"
	Title      string
	WeekNumber int
	Impact     domain.Impact
}

// Confirmer blocks until the user accepts or declines a destructive delete.
type Confirmer interface {
	ConfirmDelete(ctx context.Context, req DeleteRequest) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, req DeleteRequest) (bool, error)

func (f ConfirmFunc) ConfirmDelete(ctx context.Context, req DeleteRequest) (bool, error) {
	return f(ctx, req)
}

// Option configures an Editor.
type Option func(*Editor)

func WithImpactReporter(r app.ImpactReporter) Option {
	return func(e *Editor) { e.impacts = r }
}

func WithConfirmer(c Confirmer) Option {
	return func(e *Editor) { e.confirm = c }
}

func WithCatalog(c app.MaterialCatalog) Option {
	return func(e *Editor) { e.catalog = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// Editor owns the working copy. It is safe for concurrent use; mutations are
// accepted only in StateReady.
type Editor struct {
	store   Store
	flow    *stage.Flow
	impacts app.ImpactReporter
	confirm Confirmer
	catalog app.MaterialCatalog
	log     *zap.Logger

	mu       sync.Mutex
	state    State
	course   *domain.Course
	weeks    []domain.Week
	selected string
	expanded map[string]bool
	dirty    bool
	lastErr  error
}

// New creates an editor in StateLoading.
func New(store Store, flow *stage.Flow, opts ...Option) *Editor {
	e := &Editor{
		store:    store,
		flow:     flow,
		log:      zap.NewNop(),
		state:    StateLoading,
		expanded: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot is a consistent copy of the editor for rendering.
type Snapshot struct {
	State          State
	CourseID       string
	CourseTitle    string
	Stage          domain.Stage
	Weeks          []domain.Week
	SelectedWeekID string
	Expanded       map[string]bool
	Dirty          bool
	Err            error
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		State:          e.state,
		Weeks:          domain.CloneWeeks(e.weeks),
		SelectedWeekID: e.selected,
		Expanded:       make(map[string]bool, len(e.expanded)),
		Dirty:          e.dirty,
		Err:            e.lastErr,
	}
	for k, v := range e.expanded {
		s.Expanded[k] = v
	}
	if e.course != nil {
		s.CourseID = e.course.ID
		s.CourseTitle = e.course.Title
		s.Stage = e.course.CreationStage
	}
	return s
}

// Load reads the course once and makes its weeks the working copy.
func (e *Editor) Load(ctx context.Context, courseID string) error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.state = StateLoading
	e.mu.Unlock()

	course, err := e.store.GetCourse(ctx, courseID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateError
		e.lastErr = fmt.Errorf("loading course structure: %w", err)
		return e.lastErr
	}
	e.course = course
	e.weeks = domain.CloneWeeks(course.Weeks)
	domain.Renumber(e.weeks)
	e.selected = ""
	if len(e.weeks) > 0 {
		e.selected = e.weeks[0].ID
	}
	e.expanded = make(map[string]bool)
	e.dirty = false
	e.lastErr = nil
	e.state = StateReady
	return nil
}

// apply runs a pure mutation under the lock when the editor is ready.
func (e *Editor) apply(fn func(weeks []domain.Week) ([]domain.Week, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return fmt.Errorf("%w (%s)", ErrNotReady, e.state)
	}
	out, err := fn(e.weeks)
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	e.weeks = out
	e.dirty = true
	return nil
}

// AddWeek appends a week and selects it.
func (e *Editor) AddWeek() (domain.Week, error) {
	var added domain.Week
	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, w := AddWeek(weeks)
		added = w
		e.selected = w.ID
		return out, nil
	})
	return added, err
}

// MoveWeek moves the week at index. It reports false at the list bounds.
func (e *Editor) MoveWeek(index int, dir Direction) (bool, error) {
	moved := false
	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, ok := MoveWeek(weeks, index, dir)
		if !ok {
			return nil, errNoChange
		}
		moved = true
		return out, nil
	})
	return moved, err
}

func (e *Editor) UpdateWeek(id string, f WeekFields) error {
	return e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, ok := UpdateWeek(weeks, id, f)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, id)
		}
		return out, nil
	})
}

func (e *Editor) SelectWeek(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return ErrNotReady
	}
	if domain.FindWeek(e.weeks, id) == -1 {
		return fmt.Errorf("%w: %s", ErrWeekNotFound, id)
	}
	e.selected = id
	return nil
}

// ToggleExpanded flips whether a week's tasks are shown.
func (e *Editor) ToggleExpanded(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expanded[id] = !e.expanded[id]
	return e.expanded[id]
}

func (e *Editor) AddTask(weekID string) (domain.Task, error) {
	var added domain.Task
	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, t, ok := AddTask(weeks, weekID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, weekID)
		}
		added = t
		return out, nil
	})
	return added, err
}

func (e *Editor) MoveTask(weekID string, index int, dir Direction) (bool, error) {
	moved := false
	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		if domain.FindWeek(weeks, weekID) == -1 {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, weekID)
		}
		out, ok := MoveTask(weeks, weekID, index, dir)
		if !ok {
			return nil, errNoChange
		}
		moved = true
		return out, nil
	})
	return moved, err
}

// UpdateTask replaces the task with the same id in the week.
func (e *Editor) UpdateTask(weekID string, task domain.Task) error {
	t, ok := domain.ParseTaskType(string(task.Type))
	if !ok {
		return domain.NewValidationError("type", fmt.Sprintf("unknown task type %q", task.Type))
	}
	task.Type = t
	return e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		if domain.FindWeek(weeks, weekID) == -1 {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, weekID)
		}
		out, ok := UpdateTask(weeks, weekID, task)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
		}
		return out, nil
	})
}

// AttachResource links a catalog material to a task in the working copy.
func (e *Editor) AttachResource(ctx context.Context, weekID, taskID, materialID string) error {
	if e.catalog != nil {
		if _, err := e.catalog.GetMaterial(ctx, materialID); err != nil {
			return fmt.Errorf("%w %s: %v", ErrUnknownMaterial, materialID, err)
		}
	}
	return e.setResource(weekID, taskID, materialID, true)
}

func (e *Editor) DetachResource(weekID, taskID, materialID string) error {
	return e.setResource(weekID, taskID, materialID, false)
}

func (e *Editor) setResource(weekID, taskID, materialID string, attached bool) error {
	return e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		wi := domain.FindWeek(weeks, weekID)
		if wi == -1 {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, weekID)
		}
		if weeks[wi].FindTask(taskID) == -1 {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		out, ok := SetResource(weeks, weekID, taskID, materialID, attached)
		if !ok {
			return nil, errNoChange
		}
		return out, nil
	})
}

// DeleteWeek removes a week after any required confirmation. It reports
// false when the user declined.
func (e *Editor) DeleteWeek(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return false, ErrNotReady
	}
	i := domain.FindWeek(e.weeks, id)
	if i == -1 {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrWeekNotFound, id)
	}
	req := DeleteRequest{Kind: "week", Title: e.weeks[i].Title, WeekNumber: e.weeks[i].WeekNumber}
	courseID := e.course.ID
	e.mu.Unlock()

	if e.impacts != nil {
		impact, err := e.impacts.WeekImpact(ctx, courseID, id)
		if err != nil {
			return false, fmt.Errorf("checking delete impact: %w", err)
		}
		req.Impact = impact
	}
	if ok, err := e.confirmDelete(ctx, req); !ok || err != nil {
		return false, err
	}

	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, ok := DeleteWeek(weeks, id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, id)
		}
		if e.selected == id {
			e.selected = ""
			if len(out) > 0 {
				e.selected = out[0].ID
			}
		}
		delete(e.expanded, id)
		return out, nil
	})
	return err == nil, err
}

// DeleteTask removes a task after any required confirmation.
func (e *Editor) DeleteTask(ctx context.Context, weekID, taskID string) (bool, error) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return false, ErrNotReady
	}
	wi := domain.FindWeek(e.weeks, weekID)
	if wi == -1 {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrWeekNotFound, weekID)
	}
	ti := e.weeks[wi].FindTask(taskID)
	if ti == -1 {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	req := DeleteRequest{Kind: "task", Title: e.weeks[wi].Tasks[ti].Title, WeekNumber: e.weeks[wi].WeekNumber}
	courseID := e.course.ID
	e.mu.Unlock()

	if e.impacts != nil {
		impact, err := e.impacts.TaskImpact(ctx, courseID, taskID)
		if err != nil {
			return false, fmt.Errorf("checking delete impact: %w", err)
		}
		req.Impact = impact
	}
	if ok, err := e.confirmDelete(ctx, req); !ok || err != nil {
		return false, err
	}

	err := e.apply(func(weeks []domain.Week) ([]domain.Week, error) {
		out, ok := DeleteTask(weeks, weekID, taskID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return out, nil
	})
	return err == nil, err
}

// confirmDelete asks the confirmer when the delete has any impact.
func (e *Editor) confirmDelete(ctx context.Context, req DeleteRequest) (bool, error) {
	if req.Impact.IsZero() {
		return true, nil
	}
	if e.confirm == nil {
		return false, ErrConfirmationRequired
	}
	ok, err := e.confirm.ConfirmDelete(ctx, req)
	if err != nil {
		return false, fmt.Errorf("confirming delete: %w", err)
	}
	return ok, nil
}

// CommitResult reports a successful save.
type CommitResult struct {
	Message  string
	Stage    domain.Stage
	Advanced bool
}

// Commit writes the whole working copy as a full structure replace. A
// course still in the linear flow advances to the materials step; a
// published course keeps its stage. On failure the working copy is kept and
// the editor enters StateError; Commit may be retried from there.
func (e *Editor) Commit(ctx context.Context) (CommitResult, error) {
	e.mu.Lock()
	if e.state != StateReady && e.state != StateError || e.course == nil {
		state := e.state
		e.mu.Unlock()
		return CommitResult{}, fmt.Errorf("%w (%s)", ErrNotReady, state)
	}
	e.state = StateSaving
	weeks := curriculum.Canonicalize(e.weeks)
	course := *e.course
	e.mu.Unlock()

	before := course.CreationStage
	err := e.flow.Complete(ctx, &course, stage.ViewStructureEditor, func(ctx context.Context) error {
		return e.store.ReplaceCourseStructure(ctx, course.ID, weeks)
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateError
		e.lastErr = err
		e.log.Warn("structure save failed",
			zap.String("course_id", course.ID),
			zap.Int("weeks", len(weeks)),
			zap.Error(err))
		return CommitResult{}, err
	}

	e.weeks = weeks
	e.course.CreationStage = course.CreationStage
	e.course.Weeks = domain.CloneWeeks(weeks)
	e.dirty = false
	e.lastErr = nil
	e.state = StateReady

	res := CommitResult{Stage: course.CreationStage, Advanced: course.CreationStage != before}
	if before == domain.StagePublished {
		res.Message = "Changes saved"
	} else {
		res.Message = fmt.Sprintf("Structure saved: %s, %s", plural(len(weeks), "week"), plural(countTasks(weeks), "task"))
	}
	return res, nil
}

// Dismiss acknowledges a failed save and returns to StateReady with the
// working copy intact.
func (e *Editor) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateError && e.course != nil {
		e.state = StateReady
	}
}

func countTasks(weeks []domain.Week) int {
	n := 0
	for _, w := range weeks {
		n += len(w.Tasks)
	}
	return n
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
