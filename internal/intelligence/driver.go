// Package intelligence drives the AI-assisted drafting step of course
// authoring.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/curriculum"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/stage"
	"go.uber.org/zap"
)

var (
	// ErrTurnPending is returned when a turn is sent while another is in flight.
	ErrTurnPending = errors.New("a turn is already in progress")

	// ErrDraftCompleted is returned when a turn is sent after the structure
	// was saved and the step completed.
	ErrDraftCompleted = errors.New("drafting step already completed")
)

// DefaultConfirmDelay keeps the confirmation visible before the step completes.
const DefaultConfirmDelay = 1500 * time.Millisecond

// Role is the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EntryKind separates plain replies from system-generated assistant entries.
type EntryKind string

const (
	KindMessage      EntryKind = "message"
	KindConfirmation EntryKind = "confirmation"
	KindError        EntryKind = "error"
)

// Entry is one transcript line.
type Entry struct {
	Role Role
	Kind EntryKind
	Text string
}

// TurnResult is what a Send produced for display.
type TurnResult struct {
	Reply     Entry
	Weeks     []domain.Week
	Completed bool
}

// StructureStore saves a drafted structure.
type StructureStore interface {
	ReplaceCourseStructure(ctx context.Context, id string, weeks []domain.Week) error
}

// DriverOption configures a CurriculumDriver.
type DriverOption func(*CurriculumDriver)

func WithConfirmDelay(d time.Duration) DriverOption {
	return func(dr *CurriculumDriver) { dr.delay = d }
}

// WithCatalog lists the owner's materials in the session preamble.
func WithCatalog(c app.MaterialCatalog) DriverOption {
	return func(dr *CurriculumDriver) { dr.catalog = c }
}

// OnConfirmation is called with the confirmation entry before the delay.
func OnConfirmation(fn func(Entry)) DriverOption {
	return func(dr *CurriculumDriver) { dr.onConfirm = fn }
}

// OnComplete is called once the course has moved past the drafting step.
func OnComplete(fn func(*domain.Course)) DriverOption {
	return func(dr *CurriculumDriver) { dr.onComplete = fn }
}

func WithLogger(l *zap.Logger) DriverOption {
	return func(dr *CurriculumDriver) { dr.log = l }
}

// CurriculumDriver runs one drafting conversation for one course. Turns are
// strictly sequential.
type CurriculumDriver struct {
	ai         app.AICollaborator
	store      StructureStore
	flow       *stage.Flow
	catalog    app.MaterialCatalog
	delay      time.Duration
	onConfirm  func(Entry)
	onComplete func(*domain.Course)
	log        *zap.Logger

	pending atomic.Bool

	mu         sync.Mutex
	course     *domain.Course
	session    app.SessionHandle
	started    bool
	completed  bool
	transcript []Entry
}

// NewCurriculumDriver creates a driver for course. The course is advanced in
// place when the step completes.
func NewCurriculumDriver(ai app.AICollaborator, store StructureStore, flow *stage.Flow, course *domain.Course, opts ...DriverOption) *CurriculumDriver {
	dr := &CurriculumDriver{
		ai:     ai,
		store:  store,
		flow:   flow,
		course: course,
		delay:  DefaultConfirmDelay,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(dr)
	}
	return dr
}

// Start opens the collaborator session. Send calls it on first use.
func (dr *CurriculumDriver) Start(ctx context.Context) error {
	dr.mu.Lock()
	started := dr.started
	dr.mu.Unlock()
	if started {
		return nil
	}

	var materials []*domain.Material
	if dr.catalog != nil {
		var err error
		materials, err = dr.catalog.ListMaterials(ctx, dr.course.OwnerID)
		if err != nil {
			return fmt.Errorf("loading material catalog: %w", err)
		}
	}
	preamble, err := buildPreamble(dr.course, materials)
	if err != nil {
		return err
	}
	h, err := dr.ai.CreateSession(ctx, preamble)
	if err != nil {
		return fmt.Errorf("starting drafting session: %w", err)
	}

	dr.mu.Lock()
	dr.session = h
	dr.started = true
	dr.mu.Unlock()
	return nil
}

// Send runs one turn. A reply carrying a structure is saved, confirmed and
// the course advanced to the structure editor; any other reply is returned
// verbatim. Collaborator and store failures become a single error entry.
func (dr *CurriculumDriver) Send(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, domain.NewValidationError("message", "message cannot be empty")
	}
	if !dr.pending.CompareAndSwap(false, true) {
		return TurnResult{}, ErrTurnPending
	}
	defer dr.pending.Store(false)

	if dr.Completed() {
		return TurnResult{}, ErrDraftCompleted
	}
	dr.append(Entry{Role: RoleUser, Kind: KindMessage, Text: text})
	if err := dr.Start(ctx); err != nil {
		return dr.fail(err, "Could not reach the assistant")
	}

	dr.mu.Lock()
	session := dr.session
	dr.mu.Unlock()

	reply, err := dr.ai.SendTurn(ctx, session, text)
	if err != nil {
		return dr.fail(err, "The assistant could not respond")
	}

	weeks, ok := curriculum.Extract(reply)
	if !ok {
		entry := Entry{Role: RoleAssistant, Kind: KindMessage, Text: reply}
		dr.append(entry)
		return TurnResult{Reply: entry}, nil
	}
	return dr.commit(ctx, weeks)
}

func (dr *CurriculumDriver) commit(ctx context.Context, weeks []domain.Week) (TurnResult, error) {
	courseID := dr.course.ID
	if err := dr.store.ReplaceCourseStructure(ctx, courseID, weeks); err != nil {
		return dr.fail(err, "Could not save the course structure")
	}
	dr.log.Info("drafted structure saved",
		zap.String("course_id", courseID),
		zap.Int("weeks", len(weeks)))

	confirm := Entry{
		Role: RoleAssistant,
		Kind: KindConfirmation,
		Text: fmt.Sprintf("Course structure created: %s, %s. Opening the structure editor.",
			plural(len(weeks), "week"), plural(countTasks(weeks), "task")),
	}
	dr.append(confirm)
	if dr.onConfirm != nil {
		dr.onConfirm(confirm)
	}

	if dr.delay > 0 {
		timer := time.NewTimer(dr.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return TurnResult{Reply: confirm, Weeks: weeks}, ctx.Err()
		case <-timer.C:
		}
	}

	dr.mu.Lock()
	course := dr.course
	dr.mu.Unlock()
	if err := dr.flow.Complete(ctx, course, stage.ViewAIStructure, nil); err != nil {
		return dr.fail(err, "Structure saved, but the course could not move on")
	}

	dr.mu.Lock()
	dr.completed = true
	course.Weeks = domain.CloneWeeks(weeks)
	dr.mu.Unlock()
	if dr.onComplete != nil {
		dr.onComplete(course)
	}
	return TurnResult{Reply: confirm, Weeks: weeks, Completed: true}, nil
}

// fail records err as the one assistant entry for this turn.
func (dr *CurriculumDriver) fail(err error, prefix string) (TurnResult, error) {
	entry := Entry{Role: RoleAssistant, Kind: KindError, Text: fmt.Sprintf("%s: %v", prefix, err)}
	dr.append(entry)
	dr.log.Warn("drafting turn failed",
		zap.String("course_id", dr.course.ID),
		zap.Error(err))
	return TurnResult{Reply: entry}, err
}

func (dr *CurriculumDriver) append(e Entry) {
	dr.mu.Lock()
	dr.transcript = append(dr.transcript, e)
	dr.mu.Unlock()
}

// Transcript returns a copy of the conversation so far.
func (dr *CurriculumDriver) Transcript() []Entry {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return append([]Entry(nil), dr.transcript...)
}

func (dr *CurriculumDriver) Pending() bool {
	return dr.pending.Load()
}

func (dr *CurriculumDriver) Completed() bool {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.completed
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
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
