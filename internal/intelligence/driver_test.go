package intelligence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/llm"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/alexanderramin/coachlab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonReply = "Sure! Here it is:\n{\"weeks\":[{\"weekNumber\":1,\"title\":\"Intro\",\"tasks\":[{\"title\":\"Say hi\",\"type\":\"Lesson\"}]}]}"

type fakeAI struct {
	mu        sync.Mutex
	preambles []string
	turns     []string
	replies   []string
	err       error
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeAI) CreateSession(_ context.Context, preamble string) (app.SessionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preambles = append(f.preambles, preamble)
	return app.SessionHandle("s1"), nil
}

func (f *fakeAI) SendTurn(_ context.Context, _ app.SessionHandle, text string) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, text)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeStore struct {
	mu         sync.Mutex
	course     *domain.Course
	saved      [][]domain.Week
	replaceErr error
	listErr    error
}

func (f *fakeStore) ReplaceCourseStructure(_ context.Context, _ string, weeks []domain.Week) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.saved = append(f.saved, weeks)
	return nil
}

func (f *fakeStore) SetCourseStage(_ context.Context, _ string, s domain.Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.course.CreationStage = s
	return nil
}

func (f *fakeStore) ListCourses(context.Context, string) ([]*domain.Course, error) {
	return nil, f.listErr
}

func (f *fakeStore) storedStage() domain.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.course.CreationStage
}

type staticCatalog []*domain.Material

func (c staticCatalog) ListMaterials(context.Context, string) ([]*domain.Material, error) {
	return c, nil
}

func (c staticCatalog) GetMaterial(context.Context, string) (*domain.Material, error) {
	return nil, errors.New("not used")
}

func newDriver(ai *fakeAI, opts ...DriverOption) (*CurriculumDriver, *fakeStore, *domain.Course) {
	course := testutil.NewTestCourse("Sleep Better", testutil.WithStage(domain.StageDetails))
	stored := *course
	store := &fakeStore{course: &stored}
	opts = append([]DriverOption{WithConfirmDelay(0)}, opts...)
	return NewCurriculumDriver(ai, store, stage.NewFlow(store, nil), course, opts...), store, course
}

func TestDriver_JSONReplyIsSavedNotShown(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	var confirmedAt domain.Stage
	var completed *domain.Course
	dr, store, course := newDriver(ai)
	dr.onConfirm = func(Entry) { confirmedAt = store.storedStage() }
	dr.onComplete = func(c *domain.Course) { completed = c }

	res, err := dr.Send(context.Background(), "Build me a one week course")
	require.NoError(t, err)

	require.Len(t, res.Weeks, 1)
	assert.Equal(t, "Intro", res.Weeks[0].Title)
	require.Len(t, res.Weeks[0].Tasks, 1)
	assert.Equal(t, "Say hi", res.Weeks[0].Tasks[0].Title)
	assert.Equal(t, domain.TaskLesson, res.Weeks[0].Tasks[0].Type)
	assert.True(t, res.Completed)
	assert.Equal(t, KindConfirmation, res.Reply.Kind)

	for _, e := range dr.Transcript() {
		assert.NotContains(t, e.Text, `"weeks"`, "raw payload must not be displayed")
	}
	transcript := dr.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, RoleUser, transcript[0].Role)
	assert.Equal(t, KindConfirmation, transcript[1].Kind)
	assert.Contains(t, transcript[1].Text, "1 week, 1 task")

	require.Len(t, store.saved, 1)
	assert.Equal(t, domain.StageDetails, confirmedAt, "confirmation shows before the stage moves")
	assert.Equal(t, domain.StageStructureEdit, store.storedStage())
	assert.Equal(t, domain.StageStructureEdit, course.CreationStage)
	require.NotNil(t, completed)
	assert.Len(t, completed.Weeks, 1)
	assert.True(t, dr.Completed())
}

func TestDriver_PlainReplyShownVerbatim(t *testing.T) {
	reply := "How many weeks should the course run? {not json"
	ai := &fakeAI{replies: []string{reply}}
	dr, store, course := newDriver(ai)

	res, err := dr.Send(context.Background(), "Help me plan")
	require.NoError(t, err)

	assert.Equal(t, Entry{Role: RoleAssistant, Kind: KindMessage, Text: reply}, res.Reply)
	assert.False(t, res.Completed)
	assert.Empty(t, store.saved)
	assert.Equal(t, domain.StageDetails, course.CreationStage)
	assert.Len(t, dr.Transcript(), 2)
}

func TestDriver_CollaboratorErrorBecomesOneEntry(t *testing.T) {
	ai := &fakeAI{err: llm.ErrTimeout}
	dr, store, course := newDriver(ai)

	res, err := dr.Send(context.Background(), "hello")
	require.ErrorIs(t, err, llm.ErrTimeout)

	assert.Equal(t, KindError, res.Reply.Kind)
	transcript := dr.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, KindError, transcript[1].Kind)
	assert.Empty(t, store.saved)
	assert.Equal(t, domain.StageDetails, course.CreationStage)
	assert.False(t, dr.Pending())
}

func TestDriver_StoreFailureDoesNotAdvance(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	dr, store, course := newDriver(ai)
	store.replaceErr = errors.New("disk full")

	res, err := dr.Send(context.Background(), "go")
	require.Error(t, err)

	assert.Equal(t, KindError, res.Reply.Kind)
	assert.Contains(t, res.Reply.Text, "disk full")
	assert.False(t, res.Completed)
	assert.Equal(t, domain.StageDetails, course.CreationStage)
	assert.Equal(t, domain.StageDetails, store.storedStage())
	assert.False(t, dr.Completed())
}

func TestDriver_RejectsEmptyInput(t *testing.T) {
	ai := &fakeAI{}
	dr, _, _ := newDriver(ai)

	_, err := dr.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, ai.turns)
	assert.Empty(t, dr.Transcript())
}

func TestDriver_RejectsConcurrentTurn(t *testing.T) {
	ai := &fakeAI{
		replies: []string{"first"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	dr, _, _ := newDriver(ai)

	done := make(chan error, 1)
	go func() {
		_, err := dr.Send(context.Background(), "one")
		done <- err
	}()
	<-ai.entered
	assert.True(t, dr.Pending())

	_, err := dr.Send(context.Background(), "two")
	assert.ErrorIs(t, err, ErrTurnPending)

	close(ai.block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"one"}, ai.turns)
}

func TestDriver_SessionSeededOnce(t *testing.T) {
	ai := &fakeAI{replies: []string{"a", "b"}}
	catalog := staticCatalog{{ID: "m-1", Title: "Wind-down audio", Type: domain.MaterialAudio, Tags: []string{"sleep"}}}
	dr, _, _ := newDriver(ai, WithCatalog(catalog))

	_, err := dr.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = dr.Send(context.Background(), "two")
	require.NoError(t, err)

	require.Len(t, ai.preambles, 1)
	p := ai.preambles[0]
	assert.Contains(t, p, "Sleep Better")
	assert.Contains(t, p, "Duration: 4 weeks")
	assert.Contains(t, p, `id=m-1 type=audio title="Wind-down audio"`)
	assert.Contains(t, p, "tags=sleep")
	assert.Contains(t, p, `"weeks"`)
	assert.True(t, strings.Contains(p, `"Daily Check-in"`))
}

func TestDriver_CancelDuringDelayKeepsStage(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	dr, store, course := newDriver(ai, WithConfirmDelay(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	dr.onConfirm = func(Entry) { cancel() }

	res, err := dr.Send(ctx, "go")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindConfirmation, res.Reply.Kind)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, domain.StageDetails, course.CreationStage)
	assert.False(t, dr.Completed())
}

func TestDriver_NoTurnsAfterCompletion(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	dr, _, _ := newDriver(ai)

	_, err := dr.Send(context.Background(), "go")
	require.NoError(t, err)

	_, err = dr.Send(context.Background(), "again")
	assert.ErrorIs(t, err, ErrDraftCompleted)
}

func TestDriver_ManualChoiceStageStillAdvances(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	dr, store, course := newDriver(ai)
	course.CreationStage = domain.StageAIStructure
	store.course.CreationStage = domain.StageAIStructure

	_, err := dr.Send(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, domain.StageStructureEdit, course.CreationStage)
}

func TestDriver_RefreshFailureStillCompletes(t *testing.T) {
	ai := &fakeAI{replies: []string{jsonReply}}
	course := testutil.NewTestCourse("Sleep Better", testutil.WithStage(domain.StageDetails))
	stored := *course
	store := &fakeStore{course: &stored, listErr: errors.New("list down")}
	flow := stage.NewFlow(store, func(context.Context, []*domain.Course) {})
	dr := NewCurriculumDriver(ai, store, flow, course, WithConfirmDelay(0))

	res, err := dr.Send(context.Background(), "one week please")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, dr.Completed())
	assert.Equal(t, domain.StageStructureEdit, course.CreationStage)
	assert.Equal(t, domain.StageStructureEdit, store.storedStage())
}
