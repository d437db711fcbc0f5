package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/repository"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/alexanderramin/coachlab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*EntityStore, *sql.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewEntityStore(database, testutil.NewTestUoW(database)), database
}

func createCourse(t *testing.T, s *EntityStore, title string, materialIDs ...string) *domain.Course {
	t.Helper()
	c, err := s.CreateCourse(context.Background(), testutil.TestOwner, domain.CourseFields{
		Title:         title,
		Description:   title + " description",
		DurationValue: 4,
		Tags:          []string{"sleep", " Sleep ", ""},
	}, materialIDs)
	require.NoError(t, err)
	return c
}

func addMaterial(t *testing.T, database *sql.DB, title string) *domain.Material {
	t.Helper()
	m := testutil.NewTestMaterial(title, domain.MaterialAudio)
	require.NoError(t, repository.NewSQLiteMaterialRepo(database).Create(context.Background(), m))
	return m
}

func TestEntityStore_CreateAndGetCourse(t *testing.T) {
	s, database := newStore(t)
	m := addMaterial(t, database, "Body scan")

	c := createCourse(t, s, "Sleep Better", m.ID)
	assert.Equal(t, domain.StageDetails, c.CreationStage)
	assert.Equal(t, domain.CourseDraft, c.Status)
	assert.Equal(t, []string{m.ID}, c.MaterialIDs)

	got, err := s.GetCourse(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sleep Better", got.Title)
	assert.Equal(t, c.Tags, got.Tags)
	assert.Equal(t, []string{m.ID}, got.MaterialIDs)
	assert.Empty(t, got.Weeks)
}

func TestEntityStore_CreateCourseValidates(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.CreateCourse(context.Background(), testutil.TestOwner, domain.CourseFields{DurationValue: -1}, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	courses, err := s.ListCourses(context.Background(), testutil.TestOwner)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestEntityStore_CreateCourseRollsBackOnBadMaterial(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.CreateCourse(context.Background(), testutil.TestOwner,
		domain.CourseFields{Title: "Linked"}, []string{"no-such-material"})
	require.Error(t, err)

	courses, err := s.ListCourses(context.Background(), testutil.TestOwner)
	require.NoError(t, err)
	assert.Empty(t, courses, "the course row is rolled back with the failed link")
}

func TestEntityStore_ReplaceStructureIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Idempotent")
	weeks := testutil.NewTestWeeks(3, 2)

	require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, weeks))
	first, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, first.Weeks))
	second, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Weeks, second.Weeks)
	require.Len(t, second.Weeks, 3)
	assert.Equal(t, weeks[0].ID, second.Weeks[0].ID)
	assert.Equal(t, 6, second.TaskCount())
}

func TestEntityStore_ReplaceStructureShrinks(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Shrink")

	require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, testutil.NewTestWeeks(4, 1)))
	require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, testutil.NewTestWeeks(1, 0)))

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Weeks, 1)
	assert.Equal(t, 0, got.TaskCount())
}

func TestEntityStore_ReplaceStructureCanonicalizes(t *testing.T) {
	s, database := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Canonical")
	m := addMaterial(t, database, "Known")

	weeks := []domain.Week{
		{ID: "week-1", WeekNumber: 7, Title: "  ", Tasks: []domain.Task{
			{ID: "task-1", Title: "Check in", Type: "daily check-in", ResourceIDs: []string{m.ID, "invented"}},
		}},
		{ID: "week-1", Title: "Second"},
	}
	require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, weeks))

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Weeks, 2)
	assert.NotEqual(t, "week-1", got.Weeks[0].ID)
	assert.NotEqual(t, got.Weeks[0].ID, got.Weeks[1].ID)
	assert.Equal(t, "Week 1", got.Weeks[0].Title)
	assert.True(t, domain.IsNumbered(got.Weeks))
	assert.Equal(t, domain.TaskDailyCheckIn, got.Weeks[0].Tasks[0].Type)
	assert.Equal(t, []string{m.ID}, got.Weeks[0].Tasks[0].ResourceIDs)
}

func TestEntityStore_ReplaceStructureRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	good := NewEntityStore(database, testutil.NewTestUoW(database))
	c := createCourse(t, good, "Rollback")
	original := testutil.NewTestWeeks(2, 1)
	require.NoError(t, good.ReplaceCourseStructure(ctx, c.ID, original))

	// Exec calls: #1 delete weeks, #2 insert week 1, #3 insert its task.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 3,
		Err:    fmt.Errorf("injected task insert failure"),
	}
	failing := NewEntityStore(database, failUoW)

	err := failing.ReplaceCourseStructure(ctx, c.ID, testutil.NewTestWeeks(3, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected task insert failure")
	assert.Equal(t, int32(1), failUoW.Calls.Load())

	got, err := good.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Weeks, 2, "previous structure survives the failed replace")
	assert.Equal(t, original[0].ID, got.Weeks[0].ID)
	assert.Equal(t, original[1].Tasks[0].ID, got.Weeks[1].Tasks[0].ID)
}

func TestEntityStore_ReplaceStructureUnknownCourse(t *testing.T) {
	s, _ := newStore(t)
	err := s.ReplaceCourseStructure(context.Background(), "missing", testutil.NewTestWeeks(1, 0))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEntityStore_ListCoursesHydratesEach(t *testing.T) {
	s, database := newStore(t)
	ctx := context.Background()
	p := testutil.NewTestPersona("Sage")
	require.NoError(t, repository.NewSQLitePersonaRepo(database).Create(ctx, p))

	var ids []string
	for i := 0; i < 6; i++ {
		c := createCourse(t, s, fmt.Sprintf("Course %d", i))
		require.NoError(t, s.ReplaceCourseStructure(ctx, c.ID, testutil.NewTestWeeks(i+1, 1)))
		require.NoError(t, s.SetPersonaLink(ctx, c.ID, p.ID, true))
		ids = append(ids, c.ID)
	}
	other, err := s.CreateCourse(ctx, "someone-else", domain.CourseFields{Title: "Not mine"}, nil)
	require.NoError(t, err)

	courses, err := s.ListCourses(ctx, testutil.TestOwner)
	require.NoError(t, err)
	require.Len(t, courses, 6)
	for _, c := range courses {
		assert.NotEqual(t, other.ID, c.ID)
		assert.Contains(t, ids, c.ID)
		assert.Equal(t, []string{p.ID}, c.PersonaIDs)
		assert.NotEmpty(t, c.Weeks)
	}
}

func TestEntityStore_UpdateCourseFields(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Before")

	title := "  After  "
	weeks := 6
	require.NoError(t, s.UpdateCourseFields(ctx, c.ID, domain.CoursePatch{Title: &title, DurationValue: &weeks}))

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, 6, got.DurationValue)
	assert.Equal(t, c.Description, got.Description)

	blank := ""
	assert.ErrorIs(t, s.UpdateCourseFields(ctx, c.ID, domain.CoursePatch{Title: &blank}), domain.ErrValidation)
	assert.ErrorIs(t, s.UpdateCourseFields(ctx, "missing", domain.CoursePatch{Title: &title}), repository.ErrNotFound)
	assert.NoError(t, s.UpdateCourseFields(ctx, "missing", domain.CoursePatch{}), "an empty patch touches nothing")
}

func TestEntityStore_SetCourseStage(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Stages")

	require.NoError(t, s.SetCourseStage(ctx, c.ID, domain.StageMaterials))
	assert.ErrorIs(t, s.SetCourseStage(ctx, c.ID, domain.Stage(7)), stage.ErrInvalidStage)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageMaterials, got.CreationStage)
}

func TestEntityStore_PublishCourse(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	c := createCourse(t, s, "Publish")

	err := s.PublishCourse(ctx, c.ID, domain.PublishSettings{PricingModel: domain.PricingOneTime})
	require.ErrorIs(t, err, domain.ErrValidation)
	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CourseDraft, got.Status)

	require.NoError(t, s.PublishCourse(ctx, c.ID, domain.PublishSettings{
		PricingModel: domain.PricingSubscription, Price: 19, TrialEnabled: true, TrialDays: 7, MaxEnrollments: 20,
	}))
	got, err = s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CoursePublished, got.Status)
	assert.Equal(t, domain.StagePublished, got.CreationStage)
	assert.Equal(t, domain.PricingSubscription, got.PricingModel)
	assert.Equal(t, 19.0, got.Price)
	assert.Equal(t, 7, got.TrialDays)
	assert.Equal(t, 20, got.MaxEnrollments)
}

func TestEntityStore_ObserverSeesUseCases(t *testing.T) {
	database := testutil.NewTestDB(t)
	var events []UseCaseEvent
	s := NewEntityStore(database, testutil.NewTestUoW(database), observerFunc(func(e UseCaseEvent) {
		events = append(events, e)
	}))

	_, err := s.CreateCourse(context.Background(), testutil.TestOwner, domain.CourseFields{}, nil)
	require.Error(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "course.create", events[0].Name)
	assert.False(t, events[0].Success)
	assert.True(t, errors.Is(events[0].Err, domain.ErrValidation))
}

type observerFunc func(UseCaseEvent)

func (f observerFunc) ObserveUseCase(_ context.Context, e UseCaseEvent) { f(e) }
