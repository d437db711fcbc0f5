package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	course := testutil.NewTestCourse("Sleep Reset")
	course.Tags = []string{"sleep", "habits"}
	require.NoError(t, repo.Create(ctx, course))

	fetched, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sleep Reset", fetched.Title)
	assert.Equal(t, []string{"sleep", "habits"}, fetched.Tags)
	assert.Equal(t, domain.StageDetails, fetched.CreationStage)
	assert.Equal(t, domain.CourseDraft, fetched.Status)
	assert.Equal(t, domain.PricingFree, fetched.PricingModel)
	assert.Nil(t, fetched.StartDate)
	assert.True(t, course.CreatedAt.Equal(fetched.CreatedAt))
}

func TestCourseRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseRepo_ListByOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestCourse("Mine A")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestCourse("Mine B")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestCourse("Theirs", testutil.WithOwner("coach-2"))))

	mine, err := repo.ListByOwner(ctx, testutil.TestOwner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCourseRepo_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	course := testutil.NewTestCourse("Original")
	require.NoError(t, repo.Create(ctx, course))

	course.Title = "Renamed"
	course.Tags = nil
	course.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, course))

	fetched, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Title)
	assert.Nil(t, fetched.Tags)

	missing := testutil.NewTestCourse("Ghost")
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestCourseRepo_SetStage(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	course := testutil.NewTestCourse("Staged")
	require.NoError(t, repo.Create(ctx, course))

	require.NoError(t, repo.SetStage(ctx, course.ID, domain.StageMaterials))
	// Writing the same stage again is harmless.
	require.NoError(t, repo.SetStage(ctx, course.ID, domain.StageMaterials))

	fetched, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageMaterials, fetched.CreationStage)

	assert.ErrorIs(t, repo.SetStage(ctx, "missing", domain.StagePersonas), ErrNotFound)
}

func TestCourseRepo_Publish(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCourseRepo(db)
	ctx := context.Background()

	course := testutil.NewTestCourse("Launch", testutil.WithStage(domain.StagePricing))
	require.NoError(t, repo.Create(ctx, course))

	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	settings := domain.PublishSettings{
		PricingModel:   domain.PricingSubscription,
		Price:          29.5,
		TrialEnabled:   true,
		TrialDays:      7,
		MaxEnrollments: 20,
		StartDate:      &start,
	}
	require.NoError(t, repo.Publish(ctx, course.ID, settings))

	fetched, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CoursePublished, fetched.Status)
	assert.Equal(t, domain.StagePublished, fetched.CreationStage)
	assert.Equal(t, domain.PricingSubscription, fetched.PricingModel)
	assert.InDelta(t, 29.5, fetched.Price, 0.001)
	assert.True(t, fetched.TrialEnabled)
	assert.Equal(t, 7, fetched.TrialDays)
	assert.Equal(t, 20, fetched.MaxEnrollments)
	require.NotNil(t, fetched.StartDate)
	assert.Equal(t, "2026-11-02", fetched.StartDate.Format(dateLayout))
}

func TestCourseRepo_DeleteCascadesStructure(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	courses := NewSQLiteCourseRepo(db)
	structure := NewSQLiteStructureRepo(db)

	course := testutil.NewTestCourse("Doomed")
	require.NoError(t, courses.Create(ctx, course))
	require.NoError(t, structure.InsertWeeks(ctx, course.ID, testutil.NewTestWeeks(2, 2)))

	require.NoError(t, courses.Delete(ctx, course.ID))

	weeks, err := structure.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, weeks)

	var tasks int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&tasks))
	assert.Zero(t, tasks, "tasks should be cascade-deleted with their course")
}
