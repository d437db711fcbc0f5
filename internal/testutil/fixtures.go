package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/google/uuid"
)

// TestOwner is the coach id used by fixtures unless overridden.
const TestOwner = "coach-1"

// Course options
type CourseOption func(*domain.Course)

func WithStage(s domain.Stage) CourseOption {
	return func(c *domain.Course) {
		c.CreationStage = s
	}
}

func WithCourseStatus(s domain.CourseStatus) CourseOption {
	return func(c *domain.Course) {
		c.Status = s
	}
}

func WithOwner(owner string) CourseOption {
	return func(c *domain.Course) {
		c.OwnerID = owner
	}
}

func WithDuration(weeks int) CourseOption {
	return func(c *domain.Course) {
		c.DurationValue = weeks
	}
}

func NewTestCourse(title string, opts ...CourseOption) *domain.Course {
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.Course{
		ID:            uuid.New().String(),
		OwnerID:       TestOwner,
		Title:         title,
		Description:   title + " description",
		Category:      "wellbeing",
		DurationValue: 4,
		CreationStage: domain.StageDetails,
		Status:        domain.CourseDraft,
		PricingModel:  domain.PricingFree,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskType(tt domain.TaskType) TaskOption {
	return func(t *domain.Task) {
		t.Type = tt
	}
}

func WithResources(ids ...string) TaskOption {
	return func(t *domain.Task) {
		t.ResourceIDs = ids
	}
}

func NewTestTask(title string, opts ...TaskOption) domain.Task {
	t := domain.Task{
		ID:    uuid.New().String(),
		Title: title,
		Type:  domain.TaskLesson,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// NewTestWeek builds a week with the given tasks. WeekNumber is left for
// the caller or NewTestWeeks to assign.
func NewTestWeek(title string, tasks ...domain.Task) domain.Week {
	return domain.Week{
		ID:         uuid.New().String(),
		Title:      title,
		Overview:   title + " overview",
		Objectives: []string{"understand " + title},
		Tasks:      tasks,
	}
}

// NewTestWeeks builds n numbered weeks with tasksPerWeek lesson tasks each.
func NewTestWeeks(n, tasksPerWeek int) []domain.Week {
	weeks := make([]domain.Week, n)
	for i := range weeks {
		var tasks []domain.Task
		for j := 0; j < tasksPerWeek; j++ {
			tasks = append(tasks, NewTestTask(fmt.Sprintf("W%d T%d", i+1, j+1)))
		}
		weeks[i] = NewTestWeek(fmt.Sprintf("Week %d", i+1), tasks...)
		weeks[i].WeekNumber = i + 1
	}
	return weeks
}

func NewTestMaterial(title string, mt domain.MaterialType) *domain.Material {
	return &domain.Material{
		ID:          uuid.New().String(),
		OwnerID:     TestOwner,
		Title:       title,
		Type:        mt,
		Description: title + " description",
		Category:    "general",
		Tags:        []string{"test"},
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func NewTestPersona(name string) *domain.Persona {
	return &domain.Persona{
		ID:            uuid.New().String(),
		OwnerID:       TestOwner,
		Name:          name,
		ToneTags:      []string{"warm"},
		ResponseStyle: "concise",
		SystemPrompt:  "You are " + name + ".",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}
