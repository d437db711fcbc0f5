package repository

import (
	"context"

	"github.com/alexanderramin/coachlab/internal/domain"
)

type CourseRepo interface {
	Create(ctx context.Context, c *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Course, error)
	Update(ctx context.Context, c *domain.Course) error
	SetStage(ctx context.Context, id string, stage domain.Stage) error
	Publish(ctx context.Context, id string, s domain.PublishSettings) error
	Delete(ctx context.Context, id string) error
}

// StructureRepo persists the week and task subtree of a course.
type StructureRepo interface {
	ListByCourse(ctx context.Context, courseID string) ([]domain.Week, error)
	DeleteByCourse(ctx context.Context, courseID string) error
	InsertWeeks(ctx context.Context, courseID string, weeks []domain.Week) error
}

type MaterialRepo interface {
	Create(ctx context.Context, m *domain.Material) error
	GetByID(ctx context.Context, id string) (*domain.Material, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Material, error)
	Delete(ctx context.Context, id string) error
}

type PersonaRepo interface {
	Create(ctx context.Context, p *domain.Persona) error
	GetByID(ctx context.Context, id string) (*domain.Persona, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Persona, error)
	Delete(ctx context.Context, id string) error
}

// LinkKind selects one of the course link tables.
type LinkKind string

const (
	LinkMaterial LinkKind = "material"
	LinkPersona  LinkKind = "persona"
)

// CourseLinkRepo manages the course to material and course to persona links.
type CourseLinkRepo interface {
	ListIDs(ctx context.Context, kind LinkKind, courseID string) ([]string, error)
	Set(ctx context.Context, kind LinkKind, courseID, targetID string, present bool) error
}

// EnrollmentRepo records enrollments and completions and reports the counts
// shown before a destructive structure edit.
type EnrollmentRepo interface {
	Enroll(ctx context.Context, e domain.Enrollment) error
	CountByCourse(ctx context.Context, courseID string) (int, error)
	RecordCompletion(ctx context.Context, courseID, taskID, clientID string) error
	CountCompletions(ctx context.Context, taskIDs []string) (int, error)
	CountResources(ctx context.Context, taskIDs []string) (int, error)
}
