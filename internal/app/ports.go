package app

import (
	"context"

	"github.com/alexanderramin/coachlab/internal/domain"
)

// EntityStore is the persistence contract of the authoring pipeline.
type EntityStore interface {
	// ListCourses returns the owner's courses with weeks, tasks and persona
	// ids hydrated.
	ListCourses(ctx context.Context, ownerID string) ([]*domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	CreateCourse(ctx context.Context, ownerID string, fields domain.CourseFields, materialIDs []string) (*domain.Course, error)
	UpdateCourseFields(ctx context.Context, id string, patch domain.CoursePatch) error
	SetCourseStage(ctx context.Context, id string, stage domain.Stage) error
	// ReplaceCourseStructure deletes every week of the course and inserts
	// weeks in order.
	ReplaceCourseStructure(ctx context.Context, id string, weeks []domain.Week) error
	ListMaterialIDsForCourse(ctx context.Context, id string) ([]string, error)
	SetMaterialLink(ctx context.Context, courseID, materialID string, present bool) error
	ListPersonasAvailable(ctx context.Context, ownerID string) ([]*domain.Persona, error)
	ListPersonaIDsForCourse(ctx context.Context, id string) ([]string, error)
	SetPersonaLink(ctx context.Context, courseID, personaID string, present bool) error
	// PublishCourse sets status, pricing and the published stage atomically.
	PublishCourse(ctx context.Context, id string, settings domain.PublishSettings) error
}

// SessionHandle identifies one conversation with an AI collaborator.
type SessionHandle string

// AICollaborator is a chat-style model reached one request/response at a time.
type AICollaborator interface {
	CreateSession(ctx context.Context, preamble string) (SessionHandle, error)
	SendTurn(ctx context.Context, h SessionHandle, userText string) (string, error)
}

// MaterialCatalog is the read side of the owner's material library.
type MaterialCatalog interface {
	ListMaterials(ctx context.Context, ownerID string) ([]*domain.Material, error)
	GetMaterial(ctx context.Context, id string) (*domain.Material, error)
}

// ImpactReporter reports what deleting persisted structure would affect.
// Weeks and tasks that were never saved report zero impact.
type ImpactReporter interface {
	WeekImpact(ctx context.Context, courseID, weekID string) (domain.Impact, error)
	TaskImpact(ctx context.Context, courseID, taskID string) (domain.Impact, error)
}
