package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/curriculum"
	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/repository"
	"github.com/alexanderramin/coachlab/internal/stage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// hydrateLimit bounds concurrent per-course loads in ListCourses.
const hydrateLimit = 4

// EntityStore persists courses and their structure over SQLite. Reads go
// through repositories on the shared handle; every write runs inside the
// unit of work with tx-scoped repositories.
type EntityStore struct {
	courses   repository.CourseRepo
	structure repository.StructureRepo
	links     repository.CourseLinkRepo
	personas  repository.PersonaRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

var _ app.EntityStore = (*EntityStore)(nil)

func NewEntityStore(database *sql.DB, uow db.UnitOfWork, observers ...UseCaseObserver) *EntityStore {
	return &EntityStore{
		courses:   repository.NewSQLiteCourseRepo(database),
		structure: repository.NewSQLiteStructureRepo(database),
		links:     repository.NewSQLiteCourseLinkRepo(database),
		personas:  repository.NewSQLitePersonaRepo(database),
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// ListCourses returns the owner's courses with structure and links loaded.
func (s *EntityStore) ListCourses(ctx context.Context, ownerID string) ([]*domain.Course, error) {
	courses, err := s.courses.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)
	for _, c := range courses {
		g.Go(func() error {
			return s.hydrate(gctx, c)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *EntityStore) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *EntityStore) hydrate(ctx context.Context, c *domain.Course) error {
	weeks, err := s.structure.ListByCourse(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("loading structure of %s: %w", c.DisplayID(), err)
	}
	personaIDs, err := s.links.ListIDs(ctx, repository.LinkPersona, c.ID)
	if err != nil {
		return fmt.Errorf("loading personas of %s: %w", c.DisplayID(), err)
	}
	materialIDs, err := s.links.ListIDs(ctx, repository.LinkMaterial, c.ID)
	if err != nil {
		return fmt.Errorf("loading materials of %s: %w", c.DisplayID(), err)
	}
	c.Weeks = weeks
	c.PersonaIDs = personaIDs
	c.MaterialIDs = materialIDs
	return nil
}

// CreateCourse writes a new course at the details stage with its initial
// material selection.
func (s *EntityStore) CreateCourse(ctx context.Context, ownerID string, fields domain.CourseFields, materialIDs []string) (_ *domain.Course, err error) {
	defer observe(ctx, s.observer, "course.create", time.Now(), &err, map[string]any{"materials": len(materialIDs)})

	if err := fields.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.Course{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Title:         fields.Title,
		Description:   fields.Description,
		Category:      fields.Category,
		DurationValue: fields.DurationValue,
		Tags:          domain.CleanTags(fields.Tags),
		CreationStage: domain.StageDetails,
		Status:        domain.CourseDraft,
		PricingModel:  domain.PricingFree,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteCourseRepo(tx).Create(ctx, c); err != nil {
			return err
		}
		links := repository.NewSQLiteCourseLinkRepo(tx)
		for _, id := range materialIDs {
			if err := links.Set(ctx, repository.LinkMaterial, c.ID, id, true); err != nil {
				return fmt.Errorf("linking material %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating course: %w", err)
	}
	c.MaterialIDs, err = s.links.ListIDs(ctx, repository.LinkMaterial, c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *EntityStore) UpdateCourseFields(ctx context.Context, id string, patch domain.CoursePatch) (err error) {
	defer observe(ctx, s.observer, "course.update", time.Now(), &err, nil)

	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteCourseRepo(tx)
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(c)
		c.Tags = domain.CleanTags(c.Tags)
		c.UpdatedAt = time.Now().UTC()
		return repo.Update(ctx, c)
	})
}

// SetCourseStage writes the stage as given. Ordering is the stage package's job.
func (s *EntityStore) SetCourseStage(ctx context.Context, id string, st domain.Stage) (err error) {
	defer observe(ctx, s.observer, "course.set_stage", time.Now(), &err, map[string]any{"stage": int(st)})

	if !st.Valid() {
		return fmt.Errorf("%w: %d", stage.ErrInvalidStage, st)
	}
	return s.courses.SetStage(ctx, id, st)
}

// ReplaceCourseStructure deletes every week of the course and inserts weeks
// in order, all in one transaction. Resource ids that are not in the
// owner's material library are dropped.
func (s *EntityStore) ReplaceCourseStructure(ctx context.Context, id string, weeks []domain.Week) (err error) {
	canonical := curriculum.Canonicalize(weeks)
	defer observe(ctx, s.observer, "course.replace_structure", time.Now(), &err, map[string]any{"weeks": len(canonical)})

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		c, err := repository.NewSQLiteCourseRepo(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		materials, err := repository.NewSQLiteMaterialRepo(tx).ListByOwner(ctx, c.OwnerID)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(materials))
		for _, m := range materials {
			known[m.ID] = true
		}
		dropUnknownResources(canonical, known)

		structure := repository.NewSQLiteStructureRepo(tx)
		if err := structure.DeleteByCourse(ctx, id); err != nil {
			return err
		}
		return structure.InsertWeeks(ctx, id, canonical)
	})
}

func dropUnknownResources(weeks []domain.Week, known map[string]bool) {
	for wi := range weeks {
		for ti := range weeks[wi].Tasks {
			t := &weeks[wi].Tasks[ti]
			kept := t.ResourceIDs[:0]
			for _, id := range t.ResourceIDs {
				if known[id] {
					kept = append(kept, id)
				}
			}
			t.ResourceIDs = kept
		}
	}
}

func (s *EntityStore) ListMaterialIDsForCourse(ctx context.Context, id string) ([]string, error) {
	return s.links.ListIDs(ctx, repository.LinkMaterial, id)
}

func (s *EntityStore) SetMaterialLink(ctx context.Context, courseID, materialID string, present bool) (err error) {
	defer observe(ctx, s.observer, "course.link_material", time.Now(), &err, map[string]any{"present": present})
	return s.links.Set(ctx, repository.LinkMaterial, courseID, materialID, present)
}

func (s *EntityStore) ListPersonasAvailable(ctx context.Context, ownerID string) ([]*domain.Persona, error) {
	return s.personas.ListByOwner(ctx, ownerID)
}

func (s *EntityStore) ListPersonaIDsForCourse(ctx context.Context, id string) ([]string, error) {
	return s.links.ListIDs(ctx, repository.LinkPersona, id)
}

func (s *EntityStore) SetPersonaLink(ctx context.Context, courseID, personaID string, present bool) (err error) {
	defer observe(ctx, s.observer, "course.link_persona", time.Now(), &err, map[string]any{"present": present})
	return s.links.Set(ctx, repository.LinkPersona, courseID, personaID, present)
}

// PublishCourse writes status, pricing and the published stage together.
func (s *EntityStore) PublishCourse(ctx context.Context, id string, settings domain.PublishSettings) (err error) {
	defer observe(ctx, s.observer, "course.publish", time.Now(), &err, map[string]any{"pricing": string(settings.PricingModel)})

	if err := settings.Validate(); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteCourseRepo(tx).Publish(ctx, id, settings)
	})
}
