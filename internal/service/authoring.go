package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/stage"
	"go.uber.org/zap"
)

// ErrPersonaLimit is returned when a fifth persona is selected.
var ErrPersonaLimit = fmt.Errorf("%w: a course can offer at most %d coaches", domain.ErrValidation, domain.MaxCoursePersonas)

// AuthoringService runs the simple stage views: details, materials,
// personas and pricing. Every method keeps the in-memory course in step
// with what was stored.
type AuthoringService struct {
	store app.EntityStore
	flow  *stage.Flow
	log   *zap.Logger
}

func NewAuthoringService(store app.EntityStore, flow *stage.Flow, log *zap.Logger) *AuthoringService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthoringService{store: store, flow: flow, log: log}
}

// CreateDetails creates a course at stage 1 with its initial materials.
func (s *AuthoringService) CreateDetails(ctx context.Context, ownerID string, fields domain.CourseFields, materialIDs []string) (*domain.Course, error) {
	c, err := s.store.CreateCourse(ctx, ownerID, fields, materialIDs)
	if err != nil {
		return nil, err
	}
	if err := s.flow.Return(ctx, ownerID); err != nil {
		s.log.Warn("course list refresh failed", zap.Error(err))
	}
	return c, nil
}

// UpdateDetails saves a details patch. The stage is left alone.
func (s *AuthoringService) UpdateDetails(ctx context.Context, c *domain.Course, patch domain.CoursePatch) error {
	if err := s.store.UpdateCourseFields(ctx, c.ID, patch); err != nil {
		return err
	}
	patch.Apply(c)
	c.Tags = domain.CleanTags(c.Tags)
	return nil
}

// ChooseManual records that the coach will build the structure by hand.
func (s *AuthoringService) ChooseManual(ctx context.Context, c *domain.Course) error {
	return s.flow.Advance(ctx, c, domain.StageAIStructure)
}

// SaveMaterials stores the selection as one batch and completes the step.
func (s *AuthoringService) SaveMaterials(ctx context.Context, c *domain.Course, selected []string) error {
	selected = dedupe(selected)
	err := s.flow.Complete(ctx, c, stage.ViewMaterials, func(ctx context.Context) error {
		current, err := s.store.ListMaterialIDsForCourse(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, id := range selected {
			if !slices.Contains(current, id) {
				if err := s.store.SetMaterialLink(ctx, c.ID, id, true); err != nil {
					return err
				}
			}
		}
		for _, id := range current {
			if !slices.Contains(selected, id) {
				if err := s.store.SetMaterialLink(ctx, c.ID, id, false); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.MaterialIDs = selected
	return nil
}

// TogglePersona flips one persona and saves immediately. The selection is
// updated first and reverted if the store rejects the change.
func (s *AuthoringService) TogglePersona(ctx context.Context, c *domain.Course, personaID string) (bool, error) {
	previous := slices.Clone(c.PersonaIDs)
	present := !slices.Contains(previous, personaID)
	if present && len(previous) >= domain.MaxCoursePersonas {
		return false, ErrPersonaLimit
	}

	if present {
		c.PersonaIDs = append(slices.Clone(previous), personaID)
	} else {
		c.PersonaIDs = slices.DeleteFunc(slices.Clone(previous), func(id string) bool { return id == personaID })
	}

	if err := s.store.SetPersonaLink(ctx, c.ID, personaID, present); err != nil {
		c.PersonaIDs = previous
		s.log.Warn("persona toggle reverted",
			zap.String("course_id", c.ID),
			zap.String("persona_id", personaID),
			zap.Bool("selected", present),
			zap.Error(err))
		return !present, err
	}
	return present, nil
}

// ConfirmPersonas completes the coaches step. Selections are already saved.
func (s *AuthoringService) ConfirmPersonas(ctx context.Context, c *domain.Course) error {
	return s.flow.Complete(ctx, c, stage.ViewPersonas, nil)
}

// Publish validates pricing and publishes the course. Only a course at the
// pricing step, or one already published, can be published.
func (s *AuthoringService) Publish(ctx context.Context, c *domain.Course, settings domain.PublishSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if _, _, err := stage.Next(c.CreationStage, domain.StagePublished); err != nil {
		return err
	}
	if err := s.store.PublishCourse(ctx, c.ID, settings); err != nil {
		return err
	}

	c.Status = domain.CoursePublished
	c.CreationStage = domain.StagePublished
	c.PricingModel = settings.PricingModel
	c.Price = settings.Price
	c.TrialEnabled = settings.TrialEnabled
	c.TrialDays = settings.TrialDays
	c.MaxEnrollments = settings.MaxEnrollments
	c.StartDate = settings.StartDate

	if err := s.flow.Return(ctx, c.OwnerID); err != nil {
		s.log.Warn("course list refresh failed", zap.Error(err))
	}
	return nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
