package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/repository"
	"github.com/google/uuid"
)

// CatalogService manages the owner's material library and coach personas.
type CatalogService struct {
	materials repository.MaterialRepo
	personas  repository.PersonaRepo
	observer  UseCaseObserver
}

var _ app.MaterialCatalog = (*CatalogService)(nil)

func NewCatalogService(materials repository.MaterialRepo, personas repository.PersonaRepo, observers ...UseCaseObserver) *CatalogService {
	return &CatalogService{
		materials: materials,
		personas:  personas,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *CatalogService) AddMaterial(ctx context.Context, m *domain.Material) (err error) {
	defer observe(ctx, s.observer, "catalog.add_material", time.Now(), &err, map[string]any{"type": string(m.Type)})

	m.Title = strings.TrimSpace(m.Title)
	m.Type = domain.MaterialType(strings.ToLower(strings.TrimSpace(string(m.Type))))
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Tags = domain.CleanTags(m.Tags)
	m.CreatedAt = time.Now().UTC().Truncate(time.Second)
	return s.materials.Create(ctx, m)
}

func (s *CatalogService) ListMaterials(ctx context.Context, ownerID string) ([]*domain.Material, error) {
	return s.materials.ListByOwner(ctx, ownerID)
}

func (s *CatalogService) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	return s.materials.GetByID(ctx, id)
}

func (s *CatalogService) AddPersona(ctx context.Context, p *domain.Persona) (err error) {
	defer observe(ctx, s.observer, "catalog.add_persona", time.Now(), &err, nil)

	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.ToneTags = domain.CleanTags(p.ToneTags)
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	return s.personas.Create(ctx, p)
}

func (s *CatalogService) ListPersonas(ctx context.Context, ownerID string) ([]*domain.Persona, error) {
	return s.personas.ListByOwner(ctx, ownerID)
}
