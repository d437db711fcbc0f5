// Package stage decides which authoring view a course opens in and guards
// how its creation stage may move.
package stage

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/coachlab/internal/domain"
)

var (
	// ErrSkipAhead is returned for a forward move that bypasses a step.
	ErrSkipAhead = errors.New("stage cannot skip ahead")
	// ErrInvalidStage is returned for a value outside the stored stage set.
	ErrInvalidStage = errors.New("invalid stage")
)

// View is an authoring screen.
type View string

const (
	ViewDetails         View = "details"
	ViewAIStructure     View = "ai-structure"
	ViewStructureEditor View = "structure"
	ViewMaterials       View = "materials"
	ViewPersonas        View = "coaches"
	ViewPricing         View = "pricing"
	ViewOverview        View = "overview"
)

// Sections are the views reachable in any order once a course is published.
var Sections = []View{ViewDetails, ViewStructureEditor, ViewMaterials, ViewPersonas, ViewPricing}

// Navigation is the result of opening a course.
type Navigation struct {
	Entry   View
	FreeNav bool
}

// EntryFor picks the view a course opens in from the course list.
func EntryFor(c *domain.Course) Navigation {
	switch c.CreationStage {
	case domain.StagePublished:
		return Navigation{Entry: ViewDetails, FreeNav: true}
	case domain.StageDetails:
		return Navigation{Entry: ViewAIStructure}
	case domain.StageAIStructure, domain.StageStructureEdit:
		return Navigation{Entry: ViewStructureEditor}
	case domain.StageMaterials:
		return Navigation{Entry: ViewMaterials}
	case domain.StagePersonas:
		return Navigation{Entry: ViewPersonas}
	}
	if c.Status == domain.CoursePublished {
		return Navigation{Entry: ViewOverview}
	}
	return Navigation{Entry: ViewPricing}
}

// EntryForNew is where a brand-new course starts.
func EntryForNew() Navigation {
	return Navigation{Entry: ViewDetails}
}

// CompletionTarget is the stage a view advances to when it saves.
// Details has none: creating a course writes stage 1 directly.
func CompletionTarget(v View) (domain.Stage, bool) {
	switch v {
	case ViewAIStructure:
		return domain.StageStructureEdit, true
	case ViewStructureEditor:
		return domain.StageMaterials, true
	case ViewMaterials:
		return domain.StagePersonas, true
	case ViewPersonas:
		return domain.StagePricing, true
	case ViewPricing:
		return domain.StagePublished, true
	default:
		return 0, false
	}
}

// allowed lists the forward moves of the linear flow. A manually authored
// course (stage 2) finishes the structure step in the editor and moves to 4.
var allowed = map[domain.Stage][]domain.Stage{
	domain.StageDetails:       {domain.StageAIStructure, domain.StageStructureEdit},
	domain.StageAIStructure:   {domain.StageStructureEdit, domain.StageMaterials},
	domain.StageStructureEdit: {domain.StageMaterials},
	domain.StageMaterials:     {domain.StagePersonas},
	domain.StagePersonas:      {domain.StagePricing},
	domain.StagePricing:       {domain.StagePublished},
}

// Next decides the stage to store when a course at from completes a step
// targeting to. changed is false when no write is needed: the course is
// published, or already at or past the target.
func Next(from, to domain.Stage) (next domain.Stage, changed bool, err error) {
	if !from.Valid() {
		return from, false, fmt.Errorf("%w: current %d", ErrInvalidStage, from)
	}
	if !to.Valid() {
		return from, false, fmt.Errorf("%w: target %d", ErrInvalidStage, to)
	}
	if from == domain.StagePublished || to <= from {
		return from, false, nil
	}
	for _, s := range allowed[from] {
		if s == to {
			return to, true, nil
		}
	}
	return from, false, fmt.Errorf("%w: %s to %s", ErrSkipAhead, from, to)
}
