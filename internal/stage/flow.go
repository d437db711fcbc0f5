package stage

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coachlab/internal/domain"
	"go.uber.org/zap"
)

// Store is the slice of the entity store the flow needs.
type Store interface {
	SetCourseStage(ctx context.Context, id string, stage domain.Stage) error
	ListCourses(ctx context.Context, ownerID string) ([]*domain.Course, error)
}

// ReturnHandler receives the refreshed course list after a view completes.
type ReturnHandler func(ctx context.Context, courses []*domain.Course)

// Flow runs a stage view's save and moves the course forward only when the
// save succeeded.
type Flow struct {
	store    Store
	onReturn ReturnHandler
	log      *zap.Logger
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithLogger sets the logger used for refresh failures after a completed save.
func WithLogger(log *zap.Logger) FlowOption {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFlow creates a Flow. onReturn may be nil.
func NewFlow(store Store, onReturn ReturnHandler, opts ...FlowOption) *Flow {
	f := &Flow{store: store, onReturn: onReturn, log: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Advance moves c to target if the transition table allows it. The stored
// stage and c.CreationStage change together or not at all.
func (f *Flow) Advance(ctx context.Context, c *domain.Course, target domain.Stage) error {
	next, changed, err := Next(c.CreationStage, target)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := f.store.SetCourseStage(ctx, c.ID, next); err != nil {
		return fmt.Errorf("advancing course stage: %w", err)
	}
	c.CreationStage = next
	return nil
}

// Complete runs save for view v. On success the course advances to the
// view's completion target and the return handler gets a fresh course list.
// On failure nothing is advanced and c keeps its last known-good stage.
// A failed refresh after the advance is logged, not returned: the save and
// the stage move already happened.
func (f *Flow) Complete(ctx context.Context, c *domain.Course, v View, save func(ctx context.Context) error) error {
	before := c.CreationStage
	if save != nil {
		if err := save(ctx); err != nil {
			c.CreationStage = before
			return err
		}
	}
	if target, ok := CompletionTarget(v); ok {
		if err := f.Advance(ctx, c, target); err != nil {
			c.CreationStage = before
			return err
		}
	}
	if err := f.Return(ctx, c.OwnerID); err != nil {
		f.log.Warn("course list refresh failed",
			zap.String("course_id", c.ID),
			zap.Error(err))
	}
	return nil
}

// Return re-fetches the owner's courses and hands them to the return handler.
func (f *Flow) Return(ctx context.Context, ownerID string) error {
	if f.onReturn == nil {
		return nil
	}
	courses, err := f.store.ListCourses(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("refreshing course list: %w", err)
	}
	f.onReturn(ctx, courses)
	return nil
}
