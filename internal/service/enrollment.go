package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/coachlab/internal/app"
	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/domain"
	"github.com/alexanderramin/coachlab/internal/repository"
)

var (
	ErrNotPublished = errors.New("course is not published")
	ErrCourseFull   = errors.New("course has reached its enrollment limit")
	ErrUnknownTask  = errors.New("task is not part of the saved course structure")
)

// EnrollmentService records client enrollments and task completions and
// reports what a structure deletion would affect.
type EnrollmentService struct {
	courses     repository.CourseRepo
	structure   repository.StructureRepo
	enrollments repository.EnrollmentRepo
	uow         db.UnitOfWork
	observer    UseCaseObserver
}

var _ app.ImpactReporter = (*EnrollmentService)(nil)

func NewEnrollmentService(database *sql.DB, uow db.UnitOfWork, observers ...UseCaseObserver) *EnrollmentService {
	return &EnrollmentService{
		courses:     repository.NewSQLiteCourseRepo(database),
		structure:   repository.NewSQLiteStructureRepo(database),
		enrollments: repository.NewSQLiteEnrollmentRepo(database),
		uow:         uow,
		observer:    useCaseObserverOrNoop(observers),
	}
}

// Enroll adds a client to a published course, honoring its enrollment limit.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID, clientID string) (err error) {
	defer observe(ctx, s.observer, "enrollment.enroll", time.Now(), &err, nil)

	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return domain.NewValidationError("client", "client is required")
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		c, err := repository.NewSQLiteCourseRepo(tx).GetByID(ctx, courseID)
		if err != nil {
			return err
		}
		if c.Status != domain.CoursePublished {
			return fmt.Errorf("enrolling in %s: %w", c.DisplayID(), ErrNotPublished)
		}
		repo := repository.NewSQLiteEnrollmentRepo(tx)
		if c.MaxEnrollments > 0 {
			n, err := repo.CountByCourse(ctx, courseID)
			if err != nil {
				return err
			}
			if n >= c.MaxEnrollments {
				return fmt.Errorf("enrolling in %s: %w (%d)", c.DisplayID(), ErrCourseFull, c.MaxEnrollments)
			}
		}
		return repo.Enroll(ctx, domain.Enrollment{
			CourseID:   courseID,
			ClientID:   clientID,
			EnrolledAt: time.Now().UTC(),
		})
	})
}

// RecordCompletion marks a saved task as completed by a client.
func (s *EnrollmentService) RecordCompletion(ctx context.Context, courseID, taskID, clientID string) (err error) {
	defer observe(ctx, s.observer, "enrollment.complete_task", time.Now(), &err, nil)

	weeks, err := s.structure.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if len(taskIDs(weeks, func(t domain.Task) bool { return t.ID == taskID })) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return s.enrollments.RecordCompletion(ctx, courseID, taskID, clientID)
}

// WeekImpact counts what deleting a saved week would affect. Weeks that were
// never saved report zero.
func (s *EnrollmentService) WeekImpact(ctx context.Context, courseID, weekID string) (domain.Impact, error) {
	weeks, err := s.structure.ListByCourse(ctx, courseID)
	if err != nil {
		return domain.Impact{}, err
	}
	i := domain.FindWeek(weeks, weekID)
	if i == -1 {
		return domain.Impact{}, nil
	}
	return s.impact(ctx, courseID, taskIDs(weeks[i:i+1], nil))
}

// TaskImpact counts what deleting a saved task would affect.
func (s *EnrollmentService) TaskImpact(ctx context.Context, courseID, taskID string) (domain.Impact, error) {
	weeks, err := s.structure.ListByCourse(ctx, courseID)
	if err != nil {
		return domain.Impact{}, err
	}
	ids := taskIDs(weeks, func(t domain.Task) bool { return t.ID == taskID })
	if len(ids) == 0 {
		return domain.Impact{}, nil
	}
	return s.impact(ctx, courseID, ids)
}

func (s *EnrollmentService) impact(ctx context.Context, courseID string, ids []string) (domain.Impact, error) {
	var im domain.Impact
	var err error
	if im.Clients, err = s.enrollments.CountByCourse(ctx, courseID); err != nil {
		return domain.Impact{}, err
	}
	if im.Completions, err = s.enrollments.CountCompletions(ctx, ids); err != nil {
		return domain.Impact{}, err
	}
	if im.Resources, err = s.enrollments.CountResources(ctx, ids); err != nil {
		return domain.Impact{}, err
	}
	return im, nil
}

// taskIDs collects the ids of tasks in weeks that match keep. A nil keep
// matches every task.
func taskIDs(weeks []domain.Week, keep func(domain.Task) bool) []string {
	var ids []string
	for _, w := range weeks {
		for _, t := range w.Tasks {
			if keep == nil || keep(t) {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids
}
