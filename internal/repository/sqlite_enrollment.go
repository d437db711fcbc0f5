package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/domain"
)

// SQLiteEnrollmentRepo implements EnrollmentRepo.
type SQLiteEnrollmentRepo struct {
	db db.DBTX
}

func NewSQLiteEnrollmentRepo(db db.DBTX) *SQLiteEnrollmentRepo {
	return &SQLiteEnrollmentRepo{db: db}
}

func (r *SQLiteEnrollmentRepo) Enroll(ctx context.Context, e domain.Enrollment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO enrollments (course_id, client_id, enrolled_at) VALUES (?, ?, ?)`,
		e.CourseID, e.ClientID, e.EnrolledAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}
	return nil
}

func (r *SQLiteEnrollmentRepo) CountByCourse(ctx context.Context, courseID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = ?`, courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting enrollments: %w", err)
	}
	return n, nil
}

func (r *SQLiteEnrollmentRepo) RecordCompletion(ctx context.Context, courseID, taskID, clientID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO task_completions (course_id, task_id, client_id, completed_at) VALUES (?, ?, ?, ?)`,
		courseID, taskID, clientID, nowUTC())
	if err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	return nil
}

func (r *SQLiteEnrollmentRepo) CountCompletions(ctx context.Context, taskIDs []string) (int, error) {
	return r.countIn(ctx, `SELECT COUNT(*) FROM task_completions WHERE task_id IN (%s)`, taskIDs, "completions")
}

func (r *SQLiteEnrollmentRepo) CountResources(ctx context.Context, taskIDs []string) (int, error) {
	return r.countIn(ctx, `SELECT COUNT(*) FROM task_resources WHERE task_id IN (%s)`, taskIDs, "task resources")
}

func (r *SQLiteEnrollmentRepo) countIn(ctx context.Context, format string, ids []string, what string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	var n int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(format, placeholders), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", what, err)
	}
	return n, nil
}
