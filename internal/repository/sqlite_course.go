package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/domain"
)

// courseColumns is the canonical SELECT column list for courses.
const courseColumns = `id, owner_id, title, description, category, duration_value, tags,
		creation_stage, status, pricing_model, price, trial_enabled, trial_days,
		max_enrollments, start_date, created_at, updated_at`

// SQLiteCourseRepo implements CourseRepo using a SQLite database.
type SQLiteCourseRepo struct {
	db db.DBTX
}

// NewSQLiteCourseRepo creates a new SQLiteCourseRepo.
func NewSQLiteCourseRepo(db db.DBTX) *SQLiteCourseRepo {
	return &SQLiteCourseRepo{db: db}
}

func (r *SQLiteCourseRepo) Create(ctx context.Context, c *domain.Course) error {
	query := `INSERT INTO courses (` + courseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Description,
		c.Category,
		c.DurationValue,
		encodeStrings(c.Tags),
		int(c.CreationStage),
		string(c.Status),
		string(c.PricingModel),
		c.Price,
		boolToInt(c.TrialEnabled),
		c.TrialDays,
		c.MaxEnrollments,
		nullableTimeToString(c.StartDate, dateLayout),
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

func (r *SQLiteCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ?`
	c, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLiteCourseRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE owner_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

func (r *SQLiteCourseRepo) Update(ctx context.Context, c *domain.Course) error {
	query := `UPDATE courses SET title = ?, description = ?, category = ?, duration_value = ?,
		tags = ?, status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Title,
		c.Description,
		c.Category,
		c.DurationValue,
		encodeStrings(c.Tags),
		string(c.Status),
		c.UpdatedAt.Format(time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating course: %w", err)
	}
	return requireAffected(res, "course", c.ID)
}

// SetStage writes the stage unconditionally. Ordering rules live with the caller.
func (r *SQLiteCourseRepo) SetStage(ctx context.Context, id string, stage domain.Stage) error {
	query := `UPDATE courses SET creation_stage = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, int(stage), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("setting course stage: %w", err)
	}
	return requireAffected(res, "course", id)
}

// Publish writes status, pricing and the published stage in one statement.
func (r *SQLiteCourseRepo) Publish(ctx context.Context, id string, s domain.PublishSettings) error {
	query := `UPDATE courses SET status = ?, creation_stage = ?, pricing_model = ?, price = ?,
		trial_enabled = ?, trial_days = ?, max_enrollments = ?, start_date = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(domain.CoursePublished),
		int(domain.StagePublished),
		string(s.PricingModel),
		s.Price,
		boolToInt(s.TrialEnabled),
		s.TrialDays,
		s.MaxEnrollments,
		nullableTimeToString(s.StartDate, dateLayout),
		nowUTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("publishing course: %w", err)
	}
	return requireAffected(res, "course", id)
}

func (r *SQLiteCourseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	return nil
}

func scanCourse(s scanner) (*domain.Course, error) {
	var c domain.Course
	var tagsRaw, statusStr, pricingStr, createdAtStr, updatedAtStr string
	var stage, trialEnabled int
	var startDateStr sql.NullString

	err := s.Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Category, &c.DurationValue, &tagsRaw,
		&stage, &statusStr, &pricingStr, &c.Price, &trialEnabled, &c.TrialDays,
		&c.MaxEnrollments, &startDateStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning course: %w", err)
	}

	c.CreationStage = domain.Stage(stage)
	c.Status = domain.CourseStatus(statusStr)
	c.PricingModel = domain.PricingModel(pricingStr)
	c.TrialEnabled = intToBool(trialEnabled)
	c.StartDate = parseNullableTime(startDateStr, dateLayout)

	if c.Tags, err = decodeStrings(tagsRaw, "tags"); err != nil {
		return nil, err
	}
	if c.CreatedAt, c.UpdatedAt, err = parseTimestamps(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return &c, nil
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
