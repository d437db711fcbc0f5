package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coachlab/internal/db"
)

// SQLiteCourseLinkRepo implements CourseLinkRepo over course_materials and
// course_personas.
type SQLiteCourseLinkRepo struct {
	db db.DBTX
}

func NewSQLiteCourseLinkRepo(db db.DBTX) *SQLiteCourseLinkRepo {
	return &SQLiteCourseLinkRepo{db: db}
}

// linkTable returns the table and target column for a link kind.
func linkTable(kind LinkKind) (table, column string, err error) {
	switch kind {
	case LinkMaterial:
		return "course_materials", "material_id", nil
	case LinkPersona:
		return "course_personas", "persona_id", nil
	default:
		return "", "", fmt.Errorf("unknown link kind %q", kind)
	}
}

func (r *SQLiteCourseLinkRepo) ListIDs(ctx context.Context, kind LinkKind, courseID string) ([]string, error) {
	table, column, err := linkTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE course_id = ? ORDER BY created_at, %s`, column, table, column)
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing %s links: %w", kind, err)
	}
	return collectIDs(rows, string(kind))
}

// Set adds or removes one link. Both directions are idempotent.
func (r *SQLiteCourseLinkRepo) Set(ctx context.Context, kind LinkKind, courseID, targetID string, present bool) error {
	table, column, err := linkTable(kind)
	if err != nil {
		return err
	}
	if present {
		query := fmt.Sprintf(`INSERT OR IGNORE INTO %s (course_id, %s, created_at) VALUES (?, ?, ?)`, table, column)
		if _, err := r.db.ExecContext(ctx, query, courseID, targetID, nowUTC()); err != nil {
			return fmt.Errorf("linking %s: %w", kind, err)
		}
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE course_id = ? AND %s = ?`, table, column)
	if _, err := r.db.ExecContext(ctx, query, courseID, targetID); err != nil {
		return fmt.Errorf("unlinking %s: %w", kind, err)
	}
	return nil
}
