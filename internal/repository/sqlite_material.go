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

const materialColumns = `id, owner_id, title, type, description, category, tags, created_at`

// SQLiteMaterialRepo implements MaterialRepo using a SQLite database.
type SQLiteMaterialRepo struct {
	db db.DBTX
}

func NewSQLiteMaterialRepo(db db.DBTX) *SQLiteMaterialRepo {
	return &SQLiteMaterialRepo{db: db}
}

func (r *SQLiteMaterialRepo) Create(ctx context.Context, m *domain.Material) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO materials (`+materialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, m.Title, string(m.Type), m.Description, m.Category,
		encodeStrings(m.Tags), m.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting material: %w", err)
	}
	return nil
}

func (r *SQLiteMaterialRepo) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func (r *SQLiteMaterialRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Material, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE owner_id = ? ORDER BY title, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing materials: %w", err)
	}
	defer rows.Close()

	var out []*domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating materials: %w", err)
	}
	return out, nil
}

func (r *SQLiteMaterialRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting material: %w", err)
	}
	return nil
}

func scanMaterial(s scanner) (*domain.Material, error) {
	var m domain.Material
	var typeStr, tagsRaw, createdAtStr string
	if err := s.Scan(&m.ID, &m.OwnerID, &m.Title, &typeStr, &m.Description, &m.Category, &tagsRaw, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning material: %w", err)
	}
	m.Type = domain.MaterialType(typeStr)
	var err error
	if m.Tags, err = decodeStrings(tagsRaw, "tags"); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &m, nil
}
