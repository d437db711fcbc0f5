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

const personaColumns = `id, owner_id, name, tone_tags, response_style, system_prompt, created_at`

// SQLitePersonaRepo implements PersonaRepo using a SQLite database.
type SQLitePersonaRepo struct {
	db db.DBTX
}

func NewSQLitePersonaRepo(db db.DBTX) *SQLitePersonaRepo {
	return &SQLitePersonaRepo{db: db}
}

func (r *SQLitePersonaRepo) Create(ctx context.Context, p *domain.Persona) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO personas (`+personaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, encodeStrings(p.ToneTags), p.ResponseStyle, p.SystemPrompt,
		p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting persona: %w", err)
	}
	return nil
}

func (r *SQLitePersonaRepo) GetByID(ctx context.Context, id string) (*domain.Persona, error) {
	p, err := scanPersona(r.db.QueryRowContext(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("persona %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLitePersonaRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Persona, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE owner_id = ? ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}
	defer rows.Close()

	var out []*domain.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating personas: %w", err)
	}
	return out, nil
}

func (r *SQLitePersonaRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting persona: %w", err)
	}
	return nil
}

func scanPersona(s scanner) (*domain.Persona, error) {
	var p domain.Persona
	var toneRaw, createdAtStr string
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &toneRaw, &p.ResponseStyle, &p.SystemPrompt, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning persona: %w", err)
	}
	var err error
	if p.ToneTags, err = decodeStrings(toneRaw, "tone_tags"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &p, nil
}
