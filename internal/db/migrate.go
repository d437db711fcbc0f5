package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		duration_value INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',
		creation_stage INTEGER NOT NULL DEFAULT 1 CHECK(creation_stage IN (1,2,3,4,5,6,10)),
		status TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft','published','archived')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weeks (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		week_number INTEGER NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		overview TEXT NOT NULL DEFAULT '',
		objectives TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		week_id TEXT NOT NULL REFERENCES weeks(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'Lesson',
		description TEXT NOT NULL DEFAULT '',
		objective TEXT NOT NULL DEFAULT '',
		context TEXT NOT NULL DEFAULT '',
		coach_notes TEXT NOT NULL DEFAULT '',
		ai_instructions TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('audio','video','pdf','text')),
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS task_resources (
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (task_id, material_id)
	)`,
	`CREATE TABLE IF NOT EXISTS personas (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		tone_tags TEXT NOT NULL DEFAULT '[]',
		response_style TEXT NOT NULL DEFAULT '',
		system_prompt TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS course_materials (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (course_id, material_id)
	)`,
	`CREATE TABLE IF NOT EXISTS course_personas (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		persona_id TEXT NOT NULL REFERENCES personas(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (course_id, persona_id)
	)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		client_id TEXT NOT NULL,
		enrolled_at TEXT NOT NULL,
		PRIMARY KEY (course_id, client_id)
	)`,
	// Completions reference tasks by id only so that a structure save which
	// keeps task ids keeps the history.
	`CREATE TABLE IF NOT EXISTS task_completions (
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		task_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		PRIMARY KEY (task_id, client_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_owner ON courses(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_weeks_course ON weeks(course_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_week ON tasks(week_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_materials_owner ON materials(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_personas_owner ON personas(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_course ON task_completions(course_id)`,

	// Pricing columns were added after the first release.
	`ALTER TABLE courses ADD COLUMN pricing_model TEXT NOT NULL DEFAULT 'free'`,
	`ALTER TABLE courses ADD COLUMN price REAL NOT NULL DEFAULT 0`,
	`ALTER TABLE courses ADD COLUMN trial_enabled INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE courses ADD COLUMN trial_days INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE courses ADD COLUMN max_enrollments INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE courses ADD COLUMN start_date TEXT`,
}
