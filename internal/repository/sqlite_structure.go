package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/alexanderramin/coachlab/internal/domain"
)

// SQLiteStructureRepo implements StructureRepo over the weeks, tasks and
// task_resources tables.
type SQLiteStructureRepo struct {
	db db.DBTX
}

// NewSQLiteStructureRepo creates a new SQLiteStructureRepo.
func NewSQLiteStructureRepo(db db.DBTX) *SQLiteStructureRepo {
	return &SQLiteStructureRepo{db: db}
}

// ListByCourse loads the full week and task tree in position order. Each
// result set is drained before the next query so the repo works on a single
// pinned connection.
func (r *SQLiteStructureRepo) ListByCourse(ctx context.Context, courseID string) ([]domain.Week, error) {
	weeks, err := r.listWeeks(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, nil
	}
	index := make(map[string]int, len(weeks))
	for i, w := range weeks {
		index[w.ID] = i
	}

	taskWeek, err := r.attachTasks(ctx, courseID, weeks, index)
	if err != nil {
		return nil, err
	}
	if err := r.attachResources(ctx, courseID, weeks, index, taskWeek); err != nil {
		return nil, err
	}
	return weeks, nil
}

func (r *SQLiteStructureRepo) listWeeks(ctx context.Context, courseID string) ([]domain.Week, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, week_number, title, overview, objectives FROM weeks WHERE course_id = ? ORDER BY position`,
		courseID)
	if err != nil {
		return nil, fmt.Errorf("listing weeks: %w", err)
	}
	defer rows.Close()

	var weeks []domain.Week
	for rows.Next() {
		var w domain.Week
		var objectivesRaw string
		if err := rows.Scan(&w.ID, &w.WeekNumber, &w.Title, &w.Overview, &objectivesRaw); err != nil {
			return nil, fmt.Errorf("scanning week row: %w", err)
		}
		if w.Objectives, err = decodeStrings(objectivesRaw, "objectives"); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weeks: %w", err)
	}
	return weeks, nil
}

// attachTasks fills each week's task list and returns task id -> week index.
func (r *SQLiteStructureRepo) attachTasks(ctx context.Context, courseID string, weeks []domain.Week, index map[string]int) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.week_id, t.id, t.title, t.type, t.description, t.objective, t.context, t.coach_notes, t.ai_instructions
		FROM tasks t JOIN weeks w ON w.id = t.week_id
		WHERE w.course_id = ? ORDER BY w.position, t.position`, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	taskWeek := make(map[string]int)
	for rows.Next() {
		var weekID, typeStr string
		var t domain.Task
		if err := rows.Scan(&weekID, &t.ID, &t.Title, &typeStr, &t.Description,
			&t.Objective, &t.Context, &t.CoachNotes, &t.AIInstructions); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		t.Type = domain.TaskType(typeStr)
		wi := index[weekID]
		weeks[wi].Tasks = append(weeks[wi].Tasks, t)
		taskWeek[t.ID] = wi
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return taskWeek, nil
}

func (r *SQLiteStructureRepo) attachResources(ctx context.Context, courseID string, weeks []domain.Week, index, taskWeek map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tr.task_id, tr.material_id
		FROM task_resources tr
		JOIN tasks t ON t.id = tr.task_id
		JOIN weeks w ON w.id = t.week_id
		WHERE w.course_id = ? ORDER BY tr.task_id, tr.position`, courseID)
	if err != nil {
		return fmt.Errorf("listing task resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, materialID string
		if err := rows.Scan(&taskID, &materialID); err != nil {
			return fmt.Errorf("scanning task resource row: %w", err)
		}
		wi, ok := taskWeek[taskID]
		if !ok {
			continue
		}
		ti := weeks[wi].FindTask(taskID)
		weeks[wi].Tasks[ti].ResourceIDs = append(weeks[wi].Tasks[ti].ResourceIDs, materialID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating task resources: %w", err)
	}
	return nil
}

// DeleteByCourse removes every week of the course; tasks and task resources
// follow through ON DELETE CASCADE.
func (r *SQLiteStructureRepo) DeleteByCourse(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM weeks WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("deleting weeks: %w", err)
	}
	return nil
}

// InsertWeeks writes weeks in slice order. Positions come from the slice
// index; week numbers are written as given.
func (r *SQLiteStructureRepo) InsertWeeks(ctx context.Context, courseID string, weeks []domain.Week) error {
	for wi, w := range weeks {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO weeks (id, course_id, week_number, position, title, overview, objectives)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, courseID, w.WeekNumber, wi, w.Title, w.Overview, encodeStrings(w.Objectives))
		if err != nil {
			return fmt.Errorf("inserting week %d: %w", w.WeekNumber, err)
		}
		for ti, t := range w.Tasks {
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO tasks (id, week_id, position, title, type, description, objective, context, coach_notes, ai_instructions)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, w.ID, ti, t.Title, string(t.Type), t.Description,
				t.Objective, t.Context, t.CoachNotes, t.AIInstructions)
			if err != nil {
				return fmt.Errorf("inserting task %q in week %d: %w", t.Title, w.WeekNumber, err)
			}
			for ri, materialID := range t.ResourceIDs {
				_, err := r.db.ExecContext(ctx,
					`INSERT OR IGNORE INTO task_resources (task_id, material_id, position) VALUES (?, ?, ?)`,
					t.ID, materialID, ri)
				if err != nil {
					return fmt.Errorf("attaching resource to task %q: %w", t.Title, err)
				}
			}
		}
	}
	return nil
}
