package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/coachlab/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCourse = `INSERT INTO courses (id, owner_id, title, created_at, updated_at)
	VALUES ('c1', 'coach-1', 'Sleep Reset', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`

func openCourseDB(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.Exec(seedCourse)
	require.NoError(t, err)
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertWeek(ctx context.Context, tx db.DBTX, id string, n int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO weeks (id, course_id, week_number, position, title) VALUES (?, 'c1', ?, ?, ?)`,
		id, n, n-1, "Week")
	return err
}

func weekIDs(t *testing.T, database *sql.DB) []string {
	t.Helper()
	rows, err := database.Query(`SELECT id FROM weeks WHERE course_id = 'c1' ORDER BY position`)
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestWithinTx_CommitsReplacedWeeks(t *testing.T) {
	database, uow := openCourseDB(t)
	ctx := context.Background()
	require.NoError(t, uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return insertWeek(ctx, tx, "w-old", 1)
	}))

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weeks WHERE course_id = 'c1'`); err != nil {
			return err
		}
		if err := insertWeek(ctx, tx, "w-a", 1); err != nil {
			return err
		}
		return insertWeek(ctx, tx, "w-b", 2)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"w-a", "w-b"}, weekIDs(t, database))
}

func TestWithinTx_ErrorRestoresPreviousStructure(t *testing.T) {
	database, uow := openCourseDB(t)
	ctx := context.Background()
	require.NoError(t, uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return insertWeek(ctx, tx, "w-old", 1)
	}))

	errInsert := errors.New("insert rejected")
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weeks WHERE course_id = 'c1'`); err != nil {
			return err
		}
		if err := insertWeek(ctx, tx, "w-new", 1); err != nil {
			return err
		}
		return errInsert
	})
	require.ErrorIs(t, err, errInsert)
	assert.Equal(t, []string{"w-old"}, weekIDs(t, database), "the delete is rolled back with the insert")
}

func TestWithinTx_PanicRollsBackAndRepanics(t *testing.T) {
	database, uow := openCourseDB(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertWeek(ctx, tx, "w-1", 1)
			panic("boom")
		})
	})
	assert.Empty(t, weekIDs(t, database))
}

func TestWithinTx_ForeignKeysEnforced(t *testing.T) {
	_, uow := openCourseDB(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO weeks (id, course_id, week_number, position) VALUES ('w-x', 'missing', 1, 0)`)
		return err
	})
	assert.Error(t, err, "a week must belong to an existing course")
}

func TestWithinTx_CanceledContextNeverStarts(t *testing.T) {
	database, uow := openCourseDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		called = true
		return insertWeek(ctx, tx, "w-1", 1)
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Empty(t, weekIDs(t, database))
}
