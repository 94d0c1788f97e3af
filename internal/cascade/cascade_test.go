package cascade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCascadeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS cascade_parents (id TEXT PRIMARY KEY, name TEXT)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS cascade_children (id TEXT PRIMARY KEY, parent_id TEXT)`).Error)

	t.Cleanup(func() {
		db.Exec(`DELETE FROM cascade_children`)
		db.Exec(`DELETE FROM cascade_parents`)
	})
	return db
}

func TestExecuteDeletesInOrder(t *testing.T) {
	db := setupCascadeTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`INSERT INTO cascade_parents (id, name) VALUES ('p1', 'one')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO cascade_children (id, parent_id) VALUES ('c1', 'p1'), ('c2', 'p1')`).Error)

	plan := Plan{
		Name: "parent",
		Steps: []Step{
			DeleteExec("children", `DELETE FROM cascade_children WHERE parent_id = ?`, "p1"),
			DeleteExec("parent", `DELETE FROM cascade_parents WHERE id = ?`, "p1"),
		},
	}

	var result Result
	err := db.Transaction(func(tx *gorm.DB) error {
		var execErr error
		result, execErr = Execute(ctx, tx, plan)
		return execErr
	})
	require.NoError(t, err)

	require.EqualValues(t, 2, result.RowsByStep["children"])
	require.EqualValues(t, 1, result.RowsByStep["parent"])
	require.EqualValues(t, 3, result.TotalRows)

	var remaining int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM cascade_children`).Scan(&remaining).Error)
	require.Zero(t, remaining)
}

func TestExecuteAbortsPlanOnFailure(t *testing.T) {
	db := setupCascadeTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`INSERT INTO cascade_parents (id, name) VALUES ('p1', 'one')`).Error)

	plan := Plan{
		Name: "parent",
		Steps: []Step{
			DeleteExec("broken", `DELETE FROM no_such_table WHERE id = ?`, "p1"),
			DeleteExec("parent", `DELETE FROM cascade_parents WHERE id = ?`, "p1"),
		},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, execErr := Execute(ctx, tx, plan)
		return execErr
	})
	require.Error(t, err)

	// The transaction rolled back, so the parent row survives.
	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM cascade_parents WHERE id = 'p1'`).Scan(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestExecuteRejectsEmptyPlan(t *testing.T) {
	db := setupCascadeTestDB(t)

	_, err := Execute(context.Background(), db, Plan{Name: "empty"})
	require.Error(t, err)
}
