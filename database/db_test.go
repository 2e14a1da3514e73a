package database

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db), "second run reports no change")

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	require.Subset(t, tables, []string{
		"grocery_checks", "grocery_list_recipes", "grocery_lists",
		"recipe_ingredients", "recipe_steps", "recipe_tags", "recipes",
		"store_item_recipes", "store_items", "user_recipes", "users",
	})
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mealmate.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))
	require.FileExists(t, path)

	var fk int
	require.NoError(t, db.Get(&fk, `PRAGMA foreign_keys`))
	require.Equal(t, 1, fk)
}
