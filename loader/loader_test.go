package loader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mealmate/config"
	"mealmate/database"
	"mealmate/units"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitDatabaseSeedsEmptyCatalogOnce(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, InitDatabase(db))

	recipes, err := database.GetRecipesByIDs(db, []string{"tomato-basil-salad", "tomato-soup", "pancakes"})
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Tomato Basil Salad", recipes[0].Title)
	assert.Equal(t, "tomato-basil-salad-1", recipes[0].Ingredients[0].ID)
	assert.Len(t, recipes[0].Steps, 3)

	item, err := database.GetStoreItemByID(db, "weeknight-vegetarian")
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato-basil-salad", "tomato-soup"}, item.RecipeIDs)

	require.NoError(t, InitDatabase(db))
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM recipes`))
	assert.Equal(t, 3, n)
}

func TestSeedSkipsExistingIDs(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db))

	res, err := SeedDefault(db)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Recipes: 3, StoreItems: 2}, res)

	res, err = SeedDefault(db)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Skipped: 5}, res)
}

func TestSeedRejectsBadDocuments(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db))

	_, err := Seed(db, strings.NewReader("recipes: [oops"))
	assert.ErrorIs(t, err, ErrInvalidFixtures)

	_, err = Seed(db, strings.NewReader("recipes:\n  - description: no title\n"))
	assert.ErrorIs(t, err, ErrInvalidFixtures)

	res, err := Seed(db, strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, res)
}

func TestSeedAmounts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db))

	doc := `recipes:
  - id: toast
    title: Toast
    ingredients:
      - {name: Bread, amount: 2, unit: slices}
      - {name: Butter, amount: "1.5", unit: tbsp}
      - {name: Salt, amount: ~}
`
	_, err := Seed(db, strings.NewReader(doc))
	require.NoError(t, err)

	var amounts []string
	require.NoError(t, db.Select(&amounts, `SELECT amount FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position`, "toast"))
	assert.Equal(t, []string{"2", "1.5", ""}, amounts)

	_, err = Seed(db, strings.NewReader(`recipes:
  - title: Bad
    ingredients:
      - {name: Egg, amount: [1, 2]}
`))
	assert.ErrorIs(t, err, ErrInvalidFixtures)
	assert.ErrorContains(t, err, "amount must be a scalar")
}

func TestSeedHandler(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db))
	h := SeedHandler(db)

	body := "recipes:\n  - title: Toast\n    ingredients:\n      - {name: Bread, amount: 2, unit: slices}\n"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/seed", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"recipes":1,"storeItems":0,"skipped":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/seed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recipes":3,"storeItems":2,"skipped":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/seed", strings.NewReader("storeItems: {")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadUnits(t *testing.T) {
	t.Cleanup(units.Reset)

	path := filepath.Join(t.TempDir(), "units.csv")
	require.NoError(t, os.WriteFile(path, []byte("alias,unit\nhandful,handful\n"), 0644))

	require.NoError(t, LoadUnits(config.ImportConfig{UnitsFile: path}))
	assert.True(t, units.IsUnit("handful"))

	require.NoError(t, LoadUnits(config.ImportConfig{}))
	assert.False(t, units.IsUnit("handful"))

	assert.Error(t, LoadUnits(config.ImportConfig{UnitsFile: filepath.Join(t.TempDir(), "missing.csv")}))
}
