package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mealmate/auth"
	"mealmate/clipper"
	"mealmate/config"
	"mealmate/database"
	"mealmate/loader"
	"mealmate/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

// useTempConfig points the config package at a file in a temp dir and
// restores the defaults afterwards.
func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mealmate.yaml")
	config.SetPath(path)
	_, err := config.LoadConfig()
	require.NoError(t, err)
	t.Cleanup(func() {
		config.SetPath(filepath.Join(dir, "missing.yaml"))
		_, _ = config.LoadConfig()
		config.SetPath("")
	})
	return path
}

func newTestApp(t *testing.T) (*sqlx.DB, http.Handler) {
	t.Helper()
	useTempConfig(t)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, loader.InitDatabase(db))

	issuer := auth.NewIssuer("test-secret", time.Hour)
	mux := http.NewServeMux()
	SetupRoutes(mux, db, issuer, func() *clipper.Clipper { return &clipper.Clipper{} })
	return db, withMiddleware(mux)
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string) (id, token string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/users/register",
		`{"email":"`+email+`","password":"secret-pass","name":"Tester"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))

	rec = do(t, h, http.MethodPost, "/api/users/login",
		`{"email":"`+email+`","password":"secret-pass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return u.ID, "Bearer " + res.Token
}

// makeAdmin は現在の設定に管理者IDを加えてファイルに書き、読み直します。
func makeAdmin(t *testing.T, id string) {
	t.Helper()
	c := config.GetConfig()
	c.Auth.Admins = []string{id}
	b, err := yaml.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.Path(), b, 0644))
	_, err = config.LoadConfig()
	require.NoError(t, err)
}

func TestRoutesServeSeededCatalog(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recipes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipes))
	assert.Len(t, recipes, 3)

	rec = do(t, h, http.MethodPost, "/api/grocery/aggregate",
		`{"recipeIds":["tomato-basil-salad","tomato-soup"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"normalizedKey":"tomato"`)

	rec = do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/recipes", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConfigHandlers(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/api/config", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/config", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminID, tok := login(t, h, "admin@example.com")
	makeAdmin(t, adminID)
	bearer := map[string]string{"Authorization": tok}

	rec = do(t, h, http.MethodGet, "/api/config", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, config.RedactedSecret, got.Auth.JWTSecret)
	assert.Equal(t, 0.07, got.Store.TaxRate)
	assert.Equal(t, []string{adminID}, got.Auth.Admins)

	got.Store.TaxRate = 2
	body, err := json.Marshal(got)
	require.NoError(t, err)
	rec = do(t, h, http.MethodPost, "/api/config", string(body), bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "taxRate")

	got.Store.TaxRate = 0.1
	body, err = json.Marshal(got)
	require.NoError(t, err)
	rec = do(t, h, http.MethodPost, "/api/config", string(body), bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := config.GetConfig()
	assert.Equal(t, 0.1, current.Store.TaxRate)
	assert.Equal(t, "change-me", current.Auth.JWTSecret, "redacted secret keeps the current one")
}

func TestConfigRejectsOrdinaryUsers(t *testing.T) {
	_, h := newTestApp(t)
	adminID, _ := login(t, h, "admin@example.com")
	makeAdmin(t, adminID)
	_, tok := login(t, h, "mallory@example.com")
	bearer := map[string]string{"Authorization": tok}

	rec := do(t, h, http.MethodGet, "/api/config", "", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	evil := config.GetConfig()
	evil.Auth.JWTSecret = "forged"
	evil.Auth.Admins = append(evil.Auth.Admins, "mallory")
	body, err := json.Marshal(evil)
	require.NoError(t, err)
	rec = do(t, h, http.MethodPost, "/api/config", string(body), bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/seed", "", bearer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, "change-me", config.GetConfig().Auth.JWTSecret)
	assert.Equal(t, []string{adminID}, config.GetConfig().Auth.Admins)
}

func TestConfigProtectedFields(t *testing.T) {
	_, h := newTestApp(t)
	adminID, tok := login(t, h, "admin@example.com")
	makeAdmin(t, adminID)
	bearer := map[string]string{"Authorization": tok}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		field  string
	}{
		{"secret", func(c *config.Config) { c.Auth.JWTSecret = "new-secret" }, "auth.jwtSecret"},
		{"admins", func(c *config.Config) { c.Auth.Admins = nil }, "auth.admins"},
		{"browser", func(c *config.Config) { c.Import.BrowserBin = "/tmp/payload" }, "import.browserBin"},
		{"units file", func(c *config.Config) { c.Import.UnitsFile = "/etc/passwd" }, "import.unitsFile"},
		{"database", func(c *config.Config) { c.Database.Path = "/tmp/other.db" }, "database.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.GetConfig().Redacted()
			tt.mutate(&c)
			body, err := json.Marshal(c)
			require.NoError(t, err)

			rec := do(t, h, http.MethodPost, "/api/config", string(body), bearer)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.field)
		})
	}

	current := config.GetConfig()
	assert.Equal(t, "change-me", current.Auth.JWTSecret)
	assert.Empty(t, current.Import.BrowserBin)
	assert.Equal(t, []string{adminID}, current.Auth.Admins)
}

func TestAdminSeedRequiresAdmin(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodPost, "/api/admin/seed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminID, tok := login(t, h, "admin@example.com")
	makeAdmin(t, adminID)
	rec = do(t, h, http.MethodPost, "/api/admin/seed", "", map[string]string{"Authorization": tok})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"recipes":0,"storeItems":0,"skipped":5}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodOptions, "/api/recipes", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodOptions, "/api/recipes", "", map[string]string{
		"Origin":                        "http://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/store", "", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverPanic(t *testing.T) {
	h := recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
}

func TestGroceryEntries(t *testing.T) {
	db, _ := newTestApp(t)

	title, entries, err := groceryEntries(db, "", []string{"tomato-basil-salad", "tomato-soup"})
	require.NoError(t, err)
	assert.Equal(t, "Grocery list", title)

	byKey := map[string]int{}
	for _, e := range entries {
		byKey[e.NormalizedKey] = len(e.Quantities)
	}
	assert.Equal(t, 2, byKey["tomato"])
	assert.Equal(t, 2, byKey["olive oil"])
	assert.Equal(t, 1, byKey["basil"])

	_, _, err = groceryEntries(db, "no-such-list", nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGroceryEntriesWarnsOnlyForMissingRecipes(t *testing.T) {
	db, _ := newTestApp(t)
	core, logs := observer.New(zapcore.WarnLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	_, entries, err := groceryEntries(db, "", []string{"tomato-soup", "tomato-soup"})
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Zero(t, logs.Len(), "repeated ids are not missing recipes")

	_, _, err = groceryEntries(db, "", []string{"tomato-soup", "no-such-recipe", "tomato-soup"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 2, fields["requested"])
	assert.EqualValues(t, 1, fields["found"])
}

func TestOpenMigratedDatabase(t *testing.T) {
	useTempConfig(t)
	c := config.GetConfig()
	c.Database.Path = filepath.Join(t.TempDir(), "fresh.db")
	b, err := yaml.Marshal(c)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.Path(), b, 0644))
	_, err = config.LoadConfig()
	require.NoError(t, err)

	db, err := openMigratedDatabase()
	require.NoError(t, err)
	defer db.Close()

	// 新しいDBでも grocery コマンドが動く
	title, entries, err := groceryEntries(db, "", []string{"tomato-soup"})
	require.NoError(t, err)
	assert.Equal(t, "Grocery list", title)
	assert.Empty(t, entries)
}

func TestSaveImportedValidates(t *testing.T) {
	db, _ := newTestApp(t)

	err := saveImported(db, &model.Recipe{
		Title:       "  ",
		Ingredients: []model.Ingredient{{Name: "Flour"}},
	}, "someone")
	assert.ErrorContains(t, err, "imported recipe is incomplete: title is required")

	err = saveImported(db, &model.Recipe{
		Title:       "Bread",
		Ingredients: []model.Ingredient{{Name: "Flour"}, {Name: " "}},
	}, "someone")
	assert.ErrorContains(t, err, "ingredient name is required")

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM recipes`))
	assert.Equal(t, 3, n, "nothing stored for incomplete recipes")

	r := &model.Recipe{Title: " Bread ", Ingredients: []model.Ingredient{{Name: "Flour", Amount: "500", Unit: "g"}}}
	require.NoError(t, saveImported(db, r, " Baker "))
	got, err := database.GetRecipeByID(db, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Title)
	assert.Equal(t, "Baker", got.Author)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(config.LoggingConfig{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = newLogger(config.LoggingConfig{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", localURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", localURL("127.0.0.1:9000"))
}
