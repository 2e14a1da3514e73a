package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mealmate/auth"
	"mealmate/database"
	"mealmate/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*sqlx.DB, http.Handler) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	issuer := auth.NewIssuer("test-secret", time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", RegisterHandler(db))
	mux.HandleFunc("POST /api/users/login", LoginHandler(db, issuer))
	mux.HandleFunc("GET /api/users/{id}", GetUserHandler(db))
	mux.HandleFunc("PUT /api/users/{id}", auth.RequireUser(issuer, UpdateUserHandler(db)))
	mux.HandleFunc("DELETE /api/users/{id}", auth.RequireUser(issuer, DeleteUserHandler(db)))
	mux.HandleFunc("GET /api/users/{id}/recipes", ListUserRecipesHandler(db))
	mux.HandleFunc("POST /api/users/{id}/recipes", auth.RequireUser(issuer, AddUserRecipeHandler(db)))
	mux.HandleFunc("DELETE /api/users/{id}/recipes", auth.RequireUser(issuer, RemoveUserRecipeHandler(db)))
	return db, mux
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler, email string) model.User {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/users/register", "",
		`{"email": "`+email+`", "password": "correct horse", "name": "Cook"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/users/login", "", `{"email": "`+email+`", "password": "correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestRegisterAndLogin(t *testing.T) {
	_, h := newTestServer(t)

	u := register(t, h, "cook@example.com")
	assert.Equal(t, "cook@example.com", u.Email)
	assert.Equal(t, []string{}, u.RecipeIDs)

	rec := do(t, h, http.MethodPost, "/api/users/register", "",
		`{"email": "COOK@example.com", "password": "another one", "name": "Dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users/register", "", `{"email": "x@y.z", "password": "short", "name": "X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/users/register", "", `{"email": "not-an-email", "password": "long enough", "name": "X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	login(t, h, "cook@example.com")
	assert.NotContains(t, do(t, h, http.MethodGet, "/api/users/"+u.ID, "", "").Body.String(), "password")

	rec = do(t, h, http.MethodPost, "/api/users/login", "", `{"email": "cook@example.com", "password": "wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/users/login", "", `{"email": "nobody@example.com", "password": "correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateAndDeleteRequireSelf(t *testing.T) {
	_, h := newTestServer(t)
	a := register(t, h, "a@example.com")
	b := register(t, h, "b@example.com")
	tokenA := login(t, h, "a@example.com")

	rec := do(t, h, http.MethodPut, "/api/users/"+a.ID, "", `{"name": "Alice"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/"+b.ID, tokenA, `{"name": "Mallory"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/"+a.ID, tokenA, `{"name": "Alice", "password": "new password!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Alice"`)

	rec = do(t, h, http.MethodPost, "/api/users/login", "", `{"email": "a@example.com", "password": "new password!"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/users/"+a.ID, tokenA, `{"email": "b@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/users/"+b.ID, tokenA, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/users/"+a.ID, tokenA, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/users/"+a.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRecipes(t *testing.T) {
	db, h := newTestServer(t)
	u := register(t, h, "c@example.com")
	tok := login(t, h, "c@example.com")

	first := &model.Recipe{Title: "First"}
	second := &model.Recipe{Title: "Second"}
	require.NoError(t, database.CreateRecipe(db, first))
	require.NoError(t, database.CreateRecipe(db, second))

	path := "/api/users/" + u.ID + "/recipes"
	rec := do(t, h, http.MethodPost, path, tok, `{"recipeId": "`+second.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, path, tok, `{"recipeId": "`+first.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recipesId":["`+second.ID+`","`+first.ID+`"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recipes []model.Recipe
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipes))
	require.Len(t, recipes, 2)
	assert.Equal(t, "Second", recipes[0].Title, "saved order, not catalog order")

	rec = do(t, h, http.MethodDelete, path, tok, `{"recipeId": "`+second.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recipesId":["`+first.ID+`"]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, path, tok, `{"recipeId": "missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, path, tok, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserRecipesRequireSelf(t *testing.T) {
	db, h := newTestServer(t)
	owner := register(t, h, "owner@example.com")
	register(t, h, "other@example.com")
	ownerTok := login(t, h, "owner@example.com")
	otherTok := login(t, h, "other@example.com")

	r := &model.Recipe{Title: "Stew"}
	require.NoError(t, database.CreateRecipe(db, r))
	path := "/api/users/" + owner.ID + "/recipes"
	body := `{"recipeId": "` + r.ID + `"}`

	rec := do(t, h, http.MethodPost, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, path, otherTok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, path, ownerTok, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, path, otherTok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ids, err := database.GetUserRecipeIDs(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, ids)
}
