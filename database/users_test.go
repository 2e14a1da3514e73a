package database

import (
	"testing"

	"mealmate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserAndLookup(t *testing.T) {
	db := newTestDB(t)

	u := &model.User{Email: " Cook@Example.com ", PasswordHash: "hash", Name: "Cook"}
	require.NoError(t, CreateUser(db, u))
	assert.Equal(t, "cook@example.com", u.Email)

	byEmail, err := GetUserByEmail(db, "COOK@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Equal(t, []string{}, byEmail.RecipeIDs)

	dup := &model.User{Email: "cook@example.com", PasswordHash: "x", Name: "Other"}
	assert.ErrorIs(t, CreateUser(db, dup), ErrConflict)

	_, err = GetUserByID(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRecipes(t *testing.T) {
	db := newTestDB(t)
	u := &model.User{Email: "a@b.c", PasswordHash: "h", Name: "A"}
	require.NoError(t, CreateUser(db, u))

	authored := newRecipe("Own", "x")
	authored.Author = u.ID
	require.NoError(t, CreateRecipe(db, authored))
	other := newRecipe("Saved", "y")
	require.NoError(t, CreateRecipe(db, other))

	require.NoError(t, AddUserRecipe(db, u.ID, other.ID))
	require.NoError(t, AddUserRecipe(db, u.ID, other.ID), "adding twice is a no-op")

	ids, err := GetUserRecipeIDs(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{authored.ID, other.ID}, ids)

	assert.ErrorIs(t, AddUserRecipe(db, u.ID, "missing"), ErrNotFound)
	assert.ErrorIs(t, AddUserRecipe(db, "ghost", other.ID), ErrNotFound)

	require.NoError(t, RemoveUserRecipe(db, u.ID, authored.ID))
	assert.ErrorIs(t, RemoveUserRecipe(db, u.ID, authored.ID), ErrNotFound)

	got, err := GetUserByID(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, got.RecipeIDs)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	db := newTestDB(t)
	a := &model.User{Email: "a@x.io", PasswordHash: "h", Name: "A"}
	b := &model.User{Email: "b@x.io", PasswordHash: "h", Name: "B"}
	require.NoError(t, CreateUser(db, a))
	require.NoError(t, CreateUser(db, b))

	a.Name = "Alice"
	require.NoError(t, UpdateUser(db, a))
	got, err := GetUserByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	a.Email = "b@x.io"
	assert.ErrorIs(t, UpdateUser(db, a), ErrConflict)

	require.NoError(t, DeleteUser(db, a.ID))
	assert.ErrorIs(t, DeleteUser(db, a.ID), ErrNotFound)
}
