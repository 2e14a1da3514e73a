package user

import (
	"encoding/json"
	"net/http"
	"strings"

	"mealmate/database"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
)

type recipeRef struct {
	RecipeID string `json:"recipeId"`
}

// ListUserRecipesHandler returns the user's saved recipes in the order they
// were added.
func ListUserRecipesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := database.GetUserByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching user")
			return
		}
		recipes, err := database.GetRecipesByIDs(db, u.RecipeIDs)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}
		byID := make(map[string]int, len(recipes))
		for i, rc := range recipes {
			byID[rc.ID] = i
		}
		ordered := recipes[:0:0]
		for _, id := range u.RecipeIDs {
			if i, ok := byID[id]; ok {
				ordered = append(ordered, recipes[i])
			}
		}
		render.JSON(w, http.StatusOK, ordered)
	}
}

// AddUserRecipeHandler と RemoveUserRecipeHandler は本人のみ実行できます。auth.RequireUser の内側で使います。
func AddUserRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isSelf(r, id) {
			render.JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		ref, ok := decodeRef(w, r)
		if !ok {
			return
		}
		if err := database.AddUserRecipe(db, id, ref.RecipeID); err != nil {
			render.DBError(w, r, err, "Error adding recipe")
			return
		}
		ids, err := database.GetUserRecipeIDs(db, id)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}
		render.JSON(w, http.StatusOK, map[string]interface{}{"recipesId": ids})
	}
}

func RemoveUserRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isSelf(r, id) {
			render.JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		ref, ok := decodeRef(w, r)
		if !ok {
			return
		}
		if err := database.RemoveUserRecipe(db, id, ref.RecipeID); err != nil {
			render.DBError(w, r, err, "Error removing recipe")
			return
		}
		ids, err := database.GetUserRecipeIDs(db, id)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}
		render.JSON(w, http.StatusOK, map[string]interface{}{"recipesId": ids})
	}
}

func decodeRef(w http.ResponseWriter, r *http.Request) (recipeRef, bool) {
	var ref recipeRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		render.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return ref, false
	}
	ref.RecipeID = strings.TrimSpace(ref.RecipeID)
	if ref.RecipeID == "" {
		render.JSONError(w, "recipeId is required", http.StatusBadRequest)
		return ref, false
	}
	return ref, true
}
