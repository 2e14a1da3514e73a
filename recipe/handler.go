package recipe

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mealmate/database"
	"mealmate/model"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ListRecipesHandler は ?tag= ?q= ?author= で絞り込んだレシピ一覧を返します。
func ListRecipesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filters := model.RecipeFilters{
			Tag:    strings.TrimSpace(q.Get("tag")),
			Query:  strings.TrimSpace(q.Get("q")),
			Author: strings.TrimSpace(q.Get("author")),
		}
		recipes, err := database.GetRecipes(db, filters)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}
		render.JSON(w, http.StatusOK, recipes)
	}
}

func GetRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := database.GetRecipeByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipe")
			return
		}
		render.JSON(w, http.StatusOK, recipe)
	}
}

// CreateRecipeHandler はレシピを登録します。作成者がいればそのユーザーの一覧にも追加されます。
func CreateRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.RecipeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		var recipe model.Recipe
		in.Apply(&recipe)
		if err := Validate(&recipe); err != nil {
			render.JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := database.CreateRecipe(db, &recipe); err != nil {
			render.DBError(w, r, err, "Error creating recipe")
			return
		}
		zap.L().Info("recipe created", zap.String("id", recipe.ID), zap.String("author", recipe.Author))
		render.JSON(w, http.StatusCreated, recipe)
	}
}

// UpdateRecipeHandler applies a partial update. Ingredient ids supplied in
// the body are kept so existing checks stay attached.
func UpdateRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, err := database.GetRecipeByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipe")
			return
		}
		var in model.RecipeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		in.Apply(recipe)
		if err := Validate(recipe); err != nil {
			render.JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := database.UpdateRecipe(db, recipe); err != nil {
			render.DBError(w, r, err, "Error updating recipe")
			return
		}
		render.JSON(w, http.StatusOK, recipe)
	}
}

func DeleteRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.DeleteRecipe(db, r.PathValue("id")); err != nil {
			render.DBError(w, r, err, "Error deleting recipe")
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted successfully"})
	}
}

// Validate trims the recipe's text fields and reports the first problem
// found. The HTTP handlers and the import command share it.
func Validate(r *model.Recipe) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	if r.Title == "" {
		return errors.New("title is required")
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Name = strings.TrimSpace(r.Ingredients[i].Name)
		if r.Ingredients[i].Name == "" {
			return errors.New("ingredient name is required")
		}
	}
	for i := range r.Steps {
		if strings.TrimSpace(r.Steps[i].Instruction) == "" {
			return errors.New("step instruction is required")
		}
	}
	return nil
}
