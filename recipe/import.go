package recipe

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"mealmate/clipper"
	"mealmate/database"
	"mealmate/mappers"
	"mealmate/parsers"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxUploadSize = 10 << 20

// ImportIngredientsHandler は multipart で送られた材料CSV (file) をレシピに追記します。
// フォームの charset 項目で文字コードを指定できます。
func ImportIngredientsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			render.JSONError(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			render.JSONError(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		records, err := parsers.ParseIngredientCSV(file, r.FormValue("charset"))
		if err != nil {
			render.JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(records) == 0 {
			render.JSONError(w, "no ingredients found in CSV", http.StatusBadRequest)
			return
		}

		recipe, err := database.AppendIngredients(db, id, mappers.ToIngredients(records))
		if err != nil {
			render.DBError(w, r, err, "Error importing ingredients")
			return
		}
		zap.L().Info("ingredients imported", zap.String("recipe", id), zap.Int("count", len(records)))
		render.JSON(w, http.StatusOK, map[string]interface{}{
			"imported": len(records),
			"recipe":   recipe,
		})
	}
}

type importRequest struct {
	URL    string `json:"url"`
	Author string `json:"author"`
	Render bool   `json:"render"`
}

// ImportRecipeHandler fetches a recipe page, stores the recipe it describes
// and returns it.
func ImportRecipeHandler(db *sqlx.DB, newClipper func() *clipper.Clipper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !validURL(req.URL) {
			render.JSONError(w, "url must be an absolute http(s) URL", http.StatusBadRequest)
			return
		}

		recipe, err := newClipper().ClipURL(r.Context(), req.URL, req.Render)
		if err != nil {
			if errors.Is(err, clipper.ErrNoRecipe) {
				render.JSONError(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			zap.L().Warn("recipe import failed", zap.String("url", req.URL), zap.Error(err))
			render.JSONError(w, "Error importing recipe: "+err.Error(), http.StatusBadGateway)
			return
		}
		recipe.Author = strings.TrimSpace(req.Author)
		if err := Validate(recipe); err != nil {
			render.JSONError(w, "imported recipe is incomplete: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}

		if err := database.CreateRecipe(db, recipe); err != nil {
			render.DBError(w, r, err, "Error creating recipe")
			return
		}
		zap.L().Info("recipe imported", zap.String("id", recipe.ID), zap.String("url", req.URL))
		render.JSON(w, http.StatusCreated, recipe)
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
