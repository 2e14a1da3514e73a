package grocerylist

import (
	"encoding/json"
	"net/http"
	"strings"

	"mealmate/database"
	"mealmate/mappers"
	"mealmate/model"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultListName = "Groceries"

type createListRequest struct {
	Name       string   `json:"name"`
	UserID     string   `json:"userId"`
	RecipeIDs  []string `json:"recipeIds"`
	CheckedIDs []string `json:"checkedIds"`
}

func CreateListHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		l := model.GroceryList{
			Name:       strings.TrimSpace(req.Name),
			UserID:     strings.TrimSpace(req.UserID),
			RecipeIDs:  req.RecipeIDs,
			CheckedIDs: req.CheckedIDs,
		}
		if l.Name == "" {
			l.Name = defaultListName
		}
		if err := database.CreateGroceryList(db, &l); err != nil {
			render.DBError(w, r, err, "Error creating grocery list")
			return
		}
		zap.L().Info("grocery list created", zap.String("id", l.ID), zap.Int("recipes", len(l.RecipeIDs)))
		writeView(w, r, db, http.StatusCreated, &l)
	}
}

// ListListsHandler returns the lists without their entries; ?userId= narrows
// them to one owner.
func ListListsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lists, err := database.GetGroceryLists(db, r.URL.Query().Get("userId"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching grocery lists")
			return
		}
		render.JSON(w, http.StatusOK, lists)
	}
}

func GetListHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := database.GetGroceryListByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching grocery list")
			return
		}
		writeView(w, r, db, http.StatusOK, l)
	}
}

func DeleteListHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.DeleteGroceryList(db, r.PathValue("id")); err != nil {
			render.DBError(w, r, err, "Error deleting grocery list")
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"message": "Grocery list deleted successfully"})
	}
}

// ToggleRecipeHandler はレシピの選択を反転します。チェック済みIDはそのまま残ります。
func ToggleRecipeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RecipeID string `json:"recipeId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RecipeID) == "" {
			render.JSONError(w, "recipeId is required", http.StatusBadRequest)
			return
		}
		l, err := database.ToggleListRecipe(db, r.PathValue("id"), strings.TrimSpace(req.RecipeID))
		if err != nil {
			render.DBError(w, r, err, "Error updating grocery list")
			return
		}
		writeView(w, r, db, http.StatusOK, l)
	}
}

func ToggleCheckHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OriginID string `json:"originId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OriginID == "" {
			render.JSONError(w, "originId is required", http.StatusBadRequest)
			return
		}
		l, err := database.ToggleListCheck(db, r.PathValue("id"), req.OriginID)
		if err != nil {
			render.DBError(w, r, err, "Error updating grocery list")
			return
		}
		writeView(w, r, db, http.StatusOK, l)
	}
}

func ClearChecksHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := database.ClearListChecks(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error updating grocery list")
			return
		}
		writeView(w, r, db, http.StatusOK, l)
	}
}

// LoadView は買い物リストの選択レシピを読み込み、集計済みの表示用データを作ります。
func LoadView(db database.DBTX, l *model.GroceryList) (model.GroceryListView, error) {
	recipes, err := database.GetRecipesByIDs(db, l.RecipeIDs)
	if err != nil {
		return model.GroceryListView{}, err
	}
	return mappers.ToGroceryListView(l, recipes), nil
}

func writeView(w http.ResponseWriter, r *http.Request, db *sqlx.DB, status int, l *model.GroceryList) {
	view, err := LoadView(db, l)
	if err != nil {
		render.DBError(w, r, err, "Error fetching recipes")
		return
	}
	render.JSON(w, status, view)
}
