package grocerylist

import (
	"net/http"

	"mealmate/database"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ViewHandler renders the list as an HTML checklist.
func ViewHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := database.GetGroceryListByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching grocery list")
			return
		}
		view, err := LoadView(db, l)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(render.GroceryChecklistHTML(l, view.Entries))); err != nil {
			zap.L().Warn("failed to write checklist", zap.Error(err))
		}
	}
}
