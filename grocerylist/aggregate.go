// Package grocerylist serves grocery lists over HTTP: the stateless aggregate
// endpoint plus persisted lists whose selection and checks live in SQLite.
package grocerylist

import (
	"encoding/json"
	"net/http"

	"mealmate/database"
	"mealmate/grocery"
	"mealmate/mappers"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type aggregateRequest struct {
	RecipeIDs  []string `json:"recipeIds"`
	CheckedIDs []string `json:"checkedIds"`
}

type aggregateResponse struct {
	Entries   []grocery.Entry   `json:"entries"`
	Anomalies []grocery.Anomaly `json:"anomalies"`
}

// AggregateHandler は指定レシピの材料をまとめて返します。状態は保存しません。
// 存在しないレシピIDは無視されます。
func AggregateHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aggregateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		recipes, err := database.GetRecipesByIDs(db, req.RecipeIDs)
		if err != nil {
			render.DBError(w, r, err, "Error fetching recipes")
			return
		}

		report := grocery.AggregateReport(
			mappers.ToGrocerySource(recipes),
			grocery.NewIDSet(req.RecipeIDs...),
			grocery.NewIDSet(req.CheckedIDs...),
		)
		if len(report.Anomalies) > 0 {
			zap.L().Debug("grocery aggregate anomalies",
				zap.Int("count", len(report.Anomalies)),
				zap.Int("participating", report.Participating))
		}

		entries := report.Entries
		if entries == nil {
			entries = []grocery.Entry{}
		}
		render.JSON(w, http.StatusOK, aggregateResponse{Entries: entries, Anomalies: report.Anomalies})
	}
}
