package store

import (
	"encoding/json"
	"net/http"
	"strings"

	"mealmate/config"
	"mealmate/database"
	"mealmate/model"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func ListItemsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetStoreItems(db)
		if err != nil {
			render.DBError(w, r, err, "Error fetching store items")
			return
		}
		render.JSON(w, http.StatusOK, items)
	}
}

func GetItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := database.GetStoreItemByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching store item")
			return
		}
		render.JSON(w, http.StatusOK, it)
	}
}

// CreateItemHandler はレシピブックを登録します。name, type, author, cost は必須です。
func CreateItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.StoreItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if in.Cost == nil {
			render.JSONError(w, "cost is required", http.StatusBadRequest)
			return
		}
		var it model.StoreItem
		in.Apply(&it)
		if msg := validate(&it); msg != "" {
			render.JSONError(w, msg, http.StatusBadRequest)
			return
		}
		if err := database.CreateStoreItem(db, &it); err != nil {
			render.DBError(w, r, err, "Error creating store item")
			return
		}
		zap.L().Info("store item created", zap.String("id", it.ID), zap.Float64("cost", it.Cost))
		render.JSON(w, http.StatusCreated, it)
	}
}

func UpdateItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := database.GetStoreItemByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching store item")
			return
		}
		var in model.StoreItemInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		in.Apply(it)
		if msg := validate(it); msg != "" {
			render.JSONError(w, msg, http.StatusBadRequest)
			return
		}
		if err := database.UpdateStoreItem(db, it); err != nil {
			render.DBError(w, r, err, "Error updating store item")
			return
		}
		render.JSON(w, http.StatusOK, it)
	}
}

func DeleteItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.DeleteStoreItem(db, r.PathValue("id")); err != nil {
			render.DBError(w, r, err, "Error deleting store item")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type quoteRequest struct {
	ItemIDs []string `json:"itemIds"`
}

// QuoteHandler prices a cart. Each item counts once however often it is
// listed, and unknown items make the whole quote fail.
func QuoteHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		ids := uniqueIDs(req.ItemIDs)
		if len(ids) == 0 {
			render.JSONError(w, "itemIds is required", http.StatusBadRequest)
			return
		}

		items, err := database.GetStoreItemsByIDs(db, ids)
		if err != nil {
			render.DBError(w, r, err, "Error fetching store items")
			return
		}
		if missing := missingIDs(ids, items); len(missing) > 0 {
			render.JSONError(w, "Store item not found: "+strings.Join(missing, ", "), http.StatusNotFound)
			return
		}

		cfg := config.GetConfig().Store
		quote, err := BuildQuote(items, cfg.TaxRate, cfg.Currency)
		if err != nil {
			zap.L().Error("failed to build quote", zap.Error(err))
			render.JSONError(w, "Error building quote", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, quote)
	}
}

func validate(it *model.StoreItem) string {
	it.Name = strings.TrimSpace(it.Name)
	it.Type = strings.TrimSpace(it.Type)
	it.Author = strings.TrimSpace(it.Author)
	switch {
	case it.Name == "":
		return "name is required"
	case it.Type == "":
		return "type is required"
	case it.Author == "":
		return "author is required"
	case it.Cost < 0:
		return "cost must not be negative"
	}
	return ""
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, items []model.StoreItem) []string {
	found := make(map[string]bool, len(items))
	for _, it := range items {
		found[it.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
