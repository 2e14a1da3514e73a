package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mealmate/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const storeColumns = `id, name, type, plan_type, description, author, cost, created_at, updated_at`

// GetStoreItems はストアの全アイテムを登録順で返します。
func GetStoreItems(dbtx DBTX) ([]model.StoreItem, error) {
	items := []model.StoreItem{}
	if err := dbtx.Select(&items, `SELECT `+storeColumns+` FROM store_items ORDER BY created_at, rowid`); err != nil {
		return nil, fmt.Errorf("failed to get store items: %w", err)
	}
	if err := loadStoreItemRecipes(dbtx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetStoreItemsByIDs returns the stored items among ids, each at most once,
// in the order ids first names them.
func GetStoreItemsByIDs(dbtx DBTX, ids []string) ([]model.StoreItem, error) {
	items := []model.StoreItem{}
	if len(ids) == 0 {
		return items, nil
	}
	query, args, err := in(dbtx, `SELECT `+storeColumns+` FROM store_items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to construct IN query for store items: %w", err)
	}
	var found []model.StoreItem
	if err := dbtx.Select(&found, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get store items by ids: %w", err)
	}
	byID := make(map[string]model.StoreItem, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			items = append(items, it)
			delete(byID, id)
		}
	}
	if err := loadStoreItemRecipes(dbtx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func GetStoreItemByID(dbtx DBTX, id string) (*model.StoreItem, error) {
	var it model.StoreItem
	if err := dbtx.Get(&it, `SELECT `+storeColumns+` FROM store_items WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store item %s: %w", id, err)
	}
	list := []model.StoreItem{it}
	if err := loadStoreItemRecipes(dbtx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func CreateStoreItem(db *sqlx.DB, it *model.StoreItem) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO store_items (id, name, type, plan_type, description, author, cost, created_at, updated_at)
		VALUES (:id, :name, :type, :plan_type, :description, :author, :cost, :created_at, :updated_at)`
	if _, err := tx.NamedExec(q, it); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("store item %s: %w", it.ID, ErrConflict)
		}
		return fmt.Errorf("CreateStoreItem failed: %w", err)
	}
	if err := replaceStoreItemRecipesInTx(tx, it); err != nil {
		return err
	}
	return tx.Commit()
}

func UpdateStoreItem(db *sqlx.DB, it *model.StoreItem) error {
	it.UpdatedAt = time.Now().UTC()

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE store_items SET name = :name, type = :type, plan_type = :plan_type,
			description = :description, author = :author, cost = :cost, updated_at = :updated_at
		WHERE id = :id`
	res, err := tx.NamedExec(q, it)
	if err != nil {
		return fmt.Errorf("UpdateStoreItem (%s) failed: %w", it.ID, err)
	}
	if err := expectAffected(res, "store item", it.ID); err != nil {
		return err
	}
	if err := replaceStoreItemRecipesInTx(tx, it); err != nil {
		return err
	}
	return tx.Commit()
}

func DeleteStoreItem(db *sqlx.DB, id string) error {
	res, err := db.Exec(`DELETE FROM store_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store item %s: %w", id, err)
	}
	return expectAffected(res, "store item", id)
}

func replaceStoreItemRecipesInTx(tx *sqlx.Tx, it *model.StoreItem) error {
	if _, err := tx.Exec(`DELETE FROM store_item_recipes WHERE item_id = ?`, it.ID); err != nil {
		return fmt.Errorf("failed to clear recipes of store item %s: %w", it.ID, err)
	}
	ids := make([]string, 0, len(it.RecipeIDs))
	seen := make(map[string]bool)
	for _, rid := range it.RecipeIDs {
		if rid == "" || seen[rid] {
			continue
		}
		seen[rid] = true
		_, err := tx.Exec(`INSERT INTO store_item_recipes (item_id, recipe_id, position) VALUES (?, ?, ?)`,
			it.ID, rid, len(ids))
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("recipe %s: %w", rid, ErrNotFound)
			}
			return fmt.Errorf("failed to link recipe %s to store item %s: %w", rid, it.ID, err)
		}
		ids = append(ids, rid)
	}
	it.RecipeIDs = ids
	return nil
}

func loadStoreItemRecipes(dbtx DBTX, items []model.StoreItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].RecipeIDs = []string{}
	}
	query, args, err := in(dbtx, `
		SELECT item_id, recipe_id FROM store_item_recipes
		WHERE item_id IN (?) ORDER BY item_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to construct IN query for store item recipes: %w", err)
	}
	var links []struct {
		ItemID   string `db:"item_id"`
		RecipeID string `db:"recipe_id"`
	}
	if err := dbtx.Select(&links, query, args...); err != nil {
		return fmt.Errorf("failed to get store item recipes: %w", err)
	}
	for _, l := range links {
		it := &items[index[l.ItemID]]
		it.RecipeIDs = append(it.RecipeIDs, l.RecipeID)
	}
	return nil
}
