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

const groceryListColumns = `id, name, user_id, created_at, updated_at`

// CreateGroceryList は買い物リストを作成します。RecipeIDs が指定されていれば選択済みとして保存します。
func CreateGroceryList(db *sqlx.DB, l *model.GroceryList) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO grocery_lists (id, name, user_id, created_at, updated_at)
		VALUES (:id, :name, :user_id, :created_at, :updated_at)`
	if _, err := tx.NamedExec(q, l); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("grocery list %s: %w", l.ID, ErrConflict)
		}
		return fmt.Errorf("CreateGroceryList failed: %w", err)
	}

	selected := make([]string, 0, len(l.RecipeIDs))
	seen := make(map[string]bool)
	for _, rid := range l.RecipeIDs {
		if rid == "" || seen[rid] {
			continue
		}
		seen[rid] = true
		if err := insertListRecipeInTx(tx, l.ID, rid); err != nil {
			return err
		}
		selected = append(selected, rid)
	}
	checked := make([]string, 0, len(l.CheckedIDs))
	for _, oid := range l.CheckedIDs {
		if oid == "" {
			continue
		}
		res, err := tx.Exec(`INSERT OR IGNORE INTO grocery_checks (list_id, origin_id) VALUES (?, ?)`, l.ID, oid)
		if err != nil {
			return fmt.Errorf("failed to insert check %s: %w", oid, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			checked = append(checked, oid)
		}
	}
	l.RecipeIDs = selected
	l.CheckedIDs = checked
	return tx.Commit()
}

// GetGroceryLists returns every list, or only those of userID when it is set.
func GetGroceryLists(dbtx DBTX, userID string) ([]model.GroceryList, error) {
	lists := []model.GroceryList{}
	query := `SELECT ` + groceryListColumns + ` FROM grocery_lists`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at, rowid`
	if err := dbtx.Select(&lists, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get grocery lists: %w", err)
	}
	for i := range lists {
		if err := loadGroceryListState(dbtx, &lists[i]); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

func GetGroceryListByID(dbtx DBTX, id string) (*model.GroceryList, error) {
	var l model.GroceryList
	if err := dbtx.Get(&l, `SELECT `+groceryListColumns+` FROM grocery_lists WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grocery list %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get grocery list %s: %w", id, err)
	}
	if err := loadGroceryListState(dbtx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func DeleteGroceryList(db *sqlx.DB, id string) error {
	res, err := db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grocery list %s: %w", id, err)
	}
	return expectAffected(res, "grocery list", id)
}

// ToggleListRecipe はリストの選択レシピを反転します。チェック状態は変更しません。
func ToggleListRecipe(db *sqlx.DB, listID, recipeID string) (*model.GroceryList, error) {
	return mutateList(db, listID, func(tx *sqlx.Tx) error {
		res, err := tx.Exec(`DELETE FROM grocery_list_recipes WHERE list_id = ? AND recipe_id = ?`, listID, recipeID)
		if err != nil {
			return fmt.Errorf("failed to deselect recipe %s: %w", recipeID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		return insertListRecipeInTx(tx, listID, recipeID)
	})
}

// ToggleListCheck flips originID in the list's checked set.
func ToggleListCheck(db *sqlx.DB, listID, originID string) (*model.GroceryList, error) {
	return mutateList(db, listID, func(tx *sqlx.Tx) error {
		res, err := tx.Exec(`DELETE FROM grocery_checks WHERE list_id = ? AND origin_id = ?`, listID, originID)
		if err != nil {
			return fmt.Errorf("failed to uncheck %s: %w", originID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		if _, err := tx.Exec(`INSERT INTO grocery_checks (list_id, origin_id) VALUES (?, ?)`, listID, originID); err != nil {
			return fmt.Errorf("failed to check %s: %w", originID, err)
		}
		return nil
	})
}

// ClearListChecks removes every check of the list.
func ClearListChecks(db *sqlx.DB, listID string) (*model.GroceryList, error) {
	return mutateList(db, listID, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM grocery_checks WHERE list_id = ?`, listID); err != nil {
			return fmt.Errorf("failed to clear checks: %w", err)
		}
		return nil
	})
}

// mutateList runs fn inside a transaction after touching the list's
// updated_at, then returns the list as committed.
func mutateList(db *sqlx.DB, listID string, fn func(tx *sqlx.Tx) error) (*model.GroceryList, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE grocery_lists SET updated_at = ? WHERE id = ?`, time.Now().UTC(), listID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch grocery list %s: %w", listID, err)
	}
	if err := expectAffected(res, "grocery list", listID); err != nil {
		return nil, err
	}
	if err := fn(tx); err != nil {
		return nil, err
	}
	l, err := GetGroceryListByID(tx, listID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit grocery list %s: %w", listID, err)
	}
	return l, nil
}

func insertListRecipeInTx(tx *sqlx.Tx, listID, recipeID string) error {
	const q = `
		INSERT INTO grocery_list_recipes (list_id, recipe_id, position)
		SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM grocery_list_recipes WHERE list_id = ?`
	if _, err := tx.Exec(q, listID, recipeID, listID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
		}
		return fmt.Errorf("failed to select recipe %s: %w", recipeID, err)
	}
	return nil
}

func loadGroceryListState(dbtx DBTX, l *model.GroceryList) error {
	l.RecipeIDs = []string{}
	if err := dbtx.Select(&l.RecipeIDs,
		`SELECT recipe_id FROM grocery_list_recipes WHERE list_id = ? ORDER BY position`, l.ID); err != nil {
		return fmt.Errorf("failed to get recipes of grocery list %s: %w", l.ID, err)
	}
	l.CheckedIDs = []string{}
	if err := dbtx.Select(&l.CheckedIDs,
		`SELECT origin_id FROM grocery_checks WHERE list_id = ? ORDER BY origin_id`, l.ID); err != nil {
		return fmt.Errorf("failed to get checks of grocery list %s: %w", l.ID, err)
	}
	return nil
}
