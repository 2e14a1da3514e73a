package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealmate/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, password_hash, name, created_at, updated_at`

// CreateUser はユーザーを登録します。メールアドレス重複時は ErrConflict を返します。
func CreateUser(db *sqlx.DB, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.RecipeIDs == nil {
		u.RecipeIDs = []string{}
	}

	const q = `
		INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :name, :created_at, :updated_at)`
	if _, err := db.NamedExec(q, u); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("CreateUser failed: %w", err)
	}
	return nil
}

func GetUserByID(dbtx DBTX, id string) (*model.User, error) {
	return getUser(dbtx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func GetUserByEmail(dbtx DBTX, email string) (*model.User, error) {
	return getUser(dbtx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func getUser(dbtx DBTX, query, key string) (*model.User, error) {
	var u model.User
	if err := dbtx.Get(&u, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", key, err)
	}
	ids, err := GetUserRecipeIDs(dbtx, u.ID)
	if err != nil {
		return nil, err
	}
	u.RecipeIDs = ids
	return &u, nil
}

// UpdateUser は email, name, password_hash を書き換えます。
func UpdateUser(db *sqlx.DB, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()
	const q = `
		UPDATE users SET email = :email, name = :name, password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`
	res, err := db.NamedExec(q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("UpdateUser (%s) failed: %w", u.ID, err)
	}
	return expectAffected(res, "user", u.ID)
}

func DeleteUser(db *sqlx.DB, id string) error {
	res, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return expectAffected(res, "user", id)
}

// GetUserRecipeIDs returns the user's recipe ids in the order they were added.
func GetUserRecipeIDs(dbtx DBTX, userID string) ([]string, error) {
	ids := []string{}
	err := dbtx.Select(&ids, `SELECT recipe_id FROM user_recipes WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes of user %s: %w", userID, err)
	}
	return ids, nil
}

// AddUserRecipe はユーザーのレシピ一覧に追加します。既に含まれていれば何もしません。
func AddUserRecipe(db *sqlx.DB, userID, recipeID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := addUserRecipeInTx(tx, userID, recipeID, false); err != nil {
		return err
	}
	return tx.Commit()
}

// addUserRecipeInTx links recipeID to userID. With lenient set, a missing
// user is ignored instead of reported.
func addUserRecipeInTx(tx *sqlx.Tx, userID, recipeID string, lenient bool) error {
	var exists int
	if err := tx.Get(&exists, `SELECT COUNT(*) FROM users WHERE id = ?`, userID); err != nil {
		return fmt.Errorf("failed to check user %s: %w", userID, err)
	}
	if exists == 0 {
		if lenient {
			return nil
		}
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	const q = `
		INSERT OR IGNORE INTO user_recipes (user_id, recipe_id, position)
		SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM user_recipes WHERE user_id = ?`
	if _, err := tx.Exec(q, userID, recipeID, userID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
		}
		return fmt.Errorf("failed to add recipe %s to user %s: %w", recipeID, userID, err)
	}
	return nil
}

func RemoveUserRecipe(db *sqlx.DB, userID, recipeID string) error {
	res, err := db.Exec(`DELETE FROM user_recipes WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove recipe %s from user %s: %w", recipeID, userID, err)
	}
	return expectAffected(res, "user recipe", recipeID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
