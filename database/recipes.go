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

const recipeColumns = `id, title, description, image_url, author, created_at, updated_at`

// GetRecipes はレシピ一覧を作成順に返します。フィルタは空文字なら無視されます。
func GetRecipes(dbtx DBTX, f model.RecipeFilters) ([]model.Recipe, error) {
	var where []string
	var args []interface{}

	if f.Tag != "" {
		where = append(where, `id IN (SELECT recipe_id FROM recipe_tags WHERE tag = ?)`)
		args = append(args, f.Tag)
	}
	if f.Author != "" {
		where = append(where, `author = ?`)
		args = append(args, f.Author)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(title LIKE ? OR description LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, rowid`

	recipes := []model.Recipe{}
	if err := dbtx.Select(&recipes, dbtx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}
	if err := loadRecipeChildren(dbtx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipesByIDs returns the recipes among ids that exist, in catalog order.
func GetRecipesByIDs(dbtx DBTX, ids []string) ([]model.Recipe, error) {
	recipes := []model.Recipe{}
	if len(ids) == 0 {
		return recipes, nil
	}
	query, args, err := in(dbtx, `SELECT `+recipeColumns+` FROM recipes WHERE id IN (?) ORDER BY created_at, rowid`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to construct IN query for recipes: %w", err)
	}
	if err := dbtx.Select(&recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recipes by ids: %w", err)
	}
	if err := loadRecipeChildren(dbtx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func GetRecipeByID(dbtx DBTX, id string) (*model.Recipe, error) {
	var r model.Recipe
	err := dbtx.Get(&r, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	list := []model.Recipe{r}
	if err := loadRecipeChildren(dbtx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// RecipeExists reports whether a recipe with id is stored.
func RecipeExists(dbtx DBTX, id string) (bool, error) {
	var n int
	if err := dbtx.Get(&n, `SELECT COUNT(*) FROM recipes WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("RecipeExists (%s) failed: %w", id, err)
	}
	return n > 0, nil
}

// CreateRecipe はレシピを登録します。ID と材料IDは未設定なら採番されます。
// 作成者がユーザーとして存在すれば、そのユーザーのレシピ一覧にも追加します。
func CreateRecipe(db *sqlx.DB, r *model.Recipe) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO recipes (id, title, description, image_url, author, created_at, updated_at)
		VALUES (:id, :title, :description, :image_url, :author, :created_at, :updated_at)`
	if _, err := tx.NamedExec(q, r); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("recipe %s: %w", r.ID, ErrConflict)
		}
		return fmt.Errorf("CreateRecipe failed: %w", err)
	}
	if err := replaceRecipeChildrenInTx(tx, r); err != nil {
		return err
	}
	if r.Author != "" {
		if err := addUserRecipeInTx(tx, r.Author, r.ID, true); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateRecipe は既存レシピを置き換えます。材料・手順・タグは丸ごと入れ替えます。
func UpdateRecipe(db *sqlx.DB, r *model.Recipe) error {
	r.UpdatedAt = time.Now().UTC()

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE recipes SET title = :title, description = :description, image_url = :image_url,
			author = :author, updated_at = :updated_at
		WHERE id = :id`
	res, err := tx.NamedExec(q, r)
	if err != nil {
		return fmt.Errorf("UpdateRecipe (%s) failed: %w", r.ID, err)
	}
	if err := expectAffected(res, "recipe", r.ID); err != nil {
		return err
	}
	if err := replaceRecipeChildrenInTx(tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendIngredients adds lines after the recipe's existing ingredients.
func AppendIngredients(db *sqlx.DB, recipeID string, lines []model.Ingredient) (*model.Recipe, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.Get(&next, `SELECT COALESCE(MAX(position) + 1, 0) FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("failed to get next ingredient position: %w", err)
	}
	for i := range lines {
		lines[i].RecipeID = recipeID
		lines[i].Position = next + i
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		if err := insertIngredientInTx(tx, lines[i]); err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("recipe %s: %w", recipeID, ErrNotFound)
			}
			return nil, err
		}
	}
	res, err := tx.Exec(`UPDATE recipes SET updated_at = ? WHERE id = ?`, time.Now().UTC(), recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch recipe %s: %w", recipeID, err)
	}
	if err := expectAffected(res, "recipe", recipeID); err != nil {
		return nil, err
	}
	r, err := GetRecipeByID(tx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ingredients: %w", err)
	}
	return r, nil
}

func DeleteRecipe(db *sqlx.DB, id string) error {
	res, err := db.Exec(`DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe %s: %w", id, err)
	}
	return expectAffected(res, "recipe", id)
}

func replaceRecipeChildrenInTx(tx *sqlx.Tx, r *model.Recipe) error {
	for _, q := range []string{
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`,
		`DELETE FROM recipe_steps WHERE recipe_id = ?`,
		`DELETE FROM recipe_tags WHERE recipe_id = ?`,
	} {
		if _, err := tx.Exec(q, r.ID); err != nil {
			return fmt.Errorf("failed to clear recipe children: %w", err)
		}
	}

	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		ing.RecipeID = r.ID
		ing.Position = i
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		if err := insertIngredientInTx(tx, *ing); err != nil {
			return err
		}
	}

	for i := range r.Steps {
		st := &r.Steps[i]
		st.RecipeID = r.ID
		if st.Number == 0 {
			st.Number = i + 1
		}
		if _, err := tx.Exec(`INSERT INTO recipe_steps (recipe_id, number, instruction) VALUES (?, ?, ?)`,
			r.ID, st.Number, st.Instruction); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("step %d of recipe %s: %w", st.Number, r.ID, ErrConflict)
			}
			return fmt.Errorf("failed to insert step: %w", err)
		}
	}

	tags := make([]string, 0, len(r.Tags))
	seen := make(map[string]bool)
	for _, t := range r.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if _, err := tx.Exec(`INSERT INTO recipe_tags (recipe_id, tag, position) VALUES (?, ?, ?)`,
			r.ID, t, len(tags)); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
		tags = append(tags, t)
	}
	r.Tags = tags
	return nil
}

func insertIngredientInTx(tx *sqlx.Tx, ing model.Ingredient) error {
	const q = `
		INSERT INTO recipe_ingredients (recipe_id, position, id, name, amount, unit, type)
		VALUES (:recipe_id, :position, :id, :name, :amount, :unit, :type)`
	if _, err := tx.NamedExec(q, ing); err != nil {
		return fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
	}
	return nil
}

// loadRecipeChildren は材料・手順・タグをまとめて取得し、各レシピに割り当てます。
func loadRecipeChildren(dbtx DBTX, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]string, len(recipes))
	index := make(map[string]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].Ingredients = []model.Ingredient{}
		recipes[i].Steps = []model.Step{}
		recipes[i].Tags = []string{}
	}

	query, args, err := in(dbtx, `
		SELECT recipe_id, position, id, name, amount, unit, type
		FROM recipe_ingredients WHERE recipe_id IN (?) ORDER BY recipe_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to construct IN query for ingredients: %w", err)
	}
	var ingredients []model.Ingredient
	if err := dbtx.Select(&ingredients, query, args...); err != nil {
		return fmt.Errorf("failed to get ingredients: %w", err)
	}
	for _, ing := range ingredients {
		r := &recipes[index[ing.RecipeID]]
		r.Ingredients = append(r.Ingredients, ing)
	}

	query, args, err = in(dbtx, `
		SELECT recipe_id, number, instruction
		FROM recipe_steps WHERE recipe_id IN (?) ORDER BY recipe_id, number`, ids)
	if err != nil {
		return fmt.Errorf("failed to construct IN query for steps: %w", err)
	}
	var steps []model.Step
	if err := dbtx.Select(&steps, query, args...); err != nil {
		return fmt.Errorf("failed to get steps: %w", err)
	}
	for _, st := range steps {
		r := &recipes[index[st.RecipeID]]
		r.Steps = append(r.Steps, st)
	}

	query, args, err = in(dbtx, `
		SELECT recipe_id, tag FROM recipe_tags WHERE recipe_id IN (?) ORDER BY recipe_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to construct IN query for tags: %w", err)
	}
	var tags []struct {
		RecipeID string `db:"recipe_id"`
		Tag      string `db:"tag"`
	}
	if err := dbtx.Select(&tags, query, args...); err != nil {
		return fmt.Errorf("failed to get tags: %w", err)
	}
	for _, t := range tags {
		r := &recipes[index[t.RecipeID]]
		r.Tags = append(r.Tags, t.Tag)
	}
	return nil
}
