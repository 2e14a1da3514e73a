// Package loader はデータベースの初期化とフィクスチャ（YAML）の投入を行います。
package loader

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"mealmate/config"
	"mealmate/database"
	"mealmate/model"
	"mealmate/units"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFixtures marks a fixture document that cannot be seeded as written.
var ErrInvalidFixtures = errors.New("invalid fixtures")

//go:embed fixtures/recipes.yaml
var defaultFixtures []byte

type fixtureIngredient struct {
	ID     string       `yaml:"id"`
	Name   string       `yaml:"name"`
	Amount model.Amount `yaml:"amount"`
	Unit   string       `yaml:"unit"`
	Type   string       `yaml:"type"`
}

type fixtureRecipe struct {
	ID          string              `yaml:"id"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	ImageURL    string              `yaml:"imageUrl"`
	Author      string              `yaml:"author"`
	Tags        []string            `yaml:"tags"`
	Ingredients []fixtureIngredient `yaml:"ingredients"`
	Steps       []string            `yaml:"steps"`
}

type fixtureStoreItem struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	PlanType    string   `yaml:"planType"`
	Author      string   `yaml:"author"`
	Cost        float64  `yaml:"cost"`
	Description []string `yaml:"description"`
	RecipeIDs   []string `yaml:"recipesId"`
}

// Fixtures is the YAML document accepted by Seed.
type Fixtures struct {
	Recipes    []fixtureRecipe    `yaml:"recipes"`
	StoreItems []fixtureStoreItem `yaml:"storeItems"`
}

// SeedResult counts what Seed inserted. Existing ids are skipped.
type SeedResult struct {
	Recipes    int `json:"recipes"`
	StoreItems int `json:"storeItems"`
	Skipped    int `json:"skipped"`
}

// InitDatabase はマイグレーションを適用し、レシピが1件も無ければ既定のフィクスチャを投入します。
func InitDatabase(db *sqlx.DB) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM recipes`); err != nil {
		return fmt.Errorf("failed to count recipes: %w", err)
	}
	if count > 0 {
		return nil
	}

	res, err := SeedDefault(db)
	if err != nil {
		return fmt.Errorf("failed to seed default fixtures: %w", err)
	}
	zap.L().Info("seeded empty catalog",
		zap.Int("recipes", res.Recipes),
		zap.Int("storeItems", res.StoreItems))
	return nil
}

func SeedDefault(db *sqlx.DB) (SeedResult, error) {
	return Seed(db, bytes.NewReader(defaultFixtures))
}

// Seed reads fixtures from r and inserts the recipes first, then the store
// items that reference them. Entries whose id already exists are skipped,
// so seeding the same document twice is harmless.
func Seed(db *sqlx.DB, r io.Reader) (SeedResult, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedResult{}, nil
		}
		return SeedResult{}, fmt.Errorf("%w: %v", ErrInvalidFixtures, err)
	}

	var res SeedResult
	for i, fr := range fx.Recipes {
		if fr.ID != "" {
			exists, err := database.RecipeExists(db, fr.ID)
			if err != nil {
				return res, err
			}
			if exists {
				res.Skipped++
				continue
			}
		}
		rec := fr.toModel()
		if rec.Title == "" {
			return res, fmt.Errorf("%w: recipe #%d has no title", ErrInvalidFixtures, i+1)
		}
		if err := database.CreateRecipe(db, rec); err != nil {
			return res, fmt.Errorf("recipe fixture %q: %w", rec.Title, err)
		}
		res.Recipes++
	}

	for i, fs := range fx.StoreItems {
		if fs.ID != "" {
			_, err := database.GetStoreItemByID(db, fs.ID)
			switch {
			case err == nil:
				res.Skipped++
				continue
			case !errors.Is(err, database.ErrNotFound):
				return res, err
			}
		}
		it := fs.toModel()
		if it.Name == "" {
			return res, fmt.Errorf("%w: store item #%d has no name", ErrInvalidFixtures, i+1)
		}
		if err := database.CreateStoreItem(db, it); err != nil {
			return res, fmt.Errorf("store item fixture %q: %w", it.Name, err)
		}
		res.StoreItems++
	}

	zap.L().Debug("fixtures seeded",
		zap.Int("recipes", res.Recipes),
		zap.Int("storeItems", res.StoreItems),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// LoadUnits は設定された単位ファイルを読み込み直します。未設定なら組み込みの単位表に戻します。
func LoadUnits(cfg config.ImportConfig) error {
	units.Reset()
	if cfg.UnitsFile == "" {
		return nil
	}
	n, err := units.LoadUnitsFile(cfg.UnitsFile, cfg.UnitsCharset)
	if err != nil {
		return err
	}
	zap.L().Info("unit aliases loaded", zap.String("file", cfg.UnitsFile), zap.Int("count", n))
	return nil
}

func (fr fixtureRecipe) toModel() *model.Recipe {
	rec := &model.Recipe{
		ID:          fr.ID,
		Title:       fr.Title,
		Description: fr.Description,
		ImageURL:    fr.ImageURL,
		Author:      fr.Author,
		Tags:        fr.Tags,
	}
	for _, fi := range fr.Ingredients {
		rec.Ingredients = append(rec.Ingredients, model.Ingredient{
			ID:     fi.ID,
			Name:   fi.Name,
			Amount: fi.Amount,
			Unit:   fi.Unit,
			Type:   fi.Type,
		})
	}
	for i, s := range fr.Steps {
		rec.Steps = append(rec.Steps, model.Step{Number: i + 1, Instruction: s})
	}
	return rec
}

func (fs fixtureStoreItem) toModel() *model.StoreItem {
	return &model.StoreItem{
		ID:          fs.ID,
		Name:        fs.Name,
		Type:        fs.Type,
		PlanType:    fs.PlanType,
		Author:      fs.Author,
		Cost:        fs.Cost,
		Description: model.Lines(fs.Description),
		RecipeIDs:   fs.RecipeIDs,
	}
}
