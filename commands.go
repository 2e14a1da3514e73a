package main

import (
	"errors"
	"fmt"
	"os"

	"mealmate/database"
	"mealmate/grocery"
	"mealmate/grocerylist"
	"mealmate/loader"
	"mealmate/mappers"
	"mealmate/model"
	"mealmate/recipe"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedFile string

	groceryRecipes []string
	groceryList    string

	importRender bool
	importAuthor string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigratedDatabase()
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load recipe and store fixtures",
	Long: `Loads YAML fixtures into the database. Recipes and store items whose id
already exists are skipped. Without --file the bundled fixtures are used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigratedDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		var res loader.SeedResult
		if seedFile == "" {
			res, err = loader.SeedDefault(db)
		} else {
			f, openErr := os.Open(seedFile)
			if openErr != nil {
				return fmt.Errorf("failed to open %s: %w", seedFile, openErr)
			}
			defer f.Close()
			res, err = loader.Seed(db, f)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d recipes, %d store items (%d skipped)\n",
			res.Recipes, res.StoreItems, res.Skipped)
		return nil
	},
}

var groceryCmd = &cobra.Command{
	Use:   "grocery",
	Short: "Print a consolidated grocery list",
	Long: `Prints the consolidated ingredients of the given recipes, or of a stored
grocery list with its checked lines struck through.`,
	Example: `  mealmate grocery --recipes tomato-basil-salad,tomato-soup
  mealmate grocery --list 6f1c...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if groceryList == "" && len(groceryRecipes) == 0 {
			return errors.New("either --recipes or --list is required")
		}
		db, err := openMigratedDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		title, entries, err := groceryEntries(db, groceryList, groceryRecipes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.GroceryTerminal(title, entries))
		return nil
	},
}

// groceryEntries は --list が指定されていれば保存済みリストを、なければ指定レシピを集計します。
func groceryEntries(db *sqlx.DB, listID string, recipeIDs []string) (string, []grocery.Entry, error) {
	if listID != "" {
		l, err := database.GetGroceryListByID(db, listID)
		if err != nil {
			return "", nil, err
		}
		view, err := grocerylist.LoadView(db, l)
		if err != nil {
			return "", nil, err
		}
		return l.Name, view.Entries, nil
	}

	recipes, err := database.GetRecipesByIDs(db, recipeIDs)
	if err != nil {
		return "", nil, err
	}
	selected := grocery.NewIDSet(recipeIDs...)
	if len(recipes) < len(selected) {
		zap.L().Warn("some recipes were not found",
			zap.Int("requested", len(selected)),
			zap.Int("found", len(recipes)))
	}
	entries := grocery.Aggregate(mappers.ToGrocerySource(recipes), selected, grocery.Clear())
	return "Grocery list", entries, nil
}

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import a recipe from a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openMigratedDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		r, err := newClipper().ClipURL(cmd.Context(), args[0], importRender)
		if err != nil {
			return err
		}
		if err := saveImported(db, r, importAuthor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %q (%s): %d ingredients, %d steps\n",
			r.Title, r.ID, len(r.Ingredients), len(r.Steps))
		return nil
	},
}

// saveImported は取り込んだレシピを HTTP の取り込みと同じ検証にかけてから保存します。
func saveImported(db *sqlx.DB, r *model.Recipe, author string) error {
	r.Author = author
	if err := recipe.Validate(r); err != nil {
		return fmt.Errorf("imported recipe is incomplete: %w", err)
	}
	return database.CreateRecipe(db, r)
}
