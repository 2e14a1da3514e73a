package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"mealmate/config"
	"mealmate/database"
	"mealmate/loader"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mealmate",
	Short: "Recipes, recipe books and grocery lists",
	Long: `mealmate serves a recipe catalog, a recipe book store and grocery lists
that consolidate the ingredients of the recipes you pick.

Run "mealmate serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetPath(configPath)
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		if err := loader.LoadUnits(cfg.Import); err != nil {
			logger.Warn("failed to load units file; using builtin units", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./mealmate.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	serveCmd.Flags().BoolVar(&openFlag, "open", false, "Open the server in a browser")
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file (default: bundled fixtures)")
	groceryCmd.Flags().StringSliceVarP(&groceryRecipes, "recipes", "r", nil, "Recipe ids to consolidate")
	groceryCmd.Flags().StringVarP(&groceryList, "list", "l", "", "Grocery list id")
	importCmd.Flags().BoolVar(&importRender, "render", false, "Render the page in a headless browser")
	importCmd.Flags().StringVar(&importAuthor, "author", "", "Author (user id) of the imported recipe")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(groceryCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase は設定されたパスの SQLite を開きます。
func openDatabase() (*sqlx.DB, error) {
	path := config.GetConfig().Database.Path
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	zap.L().Debug("database opened", zap.String("path", path))
	return db, nil
}

// openMigratedDatabase は openDatabase の後にマイグレーションを適用します。
func openMigratedDatabase() (*sqlx.DB, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		zap.L().Warn("failed to open browser", zap.String("url", url), zap.Error(err))
	}
}
