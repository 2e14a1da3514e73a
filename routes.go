package main

import (
	"net/http"

	"mealmate/auth"
	"mealmate/clipper"
	"mealmate/config"
	"mealmate/grocerylist"
	"mealmate/loader"
	"mealmate/recipe"
	"mealmate/store"
	"mealmate/user"

	"github.com/jmoiron/sqlx"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, issuer *auth.Issuer, newClipper func() *clipper.Clipper) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// レシピ
	mux.HandleFunc("GET /api/recipes", recipe.ListRecipesHandler(dbConn))
	mux.HandleFunc("POST /api/recipes", recipe.CreateRecipeHandler(dbConn))
	mux.HandleFunc("POST /api/recipes/import", recipe.ImportRecipeHandler(dbConn, newClipper))
	mux.HandleFunc("GET /api/recipes/{id}", recipe.GetRecipeHandler(dbConn))
	mux.HandleFunc("PUT /api/recipes/{id}", recipe.UpdateRecipeHandler(dbConn))
	mux.HandleFunc("DELETE /api/recipes/{id}", recipe.DeleteRecipeHandler(dbConn))
	mux.HandleFunc("POST /api/recipes/{id}/ingredients/import", recipe.ImportIngredientsHandler(dbConn))

	// ユーザー
	mux.HandleFunc("POST /api/users/register", user.RegisterHandler(dbConn))
	mux.HandleFunc("POST /api/users/login", user.LoginHandler(dbConn, issuer))
	mux.HandleFunc("GET /api/users/{id}", user.GetUserHandler(dbConn))
	mux.HandleFunc("PUT /api/users/{id}", auth.RequireUser(issuer, user.UpdateUserHandler(dbConn)))
	mux.HandleFunc("DELETE /api/users/{id}", auth.RequireUser(issuer, user.DeleteUserHandler(dbConn)))
	mux.HandleFunc("GET /api/users/{id}/recipes", user.ListUserRecipesHandler(dbConn))
	mux.HandleFunc("POST /api/users/{id}/recipes", auth.RequireUser(issuer, user.AddUserRecipeHandler(dbConn)))
	mux.HandleFunc("DELETE /api/users/{id}/recipes", auth.RequireUser(issuer, user.RemoveUserRecipeHandler(dbConn)))

	// ストア
	mux.HandleFunc("GET /api/store", store.ListItemsHandler(dbConn))
	mux.HandleFunc("POST /api/store", store.CreateItemHandler(dbConn))
	mux.HandleFunc("POST /api/store/quote", store.QuoteHandler(dbConn))
	mux.HandleFunc("GET /api/store/{id}", store.GetItemHandler(dbConn))
	mux.HandleFunc("PUT /api/store/{id}", store.UpdateItemHandler(dbConn))
	mux.HandleFunc("DELETE /api/store/{id}", store.DeleteItemHandler(dbConn))

	// 買い物リスト
	mux.HandleFunc("POST /api/grocery/aggregate", grocerylist.AggregateHandler(dbConn))
	mux.HandleFunc("GET /api/grocery/lists", grocerylist.ListListsHandler(dbConn))
	mux.HandleFunc("POST /api/grocery/lists", grocerylist.CreateListHandler(dbConn))
	mux.HandleFunc("GET /api/grocery/lists/{id}", grocerylist.GetListHandler(dbConn))
	mux.HandleFunc("DELETE /api/grocery/lists/{id}", grocerylist.DeleteListHandler(dbConn))
	mux.HandleFunc("GET /api/grocery/lists/{id}/view", grocerylist.ViewHandler(dbConn))
	mux.HandleFunc("POST /api/grocery/lists/{id}/recipes/toggle", grocerylist.ToggleRecipeHandler(dbConn))
	mux.HandleFunc("POST /api/grocery/lists/{id}/checks/toggle", grocerylist.ToggleCheckHandler(dbConn))
	mux.HandleFunc("DELETE /api/grocery/lists/{id}/checks", grocerylist.ClearChecksHandler(dbConn))

	// 設定・管理
	admins := func() []string { return config.GetConfig().Auth.Admins }
	mux.HandleFunc("GET /api/config", auth.RequireAdmin(issuer, admins, GetConfigHandler()))
	mux.HandleFunc("POST /api/config", auth.RequireAdmin(issuer, admins, SaveConfigHandler()))
	mux.HandleFunc("POST /api/admin/seed", auth.RequireAdmin(issuer, admins, loader.SeedHandler(dbConn)))
}
