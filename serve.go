package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mealmate/auth"
	"mealmate/clipper"
	"mealmate/config"
	"mealmate/loader"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var openFlag bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Applies pending migrations, seeds an empty catalog and serves the API.
The config file is watched and reloaded while the server runs.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := loader.InitDatabase(db); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	zap.L().Info("database initialization complete")

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Std())

	mux := http.NewServeMux()
	SetupRoutes(mux, db, issuer, newClipper)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return config.Watch(gctx, func(c config.Config) { applyConfig(issuer, c) })
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if openFlag {
		openBrowser(localURL(cfg.Server.Addr))
	}
	return g.Wait()
}

// applyConfig は再読み込みした設定を実行中のコンポーネントへ反映します。
// アドレスと DB パスは再起動まで変わりません。
func applyConfig(issuer *auth.Issuer, c config.Config) {
	issuer.Reset(c.Auth.JWTSecret, c.Auth.TokenTTL.Std())
	if err := loader.LoadUnits(c.Import); err != nil {
		zap.L().Warn("failed to reload units file", zap.Error(err))
	}
}

// newClipper reads the import settings on every call so reloads apply to
// the next import.
func newClipper() *clipper.Clipper {
	ic := config.GetConfig().Import
	return clipper.NewClipper(ic.UserAgent, ic.BrowserBin, ic.Timeout.Std())
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
