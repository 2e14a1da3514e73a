package loader

import (
	"errors"
	"net/http"

	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxFixtureSize = 1 << 20

// SeedHandler はリクエスト本文の YAML フィクスチャを投入します。本文が空なら既定のフィクスチャを使います。
func SeedHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zap.L().Info("HTTP request received: seeding fixtures")

		var (
			res SeedResult
			err error
		)
		if r.ContentLength == 0 {
			res, err = SeedDefault(db)
		} else {
			res, err = Seed(db, http.MaxBytesReader(w, r.Body, maxFixtureSize))
		}
		if err != nil {
			if errors.Is(err, ErrInvalidFixtures) {
				render.JSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			render.DBError(w, r, err, "Error seeding fixtures")
			return
		}
		render.JSON(w, http.StatusOK, res)
	}
}
