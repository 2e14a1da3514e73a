package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mealmate/config"
	"mealmate/render"

	"go.uber.org/zap"
)

// GetConfigHandler は現在の設定を返します。シークレットは伏せ字になります。
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, config.GetConfig().Redacted())
	}
}

// SaveConfigHandler は設定を検証して保存します。伏せ字のシークレットは現在の値のまま残ります。
// シークレット、管理者、DBパス、ブラウザ、単位ファイルは HTTP からは変更できません。
func SaveConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if changed := config.ProtectedChanges(config.GetConfig(), newCfg); len(changed) > 0 {
			zap.L().Warn("config change rejected", zap.Strings("fields", changed))
			render.JSONError(w, "Cannot change over HTTP: "+strings.Join(changed, ", "), http.StatusForbidden)
			return
		}

		if err := config.SaveConfig(newCfg); err != nil {
			if errors.Is(err, config.ErrInvalid) {
				render.JSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			zap.L().Error("Error saving config", zap.Error(err))
			render.JSONError(w, "Failed to save config", http.StatusInternalServerError)
			return
		}
		zap.L().Info("config saved", zap.String("path", config.Path()))
		render.JSON(w, http.StatusOK, map[string]string{"message": "Config saved"})
	}
}
