package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"mealmate/database"

	"go.uber.org/zap"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// JSONError はエラーメッセージを {"message": ...} 形式で返します。
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	JSON(w, statusCode, map[string]string{"message": message})
}

// StatusFor maps data layer errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DBError writes the response for a data layer error. Unexpected errors are
// logged and reported with a generic message.
func DBError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error(message,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		JSONError(w, message, status)
		return
	}
	JSONError(w, err.Error(), status)
}
