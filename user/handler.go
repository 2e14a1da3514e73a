package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"mealmate/auth"
	"mealmate/database"
	"mealmate/model"
	"mealmate/render"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// RegisterHandler はユーザーを登録します。パスワードは bcrypt でハッシュ化して保存します。
func RegisterHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.UserRegister
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		in.Name = strings.TrimSpace(in.Name)
		if msg := validateCredentials(in.Email, in.Password); msg != "" {
			render.JSONError(w, msg, http.StatusBadRequest)
			return
		}
		if in.Name == "" {
			render.JSONError(w, "name is required", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("failed to hash password", zap.Error(err))
			render.JSONError(w, "Error creating user", http.StatusInternalServerError)
			return
		}
		u := &model.User{Email: in.Email, PasswordHash: string(hash), Name: in.Name}
		if err := database.CreateUser(db, u); err != nil {
			if errors.Is(err, database.ErrConflict) {
				render.JSONError(w, "email is already registered", http.StatusConflict)
				return
			}
			render.DBError(w, r, err, "Error creating user")
			return
		}
		zap.L().Info("user registered", zap.String("id", u.ID))
		render.JSON(w, http.StatusCreated, u)
	}
}

type loginResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// LoginHandler checks the credentials and returns the user with a signed token.
func LoginHandler(db *sqlx.DB, issuer *auth.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.UserLogin
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		u, err := database.GetUserByEmail(db, in.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				render.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}
			render.DBError(w, r, err, "Error logging in")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
			render.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		token, err := issuer.Issue(u.ID, u.Email)
		if err != nil {
			zap.L().Error("failed to issue token", zap.Error(err))
			render.JSONError(w, "Error logging in", http.StatusInternalServerError)
			return
		}
		render.JSON(w, http.StatusOK, loginResponse{User: u, Token: token})
	}
}

func GetUserHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := database.GetUserByID(db, r.PathValue("id"))
		if err != nil {
			render.DBError(w, r, err, "Error fetching user")
			return
		}
		render.JSON(w, http.StatusOK, u)
	}
}

// UpdateUserHandler は本人のみ更新できます。auth.RequireUser の内側で使います。
func UpdateUserHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isSelf(r, id) {
			render.JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		var in model.UserUpdate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			render.JSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		u, err := database.GetUserByID(db, id)
		if err != nil {
			render.DBError(w, r, err, "Error fetching user")
			return
		}

		if in.Email != nil {
			if _, err := mail.ParseAddress(strings.TrimSpace(*in.Email)); err != nil {
				render.JSONError(w, "email is invalid", http.StatusBadRequest)
				return
			}
			u.Email = *in.Email
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				render.JSONError(w, "name is required", http.StatusBadRequest)
				return
			}
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Password != nil {
			if len(*in.Password) < minPasswordLen {
				render.JSONError(w, "password is too short", http.StatusBadRequest)
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				zap.L().Error("failed to hash password", zap.Error(err))
				render.JSONError(w, "Error updating user", http.StatusInternalServerError)
				return
			}
			u.PasswordHash = string(hash)
		}

		if err := database.UpdateUser(db, u); err != nil {
			render.DBError(w, r, err, "Error updating user")
			return
		}
		render.JSON(w, http.StatusOK, u)
	}
}

func DeleteUserHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isSelf(r, id) {
			render.JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err := database.DeleteUser(db, id); err != nil {
			render.DBError(w, r, err, "Error deleting user")
			return
		}
		render.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
	}
}

func isSelf(r *http.Request, id string) bool {
	uid, ok := auth.UserID(r.Context())
	return ok && uid == id
}

func validateCredentials(email, password string) string {
	if strings.TrimSpace(email) == "" || password == "" {
		return "email and password are required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return "email is invalid"
	}
	if len(password) < minPasswordLen {
		return "password is too short"
	}
	return ""
}
