// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"

	userstore "github.com/dalemusser/teamline/internal/app/store/users"
	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/dalemusser/teamline/internal/app/system/normalize"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB         *mongo.Database
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ServeLogin handles POST /login. Invalid email and wrong password report
// the same 401 so the endpoint never confirms which emails exist.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password are required"}`, http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.Log.Error("login: user lookup failed", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	su := auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("login: session write failed", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		UserID: user.ID.Hex(),
		Name:   user.FullName,
		Email:  user.Email,
	})
}
