package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snipspace/internal/apperror"
	"github.com/sakif/snipspace/internal/identity"
	"github.com/sakif/snipspace/internal/model"
	"github.com/sakif/snipspace/internal/repository"
)

// AuthHandler serves sign-up and sign-in for the local row-store server,
// issuing the session tokens the row endpoints accept.
type AuthHandler struct {
	users  repository.UserRepository
	tokens *identity.TokenService
	logger *slog.Logger
}

func NewAuthHandler(users repository.UserRepository, tokens *identity.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// sessionResponse bundles the token with the user it identifies.
type sessionResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

const minPasswordLength = 8

// HandleSignUp creates an account and signs the new user in.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}

	if !strings.Contains(req.Email, "@") {
		writeError(w, apperror.ValidationFailed("email", "a valid email is required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, apperror.ValidationFailed("password", "password must be at least 8 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hashing password", "error", err)
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.DisplayName, string(hash))
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID)
	h.respondWithSession(w, user)
}

// HandleSignIn verifies credentials and issues a session token. Unknown
// email and wrong password return the same response, so the endpoint does
// not confirm which emails have accounts.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeError(w, apperror.Forbidden("invalid email or password"))
			return
		}
		writeError(w, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, apperror.Forbidden("invalid email or password"))
		return
	}

	h.logger.Info("user signed in", "user_id", user.ID)
	h.respondWithSession(w, user)
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, user *model.User) {
	token, err := h.tokens.Issue(user.ID, user.DisplayName, identity.DefaultTokenLifetime)
	if err != nil {
		h.logger.Error("issuing token", "user_id", user.ID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: *user})
}
