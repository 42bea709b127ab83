package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/services"
)

// AuthHandler handles onboarding, login and account management.
type AuthHandler struct {
	service services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// AuthPayload defines the structure for onboarding and login requests.
type AuthPayload struct {
	Username string `json:"username"`
}

// Onboard handles first-launch registration: claim a username, get a token.
func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to onboard user")
		respondError(w, err, "Failed to onboard user")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.setTokenCookie(w, token)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login resolves an existing username and issues a fresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.GetUserByUsername(r.Context(), payload.Username)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed login attempt")
		respondError(w, err, "Failed to log in")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.setTokenCookie(w, token)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("User from token not found in store")
		respondError(w, err, "Failed to retrieve user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Rename handles updating a user's username. Users may only rename
// themselves.
func (h *AuthHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.UserID != id {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.RenameUser(r.Context(), id, payload.Username)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to rename user")
		respondError(w, err, "Failed to rename user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// setTokenCookie mirrors the token into an HttpOnly cookie for web clients.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	isProd := os.Getenv("APP_ENV") == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}
