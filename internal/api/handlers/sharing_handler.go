package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/services"
)

// SharingHandler handles HTTP requests for list sharing.
type SharingHandler struct {
	service services.SharingServiceProvider
	lists   services.ListServiceProvider
}

// NewSharingHandler creates a new SharingHandler.
func NewSharingHandler(service services.SharingServiceProvider, lists services.ListServiceProvider) *SharingHandler {
	return &SharingHandler{service: service, lists: lists}
}

// Convert turns a list into a shared list and returns a fresh invitation
// code. Calling it again rotates the code, invalidating the previous one.
// Owner only.
func (h *SharingHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	list, err := h.lists.GetListByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "Failed to retrieve list")
		return
	}
	if list.OwnerID != claims.UserID {
		http.Error(w, "Only the list owner may share it", http.StatusForbidden)
		return
	}

	code, err := h.service.ConvertToSharedList(r.Context(), id, claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Msg("Failed to share list")
		respondError(w, err, "Failed to share list")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"invitationCode": code})
}

// AddMember grants another user access to the list by username. Owner only.
func (h *SharingHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	list, err := h.lists.GetListByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "Failed to retrieve list")
		return
	}
	if list.OwnerID != claims.UserID {
		http.Error(w, "Only the list owner may add members", http.StatusForbidden)
		return
	}

	var payload struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ShareListWithUser(r.Context(), id, payload.Username); err != nil {
		log.Warn().Err(err).Str("list_id", id).Str("username", payload.Username).Msg("Failed to add member")
		respondError(w, err, "Failed to add member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Join adds the authenticated user to the list behind an invitation code.
func (h *SharingHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload struct {
		InvitationCode string `json:"invitationCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	listID, err := h.service.JoinSharedList(r.Context(), payload.InvitationCode, claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to join list")
		respondError(w, err, "Failed to join list")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"listId": listID})
}

// GetShared returns the lists shared with the authenticated user.
func (h *SharingHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	lists, err := h.service.GetSharedLists(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve shared lists")
		respondError(w, err, "Failed to retrieve shared lists")
		return
	}

	respondJSON(w, http.StatusOK, lists)
}
