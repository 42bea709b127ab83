package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/auth"
	"github.com/lmoren/listly-be/internal/services"
)

// ListHandler handles HTTP requests for lists and their items.
type ListHandler struct {
	service services.ListServiceProvider
}

// NewListHandler creates a new ListHandler.
func NewListHandler(service services.ListServiceProvider) *ListHandler {
	return &ListHandler{service: service}
}

// namePayload is the body for create/rename requests.
type namePayload struct {
	Name string `json:"name"`
}

// GetMine returns the lists owned by the authenticated user.
func (h *ListHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	lists, err := h.service.GetListsByOwner(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve lists")
		respondError(w, err, "Failed to retrieve lists")
		return
	}

	respondJSON(w, http.StatusOK, lists)
}

// Create handles the request to create a new list.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	list, err := h.service.CreateList(r.Context(), payload.Name, claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Failed to create list")
		respondError(w, err, "Failed to create list")
		return
	}

	respondJSON(w, http.StatusCreated, list)
}

// Get handles the request to get a single list by its ID.
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list, err := h.service.GetListByID(r.Context(), id)
	if err != nil {
		respondError(w, err, "Failed to retrieve list")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// Rename handles the request to rename a list. Owner only.
func (h *ListHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.requireOwner(w, r, id) {
		return
	}

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	list, err := h.service.RenameList(r.Context(), id, payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Msg("Failed to rename list")
		respondError(w, err, "Failed to rename list")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// Delete handles the request to delete a list. Owner only.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.requireOwner(w, r, id) {
		return
	}

	if err := h.service.DeleteList(r.Context(), id); err != nil {
		log.Error().Err(err).Str("list_id", id).Msg("Failed to delete list")
		respondError(w, err, "Failed to delete list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles the request to append an item to a list.
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.AddItem(r.Context(), id, payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Msg("Failed to add item")
		respondError(w, err, "Failed to add item")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles the request to rename an item.
func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	list, err := h.service.UpdateItem(r.Context(), id, itemID, payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Str("item_id", itemID).Msg("Failed to update item")
		respondError(w, err, "Failed to update item")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// ToggleItem handles the request to flip an item's checked state.
func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	list, err := h.service.ToggleItemChecked(r.Context(), id, itemID)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Str("item_id", itemID).Msg("Failed to toggle item")
		respondError(w, err, "Failed to toggle item")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// DeleteItem handles the request to remove an item.
func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	list, err := h.service.DeleteItem(r.Context(), id, itemID)
	if err != nil {
		log.Warn().Err(err).Str("list_id", id).Str("item_id", itemID).Msg("Failed to delete item")
		respondError(w, err, "Failed to delete item")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// requireOwner fetches the list and checks the caller owns it. Writes the
// response itself when the check fails.
func (h *ListHandler) requireOwner(w http.ResponseWriter, r *http.Request, listID string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return false
	}

	list, err := h.service.GetListByID(r.Context(), listID)
	if err != nil {
		respondError(w, err, "Failed to retrieve list")
		return false
	}
	if list.OwnerID != claims.UserID {
		http.Error(w, "Only the list owner may do this", http.StatusForbidden)
		return false
	}
	return true
}
