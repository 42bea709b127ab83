package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lmoren/listly-be/internal/apperr"
	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/models"
	ws "github.com/lmoren/listly-be/internal/websocket"
)

// ListServiceProvider defines the interface for list services.
type ListServiceProvider interface {
	CreateList(ctx context.Context, name, ownerID string) (models.List, error)
	GetListsByOwner(ctx context.Context, ownerID string) ([]models.List, error)
	GetListByID(ctx context.Context, id string) (models.List, error)
	RenameList(ctx context.Context, id, newName string) (models.List, error)
	DeleteList(ctx context.Context, id string) error
	AddItem(ctx context.Context, listID, name string) (models.Item, error)
	UpdateItem(ctx context.Context, listID, itemID, newName string) (models.List, error)
	DeleteItem(ctx context.Context, listID, itemID string) (models.List, error)
	ToggleItemChecked(ctx context.Context, listID, itemID string) (models.List, error)
}

// ListService provides business logic for lists and their embedded items.
//
// Every item mutation is a fresh read of the list document followed by a
// rewrite of the full items array; the store offers no way to address an
// element inside an embedded array by a business key. Two concurrent item
// mutations on the same list therefore race at document granularity and the
// last writer wins. That limitation is inherited from the storage model and
// deliberately not papered over here.
type ListService struct {
	store  docstore.Store
	events EventServiceProvider
	hub    Publisher
}

// NewListService creates a new ListService.
func NewListService(store docstore.Store, events EventServiceProvider, hub Publisher) *ListService {
	return &ListService{store: store, events: events, hub: hub}
}

// CreateList creates an empty list owned by ownerID.
func (s *ListService) CreateList(ctx context.Context, name, ownerID string) (models.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.List{}, apperr.Validation("list name must not be empty")
	}

	list := models.List{
		Name:       name,
		OwnerID:    ownerID,
		Items:      []models.Item{},
		SharedWith: []string{},
		CreatedAt:  time.Now().UTC(),
	}
	fields, err := docstore.Encode(list)
	if err != nil {
		return models.List{}, err
	}

	id, err := s.store.Insert(ctx, docstore.CollectionLists, fields)
	if err != nil {
		return models.List{}, fmt.Errorf("failed to create list: %w", err)
	}
	list.ID = id

	s.appendEvent(ctx, "list.create", "info", fmt.Sprintf("List %q created.", name), id)
	return list, nil
}

// GetListsByOwner returns all lists owned by ownerID; an empty slice if none.
func (s *ListService) GetListsByOwner(ctx context.Context, ownerID string) ([]models.List, error) {
	docs, err := s.store.QueryEquals(ctx, docstore.CollectionLists, "ownerId", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	return decodeLists(docs)
}

// GetListByID retrieves a single list.
func (s *ListService) GetListByID(ctx context.Context, id string) (models.List, error) {
	fields, err := s.store.GetByID(ctx, docstore.CollectionLists, id)
	if err == docstore.ErrNotFound {
		return models.List{}, apperr.NotFound("list", id)
	}
	if err != nil {
		return models.List{}, fmt.Errorf("failed to get list: %w", err)
	}

	var list models.List
	if err := docstore.Decode(fields, &list); err != nil {
		return models.List{}, err
	}
	list.ID = id
	normalizeList(&list)
	return list, nil
}

// RenameList changes a list's display name.
func (s *ListService) RenameList(ctx context.Context, id, newName string) (models.List, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.List{}, apperr.Validation("list name must not be empty")
	}

	list, err := s.GetListByID(ctx, id)
	if err != nil {
		return models.List{}, err
	}

	err = s.store.ReplaceFields(ctx, docstore.CollectionLists, id, docstore.Fields{"name": newName})
	if err == docstore.ErrNotFound {
		return models.List{}, apperr.NotFound("list", id)
	}
	if err != nil {
		return models.List{}, fmt.Errorf("failed to rename list: %w", err)
	}

	list.Name = newName
	s.notifyList(list.ID)
	return list, nil
}

// DeleteList removes a list. Deleting a missing id is a no-op, matching
// DeleteItem; callers that need an existence signal should fetch first.
func (s *ListService) DeleteList(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, docstore.CollectionLists, id); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// AddItem appends a new unchecked item to the list. Item names are unique
// within a list under case-insensitive comparison.
func (s *ListService) AddItem(ctx context.Context, listID, name string) (models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Item{}, apperr.Validation("item name must not be empty")
	}

	list, err := s.GetListByID(ctx, listID)
	if err != nil {
		return models.Item{}, err
	}
	if list.HasItemNamed(name, "") {
		return models.Item{}, apperr.Duplicate("item", name)
	}

	item := models.Item{
		ID:      uuid.New().String(),
		Name:    name,
		Checked: false,
	}
	if err := s.writeItems(ctx, listID, append(list.Items, item)); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// UpdateItem renames an item, preserving its id, checked state and position.
func (s *ListService) UpdateItem(ctx context.Context, listID, itemID, newName string) (models.List, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.List{}, apperr.Validation("item name must not be empty")
	}

	list, err := s.GetListByID(ctx, listID)
	if err != nil {
		return models.List{}, err
	}

	idx := list.ItemIndex(itemID)
	if idx < 0 {
		return models.List{}, apperr.NotFound("item", itemID)
	}
	if list.HasItemNamed(newName, itemID) {
		return models.List{}, apperr.Duplicate("item", newName)
	}

	list.Items[idx].Name = newName
	if err := s.writeItems(ctx, listID, list.Items); err != nil {
		return models.List{}, err
	}
	return list, nil
}

// DeleteItem removes an item from the list. A missing item id is a no-op;
// callers must not rely on an error signal for "already removed".
func (s *ListService) DeleteItem(ctx context.Context, listID, itemID string) (models.List, error) {
	list, err := s.GetListByID(ctx, listID)
	if err != nil {
		return models.List{}, err
	}

	idx := list.ItemIndex(itemID)
	if idx < 0 {
		return list, nil
	}

	list.Items = append(list.Items[:idx], list.Items[idx+1:]...)
	if err := s.writeItems(ctx, listID, list.Items); err != nil {
		return models.List{}, err
	}
	return list, nil
}

// ToggleItemChecked flips an item's checked state.
func (s *ListService) ToggleItemChecked(ctx context.Context, listID, itemID string) (models.List, error) {
	list, err := s.GetListByID(ctx, listID)
	if err != nil {
		return models.List{}, err
	}

	idx := list.ItemIndex(itemID)
	if idx < 0 {
		return models.List{}, apperr.NotFound("item", itemID)
	}

	list.Items[idx].Checked = !list.Items[idx].Checked
	if err := s.writeItems(ctx, listID, list.Items); err != nil {
		return models.List{}, err
	}
	return list, nil
}

// writeItems persists the full items array and notifies watchers.
func (s *ListService) writeItems(ctx context.Context, listID string, items []models.Item) error {
	err := s.store.ReplaceFields(ctx, docstore.CollectionLists, listID, docstore.Fields{"items": items})
	if err == docstore.ErrNotFound {
		return apperr.NotFound("list", listID)
	}
	if err != nil {
		return fmt.Errorf("failed to update list items: %w", err)
	}
	s.notifyList(listID)
	return nil
}

// appendEvent records an activity event. Event delivery is at-least-once:
// the mutation has already committed, so a failed append is logged and
// dropped rather than surfaced to the caller.
func (s *ListService) appendEvent(ctx context.Context, eventType, level, message, listID string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, &listID); err != nil {
		log.Error().Err(err).Str("list_id", listID).Str("type", eventType).Msg("Failed to append event")
	}
}

func (s *ListService) notifyList(listID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastTo(listID, ws.NewMessage(ws.ActionListUpdated, map[string]string{"listId": listID}))
}

func normalizeList(list *models.List) {
	if list.Items == nil {
		list.Items = []models.Item{}
	}
	if list.SharedWith == nil {
		list.SharedWith = []string{}
	}
}

func decodeLists(docs []docstore.Document) ([]models.List, error) {
	lists := make([]models.List, 0, len(docs))
	for _, doc := range docs {
		var list models.List
		if err := docstore.Decode(doc.Fields, &list); err != nil {
			return nil, err
		}
		list.ID = doc.ID
		normalizeList(&list)
		lists = append(lists, list)
	}
	return lists, nil
}
