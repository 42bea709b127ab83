package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lmoren/listly-be/internal/docstore"
	"github.com/lmoren/listly-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, listID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// EventService provides business logic for the activity feed.
type EventService struct {
	store docstore.Store
}

// NewEventService creates a new EventService.
func NewEventService(store docstore.Store) *EventService {
	return &EventService{store: store}
}

// CreateEvent appends a new event to the feed.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, listID *string) error {
	event := models.Event{
		Type:      eventType,
		Level:     level,
		Message:   message,
		ListID:    listID,
		CreatedAt: time.Now().UTC(),
	}

	fields, err := docstore.Encode(event)
	if err != nil {
		return err
	}
	if _, err := s.store.Insert(ctx, docstore.CollectionEvents, fields); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	events, err := s.allEvents(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// PruneOlderThan deletes events created before cutoff and returns how many
// were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	events, err := s.allEvents(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, event := range events {
		if event.CreatedAt.Before(cutoff) {
			if err := s.store.DeleteByID(ctx, docstore.CollectionEvents, event.ID); err != nil {
				return pruned, fmt.Errorf("failed to delete event %s: %w", event.ID, err)
			}
			pruned++
		}
	}
	return pruned, nil
}

func (s *EventService) allEvents(ctx context.Context) ([]models.Event, error) {
	docs, err := s.store.All(ctx, docstore.CollectionEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		var event models.Event
		if err := docstore.Decode(doc.Fields, &event); err != nil {
			return nil, err
		}
		event.ID = doc.ID
		events = append(events, event)
	}
	return events, nil
}
