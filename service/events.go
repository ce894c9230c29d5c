package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/schoolmate/storage"
)

// Events manages school events.
type Events struct {
	store storage.EventStore
}

// NewEvents creates an event service.
func NewEvents(store storage.EventStore) *Events {
	return &Events{store: store}
}

// Upcoming lists events matching filter ordered by date. The filter is applied
// as given; no implicit lower date bound is added.
func (e *Events) Upcoming(ctx context.Context, filter storage.EventFilter) ([]storage.Event, error) {
	events, err := e.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Create stores a new event and assigns its id.
func (e *Events) Create(ctx context.Context, ev storage.Event) (storage.Event, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return storage.Event{}, invalid("event title is required")
	}
	if strings.TrimSpace(ev.Type) == "" {
		return storage.Event{}, invalid("event type is required")
	}
	if ev.EventDate.IsZero() {
		return storage.Event{}, invalid("event date is required")
	}
	ev.ID = uuid.NewString()
	if err := e.store.PutEvent(ctx, ev); err != nil {
		return storage.Event{}, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

// Get returns one event.
func (e *Events) Get(ctx context.Context, id string) (storage.Event, error) {
	return e.store.GetEvent(ctx, id)
}

// Update replaces an existing event.
func (e *Events) Update(ctx context.Context, ev storage.Event) (storage.Event, error) {
	if _, err := e.store.GetEvent(ctx, ev.ID); err != nil {
		return storage.Event{}, err
	}
	if err := e.store.PutEvent(ctx, ev); err != nil {
		return storage.Event{}, fmt.Errorf("update event: %w", err)
	}
	return ev, nil
}

// Delete removes an event.
func (e *Events) Delete(ctx context.Context, id string) error {
	return e.store.DeleteEvent(ctx, id)
}
