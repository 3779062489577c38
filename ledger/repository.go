package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/billbatista/eventfund/store"
)

type Repository interface {
	GetEvent(ctx context.Context, name string) (*Event, error)
	SaveEvent(ctx context.Context, event Event) error
	RemoveEvent(ctx context.Context, name string) error
	GetIndex(ctx context.Context, username string) (*Index, error)
	SaveIndex(ctx context.Context, username string, index Index) error
}

type repository struct {
	store store.Store
	keys  store.Keyspace
}

func NewRepository(s store.Store, keys store.Keyspace) *repository {
	return &repository{store: s, keys: keys}
}

func (r *repository) GetEvent(ctx context.Context, name string) (*Event, error) {
	var event Event
	err := store.GetJSON(ctx, r.store, r.keys.Event(name), &event)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrEventNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading event %q: %w", name, err)
	}
	event.normalize()
	if event.Name == "" {
		event.Name = name
	}
	return &event, nil
}

func (r *repository) SaveEvent(ctx context.Context, event Event) error {
	event.normalize()
	if err := store.SetJSON(ctx, r.store, r.keys.Event(event.Name), event); err != nil {
		return fmt.Errorf("saving event %q: %w", event.Name, err)
	}
	return nil
}

func (r *repository) RemoveEvent(ctx context.Context, name string) error {
	if err := r.store.Remove(ctx, r.keys.Event(name)); err != nil {
		return fmt.Errorf("removing event %q: %w", name, err)
	}
	return nil
}

// GetIndex returns an empty index for users that never created an event.
func (r *repository) GetIndex(ctx context.Context, username string) (*Index, error) {
	var index Index
	err := store.GetJSON(ctx, r.store, r.keys.Index(username), &index)
	if errors.Is(err, store.ErrNotFound) {
		return &Index{Events: []Reference{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading index of %q: %w", username, err)
	}
	if index.Events == nil {
		index.Events = []Reference{}
	}
	return &index, nil
}

func (r *repository) SaveIndex(ctx context.Context, username string, index Index) error {
	if index.Events == nil {
		index.Events = []Reference{}
	}
	if err := store.SetJSON(ctx, r.store, r.keys.Index(username), index); err != nil {
		return fmt.Errorf("saving index of %q: %w", username, err)
	}
	return nil
}
