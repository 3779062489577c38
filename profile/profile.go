// Package profile stores each user's display profile. The event count is
// never trusted from storage; it is derived from the user's event index.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/store"
)

var ErrEmptyUsername = errors.New("username can't be empty")

type Profile struct {
	ProfileImage *string `json:"profileImage"`
	UserName     string  `json:"userName"`
	EventCount   int     `json:"eventCount"`
}

type Input struct {
	ProfileImage *string `json:"profileImage"`
	UserName     string  `json:"userName"`
}

type Repository interface {
	Get(ctx context.Context, username string) (*Profile, error)
	Save(ctx context.Context, username string, in Input) (*Profile, error)
}

// EventIndex is the part of the ledger repository profiles depend on.
type EventIndex interface {
	GetIndex(ctx context.Context, username string) (*ledger.Index, error)
}

type repository struct {
	store  store.Store
	keys   store.Keyspace
	events EventIndex
}

func NewRepository(s store.Store, keys store.Keyspace, events EventIndex) *repository {
	return &repository{store: s, keys: keys, events: events}
}

// Get returns an empty profile for users that never saved one.
func (r *repository) Get(ctx context.Context, username string) (*Profile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}

	var p Profile
	err := store.GetJSON(ctx, r.store, r.keys.Profile(username), &p)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading profile of %q: %w", username, err)
	}

	count, err := r.eventCount(ctx, username)
	if err != nil {
		return nil, err
	}
	p.EventCount = count
	return &p, nil
}

func (r *repository) Save(ctx context.Context, username string, in Input) (*Profile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}

	count, err := r.eventCount(ctx, username)
	if err != nil {
		return nil, err
	}

	image := in.ProfileImage
	if image != nil && strings.TrimSpace(*image) == "" {
		image = nil
	}
	p := &Profile{
		ProfileImage: image,
		UserName:     strings.TrimSpace(in.UserName),
		EventCount:   count,
	}
	if err := store.SetJSON(ctx, r.store, r.keys.Profile(username), p); err != nil {
		return nil, fmt.Errorf("saving profile of %q: %w", username, err)
	}
	return p, nil
}

func (r *repository) eventCount(ctx context.Context, username string) (int, error) {
	index, err := r.events.GetIndex(ctx, username)
	if err != nil {
		return 0, err
	}
	return len(index.Events), nil
}
