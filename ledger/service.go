package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/billbatista/eventfund/eventlogger"
)

// Service runs every ledger operation as one read-modify-write cycle per
// key. Mutations are serialized so concurrent requests cannot lose updates;
// keys are still written one at a time with no cross-key atomicity.
type Service struct {
	repo   Repository
	audit  eventlogger.Logger
	now    func() time.Time
	window int

	mu sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithActiveWindow(days int) Option {
	return func(s *Service) {
		s.window = days
	}
}

func WithAuditLogger(l eventlogger.Logger) Option {
	return func(s *Service) {
		s.audit = l
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		audit:  eventlogger.Discard,
		now:    time.Now,
		window: DefaultActiveWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type DeleteOptions struct {
	// KeepRecord leaves the ledger document in place and only drops the
	// index entry.
	KeepRecord bool
}

func checkUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	return nil
}

// CreateEvent stores a new record under its own key and appends a reference
// to the user's index. Names are unique across the whole store.
func (s *Service) CreateEvent(ctx context.Context, username string, in NewEventInput) (Event, error) {
	if err := checkUsername(username); err != nil {
		return Event{}, err
	}
	event, err := NewEvent(in, s.now())
	if err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.repo.GetEvent(ctx, event.Name)
	if err == nil {
		return Event{}, fmt.Errorf("%w: %q", ErrEventExists, event.Name)
	}
	if !errors.Is(err, ErrNotFound) {
		return Event{}, err
	}

	index, err := s.repo.GetIndex(ctx, username)
	if err != nil {
		return Event{}, err
	}
	// ids come from the clock; events created within one millisecond
	// take the next free id.
	for {
		if _, taken := index.Find(event.ID); !taken {
			break
		}
		event.ID++
	}

	if err := s.repo.SaveEvent(ctx, event); err != nil {
		return Event{}, err
	}
	index.Add(event.Reference())
	if err := s.repo.SaveIndex(ctx, username, *index); err != nil {
		slog.Error("event saved but index update failed", "error", err, "event", event.Name, "username", username)
		return Event{}, err
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeEventCreated),
		eventlogger.WithActor(username),
		eventlogger.WithData(EventCreatedEvent{
			Username:     username,
			EventID:      event.ID,
			Name:         event.Name,
			Date:         event.Date,
			ExpenseTypes: event.ExpenseTypes,
		}),
	))
	return event, nil
}

func (s *Service) ListEvents(ctx context.Context, username string) ([]Reference, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	index, err := s.repo.GetIndex(ctx, username)
	if err != nil {
		return nil, err
	}
	return index.Events, nil
}

func (s *Service) ActiveEvents(ctx context.Context, username string) ([]Reference, error) {
	refs, err := s.ListEvents(ctx, username)
	if err != nil {
		return nil, err
	}
	active := slices.Collect(Active(refs, s.now(), s.window))
	if active == nil {
		active = []Reference{}
	}
	return active, nil
}

// Lookup finds an event in the user's index.
func (s *Service) Lookup(ctx context.Context, username string, id int64) (Reference, error) {
	if err := checkUsername(username); err != nil {
		return Reference{}, err
	}
	index, err := s.repo.GetIndex(ctx, username)
	if err != nil {
		return Reference{}, err
	}
	ref, ok := index.Find(id)
	if !ok {
		return Reference{}, fmt.Errorf("%w: id %d", ErrEventNotFound, id)
	}
	return ref, nil
}

// OpenEvent loads the record behind an index entry. When the record document
// is missing it is recreated, empty, from the reference.
func (s *Service) OpenEvent(ctx context.Context, username string, id int64) (Event, error) {
	ref, err := s.Lookup(ctx, username, id)
	if err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.repo.GetEvent(ctx, ref.Name)
	if err == nil {
		return *event, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Event{}, err
	}

	fresh := FromReference(ref)
	if err := s.repo.SaveEvent(ctx, fresh); err != nil {
		return Event{}, err
	}
	slog.Info("materialized missing event record", "event", ref.Name, "username", username)
	return fresh, nil
}

// GetEvent returns the full record, for the history view.
func (s *Service) GetEvent(ctx context.Context, name string) (Event, error) {
	event, err := s.repo.GetEvent(ctx, name)
	if err != nil {
		return Event{}, err
	}
	if err := event.Check(); err != nil {
		slog.Warn("event record is inconsistent", "event", name, "error", err)
	}
	return *event, nil
}

func (s *Service) Statistics(ctx context.Context, name string) (Stats, error) {
	event, err := s.GetEvent(ctx, name)
	if err != nil {
		return Stats{}, err
	}
	return Statistics(event), nil
}

func (s *Service) AddFundraiser(ctx context.Context, name string, in FundraiserInput) (Event, error) {
	if _, err := in.Validate(); err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.repo.GetEvent(ctx, name)
	if err != nil {
		return Event{}, err
	}
	f, err := event.AddFundraiser(in)
	if err != nil {
		return Event{}, err
	}
	if err := s.repo.SaveEvent(ctx, *event); err != nil {
		return Event{}, err
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeFundraiserAdded),
		eventlogger.WithData(FundraiserAddedEvent{
			Event:       event.Name,
			Fundraiser:  f.Name,
			Amount:      f.Amount.String(),
			TotalAmount: event.TotalAmount.String(),
		}),
	))
	return *event, nil
}

func (s *Service) AddExpense(ctx context.Context, name string, in ExpenseInput) (Event, error) {
	if _, err := in.Validate(); err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.repo.GetEvent(ctx, name)
	if err != nil {
		return Event{}, err
	}
	x, err := event.AddExpense(in)
	if err != nil {
		return Event{}, err
	}
	if err := s.repo.SaveEvent(ctx, *event); err != nil {
		return Event{}, err
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeExpenseAdded),
		eventlogger.WithData(ExpenseAddedEvent{
			Event:       event.Name,
			Type:        x.Type,
			Amount:      x.Amount.String(),
			HasPhoto:    x.Photo != "",
			TotalAmount: event.TotalAmount.String(),
		}),
	))
	return *event, nil
}

// DeleteEvent drops the event from the user's index and, unless told to keep
// it, removes the ledger record too. A record that is already gone is fine.
func (s *Service) DeleteEvent(ctx context.Context, username string, id int64, opts DeleteOptions) (Reference, error) {
	if err := checkUsername(username); err != nil {
		return Reference{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.repo.GetIndex(ctx, username)
	if err != nil {
		return Reference{}, err
	}
	ref, ok := index.Remove(id)
	if !ok {
		return Reference{}, fmt.Errorf("%w: id %d", ErrEventNotFound, id)
	}
	if err := s.repo.SaveIndex(ctx, username, *index); err != nil {
		return Reference{}, err
	}

	if !opts.KeepRecord {
		if err := s.repo.RemoveEvent(ctx, ref.Name); err != nil {
			slog.Error("index entry removed but record removal failed", "error", err, "event", ref.Name)
			return Reference{}, err
		}
	}

	s.audit.Log(eventlogger.NewEvent(
		eventlogger.WithType(EventTypeEventDeleted),
		eventlogger.WithActor(username),
		eventlogger.WithData(EventDeletedEvent{
			Username:   username,
			EventID:    ref.ID,
			Name:       ref.Name,
			RecordKept: opts.KeepRecord,
		}),
	))
	return ref, nil
}
