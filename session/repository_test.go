package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billbatista/eventfund/store"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	keys, _ := store.NewKeyspace(store.LayoutNamespaced)
	repo := NewRepository(store.NewMemory(), keys, time.Hour)

	sess, err := repo.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Token == "" {
		t.Fatalf("empty token")
	}

	got, err := repo.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.Username != "alice" || got.ID != sess.ID {
		t.Fatalf("GetByToken = %+v, want %+v", got, sess)
	}

	if err := repo.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByToken(ctx, sess.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("GetByToken after Delete error = %v, want ErrInvalidSession", err)
	}
}

func TestExpiredSession(t *testing.T) {
	ctx := context.Background()
	keys, _ := store.NewKeyspace(store.LayoutNamespaced)
	st := store.NewMemory()
	repo := NewRepository(st, keys, time.Minute)

	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return start }
	sess, err := repo.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	repo.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := repo.GetByToken(ctx, sess.Token); !errors.Is(err, ErrExpiredSession) {
		t.Fatalf("error = %v, want ErrExpiredSession", err)
	}
	if _, err := st.Get(ctx, keys.Session(sess.Token)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired session not removed")
	}
}

func TestUnknownToken(t *testing.T) {
	keys, _ := store.NewKeyspace(store.LayoutNamespaced)
	repo := NewRepository(store.NewMemory(), keys, 0)
	for _, token := range []string{"", "nope"} {
		if _, err := repo.GetByToken(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("GetByToken(%q) error = %v, want ErrInvalidSession", token, err)
		}
	}
}

type failingRemoveStore struct {
	*store.Memory
}

func (failingRemoveStore) Remove(ctx context.Context, key string) error {
	return store.ErrIO
}

func TestExpiredSessionRemoveFailure(t *testing.T) {
	ctx := context.Background()
	keys, _ := store.NewKeyspace(store.LayoutNamespaced)
	repo := NewRepository(failingRemoveStore{store.NewMemory()}, keys, time.Minute)

	start := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return start }
	sess, err := repo.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	repo.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := repo.GetByToken(ctx, sess.Token); !errors.Is(err, ErrExpiredSession) {
		t.Fatalf("error = %v, want ErrExpiredSession", err)
	}
}
