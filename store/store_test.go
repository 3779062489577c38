package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	b, err := OpenBadger(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Unexpected error opening badger: %v", err)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Unexpected error opening sqlite: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	s := NewSQL(db)
	if err := s.CreateTable(context.Background()); err != nil {
		t.Fatalf("Unexpected error creating table: %v", err)
	}

	backends := map[string]Store{
		"memory": NewMemory(),
		"badger": b,
		"sql":    s,
	}
	t.Cleanup(func() {
		for _, st := range backends {
			st.Close()
		}
	})
	return backends
}

func TestGetMissingKey(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "absent")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(absent) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSetOverwritesAndRemove(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "k", []byte(`{"a":2}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if diff := cmp.Diff(string(got), `{"a":2}`); diff != "" {
				t.Fatalf("Bad value; diff (-got +want)\n%s", diff)
			}

			if err := s.Remove(ctx, "k"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if err := s.Remove(ctx, "k"); err != nil {
				t.Fatalf("second Remove: %v", err)
			}
			if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after Remove error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestJSONRoundTripThroughStore(t *testing.T) {
	type doc struct {
		Events []string `json:"events"`
	}

	ctx := context.Background()
	s := NewMemory()
	if err := SetJSON(ctx, s, "alice", doc{Events: []string{"picnic"}}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got doc
	if err := GetJSON(ctx, s, "alice", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if diff := cmp.Diff(got, doc{Events: []string{"picnic"}}); diff != "" {
		t.Fatalf("Bad document; diff (-got +want)\n%s", diff)
	}
}

func TestGetJSONCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.Set(ctx, "broken", []byte("{not json"))

	var v map[string]any
	err := GetJSON(ctx, s, "broken", &v)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("GetJSON error = %v, want ErrIO", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	value := []byte("abc")
	s.Set(ctx, "k", value)
	value[0] = 'z'

	got, _ := s.Get(ctx, "k")
	got[1] = 'z'

	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value was aliased: %q", again)
	}
}

func TestKeyspaceLayouts(t *testing.T) {
	legacy, err := NewKeyspace(LayoutLegacy)
	if err != nil {
		t.Fatalf("NewKeyspace: %v", err)
	}
	namespaced, err := NewKeyspace("")
	if err != nil {
		t.Fatalf("NewKeyspace: %v", err)
	}

	got := []string{
		legacy.Users(), legacy.Index("bob"), legacy.Event("Picnic"), legacy.Profile("bob"), legacy.Session("t"),
		namespaced.Users(), namespaced.Index("bob"), namespaced.Event("Picnic"), namespaced.Profile("bob"), namespaced.Session("t"),
	}
	want := []string{
		"users", "bob", "Picnic", "bobprofile", "session:t",
		"users", "index/bob", "event/Picnic", "profile/bob", "session/t",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("Bad keys; diff (-got +want)\n%s", diff)
	}

	if _, err := NewKeyspace("flat"); err == nil {
		t.Fatalf("NewKeyspace(flat) succeeded, want error")
	}
}
