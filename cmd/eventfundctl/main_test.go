package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/billbatista/eventfund/config"
	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/ledger"
)

func seed(t *testing.T) ledger.Event {
	t.Helper()
	t.Setenv("EVENTFUND_STORE", config.StoreSQLite)
	t.Setenv("EVENTFUND_SQLITE_PATH", filepath.Join(t.TempDir(), "eventfund.db"))
	t.Setenv("EVENTFUND_AUDIT_DRIVER", "")
	return seedWith(t)
}

func seedWith(t *testing.T) ledger.Event {
	t.Helper()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	docs, err := cfg.OpenStore(ctx)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer docs.Close()

	svc, err := newService(cfg, docs, eventlogger.Discard)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}
	event, err := svc.CreateEvent(ctx, "alice", ledger.NewEventInput{
		Name:         "Picnic",
		Date:         time.Now().AddDate(0, 0, 3).Format(ledger.DateLayout),
		ExpenseTypes: []string{"Food"},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := svc.AddFundraiser(ctx, "Picnic", ledger.FundraiserInput{Name: "Bob", Amount: "50"}); err != nil {
		t.Fatalf("AddFundraiser: %v", err)
	}
	return event
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	eventsDeleteKeepRecord = false
	var out bytes.Buffer
	cmdRoot.SetOut(&out)
	cmdRoot.SetErr(&out)
	cmdRoot.SetArgs(args)
	err := cmdRoot.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEventsCommands(t *testing.T) {
	event := seed(t)
	id := fmt.Sprint(event.ID)

	out, err := run(t, "events", "list", "--user", "alice")
	if err != nil {
		t.Fatalf("events list: %v", err)
	}
	var refs []ledger.Reference
	if err := json.Unmarshal([]byte(out), &refs); err != nil || len(refs) != 1 || refs[0].Name != "Picnic" {
		t.Fatalf("events list: got %q, %v", out, err)
	}

	out, err = run(t, "events", "active", "--user", "alice")
	if err != nil {
		t.Fatalf("events active: %v", err)
	}
	refs = nil
	if err := json.Unmarshal([]byte(out), &refs); err != nil || len(refs) != 1 {
		t.Fatalf("events active: got %q, %v", out, err)
	}

	out, err = run(t, "events", "statistics", "--user", "alice", "--id", id)
	if err != nil {
		t.Fatalf("events statistics: %v", err)
	}
	var stats ledger.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decoding statistics %q: %v", out, err)
	}
	if !stats.Balance.Equal(ledger.MustAmount("50").Decimal) || stats.FundraiserCount != 1 {
		t.Fatalf("unexpected statistics %+v", stats)
	}

	if _, err := run(t, "events", "delete", "--user", "alice", "--id", id); err != nil {
		t.Fatalf("events delete: %v", err)
	}
	if _, err := run(t, "events", "show", "--user", "alice", "--id", id); err == nil {
		t.Fatal("expected show after delete to fail")
	}
}

func TestEventsDeleteIsAudited(t *testing.T) {
	dir := t.TempDir()
	auditDSN := filepath.Join(dir, "audit.db")
	t.Setenv("EVENTFUND_STORE", config.StoreSQLite)
	t.Setenv("EVENTFUND_SQLITE_PATH", filepath.Join(dir, "eventfund.db"))
	t.Setenv("EVENTFUND_AUDIT_DRIVER", "sqlite3")
	t.Setenv("EVENTFUND_AUDIT_DSN", auditDSN)
	event := seedWith(t)

	if _, err := run(t, "events", "delete", "--user", "alice", "--id", fmt.Sprint(event.ID)); err != nil {
		t.Fatalf("events delete: %v", err)
	}

	db, err := sql.Open("sqlite3", auditDSN)
	if err != nil {
		t.Fatalf("opening audit db: %v", err)
	}
	defer db.Close()

	events, err := eventlogger.NewSqlEventLogger(db).GetByType(context.Background(), ledger.EventTypeEventDeleted)
	if err != nil {
		t.Fatalf("GetByType: %v", err)
	}
	if len(events) != 1 || events[0].Metadata["actor"] != "alice" {
		t.Fatalf("audit events = %+v, want one event.deleted by alice", events)
	}
}

func TestEventsListRejectsBadKeyLayout(t *testing.T) {
	seed(t)
	t.Setenv("EVENTFUND_KEY_LAYOUT", "flat")
	if _, err := run(t, "events", "list", "--user", "alice"); err == nil {
		t.Fatal("expected key layout error")
	}
}
