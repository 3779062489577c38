package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// sqlEventLogger writes to an events table. The statements run unchanged on
// PostgreSQL and SQLite.
type sqlEventLogger struct {
	db *sql.DB
}

func NewSqlEventLogger(db *sql.DB) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) CreateTable(ctx context.Context) error {
	statement := `CREATE TABLE IF NOT EXISTS events (
        id TEXT PRIMARY KEY,
        event_type TEXT NOT NULL,
        event_data TEXT,
        event_metadata TEXT,
        created_at TIMESTAMP NOT NULL
    )`
	if _, err := el.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}
	return nil
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding event metadata: %w", err)
	}
	statement := `INSERT INTO events (id, event_type, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = el.db.ExecContext(ctx, statement, e.ID.String(), e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting event %s: %w", e.Type, err)
	}

	return nil
}

// GetByType returns events in insertion time order. Data comes back as
// json.RawMessage.
func (el *sqlEventLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events WHERE event_type = $1 ORDER BY created_at`
	result, err := el.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var event Event
		var jsonData, jsonMetadata sql.NullString
		if err := result.Scan(&event.ID, &event.Type, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		if jsonData.Valid {
			event.Data = json.RawMessage(jsonData.String)
		}
		metadata := make(map[string]string)
		if jsonMetadata.Valid {
			if err := json.Unmarshal([]byte(jsonMetadata.String), &metadata); err != nil {
				return events, fmt.Errorf("decoding metadata of event %s: %w", event.ID, err)
			}
		}
		event.Metadata = metadata

		events = append(events, event)
	}

	if err := result.Err(); err != nil {
		return events, err
	}

	return events, nil
}
