// Package sqlite provides a SQLite-backed outbox queue for hosts that
// prefer a single database file over a record directory. The contract is
// identical to the filesystem queue: idempotent enqueue by event id,
// id-ordered listing, corrupt rows deleted during listing, ack tolerant of
// missing rows.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/perimetric/faultline/pkg/faultline/outbox"
)

// Queue is a SQLite implementation of outbox.Queue.
type Queue struct {
	db *sql.DB
}

var _ outbox.Queue = (*Queue)(nil)

// New opens (creating if needed) the database at path and initializes the
// outbox schema.
func New(path string) (*Queue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("outbox sqlite: open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("outbox sqlite: enable WAL: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("outbox sqlite: init schema: %w", err)
	}
	return &Queue{db: db}, nil
}

// Enqueue inserts the payload under the event id. INSERT OR IGNORE makes
// retried enqueues of the same id no-ops.
func (q *Queue) Enqueue(id string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("outbox sqlite: marshal %s: %w", id, err)
	}
	_, err = q.db.Exec(
		`INSERT OR IGNORE INTO outbox (id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("outbox sqlite: enqueue %s: %w", id, err)
	}
	return nil
}

// Pending lists rows in id order. Rows whose payload fails to parse are
// deleted and skipped.
func (q *Queue) Pending() ([]outbox.Entry, error) {
	rows, err := q.db.Query(`SELECT id, payload FROM outbox ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("outbox sqlite: list: %w", err)
	}
	defer rows.Close()

	var entries []outbox.Entry
	var corrupt []string
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("outbox sqlite: scan: %w", err)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			corrupt = append(corrupt, id)
			continue
		}
		entries = append(entries, outbox.Entry{ID: id, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox sqlite: iterate: %w", err)
	}

	for _, id := range corrupt {
		// Corrupt row: delete so it never blocks the queue.
		_, _ = q.db.Exec(`DELETE FROM outbox WHERE id = ?`, id)
	}
	return entries, nil
}

// Ack deletes the row for id. A missing row is not an error.
func (q *Queue) Ack(id string) error {
	if _, err := q.db.Exec(`DELETE FROM outbox WHERE id = ?`, id); err != nil {
		return fmt.Errorf("outbox sqlite: ack %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (q *Queue) Close() error {
	return q.db.Close()
}
