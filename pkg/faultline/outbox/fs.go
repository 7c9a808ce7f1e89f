// fs.go implements the filesystem-backed queue: one <id>.json file per
// pending event, written atomically via a temp file and rename.

package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const recordExt = ".json"

// FSQueue stores pending records as JSON files in a directory.
type FSQueue struct {
	dir string
}

// NewFS creates (if needed) the directory and returns a queue over it.
func NewFS(dir string) (*FSQueue, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("outbox: create dir: %w", err)
	}
	return &FSQueue{dir: dir}, nil
}

// Enqueue writes the payload to <id>.json. The write is atomic: a temp file
// is written and synced, then renamed into place. Re-enqueueing the same id
// overwrites the identical record, so retries are idempotent.
func (q *FSQueue) Enqueue(id string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("outbox: marshal %s: %w", id, err)
	}

	final := q.path(id)
	tmp, err := os.CreateTemp(q.dir, id+".tmp-*")
	if err != nil {
		return fmt.Errorf("outbox: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("outbox: write %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("outbox: sync %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("outbox: close %s: %w", id, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("outbox: rename %s: %w", id, err)
	}
	return nil
}

// Pending lists records in filename order. A record that fails to read or
// parse is deleted immediately and skipped.
func (q *FSQueue) Pending() ([]Entry, error) {
	dirEntries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("outbox: list: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), recordExt) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		path := filepath.Join(q.dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			os.Remove(path)
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			// Corrupt record: delete so it never blocks the queue.
			os.Remove(path)
			continue
		}
		entries = append(entries, Entry{
			ID:      strings.TrimSuffix(name, recordExt),
			Payload: payload,
		})
	}
	return entries, nil
}

// Ack removes the record for id. Missing records are fine: the event was
// already acknowledged or never enqueued.
func (q *FSQueue) Ack(id string) error {
	err := os.Remove(q.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("outbox: ack %s: %w", id, err)
	}
	return nil
}

func (q *FSQueue) path(id string) string {
	return filepath.Join(q.dir, id+recordExt)
}
