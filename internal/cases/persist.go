package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Persister is the persistence substrate: whole-state snapshots, exclusively
// owned by one Store. Load returns an empty state when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// SQLitePersister keeps the snapshot as a single JSON row.
type SQLitePersister struct {
	db *sql.DB
}

func NewSQLitePersister(path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS store_snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Close() {
	if p.db != nil {
		_ = p.db.Close()
	}
}

func (p *SQLitePersister) Load(ctx context.Context) (*State, error) {
	row := p.db.QueryRowContext(ctx, `SELECT payload FROM store_snapshot WHERE id = 1`)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &State{}, nil
		}
		return nil, err
	}
	state := &State{}
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}

func (p *SQLitePersister) Save(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO store_snapshot (id, payload, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`, payload, time.Now().Unix())
	return err
}

// FilePersister writes the snapshot to one JSON file via temp-and-rename, so
// a crash mid-write never leaves a partial state behind.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load(_ context.Context) (*State, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return state, nil
}

func (p *FilePersister) Save(_ context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, p.path)
}

// MemoryPersister backs tests and is also useful for ephemeral deployments.
type MemoryPersister struct {
	state *State
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(_ context.Context) (*State, error) {
	if p.state == nil {
		return &State{}, nil
	}
	return p.state, nil
}

func (p *MemoryPersister) Save(_ context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	saved := &State{}
	if err := json.Unmarshal(data, saved); err != nil {
		return err
	}
	p.state = saved
	return nil
}
