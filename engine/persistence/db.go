// Package persistence stores match snapshots in SQLite. Each save is one row
// holding an LZ4-compressed JSON document and its BLAKE3 checksum.
package persistence

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/1siamBot/tactics-engine/engine/core"
)

var (
	// ErrNotFound is returned for an unknown save id, or by Latest on an
	// empty store.
	ErrNotFound = errors.New("save not found")
	// ErrChecksum means the stored blob does not match its checksum.
	ErrChecksum = errors.New("save checksum mismatch")
)

// formatVersion is written into every document
const formatVersion = 1

// State is everything needed to resume a match. Unit scripts travel
// verbatim as block lists.
type State struct {
	Version    int                 `json:"version"`
	Turn       core.TurnState      `json:"turn"`
	Treasury   int                 `json:"treasury"`
	LastIncome int                 `json:"lastIncome"`
	Units      []core.Unit         `json:"units"`
	Points     []core.CapturePoint `json:"points"`
	MapName    string              `json:"map,omitempty"`
}

// Summary is one row of List
type Summary struct {
	ID        string     `db:"id"`
	CreatedAt time.Time  `db:"-"`
	Created   int64      `db:"created_at"`
	Turn      int        `db:"turn"`
	Phase     core.Phase `db:"phase"`
	Treasury  int        `db:"treasury"`
}

type row struct {
	Summary
	Checksum string `db:"checksum"`
	Blob     []byte `db:"blob"`
}

// DB wraps a SQLite connection for match saves.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		phase TEXT NOT NULL,
		treasury INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		blob BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS save_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Save writes st as a new save and returns its id.
func (db *DB) Save(ctx context.Context, st State) (string, error) {
	st.Version = formatVersion
	doc, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	blob, err := compress(doc)
	if err != nil {
		return "", fmt.Errorf("compress state: %w", err)
	}

	id := uuid.NewString()
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO saves
		(id, created_at, turn, phase, treasury, checksum, blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, db.now().UnixNano(), st.Turn.Number, string(st.Turn.Phase), st.Treasury, checksum(doc), blob)
	if err != nil {
		return "", fmt.Errorf("insert save: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO save_meta (key, value) VALUES ('latest', ?)", id); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Load reads and verifies one save.
func (db *DB) Load(ctx context.Context, id string) (State, error) {
	var r row
	err := db.conn.GetContext(ctx, &r,
		"SELECT id, created_at, turn, phase, treasury, checksum, blob FROM saves WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return State{}, fmt.Errorf("query save: %w", err)
	}

	doc, err := decompress(r.Blob)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w: %v", id, ErrChecksum, err)
	}
	if checksum(doc) != r.Checksum {
		return State{}, fmt.Errorf("%s: %w", id, ErrChecksum)
	}
	var st State
	if err := json.Unmarshal(doc, &st); err != nil {
		return State{}, fmt.Errorf("decode save %s: %w", id, err)
	}
	if st.Version != formatVersion {
		return State{}, fmt.Errorf("save %s has version %d, want %d", id, st.Version, formatVersion)
	}
	return st, nil
}

// List returns every save, newest first.
func (db *DB) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := db.conn.SelectContext(ctx, &out,
		"SELECT id, created_at, turn, phase, treasury FROM saves ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = time.Unix(0, out[i].Created).UTC()
	}
	return out, nil
}

// Latest loads the most recently written save.
func (db *DB) Latest(ctx context.Context) (State, string, error) {
	id, err := db.GetMeta(ctx, "latest")
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, "", ErrNotFound
	}
	if err != nil {
		return State{}, "", err
	}
	st, err := db.Load(ctx, id)
	return st, id, err
}

// SaveMeta stores a key-value pair in save metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO save_meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM save_meta WHERE key = ?", key)
	return value, err
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
