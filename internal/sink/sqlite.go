package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/pkg/typerep"
)

const schema = `CREATE TABLE IF NOT EXISTS trees (
	request_id TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	source     TEXT NOT NULL,
	type_name  TEXT NOT NULL,
	tree       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS trees_name ON trees (name, created_at);`

// ErrNotFound is returned by Lookup when no tree is stored under a name.
var ErrNotFound = errors.New("tree not found")

// SQLiteSink stores each result as a row keyed by request ID.
type SQLiteSink struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared between calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteSink{db: db, now: time.Now}, nil
}

func (s *SQLiteSink) Emit(ctx context.Context, r pipeline.Result) error {
	data, err := typerep.Marshal(r.Tree.Type)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s: %w", r.Name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trees (request_id, name, source, type_name, tree, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RequestID, r.Name, r.Source, r.TypeName, string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite: storing %s: %w", r.Name, err)
	}
	return nil
}

// Lookup returns the most recently stored result for name.
func (s *SQLiteSink) Lookup(ctx context.Context, name string) (pipeline.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT request_id, source, type_name, tree FROM trees WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		name)

	res := pipeline.Result{Name: name}
	var data string
	if err := row.Scan(&res.RequestID, &res.Source, &res.TypeName, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.Result{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return pipeline.Result{}, fmt.Errorf("sqlite: lookup %s: %w", name, err)
	}
	tree, err := typerep.Unmarshal([]byte(data))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("sqlite: decoding %s: %w", name, err)
	}
	res.Tree = typerep.Tree{Type: tree}
	return res, nil
}

// Names lists the distinct stored target names, sorted.
func (s *SQLiteSink) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM trees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
