package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/typeforge/core/atom"
	"github.com/artpar/typeforge/core/convention"
	"github.com/artpar/typeforge/core/schema"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS elements (
	id         TEXT PRIMARY KEY,
	meta       TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS atoms (
	id         TEXT PRIMARY KEY,
	element_id TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_atoms_element_id ON atoms(element_id);
`

// SQLiteStore implements ElementStore with SQLite. Atoms exposes the same
// database as an AtomStore.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ElementStore = (*SQLiteStore)(nil)
	_ AtomStore    = sqliteAtoms{}
)

// NewSQLiteStore opens the database at path and creates the tables.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would see its own database
		db.SetMaxOpenConns(1)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := NewSQLiteStoreFromDB(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStoreFromDB creates a store from an existing connection.
// Call Migrate before use.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Migrate creates the tables when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the stored descriptor with id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*schema.Descriptor, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, meta, created_at, updated_at FROM elements WHERE id = ?", id)

	d, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	return d, err
}

// Save inserts or updates a descriptor.
func (s *SQLiteStore) Save(ctx context.Context, d *schema.Descriptor) error {
	if d.ID == "" {
		return errors.New("element id is required")
	}

	meta, err := d.MarshalMeta()
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	now := s.now().UTC()
	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO elements (id, meta, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET meta = excluded.meta, updated_at = excluded.updated_at`,
		d.ID, string(meta), created, now)
	if err != nil {
		return fmt.Errorf("save element %s: %w", d.ID, err)
	}

	d.CreatedAt = created
	d.UpdatedAt = now
	return nil
}

// Delete removes a descriptor.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "DELETE FROM elements WHERE id = ?", "element", id)
}

// List returns every stored descriptor.
func (s *SQLiteStore) List(ctx context.Context) ([]*schema.Descriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, meta, created_at, updated_at FROM elements ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var out []*schema.Descriptor
	for rows.Next() {
		d, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveAtom inserts or updates a record.
func (s *SQLiteStore) SaveAtom(ctx context.Context, r *atom.Record) error {
	if r.ID == "" {
		return errors.New("atom id is required")
	}

	data, err := json.Marshal(r.Persisted())
	if err != nil {
		return fmt.Errorf("encode atom data: %w", err)
	}

	r.Touch()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO atoms (id, element_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.ID, r.ElementID, string(data), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save atom %s: %w", r.ID, err)
	}
	return nil
}

// FindAtom returns the record with id.
func (s *SQLiteStore) FindAtom(ctx context.Context, id string) (*atom.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, element_id, data, created_at, updated_at FROM atoms WHERE id = ?", id)

	r, err := scanAtom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("atom %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListAtoms returns the records in scope.
func (s *SQLiteStore) ListAtoms(ctx context.Context, scope atom.Scope) ([]*atom.Record, error) {
	where, args := scopeClause(scope)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, element_id, data, created_at, updated_at FROM atoms"+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list atoms: %w", err)
	}
	defer rows.Close()

	var out []*atom.Record
	for rows.Next() {
		r, err := scanAtom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountAtoms returns the number of records in scope.
func (s *SQLiteStore) CountAtoms(ctx context.Context, scope atom.Scope) (int, error) {
	where, args := scopeClause(scope)
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM atoms"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count atoms: %w", err)
	}
	return n, nil
}

// DeleteAtom removes a record.
func (s *SQLiteStore) DeleteAtom(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "DELETE FROM atoms WHERE id = ?", "atom", id)
}

// Exists reports whether a record in scope other than exceptID holds value
// in field.
func (s *SQLiteStore) Exists(ctx context.Context, scope atom.Scope, field string, value any, exceptID string) (bool, error) {
	where, args := scopeClause(scope)
	if where == "" {
		where = " WHERE 1 = 1"
	}

	arg, err := jsonArg(value)
	if err != nil {
		return false, err
	}
	args = append(args, "$."+field, arg, exceptID)

	var one int
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM atoms"+where+" AND json_extract(data, ?) = ? AND id != ? LIMIT 1", args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check uniqueness of %s: %w", field, err)
	}
	return true, nil
}

// Atoms returns the store as an AtomStore.
func (s *SQLiteStore) Atoms() AtomStore {
	return sqliteAtoms{s}
}

// sqliteAtoms adapts the atom methods of SQLiteStore to AtomStore, whose
// method names collide with ElementStore.
type sqliteAtoms struct{ s *SQLiteStore }

func (a sqliteAtoms) Save(ctx context.Context, r *atom.Record) error { return a.s.SaveAtom(ctx, r) }
func (a sqliteAtoms) Find(ctx context.Context, id string) (*atom.Record, error) {
	return a.s.FindAtom(ctx, id)
}
func (a sqliteAtoms) List(ctx context.Context, scope atom.Scope) ([]*atom.Record, error) {
	return a.s.ListAtoms(ctx, scope)
}
func (a sqliteAtoms) Count(ctx context.Context, scope atom.Scope) (int, error) {
	return a.s.CountAtoms(ctx, scope)
}
func (a sqliteAtoms) Delete(ctx context.Context, id string) error { return a.s.DeleteAtom(ctx, id) }
func (a sqliteAtoms) Exists(ctx context.Context, scope atom.Scope, field string, value any, exceptID string) (bool, error) {
	return a.s.Exists(ctx, scope, field, value, exceptID)
}

func (s *SQLiteStore) deleteRow(ctx context.Context, query, kind, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElement(row scanner) (*schema.Descriptor, error) {
	var (
		id, meta             string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &meta, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	d := &schema.Descriptor{}
	if err := d.UnmarshalMeta([]byte(meta)); err != nil {
		return nil, fmt.Errorf("decode element %s: %w", id, err)
	}
	d.ID = id
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt
	return d, nil
}

func scanAtom(row scanner) (*atom.Record, error) {
	var (
		id, elementID, data  string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &elementID, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	values, err := decodeData([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode atom %s: %w", id, err)
	}
	return atom.Restore(id, elementID, values, createdAt, updatedAt), nil
}

func decodeData(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	values := make(map[string]any)
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}

func scopeClause(scope atom.Scope) (string, []any) {
	switch scope.Field {
	case "":
		return "", nil
	case convention.ScopeField:
		return " WHERE element_id = ?", []any{scope.Value}
	}
	return " WHERE json_extract(data, ?) = ?", []any{"$." + scope.Field, scope.Value}
}

// jsonArg converts a value to what json_extract returns for it.
func jsonArg(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, int, int32, int64, float32, float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}
