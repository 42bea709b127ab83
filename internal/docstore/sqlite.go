package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// identPattern restricts collection and field names used to build SQL text.
// Values always travel as bound parameters; identifiers cannot, so they are
// validated instead.
var identPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// SQLiteStore persists documents in SQLite, one table per collection with the
// document body in a JSON column. Predicate queries use the JSON1 functions.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and verifies connectivity.
func OpenSQLite(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the collection tables if they do not exist.
func (s *SQLiteStore) Migrate() error {
	for _, collection := range []string{CollectionUsers, CollectionLists, CollectionEvents} {
		stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			fields TEXT NOT NULL
		);`, collection)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("docstore: migrate %s: %w", collection, err)
		}
	}
	return nil
}

func checkIdent(kind, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("docstore: invalid %s name %q", kind, name)
	}
	return nil
}

// Insert persists a new document under a fresh UUID.
func (s *SQLiteStore) Insert(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := checkIdent("collection", collection); err != nil {
		return "", err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("docstore: marshal fields: %w", err)
	}

	id := uuid.New().String()
	query := fmt.Sprintf("INSERT INTO %s (id, fields) VALUES (?, ?)", collection)
	if _, err := s.db.ExecContext(ctx, query, id, string(raw)); err != nil {
		return "", fmt.Errorf("docstore: insert into %s: %w", collection, err)
	}
	return id, nil
}

// GetByID retrieves a document's fields.
func (s *SQLiteStore) GetByID(ctx context.Context, collection, id string) (Fields, error) {
	if err := checkIdent("collection", collection); err != nil {
		return nil, err
	}

	var raw string
	query := fmt.Sprintf("SELECT fields FROM %s WHERE id = ?", collection)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}

	var fields Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, id, err)
	}
	return fields, nil
}

// ReplaceFields overwrites the named top-level fields of a document inside a
// transaction, so the merge itself is atomic. It does nothing to protect a
// caller whose read of the document predates another caller's write.
func (s *SQLiteStore) ReplaceFields(ctx context.Context, collection, id string, partial Fields) error {
	if err := checkIdent("collection", collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	selectQuery := fmt.Sprintf("SELECT fields FROM %s WHERE id = ?", collection)
	err = tx.QueryRowContext(ctx, selectQuery, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}

	var fields Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, id, err)
	}
	for k, v := range partial {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: marshal fields: %w", err)
	}

	updateQuery := fmt.Sprintf("UPDATE %s SET fields = ? WHERE id = ?", collection)
	if _, err := tx.ExecContext(ctx, updateQuery, string(merged), id); err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

// DeleteByID removes a document; missing ids are a no-op.
func (s *SQLiteStore) DeleteByID(ctx context.Context, collection, id string) error {
	if err := checkIdent("collection", collection); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", collection)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// QueryEquals returns documents whose top-level field equals value.
func (s *SQLiteStore) QueryEquals(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := checkIdent("collection", collection); err != nil {
		return nil, err
	}
	if err := checkIdent("field", field); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT id, fields FROM %s WHERE json_extract(fields, '$.%s') = ?",
		collection, field,
	)
	return s.queryDocuments(ctx, collection, query, value)
}

// QueryArrayContains returns documents whose array field contains value.
func (s *SQLiteStore) QueryArrayContains(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := checkIdent("collection", collection); err != nil {
		return nil, err
	}
	if err := checkIdent("field", field); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT d.id, d.fields FROM %s d, json_each(d.fields, '$.%s') e WHERE e.value = ?",
		collection, field,
	)
	return s.queryDocuments(ctx, collection, query, value)
}

// All returns every document in a collection.
func (s *SQLiteStore) All(ctx context.Context, collection string) ([]Document, error) {
	if err := checkIdent("collection", collection); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, fields FROM %s", collection)
	return s.queryDocuments(ctx, collection, query)
}

func (s *SQLiteStore) queryDocuments(ctx context.Context, collection, query string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", collection, err)
		}
		var fields Fields
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("docstore: unmarshal %s/%s: %w", collection, id, err)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// compile-time interface checks
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
