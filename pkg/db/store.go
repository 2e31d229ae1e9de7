package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// GetEntry returns the record stored under key. A missing key yields a zero
// Entry and sql.ErrNoRows.
func GetEntry(db DBExecutor, key string) (Entry, error) {
	var e Entry
	err := db.QueryRow(`SELECT key, value, updated_at FROM kv_store WHERE key = ?`, key).
		Scan(&e.Key, &e.Value, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// GetValue returns the value stored under key, or "" when the key is absent.
func GetValue(db DBExecutor, key string) (string, error) {
	e, err := GetEntry(db, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return e.Value, nil
}

// SetValue inserts or replaces the value stored under key.
func SetValue(db DBExecutor, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO kv_store (key, value, updated_at)
			  VALUES (?, ?, ?)
			  ON CONFLICT(key) DO UPDATE SET
			    value = excluded.value,
			    updated_at = excluded.updated_at`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func DeleteValue(db DBExecutor, key string) error {
	_, err := db.Exec(`DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

// RecordImport stores a provenance record and returns its id.
func RecordImport(db DBExecutor, kind, origin string, entries int) (int64, error) {
	if strings.TrimSpace(kind) == "" {
		return 0, fmt.Errorf("kind must be non-empty")
	}
	var id int64
	err := db.QueryRow(`INSERT INTO imports (kind, origin, entries, imported_at)
			  VALUES (?, ?, ?, ?)
			  RETURNING id`, kind, origin, entries, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}
	return id, nil
}

// ListImports returns up to limit provenance records, newest first. A
// non-positive limit returns all of them.
func ListImports(db DBExecutor, limit int) ([]Import, error) {
	query := `SELECT id, kind, origin, entries, imported_at FROM imports ORDER BY imported_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Import{}
	for rows.Next() {
		var im Import
		if err := rows.Scan(&im.ID, &im.Kind, &im.Origin, &im.Entries, &im.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// KVStore adapts a database handle to the custom entry store's key-value
// interface.
type KVStore struct {
	DB DBExecutor
}

// Get implements custom.KV.
func (s KVStore) Get(key string) (string, error) { return GetValue(s.DB, key) }

// Set implements custom.KV.
func (s KVStore) Set(key, value string) error { return SetValue(s.DB, key, value) }

// Delete implements custom.KV.
func (s KVStore) Delete(key string) error { return DeleteValue(s.DB, key) }
