package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rshade/tripcarbon/internal/wizard"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps each persisted key of a session in its own row of the
// wizard_state table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store requires a database path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store. All keys of the session are replaced in one
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, state wizard.State) error {
	if err := validID(state.ID); err != nil {
		return err
	}
	values, err := encodeKeys(state)
	if err != nil {
		return err
	}
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM wizard_state WHERE session_id = ?`, state.ID); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", state.ID, err)
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wizard_state (session_id, key, value, updated_at)
			VALUES (?, ?, ?, ?)
		`, state.ID, key, string(value), updatedAt); err != nil {
			return fmt.Errorf("failed to save %s for session %s: %w", key, state.ID, err)
		}
	}
	return tx.Commit()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id string) (wizard.State, error) {
	if err := validID(id); err != nil {
		return wizard.State{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, updated_at
		FROM wizard_state
		WHERE session_id = ?
	`, id)
	if err != nil {
		return wizard.State{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	defer rows.Close()

	values := make(map[string][]byte)
	var updatedAt time.Time
	for rows.Next() {
		var (
			key, value string
			at         time.Time
		)
		if err := rows.Scan(&key, &value, &at); err != nil {
			return wizard.State{}, err
		}
		values[key] = []byte(value)
		if at.After(updatedAt) {
			updatedAt = at
		}
	}
	if err := rows.Err(); err != nil {
		return wizard.State{}, err
	}
	if len(values) == 0 {
		return wizard.State{}, ErrNotFound
	}

	state, err := decodeKeys(id, values)
	if err != nil {
		return wizard.State{}, err
	}
	state.UpdatedAt = updatedAt.UTC()
	return state, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM wizard_state WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
