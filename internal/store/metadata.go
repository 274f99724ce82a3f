package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v.String, nil
}

// SetMetadata stores value under key.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// IndexReady reports whether the last indexing run finished. A database
// that was never indexed is not ready.
func (s *Store) IndexReady() (bool, error) {
	state, err := s.GetMetadata(MetaIndexState)
	if err != nil {
		return false, err
	}
	return state == IndexStateReady, nil
}

// SetIndexState records the indexing state.
func (s *Store) SetIndexState(state string) error {
	return s.SetMetadata(MetaIndexState, state)
}

// Epoch returns the number of completed indexing runs.
func (s *Store) Epoch() (uint64, error) {
	v, err := s.GetMetadata(MetaEpoch)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse epoch %q: %w", v, err)
	}
	return n, nil
}

// BumpEpoch increments the epoch and returns the new value.
func (s *Store) BumpEpoch() (uint64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("bump epoch: begin: %w", err)
	}
	defer tx.Rollback()

	var cur sql.NullString
	err = tx.QueryRow("SELECT value FROM metadata WHERE key = ?", MetaEpoch).Scan(&cur)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("bump epoch: read: %w", err)
	}
	var n uint64
	if cur.Valid && cur.String != "" {
		if n, err = strconv.ParseUint(cur.String, 10, 64); err != nil {
			return 0, fmt.Errorf("bump epoch: parse %q: %w", cur.String, err)
		}
	}
	n++
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		MetaEpoch, strconv.FormatUint(n, 10),
	); err != nil {
		return 0, fmt.Errorf("bump epoch: write: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bump epoch: commit: %w", err)
	}
	return n, nil
}
