// Package storage persists query cache snapshots in SQLite so a new
// session can start from the last known results.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/invalidation"

	_ "modernc.org/sqlite"
)

// SnapshotInfo describes the last snapshot saved for a scope.
type SnapshotInfo struct {
	Scope   string
	SavedAt time.Time
	Entries int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer avoids SQLITE_BUSY between Save calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Snapshot database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Scope names the snapshot of one user session.
func Scope(username, dbname string) string {
	return username + "@" + dbname
}

// Save replaces the snapshot of scope with entries, kept in their order.
func (r *SQLiteRepository) Save(ctx context.Context, scope string, entries []cache.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cache_entries (scope, cache_key, data, stale, stored_at, position)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, scope, e.Key.String(), e.Data, boolToInt(e.Stale), e.StoredAt.UnixNano(), i); err != nil {
			return fmt.Errorf("insert %s: %w", e.Key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (scope, saved_at, entry_count) VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET saved_at = excluded.saved_at, entry_count = excluded.entry_count`,
		scope, time.Now().UnixNano(), len(entries))
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Cache snapshot saved", "scope", scope, "entries", len(entries))
	return nil
}

// Load returns the entries saved for scope in saved order. Rows whose key
// no longer parses are skipped.
func (r *SQLiteRepository) Load(ctx context.Context, scope string) ([]cache.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cache_key, data, stale, stored_at FROM cache_entries
		WHERE scope = ? ORDER BY position`, scope)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var entries []cache.Entry
	for rows.Next() {
		var (
			rawKey   string
			data     []byte
			stale    int64
			storedAt int64
		)
		if err := rows.Scan(&rawKey, &data, &stale, &storedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		key, err := invalidation.ParseKey(rawKey)
		if err != nil {
			slog.WarnContext(ctx, "Skipping snapshot entry", "key", rawKey, "error", err)
			continue
		}
		entries = append(entries, cache.Entry{
			Key:      key,
			Data:     data,
			Stale:    stale != 0,
			StoredAt: time.Unix(0, storedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return entries, nil
}

// Info returns the last snapshot of scope, or false if none was saved.
func (r *SQLiteRepository) Info(ctx context.Context, scope string) (SnapshotInfo, bool, error) {
	var savedAt int64
	info := SnapshotInfo{Scope: scope}
	err := r.db.QueryRowContext(ctx,
		`SELECT saved_at, entry_count FROM snapshots WHERE scope = ?`, scope).
		Scan(&savedAt, &info.Entries)
	if err == sql.ErrNoRows {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("query snapshot info: %w", err)
	}
	info.SavedAt = time.Unix(0, savedAt)
	return info, true, nil
}

// Clear drops the snapshot of scope.
func (r *SQLiteRepository) Clear(ctx context.Context, scope string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear snapshot entries: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear snapshot info: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
