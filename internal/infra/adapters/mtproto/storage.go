package mtproto

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"channel-relay-bot/internal/domain"
)

var _ session.Storage = (*sqliteStorage)(nil)

// sqliteStorage keeps the MTProto session in a single-row SQLite table. The
// database is opened in exclusive locking mode, so a second process pointed
// at the same file fails fast with domain.ErrSessionLocked.
type sqliteStorage struct {
	db *sql.DB
}

func openStorage(ctx context.Context, path string) (*sqliteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 0",
		"PRAGMA locking_mode = EXCLUSIVE",
		`CREATE TABLE IF NOT EXISTS session (
			id   INTEGER PRIMARY KEY CHECK (id = 1),
			data BLOB NOT NULL
		)`,
		"BEGIN EXCLUSIVE",
		"COMMIT",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, storageError(err)
		}
	}
	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) LoadSession(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM session WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return data, nil
}

func (s *sqliteStorage) StoreSession(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`, data)
	return storageError(err)
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", domain.ErrSessionLocked, err)
		}
	}
	return err
}
