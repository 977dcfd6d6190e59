package actionlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/PizzaHomicide/haven/internal/log"
)

const busyTimeout = 5 * time.Second

// migrations are applied in order; PRAGMA user_version records how many have run
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS watch_completions (
		video_id   INTEGER NOT NULL,
		session_id TEXT    NOT NULL,
		watched_at INTEGER NOT NULL,
		PRIMARY KEY (video_id, session_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_completions_watched_at ON watch_completions(watched_at)`,
}

// SqliteStore persists watch completions in a local sqlite database
type SqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSqlite opens (creating if needed) the database at path and migrates it
func OpenSqlite(path string) (*SqliteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("actionlog: create directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("actionlog: open failed: %w", err)
	}
	// One writer, and a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("actionlog: ping failed: %w", err)
	}

	store := &SqliteStore{db: db, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("actionlog: migrate: %w", err)
	}
	return store, nil
}

func (s *SqliteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return err
		}
		log.Debug("Applied action log migration", "version", i+1)
	}
	return nil
}

func (s *SqliteStore) RecordWatched(ctx context.Context, videoID int, sessionID string) error {
	query := `
	INSERT INTO watch_completions (video_id, session_id, watched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(video_id, session_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, videoID, sessionID, s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("actionlog: record watched: %w", err)
	}
	log.Debug("Watch completion recorded", "video_id", videoID, "session_id", sessionID)
	return nil
}

func (s *SqliteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
	SELECT video_id, session_id, watched_at
	FROM watch_completions
	ORDER BY watched_at DESC, rowid DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("actionlog: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			watchedAt int64
		)
		if err := rows.Scan(&e.VideoID, &e.SessionID, &watchedAt); err != nil {
			return nil, err
		}
		e.WatchedAt = time.UnixMilli(watchedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
