// Package actionlog records watch completions: the moment a session crossed the watched threshold of a video.
package actionlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one watch completion
type Entry struct {
	VideoID   int
	SessionID string
	WatchedAt time.Time
}

// Store persists watch completions.  Recording the same video twice in one session keeps the first entry.
type Store interface {
	RecordWatched(ctx context.Context, videoID int, sessionID string) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// NewStore opens the sqlite log at path.  An empty path keeps entries in memory for the lifetime of the process.
func NewStore(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return OpenSqlite(path)
}

// MemoryStore keeps entries in memory
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) RecordWatched(ctx context.Context, videoID int, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.VideoID == videoID && e.SessionID == sessionID {
			return nil
		}
	}
	m.entries = append(m.entries, Entry{VideoID: videoID, SessionID: sessionID, WatchedAt: m.now().UTC()})
	return nil
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	out := append([]Entry(nil), m.entries...)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].WatchedAt.After(out[j].WatchedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
