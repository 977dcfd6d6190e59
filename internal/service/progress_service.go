package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
)

// ProgressService keeps a read-through copy of the user's progress records.  The records are owned by the remote
// store and may change underneath us, so every write result is synced back into the cache.
type ProgressService struct {
	repo domain.ProgressRepository

	mu      sync.Mutex
	loaded  bool
	records map[int]*domain.ProgressRecord // keyed by video id
}

func NewProgressService(repo domain.ProgressRepository) *ProgressService {
	return &ProgressService{
		repo:    repo,
		records: make(map[int]*domain.ProgressRecord),
	}
}

// LoadProgress fetches every record from the repository, replacing the cache
func (s *ProgressService) LoadProgress(ctx context.Context) error {
	list, err := s.repo.FetchProgress(ctx)
	if err != nil {
		return err
	}

	records := make(map[int]*domain.ProgressRecord, len(list))
	for _, record := range list {
		if record != nil {
			records[record.VideoID] = record
		}
	}

	s.mu.Lock()
	s.records = records
	s.loaded = true
	s.mu.Unlock()

	log.Debug("Progress cache refreshed", "count", len(records))
	return nil
}

// EnsureLoaded fetches the records on first use only
func (s *ProgressService) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if loaded {
		return nil
	}
	return s.LoadProgress(ctx)
}

// Loaded reports whether the cache has been filled from the repository at least once.  Until it has, a missing
// record means nothing about the remote store.
func (s *ProgressService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a copy of the freshest known record for a video, or nil when there is none
func (s *ProgressService) Snapshot(videoID int) *domain.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[videoID].Clone()
}

// Records returns copies of every cached record
func (s *ProgressService) Records() []*domain.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ProgressRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.Clone())
	}
	return out
}

// UpdateProgress writes progress through to the repository and caches the result.  It satisfies
// domain.ProgressRepository so a playback controller can write through the cache.
func (s *ProgressService) UpdateProgress(ctx context.Context, recordID *int, videoID int, percent int) (*domain.ProgressRecord, error) {
	result, err := s.repo.UpdateProgress(ctx, recordID, videoID, percent)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	s.sync(result)

	log.Info("Updated video progress", "videoID", videoID, "percent", result.PercentComplete)
	return result, nil
}

// RateVideo stores a rating.  Ratings are 1 to 5.
func (s *ProgressService) RateVideo(ctx context.Context, recordID *int, videoID int, rating int) (*domain.ProgressRecord, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	result, err := s.repo.RateVideo(ctx, recordID, videoID, rating)
	if err != nil {
		return nil, fmt.Errorf("failed to rate video: %w", err)
	}
	s.sync(result)

	log.Info("Rated video", "videoID", videoID, "rating", rating)
	return result, nil
}

// SetSaveForLater flags or unflags a video
func (s *ProgressService) SetSaveForLater(ctx context.Context, recordID *int, videoID int, save bool) (*domain.ProgressRecord, error) {
	result, err := s.repo.SetSaveForLater(ctx, recordID, videoID, save)
	if err != nil {
		return nil, fmt.Errorf("failed to update save for later: %w", err)
	}
	s.sync(result)

	log.Info("Updated save for later", "videoID", videoID, "save", save)
	return result, nil
}

// FetchProgress refreshes the cache and returns it
func (s *ProgressService) FetchProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	if err := s.LoadProgress(ctx); err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Rate rates a video looked up from the cache, creating the record if needed
func (s *ProgressService) Rate(ctx context.Context, videoID int, rating int) (*domain.ProgressRecord, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.RateVideo(ctx, s.recordID(videoID), videoID, rating)
}

// SaveForLater flags a video looked up from the cache, creating the record if needed
func (s *ProgressService) SaveForLater(ctx context.Context, videoID int, save bool) (*domain.ProgressRecord, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.SetSaveForLater(ctx, s.recordID(videoID), videoID, save)
}

func (s *ProgressService) recordID(videoID int) *int {
	if record := s.Snapshot(videoID); record != nil {
		return record.ID
	}
	return nil
}

// sync stores a write result in the cache.  A result never lowers the cached percent, since a concurrent refresh may
// already hold a newer value.
func (s *ProgressService) sync(result *domain.ProgressRecord) {
	if result == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := result.Clone()
	if cached, ok := s.records[record.VideoID]; ok && cached.PercentComplete > record.PercentComplete {
		record.PercentComplete = cached.PercentComplete
	}
	s.records[record.VideoID] = record

	log.Debug("Synchronized local progress with update result",
		"videoID", record.VideoID,
		"percent", record.PercentComplete)
}

var _ domain.ProgressRepository = (*ProgressService)(nil)
