package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/playback"
)

// Player is a media player that is both the element and the adaptive decoder, such as mpv
type Player interface {
	playback.Element
	playback.Decoder
	NewDecoder(el playback.Element) (playback.Decoder, error)
	TogglePause() error
	Events() <-chan playback.Event
}

// PlaybackService mounts players for videos.  Progress reads and writes go through the progress service so the cache
// always holds the freshest record to merge against.
type PlaybackService struct {
	progress *ProgressService
	deps     playback.Dependencies
	opts     playback.Options
}

// NewPlaybackService creates the service.  deps.NewDecoder and deps.Progress are filled in per mount.
func NewPlaybackService(progress *ProgressService, deps playback.Dependencies, opts playback.Options) *PlaybackService {
	return &PlaybackService{
		progress: progress,
		deps:     deps,
		opts:     opts,
	}
}

// Mount binds a controller to the player and starts loading the video.  The progress cache is loaded first if it has
// not been yet; a failure there is logged and playback goes ahead.
func (s *PlaybackService) Mount(ctx context.Context, p Player, src domain.MediaSource, captionPreference bool) (*Mount, error) {
	if err := s.progress.EnsureLoaded(ctx); err != nil {
		log.Warn("Unable to load progress before playback", "video_id", src.VideoID, "error", err)
	}

	deps := s.deps
	deps.NewDecoder = p.NewDecoder
	deps.Progress = s.progress

	ctrl := playback.New(deps, s.opts)
	if _, err := ctrl.Initialize(p, src, captionPreference); err != nil {
		_ = ctrl.Unmount(ctx, nil)
		return nil, fmt.Errorf("mounting video %d: %w", src.VideoID, err)
	}

	return &Mount{
		ctrl:     ctrl,
		player:   p,
		progress: s.progress,
		videoID:  src.VideoID,
	}, nil
}

// Mount is one mounted player
type Mount struct {
	ctrl     *playback.Controller
	player   Player
	progress *ProgressService
	videoID  int

	unmountOnce sync.Once
}

func (m *Mount) Session() playback.Session {
	return m.ctrl.Session()
}

func (m *Mount) ToggleCaptions() error {
	return m.ctrl.ToggleCaptions()
}

func (m *Mount) TogglePause() error {
	return m.player.TogglePause()
}

// Pump applies player events to the controller until the player stops or ctx is done
func (m *Mount) Pump(ctx context.Context, onEvent func(playback.Event)) {
	m.ctrl.Run(ctx, m.player.Events(), onEvent)
}

// Unmount refreshes the progress cache and tears the player down against the freshest record.  When the refresh
// fails the cached record is used.  If the cache was never loaded the remote state is unknown, so the player is torn
// down without writing and the fetch error is returned.  Only the first call does any work; later calls wait for it
// and return nil.
func (m *Mount) Unmount(ctx context.Context) error {
	var err error
	m.unmountOnce.Do(func() {
		err = m.unmount(ctx)
	})
	return err
}

func (m *Mount) unmount(ctx context.Context) error {
	refreshErr := m.progress.LoadProgress(ctx)
	if refreshErr == nil {
		return m.ctrl.Unmount(ctx, m.progress.Snapshot(m.videoID))
	}

	if m.progress.Loaded() {
		log.Warn("Unable to refresh progress before teardown, using cached record", "video_id", m.videoID, "error", refreshErr)
		return m.ctrl.Unmount(ctx, m.progress.Snapshot(m.videoID))
	}

	log.Warn("Progress was never loaded, not saving progress", "video_id", m.videoID, "error", refreshErr)
	return errors.Join(
		m.ctrl.UnmountWithoutProgress(ctx),
		fmt.Errorf("progress for video %d not saved: %w", m.videoID, refreshErr),
	)
}
