package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/engagement"
	"github.com/PizzaHomicide/haven/internal/playback"
)

type stubPlayer struct {
	events  chan playback.Event
	sources []string
	paused  bool
	toggles int
	destroy int
}

func newStubPlayer() *stubPlayer {
	return &stubPlayer{events: make(chan playback.Event, 16)}
}

func (p *stubPlayer) Paused() bool                   { return p.paused }
func (p *stubPlayer) Pause() error                   { p.paused = true; return nil }
func (p *stubPlayer) CurrentTime() float64           { return 0 }
func (p *stubPlayer) Duration() float64              { return 100 }
func (p *stubPlayer) Volume() float64                { return 1 }
func (p *stubPlayer) Fullscreen() bool               { return false }
func (p *stubPlayer) SetSources(urls []string) error { p.sources = urls; return nil }
func (p *stubPlayer) LoadManifest(url string) error  { return nil }
func (p *stubPlayer) SelectTextTrack(index int) error {
	return nil
}
func (p *stubPlayer) Representation() (*engagement.Representation, bool) { return nil, false }
func (p *stubPlayer) Destroy() error                                     { p.destroy++; return nil }
func (p *stubPlayer) TogglePause() error                                 { p.toggles++; return nil }
func (p *stubPlayer) Events() <-chan playback.Event                      { return p.events }

func (p *stubPlayer) NewDecoder(el playback.Element) (playback.Decoder, error) {
	return p, nil
}

type stubPrefs struct{ enabled bool }

func (s *stubPrefs) CaptionsEnabled() bool                 { return s.enabled }
func (s *stubPrefs) SetCaptionsEnabled(enabled bool) error { s.enabled = enabled; return nil }

func newTestPlaybackService(repo *stubRepo) (*PlaybackService, *ProgressService) {
	progress := NewProgressService(repo)
	svc := NewPlaybackService(progress, playback.Dependencies{Preferences: &stubPrefs{}}, playback.Options{
		WatchedThreshold:  95,
		HeartbeatInterval: time.Minute,
	})
	return svc, progress
}

var nativeVideo = domain.MediaSource{
	VideoID:              5,
	Title:                "Native video",
	StreamingPlaylistURL: "https://cdn.example/playlist.m3u8",
	ProgressiveFileURL:   "https://cdn.example/video.mp4",
}

// pump feeds the events through the mount and waits for the pump to drain them
func pump(t *testing.T, mount *Mount, p *stubPlayer, events ...playback.Event) {
	t.Helper()
	for _, ev := range events {
		p.events <- ev
	}
	close(p.events)

	done := make(chan struct{})
	go func() {
		mount.Pump(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not finish")
	}
}

func TestMountLoadsProgressAndStartsPlayback(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, true)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.fetchCalls)
	assert.Equal(t, []string{nativeVideo.StreamingPlaylistURL, nativeVideo.ProgressiveFileURL}, p.sources)
	assert.Equal(t, playback.StateStreamReady, mount.Session().State)

	require.NoError(t, mount.TogglePause())
	assert.Equal(t, 1, p.toggles)
}

func TestMountGoesAheadWhenProgressIsUnavailable(t *testing.T) {
	repo := &stubRepo{fetchErr: errors.New("offline")}
	svc, _ := newTestPlaybackService(repo)

	_, err := svc.Mount(context.Background(), newStubPlayer(), nativeVideo, false)
	assert.NoError(t, err)
}

func TestUnmountWritesAdvancedProgressThroughTheCache(t *testing.T) {
	repo := &stubRepo{records: []*domain.ProgressRecord{{ID: intPtr(7), VideoID: 5, PercentComplete: 50}}}
	svc, progress := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, false)
	require.NoError(t, err)

	pump(t, mount, p,
		playback.Event{Kind: playback.EventPlaying},
		playback.Event{Kind: playback.EventTimeUpdate, CurrentTime: 97, Duration: 100},
	)
	assert.Equal(t, 97, mount.Session().TrackedMax)

	require.NoError(t, mount.Unmount(context.Background()))
	assert.Equal(t, 2, repo.fetchCalls, "teardown refreshes the cache first")
	assert.Equal(t, []string{"progress"}, repo.writes)
	assert.Equal(t, 97, progress.Snapshot(5).PercentComplete)
	assert.Equal(t, 7, *progress.Snapshot(5).ID)
}

func TestUnmountMergesAgainstRefreshedRecord(t *testing.T) {
	repo := &stubRepo{records: []*domain.ProgressRecord{{ID: intPtr(7), VideoID: 5, PercentComplete: 10}}}
	svc, _ := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, false)
	require.NoError(t, err)

	pump(t, mount, p,
		playback.Event{Kind: playback.EventPlaying},
		playback.Event{Kind: playback.EventTimeUpdate, CurrentTime: 60, Duration: 100},
	)

	// Another device got further while this session was playing
	repo.records[0].PercentComplete = 80

	require.NoError(t, mount.Unmount(context.Background()))
	assert.Empty(t, repo.writes)
}

func TestUnmountFallsBackToCachedRecord(t *testing.T) {
	repo := &stubRepo{records: []*domain.ProgressRecord{{ID: intPtr(7), VideoID: 5, PercentComplete: 70}}}
	svc, _ := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, false)
	require.NoError(t, err)

	pump(t, mount, p,
		playback.Event{Kind: playback.EventPlaying},
		playback.Event{Kind: playback.EventTimeUpdate, CurrentTime: 60, Duration: 100},
	)

	repo.fetchErr = errors.New("offline")
	require.NoError(t, mount.Unmount(context.Background()))
	assert.Empty(t, repo.writes, "60 does not beat the cached 70")
	assert.Equal(t, 0, p.destroy, "native playback has no decoder to destroy")
}

func TestUnmountSkipsWriteWhenProgressNeverLoaded(t *testing.T) {
	repo := &stubRepo{
		records:  []*domain.ProgressRecord{{ID: intPtr(7), VideoID: 5, PercentComplete: 80}},
		fetchErr: errors.New("offline"),
	}
	svc, progress := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, false)
	require.NoError(t, err)
	require.False(t, progress.Loaded())

	pump(t, mount, p,
		playback.Event{Kind: playback.EventPlaying},
		playback.Event{Kind: playback.EventTimeUpdate, CurrentTime: 60, Duration: 100},
	)

	err = mount.Unmount(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "offline")
	assert.Empty(t, repo.writes, "the stored 80 must not be overwritten by a create")
	assert.Equal(t, playback.StateTorndown, mount.Session().State)
}

func TestUnmountRunsOnce(t *testing.T) {
	repo := &stubRepo{records: []*domain.ProgressRecord{{ID: intPtr(7), VideoID: 5, PercentComplete: 50}}}
	svc, _ := newTestPlaybackService(repo)
	p := newStubPlayer()

	mount, err := svc.Mount(context.Background(), p, nativeVideo, false)
	require.NoError(t, err)
	pump(t, mount, p,
		playback.Event{Kind: playback.EventPlaying},
		playback.Event{Kind: playback.EventTimeUpdate, CurrentTime: 90, Duration: 100},
	)

	require.NoError(t, mount.Unmount(context.Background()))
	repo.fetchErr = errors.New("offline")
	require.NoError(t, mount.Unmount(context.Background()))

	assert.Equal(t, 2, repo.fetchCalls, "mount and the first unmount fetch; the second unmount does not")
	assert.Equal(t, []string{"progress"}, repo.writes)
}
