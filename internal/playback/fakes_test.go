package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/engagement"
)

// calls records the order in which collaborators were driven
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	c.log = append(c.log, name)
	c.mu.Unlock()
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

type fakeElement struct {
	calls      *calls
	paused     bool
	time       float64
	duration   float64
	volume     float64
	fullscreen bool
	sources    []string
}

func newFakeElement(c *calls) *fakeElement {
	return &fakeElement{calls: c, paused: true, volume: 1}
}

func (e *fakeElement) Paused() bool { return e.paused }

func (e *fakeElement) Pause() error {
	e.calls.add("element.pause")
	e.paused = true
	return nil
}

func (e *fakeElement) CurrentTime() float64 { return e.time }
func (e *fakeElement) Duration() float64    { return e.duration }
func (e *fakeElement) Volume() float64      { return e.volume }
func (e *fakeElement) Fullscreen() bool     { return e.fullscreen }

func (e *fakeElement) SetSources(urls []string) error {
	e.calls.add("element.sources")
	e.sources = urls
	return nil
}

type fakeDecoder struct {
	calls      *calls
	manifest   string
	tracks     []int
	destroyed  int
	rep        *engagement.Representation
	destroyErr error
}

func (d *fakeDecoder) LoadManifest(url string) error {
	d.calls.add("decoder.load")
	d.manifest = url
	return nil
}

func (d *fakeDecoder) SelectTextTrack(index int) error {
	d.tracks = append(d.tracks, index)
	return nil
}

func (d *fakeDecoder) Representation() (*engagement.Representation, bool) {
	return d.rep, d.rep != nil
}

func (d *fakeDecoder) Destroy() error {
	d.destroyed++
	return d.destroyErr
}

type decoderFactory struct {
	calls    *calls
	created  int
	decoders []*fakeDecoder
}

func (f *decoderFactory) New(el Element) (Decoder, error) {
	f.calls.add("decoder.new")
	f.created++
	d := &fakeDecoder{calls: f.calls}
	f.decoders = append(f.decoders, d)
	return d, nil
}

type trackedEvent struct {
	name  string
	props map[string]any
}

type fakeAnalytics struct {
	events []trackedEvent
}

func (a *fakeAnalytics) Track(event string, properties map[string]any) {
	a.events = append(a.events, trackedEvent{name: event, props: properties})
}

func (a *fakeAnalytics) named(name string) []trackedEvent {
	var out []trackedEvent
	for _, ev := range a.events {
		if ev.name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fakePrefs struct {
	enabled bool
}

func (p *fakePrefs) CaptionsEnabled() bool { return p.enabled }

func (p *fakePrefs) SetCaptionsEnabled(enabled bool) error {
	p.enabled = enabled
	return nil
}

type progressCall struct {
	recordID *int
	videoID  int
	percent  int
}

type fakeProgressRepo struct {
	updates []progressCall
	err     error
}

func (r *fakeProgressRepo) FetchProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	return nil, nil
}

func (r *fakeProgressRepo) UpdateProgress(ctx context.Context, recordID *int, videoID int, percent int) (*domain.ProgressRecord, error) {
	r.updates = append(r.updates, progressCall{recordID: recordID, videoID: videoID, percent: percent})
	if r.err != nil {
		return nil, r.err
	}
	return &domain.ProgressRecord{VideoID: videoID, PercentComplete: percent}, nil
}

func (r *fakeProgressRepo) RateVideo(ctx context.Context, recordID *int, videoID int, rating int) (*domain.ProgressRecord, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeProgressRepo) SetSaveForLater(ctx context.Context, recordID *int, videoID int, save bool) (*domain.ProgressRecord, error) {
	return nil, errors.New("not implemented")
}

type fakeActionLog struct {
	watched []int
}

func (a *fakeActionLog) RecordWatched(ctx context.Context, videoID int, sessionID string) error {
	a.watched = append(a.watched, videoID)
	return nil
}

type fakeHeartbeat struct {
	sent int
}

func (h *fakeHeartbeat) SendHeartbeat() { h.sent++ }
