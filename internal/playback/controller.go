// Package playback owns the lifecycle of one mounted player: choosing a source, creating and releasing the decoder,
// and fanning element callbacks out to progress tracking, captions, engagement analytics and heartbeats.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PizzaHomicide/haven/internal/captions"
	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/engagement"
	"github.com/PizzaHomicide/haven/internal/heartbeat"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/metrics"
	"github.com/PizzaHomicide/haven/internal/playback/fsm"
	"github.com/PizzaHomicide/haven/internal/playback/source"
	"github.com/PizzaHomicide/haven/internal/progress"
)

const actionLogTimeout = 5 * time.Second

// Dependencies are the collaborators of a Controller.  Every field is optional; a nil collaborator disables the
// behaviour it backs.
type Dependencies struct {
	// NewDecoder creates the adaptive decoder.  Nil means the platform has no adaptive support.
	NewDecoder  DecoderFactory
	Preferences domain.CaptionPreferenceStore
	Analytics   domain.AnalyticsTracker
	Heartbeat   domain.HeartbeatSender
	Progress    domain.ProgressRepository
	ActionLog   domain.ActionLog
	// Placement receives the caption toggle.  Defaults to captions.InlinePlacement.
	Placement captions.Placement
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Options tune a Controller
type Options struct {
	// AdaptiveStreaming is the platform capability flag.  It only has effect when a decoder factory is present.
	AdaptiveStreaming bool
	// WatchedThreshold defaults to progress.DefaultWatchedThreshold
	WatchedThreshold int
	// HeartbeatInterval defaults to heartbeat.DefaultInterval
	HeartbeatInterval time.Duration
	// SessionID is generated when empty
	SessionID string
}

// Handle identifies the initialized player.  Repeated Initialize calls return the same Handle.
type Handle struct {
	decoder   Decoder
	selection source.Selection
}

// Decoder returns the adaptive decoder, or nil when native sources are used
func (h *Handle) Decoder() Decoder { return h.decoder }

// Strategy returns the chosen playback strategy
func (h *Handle) Strategy() source.Strategy { return h.selection.Strategy }

// Controller manages one mounted player.  It is created on mount and discarded after Unmount; switching videos means
// a new Controller.  Methods are safe to call from the UI goroutine while a separate goroutine delivers events.
type Controller struct {
	mu sync.Mutex

	deps   Dependencies
	opts   Options
	logger *log.Logger
	now    func() time.Time

	lifecycle *fsm.Machine[State, trigger]
	tracker   *progress.Tracker
	heartbeat *heartbeat.Bridge
	captions  *captions.Synchronizer
	emitter   *engagement.Emitter

	element    Element
	handle     *Handle
	videoID    int
	sessionID  string
	startTime  time.Time
	position   float64
	duration   float64
	poster     bool
	unmounting bool
	destroyed  bool
}

// New creates a controller for one mount
func New(deps Dependencies, opts Options) *Controller {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	return &Controller{
		deps:      deps,
		opts:      opts,
		logger:    log.With("session_id", opts.SessionID),
		now:       now,
		lifecycle: newLifecycle(),
		tracker:   progress.NewTracker(opts.WatchedThreshold),
		heartbeat: heartbeat.New(deps.Heartbeat, heartbeat.WithInterval(opts.HeartbeatInterval), heartbeat.WithClock(now)),
		sessionID: opts.SessionID,
		startTime: now(),
		poster:    true,
	}
}

// Initialize binds the player to an element and starts loading the source.  Calling it again on the same mount returns
// the existing handle without side effects.  captionPreference is the stored preference as read by the host.
//
// When the platform cannot run the adaptive decoder the native sources are handed to the element instead; this is not
// an error.  A source with nothing playable leaves the poster up.
func (c *Controller) Initialize(el Element, src domain.MediaSource, captionPreference bool) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounting {
		return nil, domain.ErrTornDown
	}
	if c.handle != nil {
		c.logger.Debug("Player already initialized", "video_id", c.videoID)
		return c.handle, nil
	}
	if el == nil {
		return nil, errors.New("initialize: nil element")
	}

	if _, _, err := c.lifecycle.Fire(triggerInitialize); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	c.element = el
	c.videoID = src.VideoID
	c.logger = c.logger.With("video_id", src.VideoID)
	c.emitter = engagement.NewEmitter(c.deps.Analytics, c.sessionID, src.VideoID)
	c.captions = captions.New(c.deps.Preferences, c.deps.Placement, captionPreference)

	caps := source.Capabilities{AdaptiveStreaming: c.opts.AdaptiveStreaming && c.deps.NewDecoder != nil}
	sel := source.Select(src, caps)
	c.handle = &Handle{selection: sel}
	c.logger.Info("Initializing player", "strategy", sel.Strategy, "title", src.Title)

	switch sel.Strategy {
	case source.StrategyAdaptive:
		return c.handle, c.initializeAdaptive(sel)
	case source.StrategyNative:
		return c.handle, c.initializeNative(sel)
	default:
		metrics.IncDecoderLifecycle(metrics.DecoderSkipped)
		c.logger.Warn("No playable source, leaving poster visible")
		return c.handle, nil
	}
}

func (c *Controller) initializeAdaptive(sel source.Selection) error {
	if !c.element.Paused() {
		if err := c.element.Pause(); err != nil {
			c.logger.Warn("Failed to pause element before loading manifest", "error", err)
		}
	}

	dec, err := c.deps.NewDecoder(c.element)
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	c.handle.decoder = dec
	c.captions.Bind(dec)
	metrics.IncDecoderLifecycle(metrics.DecoderInitialized)

	if err := dec.LoadManifest(sel.ManifestURL); err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	c.logger.Debug("Manifest requested", "url", sel.ManifestURL)
	return nil
}

func (c *Controller) initializeNative(sel source.Selection) error {
	c.logger.Info("Falling back to native sources", "reason", domain.ErrInitializationSkipped, "sources", len(sel.Fallbacks))
	metrics.IncDecoderLifecycle(metrics.DecoderSkipped)

	if selector, ok := c.element.(captions.TrackSelector); ok {
		c.captions.Bind(selector)
	}

	if err := c.element.SetSources(sel.URLs()); err != nil {
		return fmt.Errorf("attaching native sources: %w", err)
	}
	if _, _, err := c.lifecycle.Fire(triggerSourcesAttached); err != nil {
		return fmt.Errorf("attaching native sources: %w", err)
	}
	c.reconcileCaptions()
	return nil
}

// HandleEvent applies one element or decoder callback.  Callbacks that are not valid in the current state are logged
// and ignored.  It never returns an error; failures degrade to missing metrics or no playback.
func (c *Controller) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounting {
		c.logger.Trace("Dropping event during unmount", "event", ev.String())
		return
	}
	if c.handle == nil {
		c.logger.Debug("Dropping event before initialize", "event", ev.String())
		return
	}

	switch ev.Kind {
	case EventManifestLoaded:
		if c.fire(triggerManifestLoaded, ev) {
			if err := c.captions.ForceDefault(); err != nil {
				c.logger.Warn("Failed to force caption default", "error", err)
			}
		}
	case EventStreamInitialized:
		if c.fire(triggerStreamReady, ev) {
			c.reconcileCaptions()
		}
	case EventLoadedMetadata:
		c.captions.SetTrackCount(ev.TextTracks)
	case EventTextTrackChange:
		if err := c.captions.PlatformChanged(ev.CaptionsEnabled); err != nil {
			c.logger.Warn("Failed to sync caption change", "error", err)
		}
	case EventTimeUpdate:
		c.onTimeUpdate(ev)
	case EventPlaying:
		if c.fire(triggerPlay, ev) {
			c.poster = false
			c.emit(engagement.PlaybackStarted)
		}
	case EventPaused:
		if c.fire(triggerPause, ev) {
			c.emit(engagement.PlaybackPaused)
		}
	case EventWaiting:
		if c.lifecycle.State().ready() {
			c.emit(engagement.BufferingStarted)
		}
	case EventEnded:
		c.onEnded(ev)
	case EventError, EventAbort:
		c.logger.Warn("Playback interrupted", "event", ev.Kind, "error", errors.Join(domain.ErrPlaybackInterrupted, ev.Err))
		c.emit(engagement.PlaybackInterrupted)
	default:
		c.logger.Debug("Unknown playback event", "event", ev.Kind)
	}
}

func (c *Controller) fire(t trigger, ev Event) bool {
	from, to, err := c.lifecycle.Fire(t)
	if err != nil {
		c.logger.Debug("Ignoring event in current state", "event", ev.String(), "state", from)
		return false
	}
	c.logger.Trace("Lifecycle transition", "from", from, "to", to)
	return true
}

func (c *Controller) reconcileCaptions() {
	first, err := c.captions.Reconcile()
	if err != nil {
		c.logger.Warn("Failed to reconcile caption preference", "error", err)
	}
	if first {
		c.logger.Debug("Listening for text track changes", "captions_enabled", c.captions.Enabled())
	}
}

func (c *Controller) onTimeUpdate(ev Event) {
	if !c.lifecycle.State().ready() {
		return
	}
	c.position = ev.CurrentTime
	if ev.Duration > 0 {
		c.duration = ev.Duration
	}

	if update, ok := c.tracker.Observe(ev.CurrentTime, ev.Duration); ok {
		c.onProgress(update)
	}
	c.heartbeat.Sample()
}

func (c *Controller) onEnded(ev Event) {
	if !c.fire(triggerEnd, ev) {
		return
	}

	// The completed payload carries the position before progress is forced to 100
	c.emit(engagement.PlaybackCompleted)
	c.onProgress(c.tracker.Complete())
	c.poster = true
	c.logger.Info("Playback completed", "tracked_max", c.tracker.Max())
}

func (c *Controller) onProgress(update progress.Update) {
	c.logger.Trace("Progress", "percent", update.Percent, "max", update.Max)
	if !update.CrossedWatched {
		return
	}

	c.logger.Info("Watched threshold crossed", "percent", update.Percent)
	metrics.IncWatchCompletion()
	if c.deps.ActionLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionLogTimeout)
	defer cancel()
	if err := c.deps.ActionLog.RecordWatched(ctx, c.videoID, c.sessionID); err != nil {
		c.logger.Warn("Failed to record watch completion", "error", err)
	}
}

func (c *Controller) emit(eventType engagement.EventType) {
	c.emitter.Emit(eventType, c.snapshot())
}

func (c *Controller) snapshot() engagement.Snapshot {
	s := engagement.Snapshot{
		Duration:   c.element.Duration(),
		Position:   c.element.CurrentTime(),
		Volume:     c.element.Volume(),
		Fullscreen: c.element.Fullscreen(),
	}
	if c.handle.decoder != nil {
		if rep, ok := c.handle.decoder.Representation(); ok {
			s.Representation = rep
		}
	}
	return s
}

// ToggleCaptions flips captions from the user control
func (c *Controller) ToggleCaptions() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounting {
		return domain.ErrTornDown
	}
	if c.handle == nil {
		return domain.ErrNotInitialized
	}
	if err := c.captions.Toggle(); err != nil {
		return fmt.Errorf("toggling captions: %w", err)
	}
	c.logger.Debug("Captions toggled", "enabled", c.captions.Enabled())
	return nil
}

// Unmount tears the player down.  The unmounting flag is set before anything else so callbacks racing with teardown
// are dropped; this path emits the single playback-paused event for a session that is mid-playback.  Progress is
// merged against latest, the freshest record the host holds for the video, and written only when it advanced.  The
// decoder is destroyed exactly once.  Calling Unmount again does nothing.
func (c *Controller) Unmount(ctx context.Context, latest *domain.ProgressRecord) error {
	return c.unmount(ctx, latest, true)
}

// UnmountWithoutProgress tears the player down like Unmount but writes no progress.  Hosts use it when the remote
// record for the video is unknown.
func (c *Controller) UnmountWithoutProgress(ctx context.Context) error {
	return c.unmount(ctx, nil, false)
}

func (c *Controller) unmount(ctx context.Context, latest *domain.ProgressRecord, remoteKnown bool) error {
	c.mu.Lock()
	if c.unmounting {
		c.mu.Unlock()
		return nil
	}
	c.unmounting = true

	if c.handle != nil && c.lifecycle.State().started() {
		c.emit(engagement.PlaybackPaused)
	}
	if _, _, err := c.lifecycle.Fire(triggerTeardown); err != nil {
		c.logger.Warn("Unexpected lifecycle state at teardown", "error", err)
	}

	var destroyErr error
	if c.handle != nil && c.handle.decoder != nil && !c.destroyed {
		c.destroyed = true
		if err := c.handle.decoder.Destroy(); err != nil {
			destroyErr = fmt.Errorf("destroying decoder: %w", err)
		}
		metrics.IncDecoderLifecycle(metrics.DecoderTornDown)
	}

	initialized := c.handle != nil
	trackedMax := c.tracker.Max()
	write, ok := progress.Merge(c.videoID, trackedMax, latest)
	logger := c.logger
	c.mu.Unlock()

	if !remoteKnown && initialized && trackedMax > 0 {
		logger.Warn("Remote progress unknown, progress not written", "reason", domain.ErrProgressWriteSkipped, "tracked_max", trackedMax)
		metrics.IncProgressWrite(metrics.ProgressSkipped)
		return destroyErr
	}
	if !ok || !initialized || !remoteKnown {
		logger.Debug("Progress not written", "reason", domain.ErrProgressWriteSkipped, "tracked_max", trackedMax)
		metrics.IncProgressWrite(metrics.ProgressSkipped)
		return destroyErr
	}

	return errors.Join(destroyErr, c.writeProgress(ctx, logger, write))
}

func (c *Controller) writeProgress(ctx context.Context, logger *log.Logger, write progress.Write) error {
	if c.deps.Progress == nil {
		return nil
	}

	logger.Info("Writing progress", "percent", write.Percent, "create", write.RecordID == nil)
	if _, err := c.deps.Progress.UpdateProgress(ctx, write.RecordID, write.VideoID, write.Percent); err != nil {
		metrics.IncProgressWrite(metrics.ProgressFailed)
		return fmt.Errorf("writing progress for video %d: %w", write.VideoID, err)
	}
	if write.RecordID == nil {
		metrics.IncProgressWrite(metrics.ProgressCreated)
	} else {
		metrics.IncProgressWrite(metrics.ProgressUpdated)
	}
	return nil
}
