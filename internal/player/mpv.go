package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/PizzaHomicide/haven/internal/config"
	"github.com/PizzaHomicide/haven/internal/engagement"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/playback"
)

var (
	_ playback.Element = (*MPV)(nil)
	_ playback.Decoder = (*MPV)(nil)
)

// Properties observed on every mpv instance.  The index is used as the observe id.
var observedProperties = []string{
	"pause",
	"time-pos",
	"duration",
	"volume",
	"fullscreen",
	"paused-for-cache",
	"track-list",
	"sid",
	"sub-visibility",
	"video-bitrate",
	"container-fps",
}

// MPV drives an mpv process over its IPC socket.  It is both the media element and the adaptive decoder: mpv consumes
// DASH manifests and HLS playlists natively.
type MPV struct {
	config     config.PlayerConfig
	socketPath string
	ipc        *IPCClient
	cmd        *exec.Cmd

	events      chan playback.Event
	stop        chan struct{}
	destroyOnce sync.Once
	destroyErr  error

	mu         sync.Mutex
	adaptive   bool
	fallbacks  []string
	restarted  bool
	paused     bool
	timePos    float64
	duration   float64
	volume     float64
	fullscreen bool
	bitrate    float64
	fps        float64
	sid        string
	subVisible bool
	captionsOn bool

	// Selections sent to mpv whose property echoes have not arrived yet
	pendingSids   []string
	expectVisible bool
}

// NewMPV creates an mpv player.  Start must be called before it is used.
func NewMPV(cfg config.PlayerConfig) *MPV {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = SocketPath()
	}
	return newMPV(cfg, socketPath, NewIPCClient(socketPath))
}

func newMPV(cfg config.PlayerConfig, socketPath string, ipc *IPCClient) *MPV {
	return &MPV{
		config:     cfg,
		socketPath: socketPath,
		ipc:        ipc,
		events:     make(chan playback.Event, 64),
		stop:       make(chan struct{}),
		paused:     true,
		volume:     1,
		duration:   math.NaN(),
		subVisible: true,
	}
}

// Start launches mpv idle with no file loaded and connects to its IPC socket
func (p *MPV) Start(ctx context.Context) error {
	mpvPath := p.config.Path
	if mpvPath == "" {
		mpvPath = "mpv"
	}

	args := []string{
		"--idle=yes",     // Stay alive until a source is loaded
		"--keep-open=no", // Report end-file at the end of the media
		"--force-window=yes",
		"--no-terminal",
		"--input-ipc-server=" + p.socketPath,
	}
	if p.config.Args != "" {
		args = append(args, ParseArgs(p.config.Args)...)
	}

	log.Info("Starting mpv", "path", mpvPath, "socket", p.socketPath)
	cmd := exec.Command(mpvPath, args...)
	setupPlayerProcess(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	p.cmd = cmd
	go func() {
		// Reap the process; its exit is observed through the IPC connection closing
		if err := cmd.Wait(); err != nil {
			log.Debug("mpv exited", "error", err)
		}
	}()

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.ipc.WaitForConnection(connCtx, 20, 250*time.Millisecond); err != nil {
		_ = stopPlayerProcess(cmd)
		return err
	}

	return p.attach()
}

// attach subscribes to mpv properties and starts translating its messages
func (p *MPV) attach() error {
	for i, name := range observedProperties {
		if err := p.ipc.ObserveProperty(i+1, name); err != nil {
			return fmt.Errorf("observing %s: %w", name, err)
		}
	}
	go p.translate()
	return nil
}

// Events returns the playback callbacks produced by mpv.  The channel closes when mpv goes away.
func (p *MPV) Events() <-chan playback.Event {
	return p.events
}

// NewDecoder is a playback.DecoderFactory.  mpv decodes on the element itself, so the decoder is the player.
func (p *MPV) NewDecoder(el playback.Element) (playback.Decoder, error) {
	if el != playback.Element(p) {
		return nil, errors.New("mpv can only decode on its own window")
	}
	return p, nil
}

func (p *MPV) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *MPV) Pause() error {
	return p.ipc.SetProperty("pause", true)
}

// TogglePause flips between paused and playing
func (p *MPV) TogglePause() error {
	return p.ipc.Command("cycle", "pause")
}

func (p *MPV) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timePos
}

func (p *MPV) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Volume maps mpv's 0-100 scale to 0.0-1.0
func (p *MPV) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *MPV) Fullscreen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen
}

// SetSources loads the first native source.  When a source fails before playback starts the next one is tried.
func (p *MPV) SetSources(urls []string) error {
	if len(urls) == 0 {
		return errors.New("no sources")
	}
	p.mu.Lock()
	p.adaptive = false
	p.fallbacks = append([]string(nil), urls[1:]...)
	p.mu.Unlock()

	return p.load(urls[0])
}

// LoadManifest loads an adaptive manifest
func (p *MPV) LoadManifest(url string) error {
	p.mu.Lock()
	p.adaptive = true
	p.fallbacks = nil
	p.mu.Unlock()

	return p.load(url)
}

func (p *MPV) load(url string) error {
	log.Debug("Loading source into mpv", "url", url)
	return p.ipc.Command("loadfile", url, "replace")
}

// SelectTextTrack selects a subtitle track by zero-based index, or none when index is negative
func (p *MPV) SelectTextTrack(index int) error {
	sid := ""
	if index >= 0 {
		sid = strconv.Itoa(index + 1)
	}

	// The echoes of our own selection are not caption changes the user made
	p.mu.Lock()
	last := p.sid
	if n := len(p.pendingSids); n > 0 {
		last = p.pendingSids[n-1]
	}
	if sid != last {
		p.pendingSids = append(p.pendingSids, sid)
	}
	if index >= 0 && !p.subVisible {
		p.expectVisible = true
	}
	p.mu.Unlock()

	var err error
	if index < 0 {
		err = p.ipc.SetProperty("sid", "no")
	} else if err = p.ipc.SetProperty("sid", index+1); err == nil {
		err = p.ipc.SetProperty("sub-visibility", true)
	}
	if err != nil {
		p.mu.Lock()
		p.pendingSids = nil
		p.expectVisible = false
		p.mu.Unlock()
	}
	return err
}

// Representation reports the bitrate and frame rate of the video stream being decoded
func (p *MPV) Representation() (*engagement.Representation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bitrate <= 0 && p.fps <= 0 {
		return nil, false
	}
	rep := &engagement.Representation{Bandwidth: p.bitrate}
	if p.fps > 0 {
		rep.FrameRate = strconv.FormatFloat(p.fps, 'f', -1, 64)
	}
	return rep, true
}

// Destroy quits mpv and releases the socket.  Safe to call more than once.
func (p *MPV) Destroy() error {
	p.destroyOnce.Do(func() {
		log.Info("Stopping mpv")
		close(p.stop)
		if err := p.ipc.Command("quit"); err != nil && !errors.Is(err, ErrNotConnected) {
			log.Debug("Failed to send quit to mpv", "error", err)
		}

		var errs []error
		if err := p.ipc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing mpv connection: %w", err))
		}
		if p.cmd != nil {
			if err := stopPlayerProcess(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
				log.Debug("mpv already stopped", "error", err)
			}
		}
		if p.socketPath != "" {
			if err := os.Remove(p.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("Failed to remove mpv socket file", "path", p.socketPath, "error", err)
			}
		}
		p.destroyErr = errors.Join(errs...)
	})
	return p.destroyErr
}

// translate turns mpv messages into playback events until the connection closes
func (p *MPV) translate() {
	defer close(p.events)

	for msg := range p.ipc.Messages() {
		for _, ev := range p.handleMessage(msg) {
			if !p.send(ev) {
				return
			}
		}
	}
	log.Debug("mpv connection closed")
	p.send(playback.Event{Kind: playback.EventAbort})
}

func (p *MPV) send(ev playback.Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-p.stop:
		return false
	}
}

// handleMessage updates the cached player state and returns the events a message produces
func (p *MPV) handleMessage(msg Message) []playback.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Event {
	case "file-loaded":
		if p.adaptive {
			return []playback.Event{{Kind: playback.EventManifestLoaded}}
		}
	case "playback-restart":
		// Emitted after the first frame and again after every seek
		if p.restarted {
			return nil
		}
		p.restarted = true
		var out []playback.Event
		if p.adaptive {
			out = append(out, playback.Event{Kind: playback.EventStreamInitialized})
		}
		if !p.paused {
			out = append(out, playback.Event{Kind: playback.EventPlaying})
		}
		return out
	case "end-file":
		return p.handleEndFile(msg)
	case "shutdown":
		return []playback.Event{{Kind: playback.EventAbort}}
	case "property-change":
		return p.handleProperty(msg.Name, msg.Data)
	}
	return nil
}

func (p *MPV) handleEndFile(msg Message) []playback.Event {
	switch msg.Reason {
	case "eof":
		return []playback.Event{{Kind: playback.EventEnded}}
	case "error":
		if !p.restarted && len(p.fallbacks) > 0 {
			next := p.fallbacks[0]
			p.fallbacks = p.fallbacks[1:]
			log.Info("Source failed, trying next native source", "error", msg.FileError, "next", next)
			// The reply is read by the reader goroutine, so this does not block on it
			if err := p.ipc.Command("loadfile", next, "replace"); err == nil {
				return nil
			}
		}
		return []playback.Event{{Kind: playback.EventError, Err: fmt.Errorf("mpv: %s", msg.FileError)}}
	case "stop", "quit":
		return []playback.Event{{Kind: playback.EventAbort}}
	}
	return nil
}

func (p *MPV) handleProperty(name string, data json.RawMessage) []playback.Event {
	switch name {
	case "pause":
		var paused bool
		if !decode(data, &paused) || paused == p.paused {
			return nil
		}
		p.paused = paused
		if !p.restarted {
			return nil
		}
		if paused {
			return []playback.Event{{Kind: playback.EventPaused}}
		}
		return []playback.Event{{Kind: playback.EventPlaying}}
	case "time-pos":
		if !decode(data, &p.timePos) {
			return nil
		}
		return []playback.Event{{Kind: playback.EventTimeUpdate, CurrentTime: p.timePos, Duration: p.duration}}
	case "duration":
		if !decode(data, &p.duration) {
			p.duration = math.NaN()
		}
	case "volume":
		var volume float64
		if decode(data, &volume) {
			p.volume = volume / 100
		}
	case "fullscreen":
		decode(data, &p.fullscreen)
	case "paused-for-cache":
		var buffering bool
		if decode(data, &buffering) && buffering {
			return []playback.Event{{Kind: playback.EventWaiting}}
		}
	case "video-bitrate":
		if !decode(data, &p.bitrate) {
			p.bitrate = 0
		}
	case "container-fps":
		if !decode(data, &p.fps) {
			p.fps = 0
		}
	case "track-list":
		var tracks []struct {
			Type string `json:"type"`
		}
		if !decode(data, &tracks) {
			return nil
		}
		subs := 0
		for _, t := range tracks {
			if t.Type == "sub" {
				subs++
			}
		}
		return []playback.Event{{Kind: playback.EventLoadedMetadata, TextTracks: subs}}
	case "sid":
		// sid is either a track number or false when no track is selected
		var id int
		if decode(data, &id) {
			p.sid = strconv.Itoa(id)
		} else {
			p.sid = ""
		}
		if p.ownSelection(p.sid) {
			p.captionsOn = p.sid != "" && p.subVisible
			return nil
		}
		return p.captionChange()
	case "sub-visibility":
		decode(data, &p.subVisible)
		if p.expectVisible && p.subVisible {
			p.expectVisible = false
			p.captionsOn = p.sid != "" && p.subVisible
			return nil
		}
		return p.captionChange()
	}
	return nil
}

// ownSelection consumes a pending selection matching sid.  mpv may coalesce property changes, so earlier pending
// selections that were skipped over are dropped too.
func (p *MPV) ownSelection(sid string) bool {
	for i, want := range p.pendingSids {
		if want == sid {
			p.pendingSids = p.pendingSids[i+1:]
			return true
		}
	}
	return false
}

func (p *MPV) captionChange() []playback.Event {
	on := p.sid != "" && p.subVisible
	if on == p.captionsOn {
		return nil
	}
	p.captionsOn = on
	return []playback.Event{{Kind: playback.EventTextTrackChange, CaptionsEnabled: on}}
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 || string(data) == "null" {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
