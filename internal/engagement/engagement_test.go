package engagement

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedEvent struct {
	Name       string
	Properties map[string]any
}

type fakeTracker struct {
	events []trackedEvent
}

func (f *fakeTracker) Track(event string, properties map[string]any) {
	f.events = append(f.events, trackedEvent{Name: event, Properties: properties})
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestBuildFullPayload(t *testing.T) {
	emitter := NewEmitter(nil, "session-1", 42)

	got := emitter.Build(PlaybackStarted, Snapshot{
		Duration:   180.9,
		Position:   12.7,
		Volume:     0.756,
		Fullscreen: true,
		Representation: &Representation{
			Bandwidth: 2_499_600,
			FrameRate: "30000/1001",
		},
	})

	want := Event{
		Type:           PlaybackStarted,
		SessionID:      "session-1",
		ContentAssetID: 42,
		TotalLength:    180,
		Position:       12,
		SoundLevel:     76,
		FullScreen:     true,
		BitrateKbps:    intPtr(2500),
		FrameRate:      floatPtr(29.97),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOmitsUnavailableMetrics(t *testing.T) {
	emitter := NewEmitter(nil, "session-1", 42)

	t.Run("no representation", func(t *testing.T) {
		ev := emitter.Build(PlaybackPaused, Snapshot{Duration: 60, Position: 30, Volume: 1})
		assert.Nil(t, ev.BitrateKbps)
		assert.Nil(t, ev.FrameRate)

		props := ev.Properties()
		assert.NotContains(t, props, "bitrate")
		assert.NotContains(t, props, "frame_rate")
	})

	t.Run("unparseable representation", func(t *testing.T) {
		ev := emitter.Build(PlaybackPaused, Snapshot{
			Duration:       60,
			Position:       30,
			Representation: &Representation{Bandwidth: math.NaN(), FrameRate: "fast"},
		})
		assert.Nil(t, ev.BitrateKbps)
		assert.Nil(t, ev.FrameRate)
	})
}

func TestEmitForwardsToTracker(t *testing.T) {
	tracker := &fakeTracker{}
	emitter := NewEmitter(tracker, "session-2", 7)

	_, ok := emitter.Emit(BufferingStarted, Snapshot{Duration: 100, Position: 0, Volume: 0.5})
	require.True(t, ok)
	require.Len(t, tracker.events, 1)

	want := trackedEvent{
		Name: "buffering-started",
		Properties: map[string]any{
			"session_id":       "session-2",
			"content_asset_id": 7,
			"total_length":     100,
			"position":         0,
			"sound_level":      50,
			"full_screen":      false,
		},
	}
	if diff := cmp.Diff(want, tracker.events[0]); diff != "" {
		t.Errorf("tracked event mismatch (-want +got):\n%s", diff)
	}
}

func TestInterruptedSuppressedAtZeroPosition(t *testing.T) {
	tracker := &fakeTracker{}
	emitter := NewEmitter(tracker, "session-3", 7)

	_, ok := emitter.Emit(PlaybackInterrupted, Snapshot{Duration: 100, Position: 0})
	assert.False(t, ok)
	_, ok = emitter.Emit(PlaybackInterrupted, Snapshot{Duration: 100, Position: math.NaN()})
	assert.False(t, ok)
	assert.Empty(t, tracker.events)

	ev, ok := emitter.Emit(PlaybackInterrupted, Snapshot{Duration: 100, Position: 0.4})
	assert.True(t, ok)
	assert.Equal(t, 0, ev.Position)
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "playback-interrupted", tracker.events[0].Name)
}

func TestOtherTypesAlwaysEmit(t *testing.T) {
	tracker := &fakeTracker{}
	emitter := NewEmitter(tracker, "session-4", 7)

	for _, eventType := range []EventType{BufferingStarted, PlaybackStarted, PlaybackPaused, PlaybackCompleted} {
		_, ok := emitter.Emit(eventType, Snapshot{})
		assert.True(t, ok, "%s should emit at position zero", eventType)
	}
	assert.Len(t, tracker.events, 4)
}

func TestCompletedCarriesPreForcedPosition(t *testing.T) {
	tracker := &fakeTracker{}
	emitter := NewEmitter(tracker, "session-5", 9)

	ev, ok := emitter.Emit(PlaybackCompleted, Snapshot{Duration: 100, Position: 99.8})
	require.True(t, ok)
	assert.Equal(t, 99, ev.Position)
	assert.Equal(t, 100, ev.TotalLength)
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{raw: "25", want: 25, ok: true},
		{raw: "29.97", want: 29.97, ok: true},
		{raw: "30000/1001", want: 29.97, ok: true},
		{raw: "24000/1001", want: 23.976, ok: true},
		{raw: " 60 ", want: 60, ok: true},
		{raw: "", ok: false},
		{raw: "30/0", ok: false},
		{raw: "abc", ok: false},
		{raw: "-25", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseFrameRate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.0005)
			}
		})
	}
}

func TestSoundLevelClamps(t *testing.T) {
	assert.Equal(t, 0, soundLevel(-0.5))
	assert.Equal(t, 100, soundLevel(1.7))
	assert.Equal(t, 33, soundLevel(0.333))
	assert.Equal(t, 0, soundLevel(math.NaN()))
}
