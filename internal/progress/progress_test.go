package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/haven/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		currentTime float64
		duration    float64
		want        int
		wantOK      bool
	}{
		{"start", 0, 100, 0, true},
		{"exact", 50, 100, 50, true},
		{"rounds up partial percent", 10.2, 100, 11, true},
		{"tiny position", 0.01, 600, 1, true},
		{"end", 100, 100, 100, true},
		{"overshoot clamps", 101, 100, 100, true},
		{"zero duration", 10, 0, 0, false},
		{"unknown duration", 10, math.NaN(), 0, false},
		{"infinite duration", 10, math.Inf(1), 0, false},
		{"nan position", math.NaN(), 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percent(tt.currentTime, tt.duration)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackerIncreasingTicksAreMonotonic(t *testing.T) {
	const duration = 347.0
	tracker := NewTracker(DefaultWatchedThreshold)

	last := 0
	for pos := 0.0; pos <= duration; pos += 3.7 {
		update, ok := tracker.Observe(pos, duration)
		require.True(t, ok)

		want, _ := Percent(pos, duration)
		assert.Equal(t, want, update.Percent)
		assert.GreaterOrEqual(t, update.Max, last)
		assert.Equal(t, update.Percent, update.Max)
		last = update.Max
	}
}

func TestTrackerScenarioTenFiftyNinetySeven(t *testing.T) {
	tracker := NewTracker(DefaultWatchedThreshold)

	var seen []int
	crossings := 0
	for _, pos := range []float64{10, 50, 97} {
		update, ok := tracker.Observe(pos, 100)
		require.True(t, ok)
		seen = append(seen, update.Percent)
		if update.CrossedWatched {
			crossings++
		}
	}

	assert.Equal(t, []int{10, 50, 97}, seen)
	assert.Equal(t, 97, tracker.Max())
	assert.Equal(t, 1, crossings)
	assert.True(t, tracker.Watched())
}

func TestTrackerWatchedSurvivesSeekBackward(t *testing.T) {
	tracker := NewTracker(DefaultWatchedThreshold)

	first, _ := tracker.Observe(96, 100)
	assert.True(t, first.CrossedWatched)

	update, _ := tracker.Observe(40, 100)
	assert.False(t, update.CrossedWatched)
	assert.Equal(t, 40, update.Percent)
	assert.Equal(t, 96, update.Max)
	assert.True(t, tracker.Watched())

	// Crossing again must not signal a second time
	again, _ := tracker.Observe(99, 100)
	assert.False(t, again.CrossedWatched)
}

func TestTrackerIgnoresUnknownDuration(t *testing.T) {
	tracker := NewTracker(DefaultWatchedThreshold)
	tracker.Observe(30, 100)

	update, ok := tracker.Observe(50, math.NaN())
	assert.False(t, ok)
	assert.Equal(t, 30, update.Percent)
	assert.Equal(t, 30, tracker.Max())
}

func TestTrackerComplete(t *testing.T) {
	tracker := NewTracker(DefaultWatchedThreshold)
	tracker.Observe(99, 100)

	update := tracker.Complete()
	assert.Equal(t, 100, update.Percent)
	assert.Equal(t, 100, tracker.Max())
	assert.True(t, tracker.Watched())
	// 99 already crossed the threshold
	assert.False(t, update.CrossedWatched)
}

func TestNewTrackerFallsBackOnBadThreshold(t *testing.T) {
	tracker := NewTracker(0)
	update, _ := tracker.Observe(96, 100)
	assert.True(t, update.CrossedWatched)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		trackedMax int
		latest     *domain.ProgressRecord
		wantWrite  bool
		want       Write
	}{
		{
			name:       "no record, progress made",
			trackedMax: 97,
			wantWrite:  true,
			want:       Write{VideoID: 5, Percent: 97},
		},
		{
			name:       "no record, nothing watched",
			trackedMax: 0,
		},
		{
			name:       "record behind tracked",
			trackedMax: 60,
			latest:     &domain.ProgressRecord{ID: intPtr(11), VideoID: 5, PercentComplete: 40},
			wantWrite:  true,
			want:       Write{RecordID: intPtr(11), VideoID: 5, Percent: 60},
		},
		{
			name:       "record ahead of tracked",
			trackedMax: 60,
			latest:     &domain.ProgressRecord{ID: intPtr(11), VideoID: 5, PercentComplete: 80},
		},
		{
			name:       "record equal to tracked",
			trackedMax: 80,
			latest:     &domain.ProgressRecord{ID: intPtr(11), VideoID: 5, PercentComplete: 80},
		},
		{
			name:       "record for another video is ignored",
			trackedMax: 20,
			latest:     &domain.ProgressRecord{ID: intPtr(3), VideoID: 9, PercentComplete: 80},
			wantWrite:  true,
			want:       Write{VideoID: 5, Percent: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Merge(5, tt.trackedMax, tt.latest)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMergeNeverRegresses(t *testing.T) {
	for remote := 0; remote <= 100; remote += 5 {
		for tracked := 0; tracked <= 100; tracked += 5 {
			latest := &domain.ProgressRecord{ID: intPtr(1), VideoID: 5, PercentComplete: remote}
			w, ok := Merge(5, tracked, latest)
			if ok {
				assert.Greater(t, w.Percent, remote)
			} else {
				assert.LessOrEqual(t, tracked, remote)
			}
		}
	}
}
