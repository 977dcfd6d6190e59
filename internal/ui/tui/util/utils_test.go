package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "Short title", 20, "Short title"},
		{"exact fit", "12345", 5, "12345"},
		{"ascii", "A rather long video title", 10, "A rathe..."},
		{"wide runes", "日本語のタイトル", 9, "日本語..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateString(tt.input, tt.maxWidth))
		})
	}
}

func TestFormatPlaybackTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{61, "1:01"},
		{1425, "23:45"},
		{3600, "1:00:00"},
		{3725.4, "1:02:05"},
		{math.NaN(), "--:--"},
		{math.Inf(1), "--:--"},
		{-1, "--:--"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPlaybackTime(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.5, Ratio(30, 60), 1e-9)
	assert.Equal(t, 1.0, Ratio(90, 60))
	assert.Equal(t, 0.0, Ratio(-5, 60))
	assert.Equal(t, 0.0, Ratio(30, 0))
	assert.Equal(t, 0.0, Ratio(30, math.NaN()))
	assert.Equal(t, 0.0, Ratio(math.NaN(), 60))
}
