// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"strconv"
	"testing"

	"noisemask/pkg/utils"
)

func TestPeakAmplitude(t *testing.T) {
	tests := []struct {
		name   string
		buffer []int32
		want   int32
	}{
		{"Empty", nil, 0},
		{"Silence", utils.GenerateSilence(64), 0},
		{"Positive peak", []int32{1, 5, 3}, 5},
		{"Negative peak", []int32{1, -7, 3}, 7},
		{"Max", []int32{math.MaxInt32, 0}, math.MaxInt32},
		{"Min saturates", []int32{math.MinInt32}, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := peakAmplitude(tt.buffer); got != tt.want {
				t.Errorf("peakAmplitude() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPeakAmplitudeHotPath(t *testing.T) {
	buffer := utils.GenerateComplexWave(1024, 44100)
	allocs := testing.AllocsPerRun(100, func() {
		peakAmplitude(buffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations, got %.1f", allocs)
	}
}

func TestSilenceLevelBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.input, 'f', 2, 64), func(t *testing.T) {
			engine.SetSilenceLevel(tt.input)
			if got := engine.SilenceLevel(); math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("SilenceLevel() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestSilent(t *testing.T) {
	engine := &Engine{}
	engine.SetSilenceLevel(0.001)

	engine.trackPeak(utils.GenerateSilence(512))
	if !engine.Silent() {
		t.Error("a capture of zeros should be silent")
	}

	engine.trackPeak(utils.GenerateSineWave(512, 44100, 440))
	if engine.Silent() {
		t.Error("a sine at 90% of full scale should not be silent")
	}
	if p := engine.Peak(); p < 0.89 || p > 0.91 {
		t.Errorf("Peak() = %f, want ~0.9", p)
	}

	engine.trackPeak(utils.GenerateSilence(512))
	if p := engine.Peak(); p < 0.89 {
		t.Errorf("the peak must not fall back, got %f", p)
	}
}

func BenchmarkPeakAmplitude(b *testing.B) {
	buffer := utils.GenerateComplexWave(512*2, 44100)
	for i := 0; i < b.N; i++ {
		peakAmplitude(buffer)
	}
}
