// SPDX-License-Identifier: MIT
package audio

import "math"

// SetSilenceLevel adjusts the level below which a capture counts as silent.
// The value is in the range of 0.0-1.0 of full scale.
func (e *Engine) SetSilenceLevel(level float64) {
	if level < 0.0 {
		level = 0.0
	}
	if level > 1.0 {
		level = 1.0
	}

	e.silenceThreshold = int32(level * float64(math.MaxInt32))
}

// SilenceLevel returns the current threshold in the range of 0.0-1.0.
func (e *Engine) SilenceLevel() float64 {
	return float64(e.silenceThreshold) / float64(math.MaxInt32)
}

// Peak returns the largest absolute sample of the current capture, 0.0-1.0.
func (e *Engine) Peak() float64 {
	return float64(e.peak.Load()) / float64(math.MaxInt32)
}

// Silent reports whether nothing above the silence level has been captured.
func (e *Engine) Silent() bool {
	return e.peak.Load() <= e.silenceThreshold
}

func (e *Engine) trackPeak(buffer []int32) {
	if p := peakAmplitude(buffer); p > e.peak.Load() {
		e.peak.Store(p)
	}
}

// peakAmplitude returns the largest absolute value in buffer using a
// branchless abs and max. math.MinInt32 saturates to math.MaxInt32.
func peakAmplitude(buffer []int32) int32 {
	var maxAmplitude int32
	for _, sample := range buffer {
		if sample == math.MinInt32 {
			sample++
		}
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}
