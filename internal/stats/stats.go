// SPDX-License-Identifier: MIT

// Package stats reduces the frequency/amplitude table written by `sox stat -freq`
// to the three scalars that drive the noise mask: the amplitude-weighted mean
// frequency, the amplitude-weighted standard deviation and the loudness in dB.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoSignal is returned when the amplitudes of a sample sum to zero, which
// means the microphone captured nothing.
var ErrNoSignal = errors.New("no signal captured: the microphone was not turned on or there is no audio input")

// Sample is a spectral distribution: Amplitudes[i] is the level measured at
// Frequencies[i]. Both slices have the same length.
type Sample struct {
	Frequencies []float64
	Amplitudes  []float64
}

// Len returns the number of frequency bins.
func (s Sample) Len() int {
	return len(s.Frequencies)
}

// Params are the values handed to the noise synth. They are computed once per
// run and passed by value.
type Params struct {
	MeanHz   float64 `json:"mean_hz"`
	StdDevHz float64 `json:"stddev_hz"`
	VolumeDB float64 `json:"volume_db"`
}

// String formats the params the way they are printed after an analysis.
func (p Params) String() string {
	return fmt.Sprintf("mean=%.2fHz stddev=%.2fHz volume=%.2fdB", p.MeanHz, p.StdDevHz, p.VolumeDB)
}

// PlaybackGainDB returns the synth gain for this measurement with offsetDB
// added, e.g. -20 to start the mask quieter than the measured room.
func (p Params) PlaybackGainDB(offsetDB float64) float64 {
	return p.VolumeDB + offsetDB
}

// Compute derives Params from a sample. The sum of amplitudes must be
// non-zero; otherwise ErrNoSignal is returned and nothing else is computed.
func Compute(s Sample) (Params, error) {
	if len(s.Frequencies) != len(s.Amplitudes) {
		return Params{}, fmt.Errorf("frequency and amplitude counts differ: %d != %d",
			len(s.Frequencies), len(s.Amplitudes))
	}
	if s.Len() == 0 {
		return Params{}, errors.New("empty spectral sample")
	}
	if floats.Sum(s.Amplitudes) == 0 {
		return Params{}, ErrNoSignal
	}

	mean, std := stat.PopMeanStdDev(s.Frequencies, s.Amplitudes)

	return Params{
		MeanHz:   mean,
		StdDevHz: std,
		VolumeDB: Loudness(s.Amplitudes),
	}, nil
}

// Loudness returns 10·log10 of the mean amplitude. A non-positive mean gives
// -Inf or NaN, as the logarithm does.
func Loudness(amplitudes []float64) float64 {
	return 10 * math.Log10(stat.Mean(amplitudes, nil))
}
