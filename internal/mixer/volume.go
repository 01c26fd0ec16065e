// SPDX-License-Identifier: MIT

// Package mixer reads the system master volume and drives the volume of a
// single PulseAudio playback stream.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"noisemask/internal/sox"
)

// Volume is the state of the master control.
type Volume struct {
	Percent int  `json:"percent"`
	Muted   bool `json:"muted"`
}

// TargetGain maps the master state to a linear stream gain: 0 when muted,
// otherwise Percent/100.
func TargetGain(v Volume) float64 {
	if v.Muted {
		return 0
	}
	return float64(v.Percent) / 100.0
}

var percentPattern = regexp.MustCompile(`\[(\d+)%\]`)

// ErrNoPercent is returned when amixer output has no "[NN%]" field.
var ErrNoPercent = errors.New("no volume percentage in mixer output")

// ParseAmixer extracts the level and mute flag from `amixer sget` output.
// The first "[NN%]" is the level; the control counts as muted when the
// output contains "off" anywhere.
func ParseAmixer(out string) (Volume, error) {
	m := percentPattern.FindStringSubmatch(out)
	if m == nil {
		return Volume{}, ErrNoPercent
	}
	percent, err := strconv.Atoi(m[1])
	if err != nil {
		return Volume{}, fmt.Errorf("invalid volume percentage %q: %w", m[1], err)
	}
	return Volume{
		Percent: percent,
		Muted:   strings.Contains(out, "off"),
	}, nil
}

// VolumeReader reports the current master volume.
type VolumeReader interface {
	SystemVolume(ctx context.Context) (Volume, error)
}

// Amixer reads a simple mixer control through the amixer CLI.
type Amixer struct {
	Runner  sox.Runner
	Control string
}

// SystemVolume implements VolumeReader.
func (a *Amixer) SystemVolume(ctx context.Context) (Volume, error) {
	stdout, _, err := a.Runner.Run(ctx, sox.AmixerCommand(a.Control))
	if err != nil {
		return Volume{}, fmt.Errorf("failed to query %s volume: %w", a.Control, err)
	}
	return ParseAmixer(string(stdout))
}
