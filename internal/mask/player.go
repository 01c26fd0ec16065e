// SPDX-License-Identifier: MIT

/*
Package mask plays the band-limited noise mask and keeps its level in step
with the system volume.

On platforms that can slave volume the player moves through two states:

  - LOCATING: look for the synth's PulseAudio stream by application name;
    if it is not there, launch the synth and look once more after the settle
    delay. A stream that still cannot be found aborts the run.
  - STREAMING: every poll interval, read the master level and mute flag and
    apply the resulting gain to every channel of the stream.

Cancelling the context ends either state. The synth is then stopped exactly
once and Run returns nil.
*/
package mask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"noisemask/internal/log"
	"noisemask/internal/mixer"
	"noisemask/internal/sox"
	"noisemask/internal/stats"
	"noisemask/internal/transport"
)

// ErrStreamNotFound is returned when the synth's stream never shows up.
var ErrStreamNotFound = errors.New("couldn't find the synth stream in PulseAudio")

// DefaultPollInterval is used when Player.PollInterval is not set.
const DefaultPollInterval = 500 * time.Millisecond

// Player states, as published in Status.
const (
	StateLocating  = "locating"
	StateStreaming = "streaming"
	StateStatic    = "static"
	StateStopped   = "stopped"
)

// Status is published to the transport on every state change and tick.
type Status struct {
	State       string       `json:"state"`
	Tick        int          `json:"tick"`
	Volume      mixer.Volume `json:"volume"`
	Gain        float64      `json:"gain"`
	StreamIndex uint32       `json:"stream_index"`
	Params      stats.Params `json:"params"`
	At          time.Time    `json:"at"`
}

// Player runs the synth for one set of params.
type Player struct {
	Capability Capability
	Runner     sox.Runner
	Server     mixer.Server       // required for CanSlaveVolume
	Volume     mixer.VolumeReader // required for CanSlaveVolume
	Transport  transport.Transport

	StreamName    string
	SynthBinary   string
	StartupGainDB float64
	LingerDelay   time.Duration
	SettleDelay   time.Duration
	PollInterval  time.Duration

	// Terminator is created by Run when nil.
	Terminator *Terminator
}

// Run plays the mask until ctx is cancelled or an error occurs. The synth is
// stopped before Run returns in every case where it may be running.
func (p *Player) Run(ctx context.Context, params stats.Params) error {
	if p.Terminator == nil {
		p.Terminator = NewTerminator(p.synthBinary(), p.Runner)
	}

	switch p.Capability {
	case CanSlaveVolume:
		if p.Server == nil || p.Volume == nil {
			return errors.New("volume slaving needs a mixer server and a volume reader")
		}
		return p.runSlaved(ctx, params)
	case StaticPlaybackOnly:
		return p.runStatic(ctx, params)
	default:
		return ErrUnsupportedPlatform
	}
}

func (p *Player) synthBinary() string {
	if p.SynthBinary == "" {
		return "play"
	}
	return p.SynthBinary
}

// runStatic launches the synth at the measured gain and waits.
func (p *Player) runStatic(ctx context.Context, params stats.Params) error {
	proc, err := p.Runner.Start(sox.SynthCommand(sox.SynthSpec{
		Binary:   p.synthBinary(),
		CenterHz: params.MeanHz,
		WidthHz:  params.StdDevHz,
		GainDB:   params.VolumeDB,
	}))
	if err != nil {
		return err
	}
	p.Terminator.Track(proc)
	log.Infof("Playing noise (pid %d). Press Ctrl+C to stop.", proc.Pid())
	p.publish(Status{State: StateStatic, Params: params})

	<-ctx.Done()
	p.publish(Status{State: StateStopped, Params: params})
	return p.Terminator.Stop()
}

func (p *Player) runSlaved(ctx context.Context, params stats.Params) error {
	p.publish(Status{State: StateLocating, Params: params})

	stream, err := p.locate(ctx, params)
	if err != nil {
		stopErr := p.Terminator.Stop()
		if ctx.Err() != nil {
			return stopErr
		}
		return errors.Join(err, stopErr)
	}
	log.Infof("Following system volume on sink input %d. Press Ctrl+C to stop.", stream.Index)

	tick := 0
	apply := func() error {
		v, err := p.Volume.SystemVolume(ctx)
		if err != nil {
			return err
		}
		gain := mixer.TargetGain(v)
		if err := stream.SetGain(gain); err != nil {
			return err
		}
		p.publish(Status{
			State:       StateStreaming,
			Tick:        tick,
			Volume:      v,
			Gain:        gain,
			StreamIndex: stream.Index,
			Params:      params,
		})
		tick++
		return nil
	}

	if err := apply(); err != nil {
		return p.fail(ctx, params, err)
	}

	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.publish(Status{State: StateStopped, Tick: tick, Params: params})
			return p.Terminator.Stop()
		case <-ticker.C:
			if err := apply(); err != nil {
				return p.fail(ctx, params, err)
			}
		}
	}
}

// fail stops the synth after a streaming error. Errors caused by the
// cancellation itself are not reported.
func (p *Player) fail(ctx context.Context, params stats.Params, err error) error {
	p.publish(Status{State: StateStopped, Params: params})
	stopErr := p.Terminator.Stop()
	if ctx.Err() != nil {
		return stopErr
	}
	return errors.Join(err, stopErr)
}

// locate finds the synth stream, launching the synth if needed.
func (p *Player) locate(ctx context.Context, params stats.Params) (*mixer.Stream, error) {
	// A previous synth may still be winding down.
	if err := sleep(ctx, p.LingerDelay); err != nil {
		return nil, err
	}

	stream, err := mixer.FindStream(p.Server, p.StreamName)
	if err == nil {
		log.Infof("Reusing running %s stream (sink input %d)", p.StreamName, stream.Index)
		return stream, nil
	}
	if !errors.Is(err, mixer.ErrStreamMissing) {
		return nil, err
	}

	gain := params.PlaybackGainDB(p.StartupGainDB)
	proc, err := p.Runner.Start(sox.SynthCommand(sox.SynthSpec{
		Binary:   p.synthBinary(),
		CenterHz: params.MeanHz,
		WidthHz:  params.StdDevHz,
		GainDB:   gain,
		Lead:     true,
	}))
	if err != nil {
		return nil, err
	}
	p.Terminator.Track(proc)
	log.Debugf("mask: synth started (pid %d) at %.2fdB", proc.Pid(), gain)

	if err := sleep(ctx, p.SettleDelay); err != nil {
		return nil, err
	}

	stream, err = mixer.FindStream(p.Server, p.StreamName)
	if errors.Is(err, mixer.ErrStreamMissing) {
		return nil, fmt.Errorf("%w: %q", ErrStreamNotFound, p.StreamName)
	}
	return stream, err
}

func (p *Player) publish(s Status) {
	if p.Transport == nil {
		return
	}
	s.At = time.Now()
	if err := p.Transport.Send(s); err != nil {
		log.Debugf("mask: status not published: %v", err)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
