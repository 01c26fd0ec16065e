// SPDX-License-Identifier: MIT
package mask

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"noisemask/internal/mixer"
	"noisemask/internal/sox"
	"noisemask/internal/stats"
	"noisemask/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamName = "ALSA plug-in [sox]"

var testParams = stats.Params{MeanHz: 225, StdDevHz: 82.9, VolumeDB: -30}

func states(tr *utils.MockTransport) []string {
	var out []string
	for _, m := range tr.Messages() {
		out = append(out, m.(Status).State)
	}
	return out
}

// harness wires a player to fakes; the fake synth registers its stream with
// the fake server when started, unless registerOnStart is false.
type harness struct {
	runner *sox.FakeRunner
	server *mixer.FakeServer
	volume *mixer.FakeVolumeReader
	tr     *utils.MockTransport
	player *Player
}

func newHarness(registerOnStart bool) *harness {
	h := &harness{
		runner: &sox.FakeRunner{},
		server: &mixer.FakeServer{},
		volume: &mixer.FakeVolumeReader{Volume: mixer.Volume{Percent: 50}},
		tr:     &utils.MockTransport{},
	}
	if registerOnStart {
		h.runner.OnStart = func(sox.Command) {
			h.server.AddInput(mixer.SinkInput{Index: 42, AppName: streamName, Channels: 2})
		}
	}
	h.player = &Player{
		Capability:    CanSlaveVolume,
		Runner:        h.runner,
		Server:        h.server,
		Volume:        h.volume,
		Transport:     h.tr,
		StreamName:    streamName,
		SynthBinary:   "play",
		StartupGainDB: -20,
		LingerDelay:   time.Millisecond,
		SettleDelay:   time.Millisecond,
		PollInterval:  5 * time.Millisecond,
	}
	return h
}

func (h *harness) run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.player.Run(ctx, testParams) }()
	return done
}

func (h *harness) killalls() int {
	n := 0
	for _, c := range h.runner.Commands() {
		if c.Name == "killall" {
			n++
		}
	}
	return n
}

func TestDetectCapability(t *testing.T) {
	c, err := DetectCapability("linux")
	require.NoError(t, err)
	assert.Equal(t, CanSlaveVolume, c)

	c, err = DetectCapability("darwin")
	require.NoError(t, err)
	assert.Equal(t, StaticPlaybackOnly, c)

	c, err = DetectCapability("windows")
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Equal(t, Unsupported, c)
}

func TestRun_InterruptStopsSynthExactlyOnce(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	require.Eventually(t, func() bool { return h.volume.Reads() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "interrupt is a graceful exit")
	case <-time.After(2 * time.Second):
		t.Fatal("player did not stop after cancellation")
	}

	require.Len(t, h.runner.Started, 1)
	assert.Equal(t, 1, h.runner.Started[0].Stops())
	assert.Equal(t, 0, h.killalls())

	// Later shutdown paths must not stop it again.
	require.NoError(t, h.player.Terminator.Stop())
	assert.Equal(t, 1, h.runner.Started[0].Stops())
	assert.Equal(t, 1, h.player.Terminator.Stops())
}

func TestRun_LaunchesSynthWithStartupReduction(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	require.Eventually(t, func() bool { return h.volume.Reads() >= 1 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, h.runner.Started, 1)
	want := sox.SynthCommand(sox.SynthSpec{
		Binary: "play", CenterHz: 225, WidthHz: 82.9, GainDB: -50, Lead: true,
	})
	assert.Equal(t, want, h.runner.Started[0].Command)
}

func TestRun_FollowsVolumeAndMute(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := h.run(ctx)

	require.Eventually(t, func() bool {
		v := h.server.VolumeOf(42)
		return len(v) == 2 && v[0] == 0x8000
	}, 2*time.Second, time.Millisecond, "50% should map to half volume")

	h.volume.Set(mixer.Volume{Percent: 100, Muted: true})
	require.Eventually(t, func() bool {
		v := h.server.VolumeOf(42)
		return len(v) == 2 && v[0] == 0 && v[1] == 0
	}, 2*time.Second, time.Millisecond, "mute must force the gain to zero")

	h.volume.Set(mixer.Volume{Percent: 100})
	require.Eventually(t, func() bool {
		v := h.server.VolumeOf(42)
		return len(v) == 2 && v[0] == 0x10000
	}, 2*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	got := states(h.tr)
	require.NotEmpty(t, got)
	assert.Equal(t, StateLocating, got[0])
	assert.Contains(t, got, StateStreaming)
	assert.Equal(t, StateStopped, got[len(got)-1])
}

func TestRun_ReusesRunningStream(t *testing.T) {
	h := newHarness(false)
	h.server.AddInput(mixer.SinkInput{Index: 9, AppName: streamName, Channels: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	require.Eventually(t, func() bool { return h.volume.Reads() >= 2 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, h.runner.Started, "no second synth may be launched")
	assert.Equal(t, []uint32{0x8000}, h.server.VolumeOf(9))
	assert.Equal(t, 1, h.killalls(), "an adopted synth is stopped by name")
}

func TestRun_StreamNotFound(t *testing.T) {
	h := newHarness(false)

	err := h.player.Run(context.Background(), testParams)
	require.ErrorIs(t, err, ErrStreamNotFound)

	require.Len(t, h.runner.Started, 1)
	assert.Equal(t, 1, h.runner.Started[0].Stops(), "the launched synth is cleaned up")
	assert.Zero(t, h.volume.Reads(), "streaming never starts")
}

func TestRun_VolumeErrorAborts(t *testing.T) {
	h := newHarness(true)
	h.volume.Err = errors.New("amixer: no such control")

	err := h.player.Run(context.Background(), testParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such control")
	assert.Equal(t, 1, h.runner.Started[0].Stops())
}

func TestRun_StartFailure(t *testing.T) {
	h := newHarness(false)
	h.runner.StartErr = errors.New("play: not found")

	err := h.player.Run(context.Background(), testParams)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "play: not found")
}

func TestRun_CancelWhileLocating(t *testing.T) {
	h := newHarness(true)
	h.player.LingerDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("player ignored cancellation during the linger delay")
	}
	assert.Equal(t, 1, h.player.Terminator.Stops())
}

func TestRun_StaticPlayback(t *testing.T) {
	runner := &sox.FakeRunner{}
	p := &Player{Capability: StaticPlaybackOnly, Runner: runner, SynthBinary: "play"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, testParams) }()

	require.Eventually(t, func() bool { return len(runner.Commands()) == 1 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, runner.Started, 1)
	assert.Equal(t, []string{"-n", "synth", "noise", "band", "225", "82.9", "vol", "-30dB"}, runner.Started[0].Command.Args)
	assert.Equal(t, 1, runner.Started[0].Stops())
}

func TestRun_Unsupported(t *testing.T) {
	p := &Player{Capability: Unsupported, Runner: &sox.FakeRunner{}}
	require.ErrorIs(t, p.Run(context.Background(), testParams), ErrUnsupportedPlatform)
}

func TestTerminator_ConcurrentStops(t *testing.T) {
	runner := &sox.FakeRunner{}
	proc, err := runner.Start(sox.Command{Name: "play"})
	require.NoError(t, err)

	term := NewTerminator("/usr/bin/play", runner)
	term.Track(proc)
	assert.Equal(t, "play", term.Name())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = term.Stop()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, proc.(*sox.FakeProcess).Stops())
}
