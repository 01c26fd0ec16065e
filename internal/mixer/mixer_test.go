// SPDX-License-Identifier: MIT
package mixer

import (
	"context"
	"errors"
	"testing"

	"noisemask/internal/sox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amixerOn = `Simple mixer control 'Master',0
  Capabilities: pvolume pswitch pswitch-joined
  Playback channels: Front Left - Front Right
  Limits: Playback 0 - 65536
  Mono:
  Front Left: Playback 32768 [50%] [on]
  Front Right: Playback 32768 [50%] [on]
`

const amixerMuted = `Simple mixer control 'Master',0
  Capabilities: pvolume pswitch pswitch-joined
  Playback channels: Front Left - Front Right
  Limits: Playback 0 - 65536
  Mono:
  Front Left: Playback 52429 [80%] [off]
  Front Right: Playback 52429 [80%] [off]
`

func TestTargetGain(t *testing.T) {
	tests := []struct {
		name string
		in   Volume
		want float64
	}{
		{"half", Volume{Percent: 50}, 0.5},
		{"full", Volume{Percent: 100}, 1.0},
		{"zero", Volume{Percent: 0}, 0.0},
		{"muted at full", Volume{Percent: 100, Muted: true}, 0},
		{"muted at half", Volume{Percent: 50, Muted: true}, 0},
		{"muted at zero", Volume{Percent: 0, Muted: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetGain(tt.in))
		})
	}
}

func TestParseAmixer(t *testing.T) {
	v, err := ParseAmixer(amixerOn)
	require.NoError(t, err)
	assert.Equal(t, Volume{Percent: 50, Muted: false}, v)

	v, err = ParseAmixer(amixerMuted)
	require.NoError(t, err)
	assert.Equal(t, Volume{Percent: 80, Muted: true}, v)

	_, err = ParseAmixer("amixer: Unable to find simple control 'Master',0")
	require.ErrorIs(t, err, ErrNoPercent)
}

func TestAmixerSystemVolume(t *testing.T) {
	fake := &sox.FakeRunner{Stdout: map[string][]byte{"amixer": []byte(amixerOn)}}
	a := &Amixer{Runner: fake, Control: "Master"}

	v, err := a.SystemVolume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, v.Percent)
	assert.Equal(t, []sox.Command{sox.AmixerCommand("Master")}, fake.Commands())
}

func TestAmixerSystemVolume_Error(t *testing.T) {
	fake := &sox.FakeRunner{Errs: map[string]error{"amixer": errors.New("exit status 1")}}
	a := &Amixer{Runner: fake, Control: "PCM"}

	_, err := a.SystemVolume(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PCM")
}

func TestFindStream(t *testing.T) {
	srv := &FakeServer{Inputs: []SinkInput{
		{Index: 3, AppName: "Firefox", Channels: 2},
		{Index: 7, AppName: "ALSA plug-in [sox]", Channels: 2},
	}}

	s, err := FindStream(srv, "ALSA plug-in [sox]")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), s.Index)

	_, err = FindStream(srv, "ALSA plug-in [play]")
	require.ErrorIs(t, err, ErrStreamMissing)

	srv.ListErr = errors.New("connection refused")
	_, err = FindStream(srv, "ALSA plug-in [sox]")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStreamMissing)
}

func TestStreamSetGain(t *testing.T) {
	srv := &FakeServer{Inputs: []SinkInput{{Index: 7, AppName: "sox", Channels: 2}}}
	s, err := FindStream(srv, "sox")
	require.NoError(t, err)

	require.NoError(t, s.SetGain(0.5))
	assert.Equal(t, []uint32{0x8000, 0x8000}, srv.VolumeOf(7))

	require.NoError(t, s.SetGain(1))
	assert.Equal(t, []uint32{volumeNorm, volumeNorm}, srv.VolumeOf(7))

	require.NoError(t, s.SetGain(-3))
	assert.Equal(t, []uint32{0, 0}, srv.VolumeOf(7))
}

func TestResetStream(t *testing.T) {
	srv := &FakeServer{Inputs: []SinkInput{{Index: 1, AppName: "ALSA plug-in [sox]", Channels: 1}}}

	found, err := ResetStream(srv, "ALSA plug-in [sox]")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []uint32{volumeNorm}, srv.VolumeOf(1))

	found, err = ResetStream(srv, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
