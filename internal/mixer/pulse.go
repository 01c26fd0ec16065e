// SPDX-License-Identifier: MIT
package mixer

import (
	"errors"
	"fmt"
	"math"
	"net"

	"noisemask/internal/log"

	"github.com/jfreymuth/pulse/proto"
)

// volumeNorm is PulseAudio's 100% channel volume.
const volumeNorm = 0x10000

// SinkInput is one PulseAudio playback stream.
type SinkInput struct {
	Index    uint32
	AppName  string
	Channels int
}

// Server is the subset of the PulseAudio protocol the mask needs.
type Server interface {
	SinkInputs() ([]SinkInput, error)
	SetSinkInputVolume(index uint32, volumes []uint32) error
	Close() error
}

// ErrStreamMissing is returned by FindStream when no stream matches.
var ErrStreamMissing = errors.New("stream not found")

// Stream is a handle to a single sink input found by application name.
type Stream struct {
	SinkInput
	srv Server
}

// FindStream returns the first sink input whose application.name equals
// name, or ErrStreamMissing.
func FindStream(srv Server, name string) (*Stream, error) {
	inputs, err := srv.SinkInputs()
	if err != nil {
		return nil, fmt.Errorf("failed to list sink inputs: %w", err)
	}
	for _, si := range inputs {
		if si.AppName == name {
			return &Stream{SinkInput: si, srv: srv}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrStreamMissing, name)
}

// SetGain sets every channel of the stream to gain (1.0 is 100%).
func (s *Stream) SetGain(gain float64) error {
	if gain < 0 || math.IsNaN(gain) {
		gain = 0
	}
	level := uint32(math.Round(gain * volumeNorm))

	channels := s.Channels
	if channels < 1 {
		channels = 1
	}
	volumes := make([]uint32, channels)
	for i := range volumes {
		volumes[i] = level
	}

	if err := s.srv.SetSinkInputVolume(s.Index, volumes); err != nil {
		return fmt.Errorf("failed to set volume of sink input %d: %w", s.Index, err)
	}
	return nil
}

// ResetStream sets the named stream back to 100%. It reports whether the
// stream was found.
func ResetStream(srv Server, name string) (bool, error) {
	stream, err := FindStream(srv, name)
	if errors.Is(err, ErrStreamMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, stream.SetGain(1)
}

// PulseServer talks to the PulseAudio (or pipewire-pulse) daemon.
type PulseServer struct {
	client *proto.Client
	conn   net.Conn
}

// DialPulse connects to the default server and registers clientName.
func DialPulse(clientName string) (*PulseServer, error) {
	client, conn, err := proto.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PulseAudio: %w", err)
	}

	props := proto.PropList{
		"application.name": proto.PropListString(clientName),
	}
	if err := client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to register PulseAudio client: %w", err)
	}
	log.Debugf("mixer: connected to PulseAudio as %q", clientName)

	return &PulseServer{client: client, conn: conn}, nil
}

// SinkInputs implements Server.
func (p *PulseServer) SinkInputs() ([]SinkInput, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := p.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, err
	}

	inputs := make([]SinkInput, 0, len(reply))
	for _, info := range reply {
		if info == nil {
			continue
		}
		inputs = append(inputs, SinkInput{
			Index:    info.SinkInputIndex,
			AppName:  info.Properties["application.name"].String(),
			Channels: len(info.ChannelVolumes),
		})
	}
	return inputs, nil
}

// SetSinkInputVolume implements Server.
func (p *PulseServer) SetSinkInputVolume(index uint32, volumes []uint32) error {
	return p.client.Request(&proto.SetSinkInputVolume{
		SinkInputIndex: index,
		ChannelVolumes: proto.ChannelVolumes(volumes),
	}, nil)
}

// Close implements Server.
func (p *PulseServer) Close() error {
	return p.conn.Close()
}
