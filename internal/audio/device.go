package audio

import "time"

// Device represents an audio device
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
}

// Type describes the device direction.
func (d Device) Type() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "Unknown"
	}
}

// CanRecord reports whether the device has input channels.
func (d Device) CanRecord() bool {
	return d.MaxInputChannels > 0
}

// InputDevices filters devices down to those that can record.
func InputDevices(devices []Device) []Device {
	var out []Device
	for _, d := range devices {
		if d.CanRecord() {
			out = append(out, d)
		}
	}
	return out
}
