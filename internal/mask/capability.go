// SPDX-License-Identifier: MIT
package mask

import (
	"errors"
	"fmt"
)

// Capability is what the current platform can do with the noise mask.
type Capability int

const (
	// Unsupported platforms cannot play the mask at all.
	Unsupported Capability = iota
	// CanSlaveVolume platforms expose the synth's stream through PulseAudio,
	// so its volume can follow the master control.
	CanSlaveVolume
	// StaticPlaybackOnly platforms start the synth at a fixed gain.
	StaticPlaybackOnly
)

// ErrUnsupportedPlatform is returned for operations with no implementation on
// the running OS.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CanSlaveVolume:
		return "CanSlaveVolume"
	case StaticPlaybackOnly:
		return "StaticPlaybackOnly"
	default:
		return "Unsupported"
	}
}

// DetectCapability picks the capability for goos, normally runtime.GOOS.
func DetectCapability(goos string) (Capability, error) {
	switch goos {
	case "linux":
		return CanSlaveVolume, nil
	case "darwin":
		return StaticPlaybackOnly, nil
	default:
		return Unsupported, fmt.Errorf("%w: %s (feel free to open an issue at https://github.com/morganrivers/noise_masking)", ErrUnsupportedPlatform, goos)
	}
}
