// SPDX-License-Identifier: MIT
/*
Package audio records the ambient sample natively through PortAudio and
inspects WAV files before they are analysed.

The capture engine:
- Reads int32 frames from a PortAudio input stream
- Tracks the running peak level to spot silent captures
- Writes every buffer to a WAV file through go-audio/wav

Thread Safety:
- Recording state is an atomic flag shared with the PortAudio callback
- Buffers are allocated once, before the stream starts
*/
package audio

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"noisemask/internal/config"
	"noisemask/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

type Engine struct {
	// Core configuration.
	config config.RecordingConfig

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Level tracking for the silence check.
	peak             atomic.Int32 // Largest absolute sample seen
	silenceThreshold int32        // Absolute amplitude below which a capture is silent

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	writeErr    error            // First encoder error, read after the stream stops
}

// NewEngine opens the configured input device.
func NewEngine(cfg config.RecordingConfig) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	engine := newEngine(cfg)
	engine.inputDevice = inputDevice
	engine.inputLatency = inputDevice.DefaultHighInputLatency
	return engine, nil
}

func newEngine(cfg config.RecordingConfig) *Engine {
	e := &Engine{
		config:      cfg,
		inputBuffer: make([]int32, cfg.FramesPerBuffer*cfg.Channels),
	}
	e.SetSilenceLevel(cfg.SilenceLevel)
	return e
}

// Record captures config.Seconds of audio into filename. Cancelling ctx ends
// the capture early; the partial file is still closed properly.
func (e *Engine) Record(ctx context.Context, filename string) error {
	if err := e.StartRecording(filename); err != nil {
		return err
	}
	if err := e.StartInputStream(); err != nil {
		return errors.Join(err, e.StopRecording())
	}
	log.Infof("Recording %ds from %s...", e.config.Seconds, e.inputDevice.Name)

	timer := time.NewTimer(time.Duration(e.config.Seconds) * time.Second)
	defer timer.Stop()

	var waitErr error
	select {
	case <-ctx.Done():
		waitErr = ctx.Err()
	case <-timer.C:
	}

	return errors.Join(waitErr, e.Close())
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.FramesPerBuffer,
		SampleRate:      e.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	buffer := e.inputBuffer[:n]
	e.trackPeak(buffer)

	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		shift := 32 - e.config.BitDepth
		// A short callback must not shrink the buffer for the next one.
		e.sampleBuf.Data = e.sampleBuf.Data[:n:cap(e.sampleBuf.Data)]
		for i, sample := range buffer {
			e.sampleBuf.Data[i] = int(sample >> shift)
		}

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil && e.writeErr == nil {
			e.writeErr = err
			log.Errorf("Error writing to WAV file: %v", err)
		}
	}
}
