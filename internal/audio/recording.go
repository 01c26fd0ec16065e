package audio

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	e.outputFile = file
	e.writeErr = nil
	e.peak.Store(0)

	e.wavEncoder = wav.NewEncoder(file, int(e.config.SampleRate),
		e.config.BitDepth, e.config.Channels, wavFormatPCM)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.config.Channels,
			SampleRate:  int(e.config.SampleRate),
		},
		Data:           make([]int, e.config.FramesPerBuffer*e.config.Channels),
		SourceBitDepth: e.config.BitDepth,
	}

	atomic.StoreInt32(&e.isRecording, 1)

	return nil
}

// StopRecording finalises the WAV header and closes the file. It returns
// the first write error seen during the capture, if any.
func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&e.isRecording, 0)

	var errs []error
	errs = append(errs, e.writeErr)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to finalise WAV: %w", err))
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			errs = append(errs, err)
		}
		e.outputFile = nil
	}

	return errors.Join(errs...)
}

// Close stops the input stream before the file is finalised, so the
// callback never writes to a closed encoder.
func (e *Engine) Close() error {
	if err := e.StopInputStream(); err != nil {
		return errors.Join(err, e.StopRecording())
	}
	return e.StopRecording()
}
