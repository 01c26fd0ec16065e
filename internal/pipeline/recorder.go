package pipeline

import (
	"context"

	"noisemask/internal/audio"
	"noisemask/internal/config"
	"noisemask/internal/log"
	"noisemask/internal/sox"
)

// Recorder captures the ambient sample into a WAV file.
type Recorder interface {
	Record(ctx context.Context, out string) error
}

// ToolRecorder records with arecord (Linux) or sox (macOS).
type ToolRecorder struct {
	Tools   *sox.Tools
	Seconds int
}

func (r ToolRecorder) Record(ctx context.Context, out string) error {
	return r.Tools.Record(ctx, out, r.Seconds)
}

// PortAudioRecorder records through PortAudio without external tools.
type PortAudioRecorder struct {
	Config config.RecordingConfig
}

func (r PortAudioRecorder) Record(ctx context.Context, out string) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			log.Warnf("%v", err)
		}
	}()

	engine, err := audio.NewEngine(r.Config)
	if err != nil {
		return err
	}
	if err := engine.Record(ctx, out); err != nil {
		return err
	}
	if engine.Silent() {
		log.Warnf("Peak level %.5f is below the silence level; is the microphone on?", engine.Peak())
	}
	return nil
}

// NewRecorder picks the recorder for the configured backend.
func NewRecorder(cfg config.RecordingConfig, tools *sox.Tools) Recorder {
	if cfg.Backend == config.BackendPortAudio {
		return PortAudioRecorder{Config: cfg}
	}
	return ToolRecorder{Tools: tools, Seconds: cfg.Seconds}
}
