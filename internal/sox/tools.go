package sox

import (
	"context"
	"fmt"
	"os"

	"noisemask/internal/log"
)

// Tools runs the recording and analysis steps for one platform.
type Tools struct {
	Runner Runner
	GOOS   string
}

// Record captures seconds of audio into out.
func (t *Tools) Record(ctx context.Context, out string, seconds int) error {
	cmd, err := RecordCommand(t.GOOS, out, seconds)
	if err != nil {
		return err
	}
	log.Infof("Recording %d seconds of audio to %s...", seconds, out)
	if _, _, err := t.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to record audio: %w", err)
	}
	return nil
}

// Spectrogram renders in as a PNG at out.
func (t *Tools) Spectrogram(ctx context.Context, in, out string) error {
	log.Infof("Generating spectrogram %s...", out)
	if _, _, err := t.Runner.Run(ctx, SpectrogramCommand(in, out)); err != nil {
		return fmt.Errorf("failed to generate spectrogram: %w", err)
	}
	return nil
}

// FrequencyTable returns sox's raw `stat -freq` report for in. The table is
// followed by a summary block; stats.Parse skips it.
func (t *Tools) FrequencyTable(ctx context.Context, in string) ([]byte, error) {
	if _, err := os.Stat(in); err != nil {
		return nil, fmt.Errorf("failed to fetch audio statistics: %w", err)
	}
	log.Infof("Fetching audio statistics for %s...", in)
	_, stderr, err := t.Runner.Run(ctx, StatFreqCommand(in))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio statistics: %w", err)
	}
	return stderr, nil
}
