package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Info describes a recorded waveform.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
	Peak       float64 // Largest absolute sample, 0.0-1.0 of full scale
}

// Silent reports whether the peak is below level.
func (i Info) Silent(level float64) bool {
	return i.Peak < level
}

func (i Info) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit, %s, peak %.4f",
		i.SampleRate, i.Channels, i.BitDepth, i.Duration.Round(time.Millisecond), i.Peak)
}

// Probe reads the header and samples of the WAV file at path.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Info{}, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Info{}, fmt.Errorf("failed to read samples from %s: %w", path, err)
	}

	info := Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	if info.Channels > 0 {
		info.Frames = len(buf.Data) / info.Channels
	}
	if info.SampleRate > 0 {
		info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	}

	peak := 0
	for _, s := range buf.Data {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if info.BitDepth > 0 {
		info.Peak = float64(peak) / float64(int64(1)<<(info.BitDepth-1))
	}

	return info, nil
}
