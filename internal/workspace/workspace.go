// Package workspace owns the well-known files a run reads and writes.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// File names inside the data directory.
const (
	InputFile       = "input.wav"
	SpectrogramFile = "spectrum.png"
	StatsFile       = "data.txt"
	HistoryFile     = "history.db"
)

// Workspace is a data directory holding the latest recording, its
// spectrogram and frequency table, backups of older recordings and the
// measurement history.
type Workspace struct {
	Dir string
}

// New returns a Workspace rooted at dir.
func New(dir string) *Workspace {
	return &Workspace{Dir: dir}
}

func (w *Workspace) Input() string       { return filepath.Join(w.Dir, InputFile) }
func (w *Workspace) Spectrogram() string { return filepath.Join(w.Dir, SpectrogramFile) }
func (w *Workspace) Stats() string       { return filepath.Join(w.Dir, StatsFile) }
func (w *Workspace) History() string     { return filepath.Join(w.Dir, HistoryFile) }

// Ensure creates the data directory if needed.
func (w *Workspace) Ensure() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// HasStats reports whether a frequency table from an earlier run exists.
func (w *Workspace) HasStats() bool {
	return isFile(w.Stats())
}

// HasRecording reports whether an earlier recording exists.
func (w *Workspace) HasRecording() bool {
	return isFile(w.Input())
}

// BackupName returns the backup file name for a recording made at t.
// Fields are not zero padded: input_2024_3_7_9_5.wav.
func BackupName(t time.Time) string {
	return fmt.Sprintf("input_%d_%d_%d_%d_%d.wav", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// Backup copies the current recording next to it under BackupName(now) and
// returns the new path.
func (w *Workspace) Backup(now time.Time) (string, error) {
	dst := filepath.Join(w.Dir, BackupName(now))
	if err := copyFile(w.Input(), dst); err != nil {
		return "", fmt.Errorf("failed to back up recording: %w", err)
	}
	return dst, nil
}

// ParseBackupName returns the local time encoded by BackupName.
func ParseBackupName(name string) (time.Time, bool) {
	var year, month, day, hour, minute int
	n, err := fmt.Sscanf(name, "input_%d_%d_%d_%d_%d.wav", &year, &month, &day, &hour, &minute)
	if err != nil || n != 5 || BackupName(time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)) != name {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}

// Backup is one timestamped copy of a recording.
type Backup struct {
	Path string
	At   time.Time
}

// Backups lists existing backup recordings, oldest first. Files whose name
// does not hold a timestamp are skipped.
func (w *Workspace) Backups() ([]Backup, error) {
	matches, err := filepath.Glob(filepath.Join(w.Dir, "input_*.wav"))
	if err != nil {
		return nil, err
	}
	var backups []Backup
	for _, m := range matches {
		at, ok := ParseBackupName(filepath.Base(m))
		if !ok || !isFile(m) {
			continue
		}
		backups = append(backups, Backup{Path: m, At: at})
	}
	slices.SortStableFunc(backups, func(a, b Backup) int {
		return a.At.Compare(b.At)
	})
	return backups, nil
}

// WriteStats replaces the frequency table with data.
func (w *Workspace) WriteStats(write func(io.Writer) error) error {
	f, err := os.Create(w.Stats())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", StatsFile, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", StatsFile, err)
	}
	return f.Close()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no recording at %s", src)
		}
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
