// Package pipeline turns the workspace into noise parameters: it records (or
// reuses) the ambient sample, renders the spectrogram, reads the frequency
// table and reduces it to stats.Params.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"noisemask/internal/audio"
	"noisemask/internal/history"
	"noisemask/internal/log"
	"noisemask/internal/sox"
	"noisemask/internal/stats"
	"noisemask/internal/tui"
	"noisemask/internal/workspace"
)

// Mode decides whether Prepare records a new sample.
type Mode int

const (
	// Ask records when there is no earlier data and prompts otherwise.
	Ask Mode = iota
	Record
	Reuse
)

// ErrNothingToReuse is returned when reuse is forced on an empty workspace.
var ErrNothingToReuse = errors.New("no earlier recording or statistics to reuse")

// Store receives every computed measurement.
type Store interface {
	Add(history.Measurement) (int64, error)
}

// Pipeline prepares the params for one run.
type Pipeline struct {
	Workspace *workspace.Workspace
	Tools     *sox.Tools
	Recorder  Recorder
	History   Store // optional
	Mode      Mode

	// Prompt asks whether to record again; used in Ask mode when earlier
	// statistics exist.
	Prompt func() (tui.Choice, error)

	Backup       bool
	SilenceLevel float64
	Out          io.Writer // summary output, nil for none
	Now          func() time.Time
}

// Result is what Analyze learned about the sample.
type Result struct {
	Params stats.Params
	Source string
	Info   *audio.Info // nil when only the stored table was read
}

// Prepare records or reuses the sample and returns the noise params.
func (p *Pipeline) Prepare(ctx context.Context) (stats.Params, error) {
	if err := p.Workspace.Ensure(); err != nil {
		return stats.Params{}, err
	}

	record, err := p.shouldRecord()
	if err != nil {
		return stats.Params{}, err
	}
	if record {
		if err := p.Record(ctx); err != nil {
			return stats.Params{}, err
		}
	} else {
		log.Infof("Using old audio...")
	}

	res, err := p.Analyze(ctx)
	if err != nil {
		return stats.Params{}, err
	}
	p.remember(res)
	p.printSummary(res)
	return res.Params, nil
}

func (p *Pipeline) shouldRecord() (bool, error) {
	switch p.Mode {
	case Record:
		return true, nil
	case Reuse:
		if !p.Workspace.HasRecording() && !p.Workspace.HasStats() {
			return false, ErrNothingToReuse
		}
		return false, nil
	}

	if !p.Workspace.HasStats() {
		return true, nil
	}
	if p.Prompt == nil {
		return false, nil
	}
	choice, err := p.Prompt()
	if err != nil {
		return false, err
	}
	return choice == tui.ChoiceRecord, nil
}

// Record captures a new sample and keeps a timestamped copy of it.
func (p *Pipeline) Record(ctx context.Context) error {
	if err := p.Workspace.Ensure(); err != nil {
		return err
	}
	if err := p.Recorder.Record(ctx, p.Workspace.Input()); err != nil {
		return err
	}
	if !p.Backup {
		return nil
	}
	dst, err := p.Workspace.Backup(p.now())
	if err != nil {
		return err
	}
	log.Debugf("pipeline: recording copied to %s", dst)
	return nil
}

// Analyze derives params from the recording, or from the stored frequency
// table when there is no recording.
func (p *Pipeline) Analyze(ctx context.Context) (Result, error) {
	if !p.Workspace.HasRecording() {
		return p.analyzeTable()
	}

	in := p.Workspace.Input()
	res := Result{Source: in}

	if info, err := audio.Probe(in); err != nil {
		log.Warnf("Could not inspect %s: %v", in, err)
	} else {
		log.Debugf("pipeline: %s: %s", in, info)
		if info.Silent(p.SilenceLevel) {
			log.Warnf("%s looks silent (peak %.5f)", in, info.Peak)
		}
		res.Info = &info
	}

	if err := p.Tools.Spectrogram(ctx, in, p.Workspace.Spectrogram()); err != nil {
		return Result{}, err
	}
	raw, err := p.Tools.FrequencyTable(ctx, in)
	if err != nil {
		return Result{}, err
	}
	sample, err := stats.Parse(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sox statistics: %w", err)
	}
	if err := p.Workspace.WriteStats(func(w io.Writer) error {
		return stats.WriteTable(w, sample)
	}); err != nil {
		return Result{}, err
	}

	res.Params, err = stats.Compute(sample)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (p *Pipeline) analyzeTable() (Result, error) {
	if !p.Workspace.HasStats() {
		return Result{}, fmt.Errorf("no recording at %s", p.Workspace.Input())
	}
	sample, err := stats.Load(p.Workspace.Stats())
	if err != nil {
		return Result{}, err
	}
	params, err := stats.Compute(sample)
	if err != nil {
		return Result{}, err
	}
	return Result{Params: params, Source: p.Workspace.Stats()}, nil
}

func (p *Pipeline) remember(res Result) {
	if p.History == nil {
		return
	}
	m := history.Measurement{
		RecordedAt: p.now(),
		Source:     res.Source,
		Params:     res.Params,
	}
	if res.Info != nil {
		m.DurationSec = res.Info.Duration.Seconds()
		m.SampleRate = res.Info.SampleRate
	}
	if _, err := p.History.Add(m); err != nil {
		log.Warnf("Measurement not saved: %v", err)
	}
}

func (p *Pipeline) printSummary(res Result) {
	if p.Out == nil {
		return
	}
	var rows []tui.Row
	if res.Info != nil {
		rows = append(rows,
			tui.Row{Label: "Sample", Value: fmt.Sprintf("%d Hz, %d ch", res.Info.SampleRate, res.Info.Channels)},
			tui.Row{Label: "Length", Value: res.Info.Duration.Round(time.Millisecond).String()},
		)
	}
	fmt.Fprintln(p.Out, tui.RenderSummary("Ambient noise", res.Params, rows...))
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
