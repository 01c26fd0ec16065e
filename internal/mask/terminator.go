// SPDX-License-Identifier: MIT
package mask

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"noisemask/internal/log"
	"noisemask/internal/sox"
)

const killTimeout = 5 * time.Second

// Terminator stops the external synth exactly once, however many shutdown
// paths reach it. It is given the name the synth was launched with so a
// stream found already playing can still be stopped.
type Terminator struct {
	name   string
	runner sox.Runner

	mu   sync.Mutex
	proc sox.Process

	once  sync.Once
	err   error
	stops int
}

// NewTerminator returns a Terminator for processes launched as binary.
func NewTerminator(binary string, runner sox.Runner) *Terminator {
	return &Terminator{name: filepath.Base(binary), runner: runner}
}

// Track records the synth process this run started.
func (t *Terminator) Track(p sox.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.proc = p
}

// Name returns the process name used by killall.
func (t *Terminator) Name() string {
	return t.name
}

// Stop terminates the synth. A tracked process is stopped directly;
// otherwise every process with the launch name is killed. Only the first
// call does anything.
func (t *Terminator) Stop() error {
	t.once.Do(func() {
		t.mu.Lock()
		proc := t.proc
		t.stops++
		t.mu.Unlock()

		if proc != nil {
			log.Infof("Stopping %s (pid %d)...", t.name, proc.Pid())
			if err := proc.Stop(); err != nil {
				t.err = fmt.Errorf("failed to stop %s: %w", t.name, err)
			}
			return
		}

		log.Infof("Stopping every %s process...", t.name)
		ctx, cancel := context.WithTimeout(context.Background(), killTimeout)
		defer cancel()
		// killall fails when nothing is left to kill.
		if _, _, err := t.runner.Run(ctx, sox.KillallCommand(t.name)); err != nil {
			log.Warnf("killall %s: %v", t.name, err)
		}
	})
	return t.err
}

// Stops returns how many times the synth was actually stopped (0 or 1).
func (t *Terminator) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}
