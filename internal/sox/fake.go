package sox

import (
	"context"
	"sync"
	"sync/atomic"
)

// FakeRunner records commands instead of running them. Responses are looked
// up by command name.
type FakeRunner struct {
	mu       sync.Mutex
	Calls    []Command
	Started  []*FakeProcess
	Stdout   map[string][]byte
	Stderr   map[string][]byte
	Errs     map[string]error
	StartErr error
	// OnRun, when set, is called for every Run before the canned response.
	OnRun func(Command)
	// OnStart, when set, is called for every successful Start.
	OnStart func(Command)
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, c Command) ([]byte, []byte, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	hook := f.OnRun
	out, errOut, err := f.Stdout[c.Name], f.Stderr[c.Name], f.Errs[c.Name]
	f.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return out, errOut, err
}

// Start implements Runner.
func (f *FakeRunner) Start(c Command) (Process, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	if f.StartErr != nil {
		err := f.StartErr
		f.mu.Unlock()
		return nil, err
	}
	p := &FakeProcess{Command: c, pid: 1000 + len(f.Started)}
	f.Started = append(f.Started, p)
	hook := f.OnStart
	f.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return p, nil
}

// Commands returns a copy of every command seen so far.
func (f *FakeRunner) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.Calls...)
}

// FakeProcess counts Stop calls.
type FakeProcess struct {
	Command Command
	pid     int
	stops   atomic.Int32
}

// Pid implements Process.
func (p *FakeProcess) Pid() int { return p.pid }

// Stop implements Process.
func (p *FakeProcess) Stop() error {
	p.stops.Add(1)
	return nil
}

// Stops returns how many times Stop was called.
func (p *FakeProcess) Stops() int {
	return int(p.stops.Load())
}
