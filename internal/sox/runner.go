package sox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"noisemask/internal/log"
)

// Runner executes tool commands. ExecRunner is the real implementation;
// tests substitute their own.
type Runner interface {
	// Run executes cmd to completion and returns what it wrote.
	Run(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
	// Start launches cmd in the background with its output discarded.
	Start(cmd Command) (Process, error)
}

// Process is a background tool started by a Runner.
type Process interface {
	Pid() int
	// Stop asks the process to terminate and waits for it to exit.
	Stop() error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// StopTimeout is how long Stop waits after SIGTERM before killing.
	StopTimeout time.Duration
}

// NewExecRunner returns a runner with a two second stop timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{StopTimeout: 2 * time.Second}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	start := time.Now()
	defer func() {
		log.Debugf("sox: %s completed in %s", c, time.Since(start))
	}()

	//nolint:gosec // G204: argument lists are built by this package, never by a shell
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%s interrupted: %w", c.Name, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s failed: %s: %w", c.Name, lastLine(msg), err)
		} else {
			err = fmt.Errorf("%s failed: %w", c.Name, err)
		}
		log.Debugf("sox: %s: %v", c, err)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// Start implements Runner.
func (r *ExecRunner) Start(c Command) (Process, error) {
	//nolint:gosec // G204: argument lists are built by this package, never by a shell
	cmd := exec.Command(c.Name, c.Args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}
	log.Debugf("sox: started %s (pid %d)", c, cmd.Process.Pid)

	p := &execProcess{cmd: cmd, timeout: r.StopTimeout, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd     *exec.Cmd
	timeout time.Duration
	done    chan struct{}
	waitErr error
	once    sync.Once
	stopErr error
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Stop sends SIGTERM, then SIGKILL if the process outlives the timeout.
// Repeated calls return the first result.
func (p *execProcess) Stop() error {
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.stopErr = fmt.Errorf("failed to signal pid %d: %w", p.Pid(), err)
			return
		}

		select {
		case <-p.done:
		case <-time.After(p.timeout):
			log.Warnf("sox: pid %d ignored SIGTERM, killing", p.Pid())
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.stopErr = fmt.Errorf("failed to kill pid %d: %w", p.Pid(), err)
				return
			}
			<-p.done
		}
	})
	return p.stopErr
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
