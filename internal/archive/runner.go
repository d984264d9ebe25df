package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// tailSize bounds how much tool output is kept for the journal.
const tailSize = 4096

// ErrToolNotFound is returned when the archive program is not on PATH.
var ErrToolNotFound = errors.New("archive tool not found")

// Result describes a finished transfer command.
type Result struct {
	ExitCode int
	Duration time.Duration
	Tail     string // last few KB of combined output
}

// Runner executes transfer commands. Implementations block until the command
// exits or ctx is cancelled.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Options configures an ExecRunner.
type Options struct {
	Stdout     io.Writer
	Stderr     io.Writer
	WorkingDir string
	Env        map[string]string
	WaitDelay  time.Duration
}

// Option modifies Options.
type Option func(*Options)

// WithOutput sets where the tool's stdout and stderr are streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Options) {
		o.Stdout = stdout
		o.Stderr = stderr
	}
}

// WithWorkingDir runs the tool from dir.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds one variable to the inherited environment.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	options Options
}

// NewRunner creates an ExecRunner streaming to the console by default.
func NewRunner(opts ...Option) *ExecRunner {
	o := Options{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &ExecRunner{options: o}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.WaitDelay = r.options.WaitDelay
	if r.options.WorkingDir != "" {
		cmd.Dir = r.options.WorkingDir
	}
	if len(r.options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.options.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	tail := &tailBuffer{max: tailSize}
	cmd.Stdout = writers(r.options.Stdout, tail)
	cmd.Stderr = writers(r.options.Stderr, tail)

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Duration: time.Since(start),
		Tail:     tail.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %s", ErrToolNotFound, c.Program)
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, fmt.Errorf("transfer interrupted: %w", ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%s exited with status %d", c.Program, res.ExitCode)
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("run %s: %w", c.Program, err)
	}
}

func writers(primary io.Writer, tail io.Writer) io.Writer {
	if primary == nil {
		return tail
	}
	return io.MultiWriter(primary, tail)
}

// tailBuffer keeps the last max bytes written to it. Stdout and stderr share
// one buffer, so writes are serialized.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
