// Package process starts and supervises the migration helper process.
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrStart wraps every failure to launch the helper.
var ErrStart = errors.New("starting helper process")

const (
	killWait      = 5 * time.Second
	maxDiagnostic = 1 << 20
	stderrBufSize = 64 << 10
)

var (
	execCommandFn = exec.Command
	lookPathFn    = exec.LookPath
)

// Spec describes how to launch the helper. Relative paths are resolved
// against BaseDir, which itself defaults to the current directory.
type Spec struct {
	Executable string
	// HostArgs are passed to Executable ahead of Assembly, for example
	// runtime host options.
	HostArgs   []string
	Assembly   string
	Mode       string
	ConfigFile string
	RunID      string
	Env        map[string]string
	BaseDir    string
	WorkingDir string

	// Diagnostics receives each stderr line. It may be nil.
	Diagnostics func(line string)
}

// Command resolves the executable path, argument list and working
// directory that Start would use.
func (s Spec) Command() (path string, args []string, dir string, err error) {
	base := s.BaseDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return "", nil, "", fmt.Errorf("resolving base directory: %w", err)
		}
	}
	if base, err = filepath.Abs(base); err != nil {
		return "", nil, "", fmt.Errorf("resolving base directory: %w", err)
	}

	if path, err = resolveExecutable(base, s.Executable); err != nil {
		return "", nil, "", err
	}

	dir = base
	if s.WorkingDir != "" {
		dir = resolveAgainst(base, s.WorkingDir)
	}

	args = append(args, s.HostArgs...)
	if s.Assembly != "" {
		args = append(args, resolveAgainst(base, s.Assembly))
	}
	if s.Mode != "" {
		args = append(args, s.Mode)
	}
	if s.ConfigFile != "" {
		args = append(args, "--config", resolveAgainst(base, s.ConfigFile))
	}
	if s.RunID != "" {
		args = append(args, "--run-id", s.RunID)
	}
	return path, args, dir, nil
}

func resolveExecutable(base, executable string) (string, error) {
	if executable == "" {
		return "", errors.New("no helper executable configured")
	}
	if filepath.IsAbs(executable) {
		return filepath.Clean(executable), nil
	}
	candidate := filepath.Join(base, executable)
	if filepath.Base(executable) != executable {
		return candidate, nil
	}
	// A bare name is taken from the base directory when present there,
	// otherwise from PATH.
	if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
		return candidate, nil
	}
	found, err := lookPathFn(executable)
	if err != nil {
		return "", fmt.Errorf("finding %s: %w", executable, err)
	}
	return filepath.Abs(found)
}

func resolveAgainst(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// Process is a running helper with its stdio attached.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
	stderr *os.File

	done    chan struct{}
	exitErr error
	drained chan struct{}

	closeOnce sync.Once
}

// Start launches the helper described by spec. The process is not bound to
// ctx; ctx only aborts a start that has not happened yet.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	path, args, dir, err := spec.Command()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStart, err)
	}

	cmd := execCommandFn(path, args...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), spec.Env)
	configureProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating stdin pipe: %w", ErrStart, err)
	}

	// Plain os.Pipe pairs rather than StdoutPipe/StderrPipe: Wait closes the
	// latter as soon as the process exits, which would drop replies still
	// buffered in the pipe.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("%w: creating stdout pipe: %w", ErrStart, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("%w: creating stderr pipe: %w", ErrStart, err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrStart, path, err)
	}
	stdoutW.Close()
	stderrW.Close()

	p := &Process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdoutR,
		stderr:  stderrR,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go p.wait()
	go p.drain(spec.Diagnostics)
	return p, nil
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := append([]string(nil), base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func (p *Process) wait() {
	p.exitErr = p.cmd.Wait()
	close(p.done)
}

// drain forwards stderr line by line until the stream ends. Lines longer
// than maxDiagnostic are truncated and the rest of the line is discarded.
func (p *Process) drain(sink func(string)) {
	defer close(p.drained)

	r := bufio.NewReaderSize(p.stderr, stderrBufSize)
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if room := maxDiagnostic - len(line); len(chunk) > room {
			chunk = chunk[:room]
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if len(line) > 0 {
			forward(sink, string(bytes.TrimRight(line, "\r\n")))
		}
		line = line[:0]
		if err != nil {
			return
		}
	}
}

func forward(sink func(string), line string) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink(line)
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Stdin is the helper's standard input.
func (p *Process) Stdin() io.Writer {
	return p.stdin
}

// Stdout is the helper's standard output.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Alive reports whether the process has not exited yet.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the result of waiting on the process. It is only
// meaningful after Done is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// Close closes stdin, gives the process up to grace to exit on its own,
// kills it otherwise, then waits for the stderr drain to finish and
// releases the remaining pipes. Failures along the way are ignored. Close is
// safe to call more than once.
func (p *Process) Close(grace time.Duration) {
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()

		if !p.waitExit(grace) {
			_ = kill(p.cmd)
			p.waitExit(killWait)
		}

		_ = p.stdout.Close()
		// stderr reaches EOF once the process and its children are gone.
		select {
		case <-p.drained:
		case <-time.After(killWait):
		}
		_ = p.stderr.Close()
		<-p.drained
	})
}

func (p *Process) waitExit(d time.Duration) bool {
	if d <= 0 {
		return !p.Alive()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}
