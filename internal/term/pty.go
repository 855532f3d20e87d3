package term

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Pty is a child process attached to a pseudo-terminal.
type Pty struct {
	f   *os.File
	cmd *exec.Cmd

	waitOnce sync.Once
	waitErr  error
}

// StartPty starts opts.Shell on a new pseudo-terminal of cols x rows.
func StartPty(opts Options, env ...string) (*Pty, error) {
	shell, err := exec.LookPath(opts.Shell)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShellNotFound, opts.Shell)
	}

	cmd := exec.Command(shell, opts.Args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = append(os.Environ(), "TERM="+opts.TermName)
	cmd.Env = append(cmd.Env, opts.Env...)
	cmd.Env = append(cmd.Env, env...)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(opts.Cols),
		Rows: uint16(opts.Rows),
	})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}
	return &Pty{f: f, cmd: cmd}, nil
}

// Fd returns the master file descriptor.
func (p *Pty) Fd() uintptr {
	return p.f.Fd()
}

// Read reads child output. A closed or hung-up pty reads as io.EOF.
func (p *Pty) Read(buf []byte) (int, error) {
	n, err := p.f.Read(buf)
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		err = io.EOF
	}
	return n, err
}

// Write sends input to the child.
func (p *Pty) Write(data []byte) (int, error) {
	return p.f.Write(data)
}

// Resize changes the pty window size.
func (p *Pty) Resize(cols, rows int) error {
	return pty.Setsize(p.f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Pid returns the child's process id.
func (p *Pty) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Wait waits for the child to exit. It may be called more than once.
func (p *Pty) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// Close closes the master side, which hangs up the child.
func (p *Pty) Close() error {
	return p.f.Close()
}

// poll is unix.Poll, replaceable in tests.
var poll = unix.Poll

// Readable polls fd for input for up to timeoutMs milliseconds. Interrupted
// polls are retried.
func Readable(fd uintptr, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0, nil
	}
}
