package term

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func startShell(t *testing.T, script string) *Terminal {
	t.Helper()
	term, err := Start(Options{Shell: "/bin/sh", Args: []string{"-c", script}, Cols: 80, Rows: 5})
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() { term.Close() })
	return term
}

// drain pumps the terminal until the child hangs up or the deadline passes.
func drain(t *testing.T, term *Terminal) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ok, err := Readable(term.Fd(), 100)
		if err != nil {
			t.Fatalf("Readable: %v", err)
		}
		if !ok {
			continue
		}
		if _, err := term.Pump(); errors.Is(err, io.EOF) {
			return
		} else if err != nil {
			t.Fatalf("Pump: %v", err)
		}
	}
	t.Fatal("child did not exit")
}

func TestPtyShellOutput(t *testing.T) {
	term := startShell(t, "printf ready")
	drain(t, term)

	if got := term.Screen().Text(); !strings.HasPrefix(got, "ready") {
		t.Errorf("Text() = %q, want ready", got)
	}
	if err := term.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestPtySessionEnv(t *testing.T) {
	term := startShell(t, `printf "%s %s" "$TERM" "$GLYPHTERM_SESSION"`)
	drain(t, term)

	want := "xterm-256color " + term.ID()
	if got := term.Screen().Text(); !strings.HasPrefix(got, want) {
		t.Errorf("Text() = %q, want prefix %q", got, want)
	}
}

func TestPtySize(t *testing.T) {
	term := startShell(t, "sleep 0.2; stty size")
	if err := term.Resize(100, 7); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	drain(t, term)

	if got := term.Screen().Text(); !strings.HasPrefix(got, "7 100") {
		t.Errorf("Text() = %q, want stty to report 7 100", got)
	}
}

func TestStartMissingShell(t *testing.T) {
	_, err := Start(Options{Shell: "/nonexistent/shell"})
	if !errors.Is(err, ErrShellNotFound) {
		t.Errorf("Start() = %v, want ErrShellNotFound", err)
	}
}

func TestReadableRetriesInterruptedPoll(t *testing.T) {
	orig := poll
	t.Cleanup(func() { poll = orig })

	tests := []struct {
		name    string
		results []error
		want    bool
		wantErr error
		calls   int
	}{
		{"ready after EINTR", []error{unix.EINTR, nil}, true, nil, 2},
		{"two EINTR", []error{unix.EINTR, unix.EINTR, nil}, true, nil, 3},
		{"other error", []error{unix.EBADF}, false, unix.EBADF, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			poll = func(fds []unix.PollFd, timeout int) (int, error) {
				err := tt.results[calls]
				calls++
				if err != nil {
					return -1, err
				}
				fds[0].Revents = unix.POLLIN
				return 1, nil
			}

			ok, err := Readable(3, 50)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Readable() error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.want {
				t.Errorf("Readable() = %v, want %v", ok, tt.want)
			}
			if calls != tt.calls {
				t.Errorf("poll calls = %d, want %d", calls, tt.calls)
			}
		})
	}
}
