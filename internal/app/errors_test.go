package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/glyphterm/internal/renderer/backend"
	"github.com/dshills/glyphterm/internal/renderer/font"
	"github.com/dshills/glyphterm/internal/scheduler"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{"nil error", nil, ""},
		{"op only", &OperationError{Op: "resize"}, "resize"},
		{"op and target", &OperationError{Op: "reload", Target: "/etc/glyphterm.toml"}, "reload /etc/glyphterm.toml"},
		{
			"full error chain",
			&OperationError{Op: "reload", Target: "theme.json", Context: "colors", Err: errors.New("bad hex")},
			"reload theme.json (colors): bad hex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext(t *testing.T) {
	err := NewOperationError("resize", "", nil).WithContext("120x40")
	if err.Context != "120x40" {
		t.Errorf("Context = %q, want %q", err.Context, "120x40")
	}

	var nilErr *OperationError
	if nilErr.WithContext("x") != nil {
		t.Error("WithContext on nil receiver should return nil")
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewOperationError("reload", "config.toml", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false, want true")
	}
	var nilErr *OperationError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap() on nil receiver should return nil")
	}
}

func TestComponentError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ComponentError
		expected string
	}{
		{"nil error", nil, ""},
		{"component only", &ComponentError{Component: "fonts"}, "fonts"},
		{"component and action", &ComponentError{Component: "fonts", Action: "scan"}, "fonts: scan"},
		{"component and error", &ComponentError{Component: "terminal", Err: errors.New("eof")}, "terminal: eof"},
		{"full", &ComponentError{Component: "renderer", Action: "init", Err: errors.New("no size")}, "renderer: init: no size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestComponentError_Unwrap(t *testing.T) {
	err := NewComponentError("watcher", "watch", backend.ErrClosed)
	if !errors.Is(err, backend.ErrClosed) {
		t.Error("errors.Is(err, backend.ErrClosed) = false, want true")
	}
	var nilErr *ComponentError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap() on nil receiver should return nil")
	}
}

func TestInitError(t *testing.T) {
	inner := errors.New("no pty")
	err := &InitError{Component: "terminal", Err: inner}

	if got, want := err.Error(), "init terminal: no pty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInitialization) {
		t.Error("errors.Is(err, ErrInitialization) = false, want true")
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false, want true")
	}
}

func TestFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
		kind  FatalKind
	}{
		{"nil", nil, false, 0},
		{"plain", errors.New("boom"), false, 0},
		{"display error", &backend.DisplayError{Op: "present", Err: errors.New("gone")}, false, 0},
		{"font load", fmt.Errorf("load: %w", font.ErrFontLoad), true, FatalFont},
		{"no fonts", &InitError{Component: "fonts", Err: font.ErrNoFonts}, true, FatalFont},
		{"wait", fmt.Errorf("%w: EBADF", scheduler.ErrWait), true, FatalResource},
		{"exhausted", ErrResourceExhausted, true, FatalResource},
		{"already fatal", &FatalError{Kind: FatalFont, Err: errors.New("x")}, true, FatalFont},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
			var fe *FatalError
			if !errors.As(Fatal(tt.err), &fe) {
				return
			}
			if fe.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", fe.Kind, tt.kind)
			}
			if !errors.Is(fe, tt.err) {
				t.Errorf("fatal error does not wrap %v", tt.err)
			}
		})
	}
}

func TestFatal_WaitIsResourceExhaustion(t *testing.T) {
	err := Fatal(scheduler.ErrWait)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("Fatal(ErrWait) = %v, want it to wrap ErrResourceExhausted", err)
	}
}

func TestFatalKind_String(t *testing.T) {
	tests := []struct {
		kind FatalKind
		want string
	}{
		{FatalResource, "resource exhaustion"},
		{FatalFont, "font load failure"},
		{FatalKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("FatalKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestRecoveredPanicError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *RecoveredPanicError
		expected string
	}{
		{"nil", nil, ""},
		{"value only", NewRecoveredPanicError("oops", ""), "panic: oops"},
		{"with stack", NewRecoveredPanicError(42, "main.go:1"), "panic: 42\nmain.go:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestErrorList(t *testing.T) {
	list := NewErrorList()
	if list.HasErrors() || list.AsError() != nil {
		t.Error("new list should be empty")
	}
	if list.Errors() != nil {
		t.Error("Errors() on empty list should be nil")
	}

	first := errors.New("first")
	list.Add(nil)
	list.Add(first)
	if got := list.Error(); got != "first" {
		t.Errorf("Error() = %q, want %q", got, "first")
	}

	list.Add(errors.New("second"))
	if list.Len() != 2 {
		t.Errorf("Len() = %d, want 2", list.Len())
	}
	if got, want := list.Error(), "2 errors: first: first"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(list.AsError(), first) {
		t.Error("errors.Is(list, first) = false, want true")
	}

	errs := list.Errors()
	errs[0] = nil
	if list.Errors()[0] != first {
		t.Error("Errors() must return a copy")
	}

	var nilList *ErrorList
	if nilList.Error() != "" {
		t.Error("Error() on nil list should be empty")
	}
}

func TestWrapError(t *testing.T) {
	inner := errors.New("inner")
	err := WrapError(inner, "loading %s", "config.toml")

	if got, want := err.Error(), "loading config.toml: inner"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error should match inner")
	}
	if WrapError(nil, "ignored") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}
