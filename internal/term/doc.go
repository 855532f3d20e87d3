// Package term holds the terminal state the renderer draws: a grid of
// cells with per-cell dirty bits, the escape sequence parser that updates
// it, and the pseudo-terminal running the child program.
//
// # Architecture
//
//   - Screen: cell grid, cursor, modes, selection and dirty counters
//   - Parser: VT/xterm escape sequence parser driving a Screen
//   - Pty: child process attached to a pseudo-terminal (creack/pty)
//   - Terminal: a Screen, Parser and Pty wired together
//
// Screen satisfies renderer.Screen. Every cell write sets the cell's dirty
// bit once and bumps its row counter and the frame counter; the renderer
// takes the bits back while drawing.
//
// # Usage
//
//	t, err := term.Start(term.Options{Cols: 80, Rows: 24})
//	if err != nil {
//	    return err
//	}
//	defer t.Close()
//
//	// after the pty fd polls readable
//	if _, err := t.Pump(); err != nil {
//	    // child exited
//	}
//
// # Thread Safety
//
// Screen, Parser and Terminal are owned by the event loop and are not
// safe for concurrent use.
package term
