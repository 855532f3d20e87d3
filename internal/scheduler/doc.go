// Package scheduler runs the frame loop of the terminal.
//
// One goroutine owns the screen, the renderer and the font state. Each
// iteration of the loop
//
//  1. waits for child output, a display event or a timeout,
//  2. applies child output to the screen,
//  3. drains every pending display event,
//  4. decides whether a frame is due, toggling blink when its timeout
//     elapsed, and
//  5. draws and presents the frame.
//
// Frames are paced at an active rate while display events keep arriving
// and at an idle rate afterwards. A redraw is never issued sooner than
// the active minimum interval after the previous one; forced redraws are
// deferred, not dropped.
//
// # Usage
//
//	s := scheduler.New(scheduler.Deps{
//		Waiter:  scheduler.NewPollWaiter(term.Fd(), display.Events()),
//		Display: display,
//		Child:   term,
//		Screen:  term.Screen(),
//		Drawer:  rend,
//		Handler: app,
//	}, scheduler.DefaultConfig())
//	err := s.Run(ctx)
package scheduler
