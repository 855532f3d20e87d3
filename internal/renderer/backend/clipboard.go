package backend

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard reads and writes the selection shared with other programs.
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// SystemClipboard uses the host clipboard.
type SystemClipboard struct{}

// Get returns the clipboard text.
func (SystemClipboard) Get() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", &DisplayError{Op: "clipboard read", Err: err}
	}
	return text, nil
}

// Set replaces the clipboard text.
func (SystemClipboard) Set(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return &DisplayError{Op: "clipboard write", Err: err}
	}
	return nil
}

// MemoryClipboard keeps the selection in process.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// Get returns the stored text.
func (c *MemoryClipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

// Set stores text.
func (c *MemoryClipboard) Set(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

// DefaultClipboard returns the host clipboard, or an in-process one when
// no clipboard utility is available.
func DefaultClipboard() Clipboard {
	if clipboard.Unsupported {
		return &MemoryClipboard{}
	}
	return SystemClipboard{}
}
