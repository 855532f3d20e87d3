// Package main is the entry point for the glyphterm terminal emulator.
package main

import "github.com/dshills/glyphterm/internal/cli"

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	cli.Execute()
}
