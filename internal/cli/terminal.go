package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// TerminalDetector defines the interface for terminal detection
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the default implementation using golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector interface
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}

// isInteractiveInput reports whether r is a terminal a person can type into
func (c *CLI) isInteractiveInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(int(f.Fd()))
}

// pausable is the part of a playback device the keyboard controls drive
type pausable interface {
	State() audio.DeviceState
	Start() error
	Stop() error
}

// readControls reads line commands from r until ctx ends, r is exhausted, or
// the user quits. An empty line toggles pause; "q" closes quit.
func readControls(ctx context.Context, r io.Reader, device pausable, quit chan<- struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			togglePause(device)
		case "q", "quit":
			close(quit)
			return
		}
	}
}

func togglePause(device pausable) {
	var err error
	if device.State() == audio.StateStarted {
		err = device.Stop()
		slog.Info("playback paused")
	} else {
		err = device.Start()
		slog.Info("playback resumed")
	}
	if err != nil {
		slog.Warn("failed to toggle playback", "error", err)
	}
}
