package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"whisperkey/shutdown"
)

// terminal remembers the stdin mode at startup. Pressing the hotkey can
// leave the terminal in raw mode, so checks put it back after each press.
type terminal struct {
	fd    int
	state *term.State
}

func saveTerminal() *terminal {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return &terminal{fd: -1}
	}
	state, err := term.GetState(fd)
	if err != nil {
		return &terminal{fd: -1}
	}
	return &terminal{fd: fd, state: state}
}

func (t *terminal) restore() {
	if t.state != nil {
		term.Restore(t.fd, t.state)
	}
}

// exitOnInterrupt restores the terminal and exits when a termination
// signal arrives during the checks.
func (t *terminal) exitOnInterrupt() (stop func()) {
	return shutdown.OnSignal(func(os.Signal) {
		t.restore()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	})
}
