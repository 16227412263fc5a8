//go:build linux || darwin

package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/term/termios"
)

// terminal wraps the termios calls the console frontend needs: raw input
// and a way back to the mode the user started in.
type terminal struct {
	input  *os.File
	output *os.File

	canAttr syscall.Termios
	rawAttr syscall.Termios
}

func newTerminal(input, output *os.File) (*terminal, error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("terminal requires an input and an output file")
	}
	t := &terminal{input: input, output: output}
	if err := termios.Tcgetattr(t.input.Fd(), &t.canAttr); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	t.rawAttr = t.canAttr
	termios.Cfmakeraw(&t.rawAttr)
	return t, nil
}

// rawMode disables line buffering and echo and hides the cursor.
func (t *terminal) rawMode() error {
	if err := termios.Tcsetattr(t.input.Fd(), termios.TCIFLUSH, &t.rawAttr); err != nil {
		return err
	}
	t.output.WriteString(hideCursor + clearScreen)
	return nil
}

// canonicalMode restores the original attributes.
func (t *terminal) canonicalMode() error {
	t.output.WriteString(resetColour + showCursor + "\r\n")
	return termios.Tcsetattr(t.input.Fd(), termios.TCIFLUSH, &t.canAttr)
}

// readKeys copies input bytes to the returned channel until the input
// closes.
func (t *terminal) readKeys() <-chan []byte {
	ch := make(chan []byte, 16)
	go func() {
		defer close(ch)
		buf := make([]byte, 64)
		for {
			n, err := t.input.Read(buf)
			if n > 0 {
				ch <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
