/*
 * riscv-emu - Raw terminal console
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package console

import (
	"os"

	"golang.org/x/term"
)

// Terminal puts the host stdin/stdout into raw mode so a guest OS sees
// every keystroke immediately, with no host-side line editing or signal
// generation (^C reaches the guest, not the host process).
type Terminal struct {
	in, out *os.File
	state   *term.State
	pending chan uint8
}

// NewTerminal switches the current process's stdin to raw mode and starts
// a reader goroutine feeding a small buffered channel, so Getchar can be
// non-blocking as the Console contract requires.
func NewTerminal() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	var state *term.State
	if term.IsTerminal(fd) {
		var err error
		state, err = term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
	}

	t := &Terminal{
		in:      os.Stdin,
		out:     os.Stdout,
		state:   state,
		pending: make(chan uint8, 256),
	}

	go t.readLoop()
	return t, nil
}

func (t *Terminal) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			t.pending <- buf[0]
		}
	}
}

func (t *Terminal) Putchar(c uint8) {
	_, _ = t.out.Write([]byte{c})
}

func (t *Terminal) Getchar() uint8 {
	select {
	case c := <-t.pending:
		return c
	default:
		return 0
	}
}

func (t *Terminal) SetInput(c uint8) {
	select {
	case t.pending <- c:
	default:
	}
}

func (t *Terminal) GetOutput() uint8 {
	return 0
}

// Close restores the host terminal's original mode.
func (t *Terminal) Close() {
	if t.state != nil {
		_ = term.Restore(int(os.Stdin.Fd()), t.state)
	}
}
