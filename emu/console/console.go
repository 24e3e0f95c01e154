/*
 * riscv-emu - Console front end
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

// Package console defines the serial console contract the UART models poll,
// plus two implementations: a raw-mode terminal front end for interactive
// use and a dummy sink for test mode.
package console

// Console is the abstract character source/sink a UART polls each tick.
// getchar/putchar never block: getchar returns 0 when no byte is waiting,
// matching the 16550a/FE310 polled-FIFO behavior described by the bus.
type Console interface {
	// Putchar writes one byte to the console output.
	Putchar(c uint8)
	// Getchar returns the next input byte, or 0 if none is available.
	Getchar() uint8
	// SetInput feeds one byte into the console's input side, used by
	// embedded front ends that push bytes in rather than have the
	// console read them from a terminal.
	SetInput(c uint8)
	// GetOutput drains one byte from the console's output side, used by
	// embedded front ends that pull bytes out rather than print them.
	GetOutput() uint8
	// Close restores any host terminal state the console changed.
	Close()
}

// Dummy discards all output and never has input available. Used in test
// mode, where the emulator is driven by the .tohost convention rather than
// a human at a terminal.
type Dummy struct{}

func (Dummy) Putchar(uint8)     {}
func (Dummy) Getchar() uint8    { return 0 }
func (Dummy) SetInput(uint8)    {}
func (Dummy) GetOutput() uint8  { return 0 }
func (Dummy) Close()            {}
