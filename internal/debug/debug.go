/*
 * riscv-emu - Mask based debug tracing
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

// Package debug provides masked trace output. Each call site passes the
// category it belongs to; output only reaches the writer when that
// category has been enabled. The CPU's test-mode Inst trace is the only
// call site; Trap, MMU, Bus and Device have none.
package debug

import (
	"fmt"
	"io"
)

// Trace categories. Combine with Enable to turn classes of tracing on.
const (
	Inst   = 1 << iota // Retired instruction PC and raw word (test mode)
	Trap               // Exceptions and interrupts
	MMU                // Page walks
	Bus                // Memory mapped I/O decode
	Device             // Peripheral register access
)

var (
	out     io.Writer
	enabled int
)

// SetOutput directs trace output at w. A nil writer disables tracing.
func SetOutput(w io.Writer) {
	out = w
}

// Enable turns on the given trace categories.
func Enable(mask int) {
	enabled |= mask
}

// Enabled reports whether any bit of mask is currently traced.
func Enabled(mask int) bool {
	return out != nil && (enabled&mask) != 0
}

// Tracef emits a formatted trace line when mask is enabled.
func Tracef(mask int, format string, a ...interface{}) {
	if out == nil || (enabled&mask) == 0 {
		return
	}
	fmt.Fprintf(out, format+"\n", a...)
}
