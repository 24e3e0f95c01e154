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

package debug

import (
	"bytes"
	"testing"
)

func reset() {
	out = nil
	enabled = 0
}

func TestTracefSuppressedUntilEnabled(t *testing.T) {
	reset()
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	Tracef(Inst, "pc=%x", 0x80000000)
	if buf.Len() != 0 {
		t.Fatal("Tracef should be silent until its category is enabled")
	}

	Enable(Inst)
	Tracef(Inst, "pc=%x", 0x80000000)
	if buf.Len() == 0 {
		t.Fatal("Tracef should write once Inst is enabled")
	}
}

func TestTracefRequiresAnOutputWriter(t *testing.T) {
	reset()
	defer reset()

	Enable(Inst)
	Tracef(Inst, "never written")
	if Enabled(Inst) {
		t.Fatal("Enabled should report false without an output writer")
	}
}

func TestEnableIsAdditive(t *testing.T) {
	reset()
	defer reset()

	SetOutput(&bytes.Buffer{})
	Enable(Inst)
	Enable(MMU)
	if !Enabled(Inst) || !Enabled(MMU) {
		t.Fatal("enabling MMU should not clear the previously enabled Inst category")
	}
	if Enabled(Trap) {
		t.Fatal("Trap was never enabled")
	}
}

func TestUnrelatedCategoryStaysMasked(t *testing.T) {
	reset()
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	Enable(MMU)
	Tracef(Bus, "should stay suppressed")
	if buf.Len() != 0 {
		t.Fatal("Bus tracing was never enabled, Tracef should stay silent")
	}
}
