/*
 * riscv-emu - SiFive_U (FU540) machine bus
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

package bus

import (
	"testing"

	"github.com/rcornwell/riscv-emu/emu/console"
)

func TestSiFiveUDRAMReadWrite(t *testing.T) {
	b := NewSiFiveU(console.Dummy{}, console.Dummy{})
	b.SetDeviceData(DeviceDRAM, []byte{0xaa, 0xbb, 0xcc, 0xdd})
	got, ok := b.Read32(suDRAMStart)
	if !ok || got != 0xddccbbaa {
		t.Errorf("Read32(suDRAMStart) = (%#x, %v), want (0xddccbbaa, true)", got, ok)
	}
}

func TestSiFiveUOutOfRangeFails(t *testing.T) {
	b := NewSiFiveU(console.Dummy{}, console.Dummy{})
	if _, ok := b.Read8(suDRAMStart + suDRAMSize); ok {
		t.Fatal("reading past the end of DRAM should report ok=false")
	}
}

func TestSiFiveUPeripheralByteAccessPanics(t *testing.T) {
	b := NewSiFiveU(console.Dummy{}, console.Dummy{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on a byte access to the PLIC range")
		}
	}()
	b.Read8(intcStart)
}

func TestSiFiveUDtbBaseAddressSharesMirror(t *testing.T) {
	b := NewSiFiveU(console.Dummy{}, console.Dummy{})
	if b.BaseAddress(DeviceDTB) != sifiveEDTBMirror {
		t.Error("SiFive_U should report the same DTB mirror address as SiFive_E")
	}
}

func TestSiFiveUWordWidePeripheralAccess(t *testing.T) {
	b := NewSiFiveU(console.Dummy{}, console.Dummy{})
	b.Write32(timerStart, 1) // msip hart 0
	got, ok := b.Read32(timerStart)
	if !ok || got != 1 {
		t.Errorf("clint msip readback = (%#x, %v), want (1, true)", got, ok)
	}
}
