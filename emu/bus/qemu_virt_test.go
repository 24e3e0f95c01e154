/*
 * riscv-emu - Qemu-Virt machine bus
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

func TestQemuVirtDRAMReadWrite(t *testing.T) {
	b := NewQemuVirt(console.Dummy{})
	if ok := b.Write32(dramStart, 0xdeadbeef); !ok {
		t.Fatal("write to DRAM base should succeed")
	}
	got, ok := b.Read32(dramStart)
	if !ok || got != 0xdeadbeef {
		t.Errorf("Read32 = (%#x, %v), want (0xdeadbeef, true)", got, ok)
	}
}

func TestQemuVirtOutOfRangeFails(t *testing.T) {
	b := NewQemuVirt(console.Dummy{})
	if _, ok := b.Read8(dramStart + dramSize); ok {
		t.Fatal("reading one byte past DRAM should report ok=false, not panic")
	}
}

func TestQemuVirtDTBLoadsIntoMrom(t *testing.T) {
	b := NewQemuVirt(console.Dummy{})
	b.SetDeviceData(DeviceDTB, []byte{0xd0, 0x0d})
	got, ok := b.Read8(dtbStart)
	if !ok || got != 0xd0 {
		t.Errorf("dtb[0] = (%#x, %v), want (0xd0, true)", got, ok)
	}
}

func TestQemuVirtClintByteAccessPanics(t *testing.T) {
	b := NewQemuVirt(console.Dummy{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on a byte access to the CLINT range")
		}
	}()
	b.Read8(clintStart)
}

func TestQemuVirtIdleTickRaisesNoMachineInterrupt(t *testing.T) {
	b := NewQemuVirt(console.Dummy{})
	irqs := b.Tick()
	if irqs[ContextMachine] {
		t.Error("a freshly constructed machine should not be asserting an interrupt")
	}
}
