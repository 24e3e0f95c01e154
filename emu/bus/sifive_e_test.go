/*
 * riscv-emu - SiFive_E (FE310) machine bus
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

func TestSiFiveEFlashLoadsAndReads(t *testing.T) {
	b := NewSiFiveE(console.Dummy{}, console.Dummy{})
	b.SetDeviceData(DeviceSpiFlash, []byte{0x01, 0x02, 0x03, 0x04})
	got, ok := b.Read32(flashStart)
	if !ok || got != 0x04030201 {
		t.Errorf("Read32(flashStart) = (%#x, %v), want (0x04030201, true)", got, ok)
	}
}

func TestSiFiveEDtimReadWrite(t *testing.T) {
	b := NewSiFiveE(console.Dummy{}, console.Dummy{})
	b.Write64(dtimStart, 0x1122334455667788)
	got, ok := b.Read64(dtimStart)
	if !ok || got != 0x1122334455667788 {
		t.Errorf("Read64(dtimStart) = (%#x, %v)", got, ok)
	}
}

func TestSiFiveEPeripheralByteAccessPanics(t *testing.T) {
	b := NewSiFiveE(console.Dummy{}, console.Dummy{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on a byte access to the GPIO range")
		}
	}()
	b.Read8(gpioStart)
}

func TestSiFiveESecondUARTIsSilent(t *testing.T) {
	b := NewSiFiveE(console.Dummy{}, console.Dummy{})
	b.Write32(uart1Start+0x00, 'x') // txdata on the dummy-backed uart1
	irqs := b.Tick()
	if irqs[ContextMachine] {
		t.Error("an idle uart1 should not raise an interrupt")
	}
}

func TestSiFiveEBaseAddresses(t *testing.T) {
	b := NewSiFiveE(console.Dummy{}, console.Dummy{})
	if b.BaseAddress(DeviceSpiFlash) != flashStart {
		t.Error("flash base address mismatch")
	}
	if b.BaseAddress(DeviceDTB) != sifiveEDTBMirror {
		t.Error("dtb base address mismatch")
	}
}
