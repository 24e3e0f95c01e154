/*
 * riscv-emu - SiFive FE310 UART
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

package uart

import "testing"

func TestRxdataReflectsEmptyFifo(t *testing.T) {
	u := NewFE310(&queueConsole{})
	if got := u.ReadWord(0x04); got&0x80000000 == 0 {
		t.Errorf("rxdata = %#x, want the empty bit set", got)
	}
}

func TestReceivedByteDequeuesThroughRxdata(t *testing.T) {
	c := &queueConsole{in: []uint8{'Q'}}
	u := NewFE310(c)

	for i := 0; i <= fe310PollRxEvery; i++ {
		u.Tick()
	}
	got := u.ReadWord(0x04)
	if got&0x80000000 != 0 {
		t.Fatal("expected a queued byte, not the empty marker")
	}
	if uint8(got) != 'Q' {
		t.Errorf("rxdata low byte = %q, want 'Q'", uint8(got))
	}
}

func TestTransmitDrainsFifoToConsole(t *testing.T) {
	c := &queueConsole{}
	u := NewFE310(c)
	u.WriteWord(0x00, 'Z')

	for i := 0; i <= fe310PollTxEvery; i++ {
		u.Tick()
	}
	if len(c.out) != 1 || c.out[0] != 'Z' {
		t.Fatalf("console output = %v, want ['Z']", c.out)
	}
}

func TestReceiveWatermarkRaisesInterrupt(t *testing.T) {
	u := NewFE310(&queueConsole{})
	u.WriteWord(0x10, fe310RxWatermark) // ie
	u.rxctrl = 0x01 | (1 << 16)         // enable, watermark=1
	u.rfifo = []uint8{'A'}
	u.updateReceiveIRQ()

	if !u.IRQ() {
		t.Fatal("expected an interrupt once the rx fifo reaches its watermark")
	}
}

func TestControlRegistersAreMasked(t *testing.T) {
	u := NewFE310(&queueConsole{})
	u.WriteWord(0x08, 0xffffffff)
	if u.txctrl != 0x70003 {
		t.Errorf("txctrl = %#x, want masked to 0x70003", u.txctrl)
	}
}

func TestReservedAddressPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic reading a reserved FE310 UART address")
		}
	}()
	NewFE310(&queueConsole{}).ReadWord(0x20)
}
