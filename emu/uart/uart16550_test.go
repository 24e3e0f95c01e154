/*
 * riscv-emu - 16550a UART
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

// queueConsole is a console.Console with an explicit input queue and
// output buffer, used to drive the UART models deterministically.
type queueConsole struct {
	in  []uint8
	out []uint8
}

func (q *queueConsole) Putchar(c uint8) { q.out = append(q.out, c) }
func (q *queueConsole) Getchar() uint8 {
	if len(q.in) == 0 {
		return 0
	}
	c := q.in[0]
	q.in = q.in[1:]
	return c
}
func (q *queueConsole) SetInput(c uint8) { q.in = append(q.in, c) }
func (q *queueConsole) GetOutput() uint8 { return 0 }
func (q *queueConsole) Close()           {}

func tickUntilRxPoll(u *Uart16550) {
	for i := 0; i <= pollRxEvery; i++ {
		u.Tick()
	}
}

func TestReceivedByteSetsDataReadyAndClearsOnRead(t *testing.T) {
	c := &queueConsole{in: []uint8{'A'}}
	u := New16550(c)

	tickUntilRxPoll(u)
	if u.lsr&lsrDataReady == 0 {
		t.Fatal("expected LSR data-ready after polling a waiting byte")
	}
	if got := u.ReadByte(0); got != 'A' {
		t.Errorf("rhr readback = %q, want 'A'", got)
	}
	if u.lsr&lsrDataReady != 0 {
		t.Error("reading rhr should clear data-ready")
	}
}

func TestWriteToThrIsDrainedToConsole(t *testing.T) {
	c := &queueConsole{}
	u := New16550(c)
	u.WriteByte(0, 'Z')

	for i := 0; i <= pollTxEvery; i++ {
		u.Tick()
	}
	if len(c.out) != 1 || c.out[0] != 'Z' {
		t.Fatalf("console output = %v, want ['Z']", c.out)
	}
}

func TestDivisorLatchGatesIerAccess(t *testing.T) {
	u := New16550(&queueConsole{})
	u.WriteByte(3, lcrDivisorLatchEnable) // LCR: enable divisor latch
	u.WriteByte(1, 0x42)                  // should not reach ier
	if u.ier != 0 {
		t.Errorf("ier = %#x, want 0 while divisor latch is enabled", u.ier)
	}
}

func TestIRQPrioritizesDataReadyOverThrEmpty(t *testing.T) {
	u := New16550(&queueConsole{})
	u.ier = ierDataReady | ierThrEmpty
	u.rhr = 'X'
	u.thr = 0

	if !u.IRQ() {
		t.Fatal("expected an interrupt to be pending")
	}
	if u.isr != isrDataReady {
		t.Errorf("isr = %#x, want isrDataReady", u.isr)
	}
}

func TestIRQIdleWhenNothingEnabled(t *testing.T) {
	u := New16550(&queueConsole{})
	if u.IRQ() {
		t.Fatal("no interrupt sources enabled, IRQ should be false")
	}
	if u.isr != isrIdle {
		t.Errorf("isr = %#x, want isrIdle", u.isr)
	}
}
