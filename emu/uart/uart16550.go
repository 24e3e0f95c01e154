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

// Package uart models the 16550a UART used by the Qemu-Virt board, and
// the SiFive FE310 UART used by SiFive_E/SiFive_U.
// http://byterunner.com/16550.html
package uart

import "github.com/rcornwell/riscv-emu/emu/console"

const (
	ierDataReady = 0x01
	ierThrEmpty  = 0x02

	isrDataReady = 0x4
	isrThrEmpty  = 0x2
	isrIdle      = 0xe

	lcrDivisorLatchEnable = 0x80

	lsrDataReady = 0x01
	lsrThrEmpty  = 0x20

	// pollRxEvery/pollTxEvery throttle console polling so fast guest spin
	// loops don't starve on a per-tick syscall; the absolute values have
	// no architectural meaning, only that RX is polled far less often
	// than TX is drained.
	pollRxEvery = 0xffff
	pollTxEvery = 0xf
)

// Uart16550 is the Qemu-Virt serial port.
type Uart16550 struct {
	rhr, thr, ier, isr, fcr, lcr, mcr, lsr, msr, spr uint8
	console                                          console.Console
	cycle                                            uint64
}

// New16550 wires the UART to a console front end.
func New16550(c console.Console) *Uart16550 {
	return &Uart16550{isr: isrIdle, lsr: lsrThrEmpty, console: c}
}

func (u *Uart16550) Tick() {
	u.cycle++

	if (u.cycle&pollRxEvery) == 0 && u.rhr == 0 {
		if c := u.console.Getchar(); c != 0 {
			u.rhr = c
			u.lsr |= lsrDataReady
		}
	}

	if (u.cycle&pollTxEvery) == 0 && u.thr != 0 {
		u.console.Putchar(u.thr)
		u.thr = 0
		u.lsr |= lsrThrEmpty
	}
}

func (u *Uart16550) ReadByte(off uint64) uint8 {
	switch off & 0x7 {
	case 0:
		r := u.rhr
		u.rhr = 0
		u.lsr &^= lsrDataReady
		return r
	case 1:
		if u.lcr&lcrDivisorLatchEnable == 0 {
			return u.ier
		}
		return 0
	case 2:
		return u.isr
	case 3:
		return u.lcr
	case 4:
		return u.mcr
	case 5:
		return u.lsr
	case 6:
		return u.msr
	case 7:
		return u.spr
	}
	panic("uart16550: unreachable register offset")
}

func (u *Uart16550) WriteByte(off uint64, data uint8) {
	switch off & 0x7 {
	case 0:
		if u.lcr&lcrDivisorLatchEnable == 0 {
			u.thr = data
			u.lsr &^= lsrThrEmpty
		}
	case 1:
		if u.lcr&lcrDivisorLatchEnable == 0 {
			u.ier = data
		}
	case 2:
		u.fcr = data
	case 3:
		u.lcr = data
	case 4:
		u.mcr = data
	case 5, 6:
		// Read only.
	case 7:
		u.spr = data
	default:
		panic("uart16550: unreachable register offset")
	}
}

// IRQ reports the highest priority pending source and latches its code
// into isr: RX-data-ready outranks THR-empty.
func (u *Uart16550) IRQ() bool {
	switch {
	case u.ier&ierDataReady != 0 && u.rhr != 0:
		u.isr = isrDataReady
		return true
	case u.ier&ierThrEmpty != 0 && u.thr == 0:
		u.isr = isrThrEmpty
		return true
	default:
		u.isr = isrIdle
		return false
	}
}
