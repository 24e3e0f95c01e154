/*
 * riscv-emu - SiFive FE310 GPIO
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

// Package gpio models the SiFive FE310 GPIO controller: an inert
// register bank with rise/fall/high/low edge interrupt latches, enough
// for SiFive_E boot code to probe and configure pins without faulting.
// https://static.dev.sifive.com/FE310-G000.pdf
package gpio

// Gpio holds the seventeen 32-bit FE310 GPIO registers.
type Gpio struct {
	inputVal, inputEn, outputEn, outputVal uint32
	pue, ds                                uint32
	riseIE, riseIP                         uint32
	fallIE, fallIP                         uint32
	highIE, highIP                         uint32
	lowIE, lowIP                           uint32
	iofEn, iofSel                          uint32
	outXor                                 uint32
}

// New returns a GPIO controller with all registers zeroed.
func New() *Gpio {
	return &Gpio{}
}

func (g *Gpio) Tick() {}

func (g *Gpio) IRQ() bool {
	return g.riseIP != 0 || g.fallIP != 0 || g.highIP != 0 || g.lowIP != 0
}

func (g *Gpio) ReadWord(off uint64) uint32 {
	switch off & 0xff {
	case 0x00:
		return g.inputVal
	case 0x04:
		return g.inputEn
	case 0x08:
		return g.outputEn
	case 0x0c:
		return g.outputVal
	case 0x10:
		return g.pue
	case 0x14:
		return g.ds
	case 0x18:
		return g.riseIE
	case 0x1c:
		return g.riseIP
	case 0x20:
		return g.fallIE
	case 0x24:
		return g.fallIP
	case 0x28:
		return g.highIE
	case 0x2c:
		return g.highIP
	case 0x30:
		return g.lowIE
	case 0x34:
		return g.lowIP
	case 0x38:
		return g.iofEn
	case 0x3c:
		return g.iofSel
	case 0x40:
		return g.outXor
	default:
		panic("gpio: read from reserved address")
	}
}

func (g *Gpio) WriteWord(off uint64, data uint32) {
	switch off & 0xff {
	case 0x00:
		g.inputVal = data
	case 0x04:
		g.inputEn = data
	case 0x08:
		g.outputEn = data
	case 0x0c:
		g.outputVal = data
	case 0x10:
		g.pue = data
	case 0x14:
		g.ds = data
	case 0x18:
		g.riseIE = data
	case 0x1c:
		g.riseIP &^= data
	case 0x20:
		g.fallIE = data
	case 0x24:
		g.fallIP &^= data
	case 0x28:
		g.highIE = data
	case 0x2c:
		g.highIP &^= data
	case 0x30:
		g.lowIE = data
	case 0x34:
		g.lowIP &^= data
	case 0x38:
		g.iofEn = data
	case 0x3c:
		g.iofSel = data
	case 0x40:
		g.outXor = data
	default:
		panic("gpio: write to reserved address")
	}
}
