/*
 * riscv-emu - SiFive FE310 PRCI
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

// Package prci models the SiFive FE310 Power Reset Clock Interrupt unit
// as an inert register bank that always reports its oscillators and PLL
// locked, so clock-configuration boot code proceeds without spinning.
// https://sifive.cdn.prismic.io/sifive%2F9ecbb623-7c7f-4acc-966f-9bb10ecdb62e_fe310-g002.pdf
package prci

const readyBit = 0x80000000

// Prci holds the FE310 clock-configuration registers.
type Prci struct {
	hfrosccfg, hfxosccfg uint32
	pllcfg, plloutdiv    uint32
	procmoncfg           uint32
}

// New returns a PRCI with all registers zeroed.
func New() *Prci {
	return &Prci{}
}

func (p *Prci) Tick() {}

func (p *Prci) ReadWord(off uint64) uint32 {
	switch off & 0xff {
	case 0x00:
		return p.hfrosccfg | readyBit
	case 0x04:
		return p.hfxosccfg | readyBit
	case 0x08:
		return p.pllcfg | readyBit
	case 0x0c:
		return p.plloutdiv
	case 0xf0:
		return p.procmoncfg
	default:
		panic("prci: read from reserved address")
	}
}

func (p *Prci) WriteWord(off uint64, data uint32) {
	switch off & 0xff {
	case 0x00:
		p.hfrosccfg = data &^ readyBit
	case 0x04:
		p.hfxosccfg = data &^ readyBit
	case 0x08:
		p.pllcfg = data &^ readyBit
	case 0x0c:
		p.plloutdiv = data
	case 0xf0:
		p.procmoncfg = data
	default:
		panic("prci: write to reserved address")
	}
}
