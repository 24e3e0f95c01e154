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

// https://static.dev.sifive.com/FE310-G000.pdf
package uart

import "github.com/rcornwell/riscv-emu/emu/console"

const (
	fe310TxEnable = 0x1
	fe310RxEnable = 0x1

	fe310TxWatermark = 0x1
	fe310RxWatermark = 0x2

	fe310PollRxEvery = 0xffff
	fe310PollTxEvery = 0xf
)

// FE310 is the SiFive Freedom E310 UART: word registers, FIFOs rather
// than single-byte hold registers, and watermark driven interrupts.
type FE310 struct {
	txdata, rxdata           uint32
	txctrl, rxctrl, ie, ip   uint32
	div                      uint32
	rfifo, tfifo             []uint8
	console                  console.Console
	cycle                    uint64
}

// NewFE310 wires the UART to a console front end.
func NewFE310(c console.Console) *FE310 {
	return &FE310{
		rxdata:  0x80000000,
		txctrl:  0x01,
		rxctrl:  0x01,
		console: c,
	}
}

func (u *FE310) Tick() {
	u.cycle++

	if u.cycle%fe310PollRxEvery == 0 {
		if u.rxctrl&fe310RxEnable != 0 {
			if c := u.console.Getchar(); c != 0 {
				u.rfifo = append(u.rfifo, c)
			}
		}
		u.updateReceiveIRQ()
	}

	if u.cycle%fe310PollTxEvery == 0 && u.txctrl&fe310TxEnable != 0 && len(u.tfifo) > 0 {
		u.console.Putchar(u.tfifo[0])
		u.tfifo = u.tfifo[1:]
		u.updateTransmitIRQ()
	}
}

func (u *FE310) ReadWord(off uint64) uint32 {
	switch off & 0xff {
	case 0x00:
		return u.txdata
	case 0x04:
		if len(u.rfifo) == 0 {
			u.rxdata = 0x80000000
		} else {
			u.rxdata = uint32(u.rfifo[0])
			u.rfifo = u.rfifo[1:]
		}
		u.updateReceiveIRQ()
		return u.rxdata
	case 0x08:
		return u.txctrl
	case 0x0c:
		return u.rxctrl
	case 0x10:
		return u.ie
	case 0x14:
		return u.ip
	case 0x18:
		return u.div
	default:
		panic("fe310 uart: read from reserved address")
	}
}

func (u *FE310) WriteWord(off uint64, data uint32) {
	switch off & 0xff {
	case 0x00:
		b := uint8(data)
		u.tfifo = append(u.tfifo, b)
		u.txdata = uint32(b)
	case 0x08:
		u.txctrl = data & 0x70003
	case 0x0c:
		u.rxctrl = data & 0x70001
	case 0x10:
		u.ie = data & 0x3
	case 0x18:
		u.div = data & 0xffff
	default:
		panic("fe310 uart: write to reserved address")
	}
}

func (u *FE310) IRQ() bool {
	if u.ie&fe310RxWatermark != 0 && u.ip&fe310RxWatermark != 0 {
		return true
	}
	return u.ie&fe310TxWatermark != 0 && u.ip&fe310TxWatermark != 0
}

func (u *FE310) updateReceiveIRQ() {
	watermark := int((u.rxctrl >> 16) & 0x7)
	if len(u.rfifo) != 0 && len(u.rfifo) >= watermark {
		if u.ie&fe310RxWatermark != 0 {
			u.ip |= fe310RxWatermark
		}
	} else {
		u.ip &^= fe310RxWatermark
	}
}

func (u *FE310) updateTransmitIRQ() {
	watermark := int((u.txctrl >> 16) & 0x7)
	if len(u.tfifo) != 0 && len(u.tfifo) >= watermark {
		if u.ie&fe310TxWatermark != 0 {
			u.ip |= fe310TxWatermark
		}
	} else {
		u.ip &^= fe310TxWatermark
	}
}
