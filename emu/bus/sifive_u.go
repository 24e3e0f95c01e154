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
	"github.com/rcornwell/riscv-emu/emu/clint"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/gpio"
	"github.com/rcornwell/riscv-emu/emu/memory"
	"github.com/rcornwell/riscv-emu/emu/plic"
	"github.com/rcornwell/riscv-emu/emu/prci"
	"github.com/rcornwell/riscv-emu/emu/uart"
)

// SiFive_U (FU540-C000) carries the same on-chip peripheral set as
// SiFive_E at the same offsets, but boots out of an external DRAM bank
// rather than on-die SRAM/SPI flash, per the "similar layout with an
// external DRAM region" relationship between the two boards.
const (
	suDRAMStart = 0x80000000
	suDRAMSize  = 256 * 1024 * 1024
)

// SiFiveU models the HiFive Unleashed (FU540-C000) SoC.
type SiFiveU struct {
	clock int

	dram *memory.Memory

	clint *clint.Clint
	plic  *plic.Plic
	prci  *prci.Prci
	gpio  *gpio.Gpio
	uart0 *uart.FE310
	uart1 *uart.FE310
	con   console.Console
}

// NewSiFiveU wires every SiFive_U peripheral.
func NewSiFiveU(con console.Console, dummy console.Console) *SiFiveU {
	return &SiFiveU{
		dram:  memory.New(suDRAMSize),
		clint: clint.New(),
		plic:  plic.New(),
		prci:  prci.New(),
		gpio:  gpio.New(),
		uart0: uart.NewFE310(con),
		uart1: uart.NewFE310(dummy),
		con:   con,
	}
}

func (b *SiFiveU) SetDeviceData(device Device, data []byte) {
	switch device {
	case DeviceDRAM:
		b.dram.Load(data)
	default:
		panic("sifive_u: unexpected device")
	}
}

func (b *SiFiveU) BaseAddress(device Device) uint64 {
	switch device {
	case DeviceDRAM:
		return suDRAMStart
	case DeviceDTB:
		return sifiveEDTBMirror
	default:
		panic("sifive_u: unexpected device")
	}
}

func (b *SiFiveU) Console() console.Console {
	return b.con
}

func (b *SiFiveU) Tick() [4]bool {
	b.clock++

	b.clint.Tick()
	b.prci.Tick()
	b.gpio.Tick()
	b.uart0.Tick()
	b.uart1.Tick()

	var interrupts []int
	if b.uart0.IRQ() {
		interrupts = append(interrupts, uart0IRQ)
	}
	if b.uart1.IRQ() {
		interrupts = append(interrupts, uart1IRQ)
	}

	return b.plic.Tick(0, interrupts)
}

func (b *SiFiveU) IsPendingSoftwareInterrupt(hart int) bool {
	return b.clint.IsPendingSoftwareInterrupt(hart)
}

func (b *SiFiveU) IsPendingTimerInterrupt(hart int) bool {
	return b.clint.IsPendingTimerInterrupt(hart)
}

func (b *SiFiveU) dramOffset(addr uint64) (uint64, bool) {
	if addr < suDRAMStart || addr-suDRAMStart >= suDRAMSize {
		return 0, false
	}
	return addr - suDRAMStart, true
}

func (b *SiFiveU) Read8(addr uint64) (uint8, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_u: unexpected size access")
	default:
		if off, ok := b.dramOffset(addr); ok {
			return b.dram.ReadByte(off), true
		}
		return 0, false
	}
}

func (b *SiFiveU) Write8(addr uint64, data uint8) bool {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_u: unexpected size access")
	default:
		if off, ok := b.dramOffset(addr); ok {
			b.dram.WriteByte(off, data)
			return true
		}
		return false
	}
}

func (b *SiFiveU) Read16(addr uint64) (uint16, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_u: unexpected size access")
	default:
		if off, ok := b.dramOffset(addr); ok {
			return b.dram.ReadHalf(off), true
		}
		return 0, false
	}
}

func (b *SiFiveU) Write16(addr uint64, data uint16) bool {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_u: unexpected size access")
	default:
		if off, ok := b.dramOffset(addr); ok {
			b.dram.WriteHalf(off, data)
			return true
		}
		return false
	}
}

func (b *SiFiveU) Read32(addr uint64) (uint32, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd):
		return b.clint.ReadWord(addr - timerStart), true
	case inRange(addr, intcStart, intcEnd):
		return b.plic.ReadWord(addr - intcStart), true
	case inRange(addr, prciStart, prciEnd):
		return b.prci.ReadWord(addr - prciStart), true
	case inRange(addr, gpioStart, gpioEnd):
		return b.gpio.ReadWord(addr - gpioStart), true
	case inRange(addr, uart0Start, uart0End):
		return b.uart0.ReadWord(addr - uart0Start), true
	case inRange(addr, uart1Start, uart1End):
		return b.uart1.ReadWord(addr - uart1Start), true
	default:
		if off, ok := b.dramOffset(addr); ok {
			return b.dram.ReadWord(off), true
		}
		return 0, false
	}
}

func (b *SiFiveU) Write32(addr uint64, data uint32) bool {
	switch {
	case inRange(addr, timerStart, timerEnd):
		b.clint.WriteWord(addr-timerStart, data)
	case inRange(addr, intcStart, intcEnd):
		b.plic.WriteWord(addr-intcStart, data)
	case inRange(addr, prciStart, prciEnd):
		b.prci.WriteWord(addr-prciStart, data)
	case inRange(addr, gpioStart, gpioEnd):
		b.gpio.WriteWord(addr-gpioStart, data)
	case inRange(addr, uart0Start, uart0End):
		b.uart0.WriteWord(addr-uart0Start, data)
	case inRange(addr, uart1Start, uart1End):
		b.uart1.WriteWord(addr-uart1Start, data)
	default:
		if off, ok := b.dramOffset(addr); ok {
			b.dram.WriteWord(off, data)
			return true
		}
		return false
	}
	return true
}

func (b *SiFiveU) Read64(addr uint64) (uint64, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd):
		return join64(b.clint.ReadWord(addr-timerStart), b.clint.ReadWord(addr-timerStart+4)), true
	case inRange(addr, intcStart, intcEnd):
		return join64(b.plic.ReadWord(addr-intcStart), b.plic.ReadWord(addr-intcStart+4)), true
	case inRange(addr, prciStart, prciEnd):
		return join64(b.prci.ReadWord(addr-prciStart), b.prci.ReadWord(addr-prciStart+4)), true
	case inRange(addr, gpioStart, gpioEnd):
		return join64(b.gpio.ReadWord(addr-gpioStart), b.gpio.ReadWord(addr-gpioStart+4)), true
	case inRange(addr, uart0Start, uart0End):
		return join64(b.uart0.ReadWord(addr-uart0Start), b.uart0.ReadWord(addr-uart0Start+4)), true
	case inRange(addr, uart1Start, uart1End):
		return join64(b.uart1.ReadWord(addr-uart1Start), b.uart1.ReadWord(addr-uart1Start+4)), true
	default:
		if off, ok := b.dramOffset(addr); ok {
			return b.dram.ReadDouble(off), true
		}
		return 0, false
	}
}

func (b *SiFiveU) Write64(addr uint64, data uint64) bool {
	switch {
	case inRange(addr, timerStart, timerEnd):
		b.clint.WriteWord(addr-timerStart, uint32(data))
		b.clint.WriteWord(addr-timerStart+4, uint32(data>>32))
	case inRange(addr, intcStart, intcEnd):
		b.plic.WriteWord(addr-intcStart, uint32(data))
		b.plic.WriteWord(addr-intcStart+4, uint32(data>>32))
	case inRange(addr, prciStart, prciEnd):
		b.prci.WriteWord(addr-prciStart, uint32(data))
		b.prci.WriteWord(addr-prciStart+4, uint32(data>>32))
	case inRange(addr, gpioStart, gpioEnd):
		b.gpio.WriteWord(addr-gpioStart, uint32(data))
		b.gpio.WriteWord(addr-gpioStart+4, uint32(data>>32))
	case inRange(addr, uart0Start, uart0End):
		b.uart0.WriteWord(addr-uart0Start, uint32(data))
		b.uart0.WriteWord(addr-uart0Start+4, uint32(data>>32))
	case inRange(addr, uart1Start, uart1End):
		b.uart1.WriteWord(addr-uart1Start, uint32(data))
		b.uart1.WriteWord(addr-uart1Start+4, uint32(data>>32))
	default:
		if off, ok := b.dramOffset(addr); ok {
			b.dram.WriteDouble(off, data)
			return true
		}
		return false
	}
	return true
}
