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
	"github.com/rcornwell/riscv-emu/emu/clint"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/gpio"
	"github.com/rcornwell/riscv-emu/emu/memory"
	"github.com/rcornwell/riscv-emu/emu/plic"
	"github.com/rcornwell/riscv-emu/emu/prci"
	"github.com/rcornwell/riscv-emu/emu/uart"
)

const (
	timerStart = 0x02000000
	timerEnd   = 0x0200ffff
	intcStart  = 0x0c000000
	intcEnd    = 0x0fffffff
	prciStart  = 0x10008000
	prciEnd    = 0x10008fff
	uart0Start = 0x10013000
	uart0End   = 0x10013fff
	gpioStart  = 0x10012000
	gpioEnd    = 0x10012fff
	uart1Start = 0x10023000
	uart1End   = 0x10023fff
	flashStart = 0x20000000
	flashEnd   = 0x3fffffff
	flashSize  = 512 * 1024 * 1024
	dtimStart  = 0x80000000
	dtimEnd    = 0x80003fff
	dtimSize   = 0x4000

	sifiveEDTBMirror = 0x00001020

	uart0IRQ = 3
	uart1IRQ = 4
)

// SiFiveE models the SiFive Freedom E310 SoC: SRAM (not DRAM) backing
// .bss, on-board SPI flash holding the kernel image, CLINT, PLIC, GPIO,
// PRCI and two FE310 UARTs (only the first is wired to a live console).
type SiFiveE struct {
	clock int

	dtim  *memory.Memory
	flash *memory.Memory

	clint *clint.Clint
	plic  *plic.Plic
	prci  *prci.Prci
	gpio  *gpio.Gpio
	uart0 *uart.FE310
	uart1 *uart.FE310
	con   console.Console
}

// NewSiFiveE wires every SiFive_E peripheral; uart1 is left attached to
// a Dummy console since the board exposes it but nothing drives it here.
func NewSiFiveE(con console.Console, dummy console.Console) *SiFiveE {
	return &SiFiveE{
		dtim:  memory.New(dtimSize),
		flash: memory.New(flashSize),
		clint: clint.New(),
		plic:  plic.New(),
		prci:  prci.New(),
		gpio:  gpio.New(),
		uart0: uart.NewFE310(con),
		uart1: uart.NewFE310(dummy),
		con:   con,
	}
}

func (b *SiFiveE) SetDeviceData(device Device, data []byte) {
	switch device {
	case DeviceSpiFlash:
		b.flash.Load(data)
	default:
		panic("sifive_e: unexpected device")
	}
}

func (b *SiFiveE) BaseAddress(device Device) uint64 {
	switch device {
	case DeviceSpiFlash:
		return flashStart
	case DeviceDTB:
		return sifiveEDTBMirror
	default:
		panic("sifive_e: unexpected device")
	}
}

func (b *SiFiveE) Console() console.Console {
	return b.con
}

func (b *SiFiveE) Tick() [4]bool {
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

func (b *SiFiveE) IsPendingSoftwareInterrupt(hart int) bool {
	return b.clint.IsPendingSoftwareInterrupt(hart)
}

func (b *SiFiveE) IsPendingTimerInterrupt(hart int) bool {
	return b.clint.IsPendingTimerInterrupt(hart)
}

func (b *SiFiveE) Read8(addr uint64) (uint8, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_e: unexpected size access")
	case inRange(addr, flashStart, flashEnd):
		return b.flash.ReadByte(addr - flashStart), true
	case inRange(addr, dtimStart, dtimEnd):
		return b.dtim.ReadByte(addr - dtimStart), true
	default:
		return 0, false
	}
}

func (b *SiFiveE) Write8(addr uint64, data uint8) bool {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_e: unexpected size access")
	case inRange(addr, flashStart, flashEnd):
		b.flash.WriteByte(addr-flashStart, data)
		return true
	case inRange(addr, dtimStart, dtimEnd):
		b.dtim.WriteByte(addr-dtimStart, data)
		return true
	default:
		return false
	}
}

func (b *SiFiveE) Read16(addr uint64) (uint16, bool) {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_e: unexpected size access")
	case inRange(addr, flashStart, flashEnd):
		return b.flash.ReadHalf(addr - flashStart), true
	case inRange(addr, dtimStart, dtimEnd):
		return b.dtim.ReadHalf(addr - dtimStart), true
	default:
		return 0, false
	}
}

func (b *SiFiveE) Write16(addr uint64, data uint16) bool {
	switch {
	case inRange(addr, timerStart, timerEnd), inRange(addr, intcStart, intcEnd),
		inRange(addr, prciStart, prciEnd), inRange(addr, gpioStart, gpioEnd),
		inRange(addr, uart0Start, uart0End), inRange(addr, uart1Start, uart1End):
		panic("sifive_e: unexpected size access")
	case inRange(addr, flashStart, flashEnd):
		b.flash.WriteHalf(addr-flashStart, data)
		return true
	case inRange(addr, dtimStart, dtimEnd):
		b.dtim.WriteHalf(addr-dtimStart, data)
		return true
	default:
		return false
	}
}

func (b *SiFiveE) Read32(addr uint64) (uint32, bool) {
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
	case inRange(addr, flashStart, flashEnd):
		return b.flash.ReadWord(addr - flashStart), true
	case inRange(addr, dtimStart, dtimEnd):
		return b.dtim.ReadWord(addr - dtimStart), true
	default:
		return 0, false
	}
}

func (b *SiFiveE) Write32(addr uint64, data uint32) bool {
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
	case inRange(addr, flashStart, flashEnd):
		b.flash.WriteWord(addr-flashStart, data)
	case inRange(addr, dtimStart, dtimEnd):
		b.dtim.WriteWord(addr-dtimStart, data)
	default:
		return false
	}
	return true
}

func (b *SiFiveE) Read64(addr uint64) (uint64, bool) {
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
	case inRange(addr, flashStart, flashEnd):
		return b.flash.ReadDouble(addr - flashStart), true
	case inRange(addr, dtimStart, dtimEnd):
		return b.dtim.ReadDouble(addr - dtimStart), true
	default:
		return 0, false
	}
}

func (b *SiFiveE) Write64(addr uint64, data uint64) bool {
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
	case inRange(addr, flashStart, flashEnd):
		b.flash.WriteDouble(addr-flashStart, data)
	case inRange(addr, dtimStart, dtimEnd):
		b.dtim.WriteDouble(addr-dtimStart, data)
	default:
		return false
	}
	return true
}

func inRange(addr, start, end uint64) bool {
	return addr >= start && addr <= end
}

func join64(lo, hi uint32) uint64 {
	return uint64(lo) | uint64(hi)<<32
}
