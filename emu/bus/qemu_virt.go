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
	"github.com/rcornwell/riscv-emu/emu/clint"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/event"
	"github.com/rcornwell/riscv-emu/emu/memory"
	"github.com/rcornwell/riscv-emu/emu/plic"
	"github.com/rcornwell/riscv-emu/emu/uart"
	"github.com/rcornwell/riscv-emu/emu/virtio"
)

const (
	mromStart  = 0x00001000
	mromEnd    = 0x0000ffff
	mromSize   = mromEnd - mromStart + 1
	dtbStart   = 0x00001020
	clintStart = 0x02000000
	clintEnd   = 0x0200ffff
	plicStart  = 0x0c000000
	plicEnd    = 0x0fffffff
	uartStart  = 0x10000000
	uartEnd    = 0x10000fff
	virtStart  = 0x10001000
	virtEnd    = 0x10001fff
	dramStart  = 0x80000000
	dramSize   = 256 * 1024 * 1024

	virtioUARTIRQ = 10
	virtioDiskIRQ = 1
)

// QemuVirt models the board QEMU's "virt" machine presents: mask ROM
// with an overlaid DTB, CLINT, PLIC, a 16550a UART and one virtio-mmio
// block device, all addressing into a 256 MiB DRAM region.
type QemuVirt struct {
	clock int

	mrom *memory.Memory
	dram *memory.Memory

	clint *clint.Clint
	plic  *plic.Plic
	uart  *uart.Uart16550
	disk  *virtio.Virtio
	con   console.Console

	events *event.List
}

// NewQemuVirt wires every Qemu-Virt peripheral to a fresh DRAM image and
// the given console front end.
func NewQemuVirt(con console.Console) *QemuVirt {
	events := &event.List{}
	return &QemuVirt{
		mrom:   memory.New(mromSize),
		dram:   memory.New(dramSize),
		clint:  clint.New(),
		plic:   plic.New(),
		uart:   uart.New16550(con),
		disk:   virtio.New(dramStart, events),
		con:    con,
		events: events,
	}
}

func (b *QemuVirt) SetDeviceData(device Device, data []byte) {
	switch device {
	case DeviceDRAM:
		b.dram.Load(data)
	case DeviceDisk:
		b.disk.Init(data)
		b.disk.SetDRAM(b.dram)
	case DeviceDTB:
		for i, v := range data {
			b.mrom.WriteByte(uint64(dtbStart-mromStart+i), v)
		}
	default:
		panic("qemu_virt: unexpected device")
	}
}

func (b *QemuVirt) BaseAddress(device Device) uint64 {
	switch device {
	case DeviceDRAM:
		return dramStart
	case DeviceDTB:
		return dtbStart
	default:
		panic("qemu_virt: unexpected device")
	}
}

func (b *QemuVirt) Console() console.Console {
	return b.con
}

func (b *QemuVirt) Tick() [4]bool {
	b.clock++

	b.clint.Tick()
	b.uart.Tick()
	b.disk.Tick()
	b.events.Advance(1)

	var interrupts []int
	if b.uart.IRQ() {
		interrupts = append(interrupts, virtioUARTIRQ)
	}
	if b.disk.IRQ() {
		interrupts = append(interrupts, virtioDiskIRQ)
	}

	return b.plic.Tick(0, interrupts)
}

func (b *QemuVirt) IsPendingSoftwareInterrupt(hart int) bool {
	return b.clint.IsPendingSoftwareInterrupt(hart)
}

func (b *QemuVirt) IsPendingTimerInterrupt(hart int) bool {
	return b.clint.IsPendingTimerInterrupt(hart)
}

// dramOffset applies the corrected (addr - DRAM_BASE) translation with
// an explicit bounds check, replacing the operator-precedence bug
// `addr & 0xffffffff - DRAM_BASE` present in the machine being modeled.
func dramOffset(addr uint64) (uint64, bool) {
	if addr < dramStart || addr-dramStart >= dramSize {
		return 0, false
	}
	return addr - dramStart, true
}

func (b *QemuVirt) Read8(addr uint64) (uint8, bool) {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		return b.mrom.ReadByte(addr - mromStart), true
	case addr >= clintStart && addr <= clintEnd:
		panic("qemu_virt: unexpected size access")
	case addr >= plicStart && addr <= plicEnd:
		panic("qemu_virt: unexpected size access")
	case addr >= uartStart && addr <= uartEnd:
		return b.uart.ReadByte(addr - uartStart), true
	case addr >= virtStart && addr <= virtEnd:
		panic("qemu_virt: unexpected size access")
	default:
		if off, ok := dramOffset(addr); ok {
			return b.dram.ReadByte(off), true
		}
		return 0, false
	}
}

func (b *QemuVirt) Write8(addr uint64, data uint8) bool {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		b.mrom.WriteByte(addr-mromStart, data)
		return true
	case addr >= clintStart && addr <= clintEnd:
		panic("qemu_virt: unexpected size access")
	case addr >= plicStart && addr <= plicEnd:
		panic("qemu_virt: unexpected size access")
	case addr >= uartStart && addr <= uartEnd:
		b.uart.WriteByte(addr-uartStart, data)
		return true
	case addr >= virtStart && addr <= virtEnd:
		panic("qemu_virt: unexpected size access")
	default:
		if off, ok := dramOffset(addr); ok {
			b.dram.WriteByte(off, data)
			return true
		}
		return false
	}
}

func (b *QemuVirt) Read16(addr uint64) (uint16, bool) {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		return b.mrom.ReadHalf(addr - mromStart), true
	case addr >= uartStart && addr <= uartEnd:
		lo := uint16(b.uart.ReadByte(addr - uartStart))
		hi := uint16(b.uart.ReadByte(addr - uartStart + 1))
		return lo | hi<<8, true
	case addr >= clintStart && addr <= clintEnd, addr >= plicStart && addr <= plicEnd, addr >= virtStart && addr <= virtEnd:
		panic("qemu_virt: unexpected size access")
	default:
		if off, ok := dramOffset(addr); ok {
			return b.dram.ReadHalf(off), true
		}
		return 0, false
	}
}

func (b *QemuVirt) Write16(addr uint64, data uint16) bool {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		b.mrom.WriteHalf(addr-mromStart, data)
		return true
	case addr >= uartStart && addr <= uartEnd:
		b.uart.WriteByte(addr-uartStart, uint8(data))
		b.uart.WriteByte(addr-uartStart+1, uint8(data>>8))
		return true
	case addr >= clintStart && addr <= clintEnd, addr >= plicStart && addr <= plicEnd, addr >= virtStart && addr <= virtEnd:
		panic("qemu_virt: unexpected size access")
	default:
		if off, ok := dramOffset(addr); ok {
			b.dram.WriteHalf(off, data)
			return true
		}
		return false
	}
}

func (b *QemuVirt) Read32(addr uint64) (uint32, bool) {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		return b.mrom.ReadWord(addr - mromStart), true
	case addr >= clintStart && addr <= clintEnd:
		return b.clint.ReadWord(addr - clintStart), true
	case addr >= plicStart && addr <= plicEnd:
		return b.plic.ReadWord(addr - plicStart), true
	case addr >= uartStart && addr <= uartEnd:
		return b.uartWord(addr - uartStart), true
	case addr >= virtStart && addr <= virtEnd:
		return b.disk.ReadWord(addr - virtStart), true
	default:
		if off, ok := dramOffset(addr); ok {
			return b.dram.ReadWord(off), true
		}
		return 0, false
	}
}

func (b *QemuVirt) Write32(addr uint64, data uint32) bool {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		b.mrom.WriteWord(addr-mromStart, data)
		return true
	case addr >= clintStart && addr <= clintEnd:
		b.clint.WriteWord(addr-clintStart, data)
		return true
	case addr >= plicStart && addr <= plicEnd:
		b.plic.WriteWord(addr-plicStart, data)
		return true
	case addr >= uartStart && addr <= uartEnd:
		b.writeUARTWord(addr-uartStart, data)
		return true
	case addr >= virtStart && addr <= virtEnd:
		b.disk.WriteWord(addr-virtStart, data)
		return true
	default:
		if off, ok := dramOffset(addr); ok {
			b.dram.WriteWord(off, data)
			return true
		}
		return false
	}
}

func (b *QemuVirt) Read64(addr uint64) (uint64, bool) {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		return b.mrom.ReadDouble(addr - mromStart), true
	case addr >= clintStart && addr <= clintEnd:
		lo := uint64(b.clint.ReadWord(addr - clintStart))
		hi := uint64(b.clint.ReadWord(addr - clintStart + 4))
		return lo | hi<<32, true
	case addr >= plicStart && addr <= plicEnd:
		lo := uint64(b.plic.ReadWord(addr - plicStart))
		hi := uint64(b.plic.ReadWord(addr - plicStart + 4))
		return lo | hi<<32, true
	case addr >= uartStart && addr <= uartEnd:
		lo := uint64(b.uartWord(addr - uartStart))
		hi := uint64(b.uartWord(addr - uartStart + 4))
		return lo | hi<<32, true
	case addr >= virtStart && addr <= virtEnd:
		lo := uint64(b.disk.ReadWord(addr - virtStart))
		hi := uint64(b.disk.ReadWord(addr - virtStart + 4))
		return lo | hi<<32, true
	default:
		if off, ok := dramOffset(addr); ok {
			return b.dram.ReadDouble(off), true
		}
		return 0, false
	}
}

func (b *QemuVirt) Write64(addr uint64, data uint64) bool {
	switch {
	case addr >= mromStart && addr <= mromEnd:
		b.mrom.WriteDouble(addr-mromStart, data)
		return true
	case addr >= clintStart && addr <= clintEnd:
		b.clint.WriteWord(addr-clintStart, uint32(data))
		b.clint.WriteWord(addr-clintStart+4, uint32(data>>32))
		return true
	case addr >= plicStart && addr <= plicEnd:
		b.plic.WriteWord(addr-plicStart, uint32(data))
		b.plic.WriteWord(addr-plicStart+4, uint32(data>>32))
		return true
	case addr >= uartStart && addr <= uartEnd:
		b.writeUARTWord(addr-uartStart, uint32(data))
		b.writeUARTWord(addr-uartStart+4, uint32(data>>32))
		return true
	case addr >= virtStart && addr <= virtEnd:
		b.disk.WriteWord(addr-virtStart, uint32(data))
		b.disk.WriteWord(addr-virtStart+4, uint32(data>>32))
		return true
	default:
		if off, ok := dramOffset(addr); ok {
			b.dram.WriteDouble(off, data)
			return true
		}
		return false
	}
}

// uartWord/writeUARTWord compose four byte registers into one 32-bit
// word, the way a 64-bit virtio access composes two 32-bit words: the
// 16550a only has byte registers, but wider bus accesses against it
// still need to resolve to something rather than fault.
func (b *QemuVirt) uartWord(off uint64) uint32 {
	return uint32(b.uart.ReadByte(off)) |
		uint32(b.uart.ReadByte(off+1))<<8 |
		uint32(b.uart.ReadByte(off+2))<<16 |
		uint32(b.uart.ReadByte(off+3))<<24
}

func (b *QemuVirt) writeUARTWord(off uint64, data uint32) {
	b.uart.WriteByte(off, uint8(data))
	b.uart.WriteByte(off+1, uint8(data>>8))
	b.uart.WriteByte(off+2, uint8(data>>16))
	b.uart.WriteByte(off+3, uint8(data>>24))
}
