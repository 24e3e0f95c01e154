/*
 * riscv-emu - Bus
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

// Package bus glues CPU-visible memory-mapped addresses to the
// peripheral models (CLINT, PLIC, UART, virtio, GPIO, PRCI, DRAM/flash)
// that make up one of the three modeled machines: SiFive_E (FE310),
// SiFive_U (FU540) and Qemu-Virt. Each machine gets its own file with
// its own address map; the common surface the CPU drives is the Bus
// interface below.
package bus

import "github.com/rcornwell/riscv-emu/emu/console"

// Context indices match the 4-element IRQ vector Tick returns: User,
// Supervisor, Hypervisor (always false, structurally reserved), Machine.
const (
	ContextUser = iota
	ContextSupervisor
	ContextHypervisor
	ContextMachine
)

// Device identifies one of the load-time data sinks a machine exposes:
// the kernel image, an optional root filesystem disk, or a device tree
// blob. Not every machine accepts every device.
type Device int

const (
	DeviceDRAM Device = iota
	DeviceSpiFlash
	DeviceDisk
	DeviceDTB
)

// Bus is the address-decoded peripheral aggregate a CPU drives. Reads
// and writes outside any mapped region return ok=false so the CPU can
// raise an access-fault trap rather than panicking; accesses of the
// wrong width against a register-file peripheral do panic, mirroring
// the "Unexpected size access" behavior of the machine being modeled.
type Bus interface {
	SetDeviceData(device Device, data []byte)
	BaseAddress(device Device) uint64
	Console() console.Console

	// Tick advances every peripheral by one cycle and returns the
	// current IRQ line vector indexed by Context*.
	Tick() [4]bool
	IsPendingSoftwareInterrupt(hart int) bool
	IsPendingTimerInterrupt(hart int) bool

	Read8(addr uint64) (uint8, bool)
	Read16(addr uint64) (uint16, bool)
	Read32(addr uint64) (uint32, bool)
	Read64(addr uint64) (uint64, bool)
	Write8(addr uint64, data uint8) bool
	Write16(addr uint64, data uint16) bool
	Write32(addr uint64, data uint32) bool
	Write64(addr uint64, data uint64) bool
}
