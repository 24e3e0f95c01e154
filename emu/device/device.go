/*
 * riscv-emu - Peripheral device interfaces
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

// Package device holds the small interfaces peripherals implement so the
// bus, CPU and event scheduler can treat CLINT/PLIC/UART/virtio uniformly
// where their registers and tick behavior allow it. Each machine's bus
// still decodes addresses with a direct switch (see emu/bus) rather than
// a dynamic lookup table — the hot path stays table driven, not reflective.
package device

// Ticker advances one peripheral clock cycle. The bus calls Tick on every
// device once per CPU tick, after instruction execution.
type Ticker interface {
	Tick()
}

// IRQSource reports whether a peripheral currently wants to assert its
// interrupt line. The bus samples this after Tick to build the PLIC's
// candidate interrupt set (or, for CLINT, the direct MTIP/MSIP lines).
type IRQSource interface {
	IRQ() bool
}

// WordRegs is satisfied by 32-bit-register-file peripherals (CLINT, PLIC,
// virtio-mmio): naturally aligned 32-bit accesses only. The bus
// synthesizes 8/16/64-bit accesses to these ranges itself (or rejects
// them), per spec.
type WordRegs interface {
	ReadWord(off uint64) uint32
	WriteWord(off uint64, val uint32)
}

// ByteRegs is satisfied by byte-register-file peripherals (16550a UART):
// any access width is legal because the registers are one byte wide to
// begin with.
type ByteRegs interface {
	ReadByte(off uint64) uint8
	WriteByte(off uint64, val uint8)
}
