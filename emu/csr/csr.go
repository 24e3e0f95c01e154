/*
 * riscv-emu - Control and Status Register file
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

// Package csr holds the 4096-entry control/status register file: the
// privilege-gated read/write path every CSR instruction goes through,
// plus the sstatus/sie/sip aliasing and the cycle/time/instret counters.
package csr

// Privilege encodes the four architectural privilege levels. Numeric
// values match the two-bit field CSR addresses encode their own minimum
// access privilege in (bits 9:8), so a CSR access is legal exactly when
// Privilege(addr) <= current.
type Privilege int

const (
	User Privilege = iota
	Supervisor
	Hypervisor
	Machine
)

// Register addresses, grouped by privilege level. Only the subset this
// emulator implements is named; unnamed addresses still read/write as
// plain storage via the default case.
const (
	Fflags = 0x001
	Frm    = 0x002
	Fcsr   = 0x003

	Cycle    = 0xc00
	Time     = 0xc01
	Instret  = 0xc02
	Cycleh   = 0xc80
	Timeh    = 0xc81
	Instreth = 0xc82

	Sstatus = 0x100
	Sedeleg = 0x102
	Sideleg = 0x103
	Sie     = 0x104
	Stvec   = 0x105

	Sscratch = 0x140
	Sepc     = 0x141
	Scause   = 0x142
	Stval    = 0x143
	Sip      = 0x144

	Satp = 0x180

	Mvendorid = 0xf11
	Marchid   = 0xf12
	Mimpid    = 0xf13
	Mhartid   = 0xf14

	Mstatus = 0x300
	Misa    = 0x301
	Medeleg = 0x302
	Mideleg = 0x303
	Mie     = 0x304
	Mtvec   = 0x305

	Mscratch = 0x340
	Mepc     = 0x341
	Mcause   = 0x342
	Mtval    = 0x343
	Mip      = 0x344

	Mcycle   = 0xb00
	Minstret = 0xb02
)

// mstatus/sstatus bit masks.
const (
	StatusUIE  = 0x00000001
	StatusSIE  = 0x00000002
	StatusMIE  = 0x00000008
	StatusUPIE = 0x00000010
	StatusSPIE = 0x00000020
	StatusMPIE = 0x00000080
	StatusSPP  = 0x00000100
	StatusMPP  = 0x00001800
	StatusFS   = 0x00006000
	StatusXS   = 0x00018000
	StatusMPRV = 0x00020000
	StatusSUM  = 0x00040000
	StatusMXR  = 0x00080000

	sstatusMask = StatusXS | StatusFS | StatusSPP | StatusSPIE | StatusUPIE |
		StatusSIE | StatusUIE | StatusSUM
)

// mip/mie bit masks.
const (
	IPUSIP = 0x00000001
	IPSSIP = 0x00000002
	IPMSIP = 0x00000008
	IPUTIP = 0x00000010
	IPSTIP = 0x00000020
	IPMTIP = 0x00000080
	IPUEIP = 0x00000100
	IPSEIP = 0x00000200
	IPMEIP = 0x00000800

	sipMask = IPSEIP | IPUEIP | IPSTIP | IPUTIP | IPSSIP | IPUSIP
	sieMask = sipMask
)

// misaRV64GC advertises I/M/A/F/D/C plus S/U-mode support (MXL=2, XLEN=64);
// the value also has extension bits 1 (B) and 13 (N) and bit 31 set.
const misaRV64GC = 0x800000008014312f

// misaRV32GC is the same extension set encoded for a 32-bit base (MXL=1).
const misaRV32GC = 0x4014312f

// Csr is the architectural register file. A zero Csr is usable; New sets
// the one register (misa) that must read a real value from reset.
type Csr struct {
	reg     [4096]uint64
	isRV32  bool
}

// New returns a Csr with misa populated for the given word width.
func New(rv32 bool) *Csr {
	c := &Csr{isRV32: rv32}
	if rv32 {
		c.reg[Misa] = misaRV32GC
	} else {
		c.reg[Misa] = misaRV64GC
	}
	return c
}

// Tick advances the time and cycle (mcycle) counters. The bus/CPU calls this
// once per retired cycle; instret is bumped separately by the CPU only
// when an instruction actually retires.
func (c *Csr) Tick() {
	c.reg[Time]++
	c.reg[Mcycle]++
}

// RetireInstruction bumps the instruction-retired counter.
func (c *Csr) RetireInstruction() {
	c.reg[Minstret]++
}

// legal reports whether a CSR access at the given address is permitted
// from cur, per the two-bit privilege field encoded in bits 9:8.
func legal(addr uint16, cur Privilege) bool {
	return Privilege((addr>>8)&0x3) <= cur
}

// Read performs a privilege-checked CSR read, returning ok=false (CPU
// raises illegal-instruction) when cur lacks the required privilege.
func (c *Csr) Read(addr uint16, cur Privilege) (uint64, bool) {
	if !legal(addr, cur) {
		return 0, false
	}
	return c.ReadDirect(addr), true
}

// ReadDirect reads a CSR without a privilege check, used by trap entry/
// exit which always operates at or above the target privilege.
func (c *Csr) ReadDirect(addr uint16) uint64 {
	switch addr {
	case Fflags:
		return c.reg[Fcsr] & 0x1f
	case Frm:
		return (c.reg[Fcsr] >> 5) & 0x7
	case Sstatus:
		return c.reg[Mstatus] & sstatusMask
	case Sip:
		return c.reg[Mip] & sipMask
	case Sie:
		return c.reg[Mie] & sieMask
	case Cycle:
		return c.reg[Mcycle]
	case Cycleh:
		return c.reg[Mcycle] >> 32
	case Instret:
		return c.reg[Minstret]
	case Instreth:
		return c.reg[Minstret] >> 32
	case Timeh:
		return c.reg[Time] >> 32
	default:
		return c.reg[addr]
	}
}

// Write performs a privilege-checked CSR write. The bool result reports
// whether the write touched satp, so the caller can hand the new value to
// the MMU's UpdateAddressingMode.
func (c *Csr) Write(addr uint16, data uint64, cur Privilege) (satpWrite bool, ok bool) {
	if !legal(addr, cur) {
		return false, false
	}
	c.WriteDirect(addr, data)
	return addr == Satp, true
}

// WriteDirect writes a CSR without a privilege check.
func (c *Csr) WriteDirect(addr uint16, data uint64) {
	switch addr {
	case Fflags:
		c.reg[Fcsr] = (c.reg[Fcsr] &^ 0x1f) | (data & 0x1f)
	case Frm:
		c.reg[Fcsr] = (c.reg[Fcsr] &^ 0xe0) | ((data << 5) & 0xe0)
	case Sstatus:
		c.reg[Mstatus] = (c.reg[Mstatus] &^ uint64(sstatusMask)) | (data & sstatusMask)
	case Sip:
		c.reg[Mip] = (c.reg[Mip] &^ uint64(sipMask)) | (data & sipMask)
	case Sie:
		c.reg[Mie] = (c.reg[Mie] &^ uint64(sieMask)) | (data & sieMask)
	case Cycle, Mcycle, Time, Instret, Minstret:
		c.reg[addr] = data
	default:
		c.reg[addr] = data
	}
}

// ReadModifyWriteDirect applies (data &^ cmask) | smask to addr, used by
// trap entry/exit and the mip interrupt-line updates, which
// read-modify-write in one step.
func (c *Csr) ReadModifyWriteDirect(addr uint16, smask, cmask uint64) {
	data := c.ReadDirect(addr)
	c.WriteDirect(addr, (data&^cmask)|smask)
}
