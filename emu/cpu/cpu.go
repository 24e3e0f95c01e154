/*
 * riscv-emu - CPU core: registers, trap/interrupt entry and exit
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

// Package cpu implements the RV64GC hart: the integer and (load/store)
// floating point register files, the fetch/decode/execute loop, the
// compressed-instruction expander, and trap/interrupt entry and exit.
// Everything architectural funnels through trap.Trap; only internal
// "can't happen" defects panic.
package cpu

import (
	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/csr"
	"github.com/rcornwell/riscv-emu/emu/mmu"
	"github.com/rcornwell/riscv-emu/emu/trap"
	"github.com/rcornwell/riscv-emu/internal/debug"
)

// Xlen is the current integer register width, changed only by loading a
// new program image (a 32-bit ELF sets X32, a 64-bit ELF sets X64).
type Xlen int

const (
	X32 Xlen = iota
	X64
)

// Cpu is one hart: its architectural state plus the Mmu (and, through it,
// the machine bus) it executes against.
type Cpu struct {
	cycle int64

	PC      uint64
	Wfi     bool
	Xlen    Xlen
	Priv    csr.Privilege
	X       [32]int64
	F       [32]float64
	Csr      *csr.Csr
	Mmu      *mmu.Mmu
	TestMode bool
}

// New creates a hart wired to b, with x11 (a1) preloaded with the DTB
// base address per the Linux/RISC-V boot convention.
func New(b bus.Bus, rv32 bool, testMode bool) *Cpu {
	xlen := X64
	if rv32 {
		xlen = X32
	}
	c := &Cpu{
		Xlen:     xlen,
		Priv:     csr.Machine,
		Csr:      csr.New(rv32),
		Mmu:      mmu.New(b, rv32),
		TestMode: testMode,
	}
	c.X[11] = int64(b.BaseAddress(bus.DeviceDTB))
	return c
}

func (c *Cpu) Reset() {
	c.PC = 0
	c.cycle = 0
	c.Priv = csr.Machine
	c.Wfi = false
	c.X = [32]int64{}
	c.F = [32]float64{}
}

func (c *Cpu) SetPC(pc uint64) {
	c.PC = pc
}

// SetXlen changes the integer width, as loading a 32-bit vs 64-bit ELF
// requires; it also tells the Mmu so satp is decoded the right way.
func (c *Cpu) SetXlen(xlen Xlen) {
	c.Xlen = xlen
	c.Mmu.SetRV32(xlen == X32)
}

// Tick runs one hart cycle: service a pending interrupt, execute one
// instruction unless halted in WFI, then run the bus's peripherals and
// fold their interrupt lines into mip.
func (c *Cpu) Tick() {
	if irq, ok := c.checkInterrupts(); ok {
		c.interruptHandler(irq)
	}

	if !c.Wfi {
		addr := c.PC
		if tr, trapped := c.tickExecute(); trapped {
			c.catchException(tr, addr)
		}
	}

	irqs := c.Mmu.Bus.Tick()
	c.tickInterruptLines(irqs)

	c.cycle++
	c.Csr.WriteDirect(csr.Cycle, uint64(c.cycle))
	c.Csr.Tick()
}

// tickExecute fetches, decodes and executes a single instruction. The
// bool result reports whether a trap value is meaningful.
func (c *Cpu) tickExecute() (trap.Trap, bool) {
	addr := c.PC
	word, tr, ok := c.fetch()
	if !ok {
		return tr, true
	}

	if tr, ok := c.execute(addr, word); !ok {
		return tr, true
	}
	c.Csr.RetireInstruction()

	if debug.Enabled(debug.Inst) {
		debug.Tracef(debug.Inst, "%#016x: %08x", addr, word)
	}

	// x0 is hardwired to zero; clearing it here after every instruction is
	// simpler than special-casing every write site.
	c.X[0] = 0
	return trap.Trap{}, false
}

// fetch reads one instruction word, expanding a 16-bit compressed word to
// its 32-bit equivalent via decompress.
func (c *Cpu) fetch() (uint32, trap.Trap, bool) {
	word, tr, ok := c.Mmu.Fetch32(c.PC)
	if !ok {
		return 0, tr, false
	}

	if word&0x3 == 0x3 {
		c.PC += 4
		return word, trap.Trap{}, true
	}

	compPC := c.PC
	c.PC += 2
	expanded, ok := c.decompress(uint16(word))
	if !ok {
		return 0, trap.New(trap.IllegalInstruction, compPC), false
	}
	return expanded, trap.Trap{}, true
}

func (c *Cpu) tickInterruptLines(irqs [4]bool) {
	setBit := func(addr uint16, bit uint64, set bool) {
		if set {
			c.Csr.ReadModifyWriteDirect(addr, bit, 0)
		} else {
			c.Csr.ReadModifyWriteDirect(addr, 0, bit)
		}
	}
	setBit(csr.Mip, csr.IPMEIP, irqs[csr.Machine])
	setBit(csr.Mip, csr.IPSEIP, irqs[csr.Supervisor])
	setBit(csr.Mip, csr.IPUEIP, irqs[csr.User])
	// Hypervisor external is architecturally reserved here; irqs[Hypervisor]
	// is always false from every Bus implementation.

	setBit(csr.Mip, csr.IPMTIP, c.Mmu.Bus.IsPendingTimerInterrupt(0))
	setBit(csr.Mip, csr.IPMSIP, c.Mmu.Bus.IsPendingSoftwareInterrupt(0))
}

// catchException enters a synchronous trap: addr is the faulting
// instruction's PC, used as xepc.
func (c *Cpu) catchException(tr trap.Trap, addr uint64) {
	prev := c.Priv
	next := c.nextPrivilege(uint8(tr.Exception), false)
	c.changePrivilege(next)
	c.updateTrapCSRs(addr, uint8(tr.Exception), tr.Value, prev, false)
	c.PC = c.trapVector()
}

// interruptHandler enters an asynchronous trap. Per the boot ABI, xepc is
// the PC the hart would have executed next, and xtval is left at that same
// value (the Rust source passes self.pc for both).
func (c *Cpu) interruptHandler(irq int) {
	prev := c.Priv
	next := c.nextPrivilege(uint8(irq), true)
	c.changePrivilege(next)
	c.updateTrapCSRs(c.PC, uint8(irq), c.PC, prev, true)
	c.PC = c.trapVector()
	c.Wfi = false
}

func (c *Cpu) trapVector() uint64 {
	switch c.Priv {
	case csr.User:
		return c.Csr.ReadDirect(0x005) // utvec (unimplemented U-mode trap vector)
	case csr.Supervisor:
		return c.Csr.ReadDirect(csr.Stvec)
	default:
		return c.Csr.ReadDirect(csr.Mtvec)
	}
}

func (c *Cpu) changePrivilege(p csr.Privilege) {
	c.Priv = p
	c.Mmu.SetPrivilege(p)
}

func (c *Cpu) cause(trapCode uint8, isInterrupt bool) uint64 {
	cause := uint64(trapCode)
	if isInterrupt {
		if c.Xlen == X64 {
			cause |= 0x8000000000000000
		} else {
			cause |= 0x80000000
		}
	}
	return cause
}

// nextPrivilege applies medeleg/mideleg (and sedeleg/sideleg below that)
// to decide which privilege level takes the trap. Hypervisor delegation is
// masked out; this build has no H-mode.
func (c *Cpu) nextPrivilege(trapCode uint8, isInterrupt bool) csr.Privilege {
	cause := c.cause(trapCode, isInterrupt) & 0xf
	mdelegAddr := uint16(csr.Medeleg)
	if isInterrupt {
		mdelegAddr = csr.Mideleg
	}
	mdeleg := c.Csr.ReadDirect(mdelegAddr) & 0xfffffffffffff777
	sdelegAddr := uint16(csr.Sedeleg)
	if isInterrupt {
		sdelegAddr = csr.Sideleg
	}
	sdeleg := c.Csr.ReadDirect(sdelegAddr) & 0xfffffffffffff111

	if (mdeleg>>cause)&1 == 0 {
		return csr.Machine
	}
	if (sdeleg>>cause)&1 == 0 {
		return csr.Supervisor
	}
	return csr.User
}

// updateTrapCSRs writes xepc/xcause/xtval and the xstatus interrupt-stack
// fields for the now-current privilege level.
func (c *Cpu) updateTrapCSRs(pc uint64, trapCode uint8, tval uint64, prev csr.Privilege, isInterrupt bool) {
	switch c.Priv {
	case csr.User:
		c.Csr.WriteDirect(0x041, pc) // uepc
		c.Csr.WriteDirect(0x042, c.cause(trapCode, isInterrupt)) // ucause
		c.Csr.WriteDirect(0x043, tval) // utval
	case csr.Supervisor:
		c.Csr.WriteDirect(csr.Sepc, pc)
		c.Csr.WriteDirect(csr.Scause, c.cause(trapCode, isInterrupt))
		c.Csr.WriteDirect(csr.Stval, tval)
	default:
		c.Csr.WriteDirect(csr.Mepc, pc)
		c.Csr.WriteDirect(csr.Mcause, c.cause(trapCode, isInterrupt))
		c.Csr.WriteDirect(csr.Mtval, tval)
	}

	statusReg := uint16(csr.Mstatus)
	if c.Priv == csr.Supervisor {
		statusReg = csr.Sstatus
	}
	p := uint64(c.Priv)
	ie := (c.Csr.ReadDirect(statusReg) >> p) & 1

	switch c.Priv {
	case csr.Supervisor:
		c.Csr.ReadModifyWriteDirect(statusReg, (ie<<5)|(uint64(prev)<<8), 0x122)
	case csr.User:
		// ustatus has no previous-privilege field: only UIE moves to UPIE.
		c.Csr.ReadModifyWriteDirect(statusReg, ie<<4, 0x11)
	default:
		c.Csr.ReadModifyWriteDirect(statusReg, (ie<<7)|(uint64(prev)<<11), 0x1888)
	}
	c.Mmu.SetStatus(c.Csr.ReadDirect(csr.Mstatus)&csr.StatusSUM != 0, c.Csr.ReadDirect(csr.Mstatus)&csr.StatusMXR != 0)
}

// checkInterrupts scans mie&mip in fixed priority order: machine external,
// software, timer; then supervisor external, software, timer; then user
// external, timer, software. Hypervisor bits are never set by any Bus, so they never
// appear here.
func (c *Cpu) checkInterrupts() (int, bool) {
	pending := c.Csr.ReadDirect(csr.Mie) & c.Csr.ReadDirect(csr.Mip) & 0xfff

	order := []struct {
		bit    uint64
		source int
	}{
		{csr.IPMEIP, trap.MachineExternal},
		{csr.IPMSIP, trap.MachineSoftware},
		{csr.IPMTIP, trap.MachineTimer},
		{csr.IPSEIP, trap.SupervisorExternal},
		{csr.IPSSIP, trap.SupervisorSoftware},
		{csr.IPSTIP, trap.SupervisorTimer},
		{csr.IPUEIP, trap.UserExternal},
		{csr.IPUTIP, trap.UserTimer},
		{csr.IPUSIP, trap.UserSoftware},
	}
	for _, o := range order {
		if pending&o.bit != 0 && c.selectHandling(o.source) {
			return o.source, true
		}
	}
	return 0, false
}

// selectHandling gates an interrupt on delegation (never take an interrupt
// at a lower privilege than current), the global xIE bit when staying at
// the current privilege, and the specific xxIE enable bit at the target
// privilege.
func (c *Cpu) selectHandling(source int) bool {
	next := c.nextPrivilege(uint8(source), true)
	if next < c.Priv {
		return false
	}

	var ie uint64
	switch next {
	case csr.Supervisor:
		ie = c.Csr.ReadDirect(csr.Sie)
	default:
		ie = c.Csr.ReadDirect(csr.Mie)
	}

	if next == c.Priv {
		status := c.Csr.ReadDirect(csr.Mstatus)
		if c.Priv == csr.Supervisor {
			status = c.Csr.ReadDirect(csr.Sstatus)
		}
		if (status>>uint(c.Priv))&1 == 0 {
			return false
		}
	}

	switch source {
	case trap.MachineExternal:
		return ie&csr.IPMEIP != 0
	case trap.MachineSoftware:
		return ie&csr.IPMSIP != 0
	case trap.MachineTimer:
		return ie&csr.IPMTIP != 0
	case trap.SupervisorExternal:
		return ie&csr.IPSEIP != 0
	case trap.SupervisorSoftware:
		return ie&csr.IPSSIP != 0
	case trap.SupervisorTimer:
		return ie&csr.IPSTIP != 0
	case trap.UserExternal:
		return ie&csr.IPUEIP != 0
	case trap.UserTimer:
		return ie&csr.IPUTIP != 0
	case trap.UserSoftware:
		return ie&csr.IPUSIP != 0
	default:
		return false
	}
}
