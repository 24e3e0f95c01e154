/*
 * riscv-emu - PLIC (Platform-Level Interrupt Controller)
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

// Package plic models the SiFive/RISC-V PLIC: per-source priority, a
// pending bitmap, and per-hart-context enable/threshold/claim registers
// for the Machine and Supervisor contexts. Register layout follows
// https://static.dev.sifive.com/FU540-C000-v1.0.pdf.
package plic

const (
	pendingBase    = 0x1000
	menableBase    = 0x2000
	senableBase    = 0x2080
	mthresholdBase = 0x200000
	sthresholdBase = 0x201000
	mclaimBase     = 0x200004
	sclaimBase     = 0x201004

	coreMax = 5
	intMax  = 0x1000 / 4
)

// Context selects which per-hart register bank a tick/claim result
// refers to. Indices match the 4-element IRQ vector the bus collects,
// ordered User, Supervisor, Hypervisor (unused), Machine.
const (
	ContextUser = iota
	ContextSupervisor
	ContextHypervisor
	ContextMachine
)

// Plic holds all per-source and per-hart-context register state.
type Plic struct {
	priority   [intMax]uint32
	pending    uint32
	menable    [coreMax]uint32
	senable    [coreMax]uint32
	mthreshold [coreMax]uint32
	sthreshold [coreMax]uint32
	mclaim     [coreMax]uint32
	sclaim     [coreMax]uint32
}

// New returns a PLIC with all registers zeroed.
func New() *Plic {
	return &Plic{}
}

// Tick evaluates, for one hart, which of the given pending source IDs
// are enabled and above threshold for each context, selects the highest
// priority one (ties favor the lower ID), latches
// it into that context's claim register, and returns the 4-element IRQ
// line vector indexed by Context*.
func (p *Plic) Tick(hart int, interrupts []int) [4]bool {
	var irqM, maxPriorityM uint32
	var irqS, maxPriorityS uint32

	for _, id := range interrupts {
		prio := p.priority[id]
		if (p.menable[hart]>>uint(id))&0x1 != 0 && prio > p.mthreshold[hart] &&
			(prio > maxPriorityM || (prio == maxPriorityM && uint32(id) < irqM)) {
			irqM = uint32(id)
			maxPriorityM = prio
		}
		if (p.senable[hart]>>uint(id))&0x1 != 0 && prio > p.sthreshold[hart] &&
			(prio > maxPriorityS || (prio == maxPriorityS && uint32(id) < irqS)) {
			irqS = uint32(id)
			maxPriorityS = prio
		}
	}

	var irqs [4]bool
	if irqM != 0 {
		irqs[ContextMachine] = true
		p.mclaim[hart] = irqM
	}
	if irqS != 0 {
		irqs[ContextSupervisor] = true
		p.sclaim[hart] = irqS
	}
	return irqs
}

// ReadWord implements device.WordRegs. Only naturally aligned 32-bit
// accesses are legal on the PLIC memory map.
func (p *Plic) ReadWord(off uint64) uint32 {
	addr := off & 0x3ffffc
	switch {
	case addr < pendingBase:
		idx := addr >> 2
		if idx >= intMax {
			panic("plic: read from reserved priority slot")
		}
		return p.priority[idx]
	case addr == pendingBase:
		return p.pending
	case addr < menableBase:
		panic("plic: read from reserved area")
	case addr < mthresholdBase:
		if addr&0x80 == 0 {
			return p.bank(addr, menableBase, 0x100, p.menable[:])
		}
		return p.bank(addr, senableBase, 0x100, p.senable[:])
	case addr&0x1000 == 0:
		if addr&0x4 == 0 {
			return p.bank(addr, mthresholdBase, 0x2000, p.mthreshold[:])
		}
		return p.bank(addr, mclaimBase, 0x2000, p.mclaim[:])
	default:
		if addr&0x4 == 0 {
			return p.bank(addr, sthresholdBase, 0x2000, p.sthreshold[:])
		}
		return p.bank(addr, sclaimBase, 0x2000, p.sclaim[:])
	}
}

func (p *Plic) bank(addr, base, stride uint64, regs []uint32) uint32 {
	idx := (addr - base) / stride
	if int(idx) >= len(regs) {
		panic("plic: access beyond hart context count")
	}
	return regs[idx]
}

func (p *Plic) WriteWord(off uint64, val uint32) {
	addr := off & 0x3ffffc
	switch {
	case addr < pendingBase:
		idx := addr >> 2
		if idx >= intMax {
			panic("plic: write to reserved priority slot")
		}
		p.priority[idx] = val
	case addr == pendingBase:
		p.pending = val
	case addr < menableBase:
		panic("plic: write to reserved area")
	case addr < mthresholdBase:
		if addr&0x80 == 0 {
			p.menable[p.idx(addr, menableBase, 0x100, len(p.menable))] = val
		} else {
			p.senable[p.idx(addr, senableBase, 0x100, len(p.senable))] = val
		}
	case addr&0x1000 == 0:
		if addr&0x4 == 0 {
			p.mthreshold[p.idx(addr, mthresholdBase, 0x2000, len(p.mthreshold))] = val
		} else {
			idx := p.idx(addr, mclaimBase, 0x2000, len(p.mclaim))
			if p.mclaim[idx] == val {
				p.mclaim[idx] = 0
			}
		}
	default:
		if addr&0x4 == 0 {
			p.sthreshold[p.idx(addr, sthresholdBase, 0x2000, len(p.sthreshold))] = val
		} else {
			idx := p.idx(addr, sclaimBase, 0x2000, len(p.sclaim))
			if p.sclaim[idx] == val {
				p.sclaim[idx] = 0
			}
		}
	}
}

func (p *Plic) idx(addr, base, stride uint64, count int) uint64 {
	idx := (addr - base) / stride
	if int(idx) >= count {
		panic("plic: access beyond hart context count")
	}
	return idx
}
