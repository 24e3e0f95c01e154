/*
 * riscv-emu - Memory Management Unit
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

// Package mmu translates virtual to physical addresses (Bare/Sv32/Sv39),
// walks the page table on a miss, and decomposes unaligned accesses that
// straddle a page boundary into byte-at-a-time traffic. It also tracks
// the single reservation set LR/SC needs.
package mmu

import (
	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/csr"
	"github.com/rcornwell/riscv-emu/emu/trap"
)

const pageSize = 4096

type addressingMode int

const (
	bare addressingMode = iota
	sv32
	sv39
)

type accessType int

const (
	accessFetch accessType = iota
	accessRead
	accessWrite
)

// Mmu owns the machine bus and the translation state (satp-derived root
// PPN and mode) that the running privilege level and xlen need to
// interpret addresses with.
type Mmu struct {
	Bus bus.Bus

	rv32      bool
	ppn       uint64
	mode      addressingMode
	privilege csr.Privilege
	sum, mxr  bool

	reserved map[uint64]bool
}

// New returns an Mmu with translation disabled (Bare) until satp is
// written.
func New(b bus.Bus, rv32 bool) *Mmu {
	return &Mmu{Bus: b, rv32: rv32, privilege: csr.Machine, reserved: make(map[uint64]bool)}
}

func (m *Mmu) SetPrivilege(p csr.Privilege) {
	m.privilege = p
}

func (m *Mmu) SetRV32(rv32 bool) {
	m.rv32 = rv32
}

// UpdateAddressingMode decodes a satp write into a root PPN and mode.
func (m *Mmu) UpdateAddressingMode(satp uint64) {
	if m.rv32 {
		m.ppn = satp & 0x3fffff
		if satp&0x80000000 == 0 {
			m.mode = bare
		} else {
			m.mode = sv32
		}
		return
	}

	m.ppn = satp & 0xfffffffffff
	switch satp >> 60 {
	case 0:
		m.mode = bare
	case 8:
		m.mode = sv39
	default:
		panic("mmu: addressing mode not implemented")
	}
}

// SetReservation/ClearReservation/IsReserved implement the LR/SC
// reservation set: each address passed to SetReservation stays reserved
// until ClearReservation removes it. A successful SC removes its own
// address, and every store through the Mmu removes the physical address
// it writes to.
func (m *Mmu) SetReservation(addr uint64) {
	m.reserved[addr] = true
}

func (m *Mmu) ClearReservation(addr uint64) {
	delete(m.reserved, addr)
}

func (m *Mmu) IsReserved(addr uint64) bool {
	return m.reserved[addr]
}

func (m *Mmu) effective(addr uint64) uint64 {
	if m.rv32 {
		return addr & 0xffffffff
	}
	return addr
}

func (m *Mmu) Read8(vAddr uint64) (uint8, trap.Trap, bool) {
	ev := m.effective(vAddr)
	pAddr, ok := m.translate(ev, accessRead)
	if !ok {
		return 0, trap.New(trap.LoadPageFault, ev), false
	}
	v, bok := m.Bus.Read8(pAddr)
	if !bok {
		return 0, trap.New(trap.LoadAccessFault, ev), false
	}
	return v, trap.Trap{}, true
}

func (m *Mmu) Read16(vAddr uint64) (uint16, trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-2 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessRead)
		if !ok {
			return 0, trap.New(trap.LoadPageFault, ev), false
		}
		v, bok := m.Bus.Read16(pAddr)
		if !bok {
			return 0, trap.New(trap.LoadAccessFault, ev), false
		}
		return v, trap.Trap{}, true
	}
	var data uint16
	for i := uint64(0); i < 2; i++ {
		b, tr, ok := m.Read8(vAddr + i)
		if !ok {
			return 0, tr, false
		}
		data |= uint16(b) << (i * 8)
	}
	return data, trap.Trap{}, true
}

func (m *Mmu) Read32(vAddr uint64) (uint32, trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-4 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessRead)
		if !ok {
			return 0, trap.New(trap.LoadPageFault, ev), false
		}
		v, bok := m.Bus.Read32(pAddr)
		if !bok {
			return 0, trap.New(trap.LoadAccessFault, ev), false
		}
		return v, trap.Trap{}, true
	}
	var data uint32
	for i := uint64(0); i < 4; i++ {
		b, tr, ok := m.Read8(vAddr + i)
		if !ok {
			return 0, tr, false
		}
		data |= uint32(b) << (i * 8)
	}
	return data, trap.Trap{}, true
}

func (m *Mmu) Read64(vAddr uint64) (uint64, trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-8 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessRead)
		if !ok {
			return 0, trap.New(trap.LoadPageFault, ev), false
		}
		v, bok := m.Bus.Read64(pAddr)
		if !bok {
			return 0, trap.New(trap.LoadAccessFault, ev), false
		}
		return v, trap.Trap{}, true
	}
	var data uint64
	for i := uint64(0); i < 8; i++ {
		b, tr, ok := m.Read8(vAddr + i)
		if !ok {
			return 0, tr, false
		}
		data |= uint64(b) << (i * 8)
	}
	return data, trap.Trap{}, true
}

func (m *Mmu) Write8(vAddr uint64, val uint8) (trap.Trap, bool) {
	ev := m.effective(vAddr)
	pAddr, ok := m.translate(ev, accessWrite)
	if !ok {
		return trap.New(trap.StorePageFault, ev), false
	}
	m.ClearReservation(pAddr)
	if !m.Bus.Write8(pAddr, val) {
		return trap.New(trap.StoreAccessFault, ev), false
	}
	return trap.Trap{}, true
}

func (m *Mmu) Write16(vAddr uint64, data uint16) (trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-2 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessWrite)
		if !ok {
			return trap.New(trap.StorePageFault, ev), false
		}
		m.ClearReservation(pAddr)
		if !m.Bus.Write16(pAddr, data) {
			return trap.New(trap.StoreAccessFault, ev), false
		}
		return trap.Trap{}, true
	}
	for i := uint64(0); i < 2; i++ {
		if tr, ok := m.Write8(vAddr+i, uint8(data>>(i*8))); !ok {
			return tr, false
		}
	}
	return trap.Trap{}, true
}

func (m *Mmu) Write32(vAddr uint64, data uint32) (trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-4 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessWrite)
		if !ok {
			return trap.New(trap.StorePageFault, ev), false
		}
		m.ClearReservation(pAddr)
		if !m.Bus.Write32(pAddr, data) {
			return trap.New(trap.StoreAccessFault, ev), false
		}
		return trap.Trap{}, true
	}
	for i := uint64(0); i < 4; i++ {
		if tr, ok := m.Write8(vAddr+i, uint8(data>>(i*8))); !ok {
			return tr, false
		}
	}
	return trap.Trap{}, true
}

func (m *Mmu) Write64(vAddr uint64, data uint64) (trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-8 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessWrite)
		if !ok {
			return trap.New(trap.StorePageFault, ev), false
		}
		m.ClearReservation(pAddr)
		if !m.Bus.Write64(pAddr, data) {
			return trap.New(trap.StoreAccessFault, ev), false
		}
		return trap.Trap{}, true
	}
	for i := uint64(0); i < 8; i++ {
		if tr, ok := m.Write8(vAddr+i, uint8(data>>(i*8))); !ok {
			return tr, false
		}
	}
	return trap.Trap{}, true
}

// Fetch32 is Read32 specialized for instruction fetch, so permission
// failures raise InstructionPageFault instead of LoadPageFault.
func (m *Mmu) Fetch32(vAddr uint64) (uint32, trap.Trap, bool) {
	if vAddr&(pageSize-1) <= pageSize-4 {
		ev := m.effective(vAddr)
		pAddr, ok := m.translate(ev, accessFetch)
		if !ok {
			return 0, trap.New(trap.InstructionPageFault, ev), false
		}
		v, bok := m.Bus.Read32(pAddr)
		if !bok {
			return 0, trap.New(trap.InstructionAccessFault, ev), false
		}
		return v, trap.Trap{}, true
	}
	var data uint32
	for i := uint64(0); i < 4; i++ {
		ev := m.effective(vAddr + i)
		pAddr, ok := m.translate(ev, accessFetch)
		if !ok {
			return 0, trap.New(trap.InstructionPageFault, ev), false
		}
		b, bok := m.Bus.Read8(pAddr)
		if !bok {
			return 0, trap.New(trap.InstructionAccessFault, ev), false
		}
		data |= uint32(b) << (i * 8)
	}
	return data, trap.Trap{}, true
}

// translate walks the page table (or passes the address through when
// translation is Bare or the privilege is Machine, which never
// translates). ok=false means the caller should raise a page fault.
func (m *Mmu) translate(vAddr uint64, at accessType) (uint64, bool) {
	switch m.mode {
	case bare:
		return vAddr, true
	case sv32:
		if m.privilege == csr.Machine {
			return vAddr, true
		}
		vpn := [2]uint64{(vAddr >> 12) & 0x3ff, (vAddr >> 22) & 0x3ff}
		return m.walk(vAddr, 1, m.ppn, vpn[:], at)
	case sv39:
		if m.privilege == csr.Machine {
			return vAddr, true
		}
		vpn := [3]uint64{(vAddr >> 12) & 0x1ff, (vAddr >> 21) & 0x1ff, (vAddr >> 30) & 0x1ff}
		return m.walk(vAddr, 2, m.ppn, vpn[:], at)
	default:
		panic("mmu: unknown addressing mode")
	}
}

type pte struct {
	ppn  uint64
	ppns [3]uint64
	d, a uint8
	u    uint8
	x, w, r, v uint8
}

func (m *Mmu) parsePTE(raw uint64) pte {
	if m.mode == sv32 {
		return pte{
			ppn:  (raw >> 10) & 0x3fffff,
			ppns: [3]uint64{(raw >> 10) & 0x3ff, (raw >> 20) & 0xfff, 0},
			d:    uint8((raw >> 7) & 1),
			a:    uint8((raw >> 6) & 1),
			u:    uint8((raw >> 4) & 1),
			x:    uint8((raw >> 3) & 1),
			w:    uint8((raw >> 2) & 1),
			r:    uint8((raw >> 1) & 1),
			v:    uint8(raw & 1),
		}
	}
	return pte{
		ppn:  (raw >> 10) & 0xfffffffffff,
		ppns: [3]uint64{(raw >> 10) & 0x1ff, (raw >> 19) & 0x1ff, (raw >> 28) & 0x3ffffff},
		d:    uint8((raw >> 7) & 1),
		a:    uint8((raw >> 6) & 1),
		u:    uint8((raw >> 4) & 1),
		x:    uint8((raw >> 3) & 1),
		w:    uint8((raw >> 2) & 1),
		r:    uint8((raw >> 1) & 1),
		v:    uint8(raw & 1),
	}
}

func (m *Mmu) readPTE(addr uint64) uint64 {
	if m.mode == sv32 {
		v, ok := m.Bus.Read32(m.effective(addr))
		if !ok {
			panic("mmu: page table read beyond mapped memory")
		}
		return uint64(v)
	}
	v, ok := m.Bus.Read64(m.effective(addr))
	if !ok {
		panic("mmu: page table read beyond mapped memory")
	}
	return v
}

func (m *Mmu) writePTE(addr uint64, data uint64) {
	if m.mode == sv32 {
		if !m.Bus.Write32(m.effective(addr), uint32(data)) {
			panic("mmu: page table write beyond mapped memory")
		}
		return
	}
	if !m.Bus.Write64(m.effective(addr), data) {
		panic("mmu: page table write beyond mapped memory")
	}
}

// walk implements the Sv32/Sv39 algorithm: descend from the root PPN one
// level per recursive call, validating and (for superpage leaves)
// checking that low-order PPNs are zero, and enforcing U/SUM/MXR
// permission rules the Rust source left unimplemented.
func (m *Mmu) walk(vAddr uint64, level int, parentPPN uint64, vpn []uint64, at accessType) (uint64, bool) {
	pteSize := uint64(8)
	if m.mode == sv32 {
		pteSize = 4
	}
	pteAddr := parentPPN*pageSize + vpn[level]*pteSize
	raw := m.readPTE(pteAddr)
	p := m.parsePTE(raw)

	if p.v == 0 || (p.r == 0 && p.w == 1) {
		return 0, false
	}

	if p.r == 0 && p.x == 0 {
		if level == 0 {
			return 0, false
		}
		return m.walk(vAddr, level-1, p.ppn, vpn, at)
	}

	// Access/dirty: hardware-managed update-and-continue, not a fault.
	if p.a == 0 || (at == accessWrite && p.d == 0) {
		newPTE := raw | (1 << 6)
		if at == accessWrite {
			newPTE |= 1 << 7
		}
		m.writePTE(pteAddr, newPTE)
	}

	if !m.permitted(p, at) {
		return 0, false
	}

	offset := vAddr & 0xfff
	switch {
	case level == 2: // Sv39 gigapage
		if p.ppns[1] != 0 || p.ppns[0] != 0 {
			return 0, false
		}
		return (p.ppns[2] << 30) | (vpn[1] << 21) | (vpn[0] << 12) | offset, true
	case level == 1 && m.mode == sv39: // Sv39 megapage
		if p.ppns[0] != 0 {
			return 0, false
		}
		return (p.ppns[2] << 30) | (p.ppns[1] << 21) | (vpn[0] << 12) | offset, true
	case level == 1: // Sv32 megapage
		if p.ppns[0] != 0 {
			return 0, false
		}
		return (p.ppns[1] << 22) | (vpn[0] << 12) | offset, true
	default:
		return (p.ppn << 12) | offset, true
	}
}

// permitted enforces execute/read/write permission for the access type,
// plus the U-bit (a U-mode access to a non-U page, or an S-mode access
// to a U page without SUM, faults) and MXR (S-mode reads of execute-only
// pages are allowed when mstatus.MXR is set). SUM and MXR are the values
// last passed to SetStatus.
func (m *Mmu) permitted(p pte, at accessType) bool {
	if m.privilege == csr.User && p.u == 0 {
		return false
	}
	if m.privilege == csr.Supervisor && p.u != 0 && !m.sum {
		return false
	}
	switch at {
	case accessFetch:
		return p.x != 0
	case accessRead:
		return p.r != 0 || (p.x != 0 && m.mxr)
	default:
		return p.w != 0
	}
}

// SetStatus feeds the SUM/MXR bits of mstatus to the permission check;
// the CPU calls this whenever mstatus changes.
func (m *Mmu) SetStatus(sum, mxr bool) {
	m.sum = sum
	m.mxr = mxr
}
