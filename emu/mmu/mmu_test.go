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

package mmu

import (
	"encoding/binary"
	"testing"

	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/csr"
)

// flatBus is a byte-addressable RAM big enough to hold a page table plus
// a handful of test pages, satisfying bus.Bus directly.
type flatBus struct {
	mem [1 << 22]byte
}

func (b *flatBus) SetDeviceData(bus.Device, []byte)        {}
func (b *flatBus) BaseAddress(bus.Device) uint64            { return 0 }
func (b *flatBus) Console() console.Console                 { return console.Dummy{} }
func (b *flatBus) Tick() [4]bool                             { return [4]bool{} }
func (b *flatBus) IsPendingSoftwareInterrupt(int) bool       { return false }
func (b *flatBus) IsPendingTimerInterrupt(int) bool          { return false }

func (b *flatBus) Read8(addr uint64) (uint8, bool)   { return b.mem[addr], true }
func (b *flatBus) Read16(addr uint64) (uint16, bool) { return binary.LittleEndian.Uint16(b.mem[addr:]), true }
func (b *flatBus) Read32(addr uint64) (uint32, bool) { return binary.LittleEndian.Uint32(b.mem[addr:]), true }
func (b *flatBus) Read64(addr uint64) (uint64, bool) { return binary.LittleEndian.Uint64(b.mem[addr:]), true }

func (b *flatBus) Write8(addr uint64, v uint8) bool  { b.mem[addr] = v; return true }
func (b *flatBus) Write16(addr uint64, v uint16) bool {
	binary.LittleEndian.PutUint16(b.mem[addr:], v)
	return true
}
func (b *flatBus) Write32(addr uint64, v uint32) bool {
	binary.LittleEndian.PutUint32(b.mem[addr:], v)
	return true
}
func (b *flatBus) Write64(addr uint64, v uint64) bool {
	binary.LittleEndian.PutUint64(b.mem[addr:], v)
	return true
}

func TestBareModePassesThrough(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)
	m.SetPrivilege(csr.Supervisor)
	if _, ok := m.Write8(0x1000, 0x42); !ok {
		t.Fatal("write should succeed in bare mode")
	}
	v, tr, ok := m.Read8(0x1000)
	if !ok || v != 0x42 {
		t.Fatalf("read8 = (%v, %v, %v), want (0x42, _, true)", v, tr, ok)
	}
}

func TestMachinePrivilegeNeverTranslates(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)
	m.SetPrivilege(csr.Machine)
	m.UpdateAddressingMode(1 << 63) // Sv39, garbage root PPN
	if _, ok := m.Write8(0x2000, 7); !ok {
		t.Fatal("machine-mode accesses must bypass translation")
	}
}

func TestSv39WalkLeafPage(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)

	const rootPPN = 0x10
	const leafPPN = 0x20
	rootTable := uint64(rootPPN * pageSize)
	leafTable := uint64(leafPPN * pageSize)

	vAddr := uint64(0x123456)
	vpn2 := (vAddr >> 30) & 0x1ff
	vpn1 := (vAddr >> 21) & 0x1ff
	vpn0 := (vAddr >> 12) & 0x1ff

	// Root PTE points at the leaf table (non-leaf: R=W=X=0).
	rootPTE := uint64((leafPPN << 10) | 0x01)
	b.Write64(rootTable+vpn2*8, rootPTE)

	// Megapage alignment requires the low 9 PPN bits to be zero, so the
	// frame number must be a multiple of 0x200.
	const dataPPN = 0x200
	leafPTE := uint64((dataPPN << 10) | 0x01 | 0x02 | 0x04 | 0x40 | 0x80) // V|R|W|A|D
	b.Write64(leafTable+vpn1*8, leafPTE)
	_ = vpn0

	m.UpdateAddressingMode((8 << 60) | rootPPN)
	m.SetPrivilege(csr.Supervisor)

	if _, ok := m.Write8(vAddr, 0x55); !ok {
		t.Fatal("expected walk to resolve to a writable leaf")
	}
	v, _, ok := m.Read8(vAddr)
	if !ok || v != 0x55 {
		t.Fatalf("read back %v, ok=%v, want 0x55", v, ok)
	}
}

func TestSv39WalkFaultsOnInvalidPTE(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)
	m.UpdateAddressingMode(8 << 60)
	m.SetPrivilege(csr.Supervisor)

	if _, ok := m.Write8(0x1000, 1); ok {
		t.Fatal("an all-zero (invalid) root PTE must fault")
	}
}

func TestUBitRequiresSUMFromSupervisor(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)

	const rootPPN = 0x10
	// vpn1/vpn0 both zero and the leaf PTE's frame number is zero, so the
	// gigapage alignment check passes and this resolves to physical 0.
	vAddr := uint64(0x40000000)
	vpn2 := (vAddr >> 30) & 0x1ff
	uPTE := uint64(0x01 | 0x02 | 0x04 | 0x40 | 0x80 | 0x10) // V|R|W|A|D|U, frame 0
	b.Write64(rootPPN*pageSize+vpn2*8, uPTE)

	m.UpdateAddressingMode((8 << 60) | rootPPN)
	m.SetPrivilege(csr.Supervisor)
	m.SetStatus(false, false)
	if _, ok := m.Write8(vAddr, 1); ok {
		t.Fatal("supervisor access to a U-page without SUM must fault")
	}

	m.SetStatus(true, false)
	if _, ok := m.Write8(vAddr, 1); !ok {
		t.Fatal("supervisor access to a U-page with SUM set should succeed")
	}
}

func TestReservationLifecycle(t *testing.T) {
	b := &flatBus{}
	m := New(b, false)
	m.SetReservation(0x100)
	if !m.IsReserved(0x100) {
		t.Fatal("expected reservation to be set")
	}
	m.ClearReservation(0x100)
	if m.IsReserved(0x100) {
		t.Fatal("expected reservation to be cleared")
	}
}
