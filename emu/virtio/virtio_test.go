/*
 * riscv-emu - Virtio-MMIO block device (legacy v1.1)
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

package virtio

import (
	"encoding/binary"
	"testing"

	"github.com/rcornwell/riscv-emu/emu/event"
)

// fakeDRAM is a flat byte array standing in for guest DRAM.
type fakeDRAM struct {
	mem [1 << 14]byte
}

func (d *fakeDRAM) ReadByte(addr uint64) uint8   { return d.mem[addr] }
func (d *fakeDRAM) WriteByte(addr uint64, v uint8) { d.mem[addr] = v }
func (d *fakeDRAM) ReadHalf(addr uint64) uint16  { return binary.LittleEndian.Uint16(d.mem[addr:]) }
func (d *fakeDRAM) WriteHalf(addr uint64, v uint16) {
	binary.LittleEndian.PutUint16(d.mem[addr:], v)
}
func (d *fakeDRAM) ReadWord(addr uint64) uint32 { return binary.LittleEndian.Uint32(d.mem[addr:]) }
func (d *fakeDRAM) WriteWord(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(d.mem[addr:], v)
}
func (d *fakeDRAM) ReadDouble(addr uint64) uint64 { return binary.LittleEndian.Uint64(d.mem[addr:]) }
func (d *fakeDRAM) WriteDouble(addr uint64, v uint64) {
	binary.LittleEndian.PutUint64(d.mem[addr:], v)
}

func TestMagicAndIdentityRegisters(t *testing.T) {
	v := New(0, &event.List{})
	if got := v.ReadWord(regMagicValue); got != 0x74726976 {
		t.Errorf("magic = %#x, want 0x74726976", got)
	}
	if got := v.ReadWord(regDeviceID); got != 2 {
		t.Errorf("device id = %d, want 2 (block)", got)
	}
}

func TestNotifyWalksDescriptorChainAndWritesDisk(t *testing.T) {
	events := &event.List{}
	v := New(0, events)
	v.Init(make([]byte, 4096))

	dram := &fakeDRAM{}
	v.SetDRAM(dram)

	const (
		descTable = 4096
		avail     = descTable + 4*16 // queueNum = 4
	)

	v.WriteWord(regGuestPageSize, 4096)
	v.WriteWord(regQueueNum, 4)
	v.WriteWord(regQueuePFN, descTable/4096)

	// avail ring: flags(2) + idx(2) + ring[0](2) = descriptor 0 is next up.
	dram.WriteHalf(avail+4, 0)

	// desc0: header, chains to desc1.
	binary.LittleEndian.PutUint64(dram.mem[descTable:], 5000) // addr
	binary.LittleEndian.PutUint16(dram.mem[descTable+14:], 1) // next
	binary.LittleEndian.PutUint64(dram.mem[5000+8:], 0)       // sector 0

	// desc1: data payload, write direction (write flag 0x2 clear), chains to desc2.
	const dataAddr = 6000
	payload := []byte("TEST")
	copy(dram.mem[dataAddr:], payload)
	binary.LittleEndian.PutUint64(dram.mem[descTable+16:], dataAddr)
	binary.LittleEndian.PutUint32(dram.mem[descTable+16+8:], uint32(len(payload)))
	binary.LittleEndian.PutUint16(dram.mem[descTable+16+14:], 2)

	// desc2: status byte.
	const statusAddr = 7000
	binary.LittleEndian.PutUint64(dram.mem[descTable+32:], statusAddr)

	v.WriteWord(regQueueNotify, 0)
	events.Advance(dmaDelay)

	for i, b := range payload {
		if v.disk[i] != b {
			t.Fatalf("disk[%d] = %#x, want %#x", i, v.disk[i], b)
		}
	}
	if !v.IRQ() {
		t.Error("expected the queue interrupt to be asserted after a completed transfer")
	}
}

func TestReservedRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic reading a reserved virtio register")
		}
	}()
	New(0, &event.List{}).ReadWord(0x200)
}
