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

// Package virtio models a virtio-mmio legacy (v1.1) block device: the
// register file driving queue setup plus the descriptor-chain walk that
// moves bytes between guest DRAM and the host-side disk image.
// https://docs.oasis-open.org/virtio/virtio/v1.1/csprd01/virtio-v1.1-csprd01.html
// https://github.com/mit-pdos/xv6-riscv/blob/riscv/kernel/virtio_disk.c
package virtio

import (
	"encoding/binary"

	"github.com/rcornwell/riscv-emu/emu/event"
)

const (
	queueNumMax = 0x1000
	sectorSize  = 512
	dmaDelay    = 128

	regMagicValue      = 0x000
	regVersion         = 0x004
	regDeviceID        = 0x008
	regVendorID        = 0x00c
	regDeviceFeatures  = 0x010
	regDeviceFeatSel   = 0x014
	regDriverFeatures  = 0x020
	regDriverFeatSel   = 0x024
	regGuestPageSize   = 0x028
	regQueueSel        = 0x030
	regQueueNumMax     = 0x034
	regQueueNum        = 0x038
	regQueueAlign      = 0x03c
	regQueuePFN        = 0x040
	regQueueNotify     = 0x050
	regInterruptStatus = 0x060
	regInterruptACK    = 0x064
	regDeviceStatus    = 0x070
	regConfigSpace0    = 0x100
	regConfigSpace1    = 0x104

	interruptQueue         = 0x1
	interruptConfiguration = 0x2

	descriptorSize = 16
	descFWrite     = 0x2

	statusOK = 0
)

// DRAM is the guest memory surface the queue descriptors reference,
// satisfied by *emu/memory.Memory. Bound once via SetDRAM before any
// notify can be serviced.
type DRAM interface {
	ReadByte(addr uint64) uint8
	WriteByte(addr uint64, v uint8)
	ReadHalf(addr uint64) uint16
	WriteHalf(addr uint64, v uint16)
	ReadWord(addr uint64) uint32
	WriteWord(addr uint64, v uint32)
	ReadDouble(addr uint64) uint64
	WriteDouble(addr uint64, v uint64)
}

// Virtio is a single virtqueue block device.
type Virtio struct {
	cycle        uint64
	disk         []byte
	lastAvailIdx uint64
	dramBase     uint64
	guestMemory  DRAM

	deviceFeaturesSel uint32
	driverFeatures    uint32
	driverFeaturesSel uint32
	guestPageSize     uint32
	queueSel          uint32
	queueNum          uint32
	queueAlign        uint32
	queuePFN          uint32
	interruptStatus   uint32
	deviceStatus      uint32
	configSpace       [2]uint32

	events *event.List
}

// New returns a Virtio device whose virtqueue addresses are relative to
// dramBase (the machine's DRAM origin, since QueuePFN encodes a guest
// physical, not a DRAM-relative, page number). events is the bus's
// shared scheduler, used to delay DMA completion by dmaDelay ticks.
func New(dramBase uint64, events *event.List) *Virtio {
	return &Virtio{
		dramBase:    dramBase,
		queueAlign:  0x1000,
		configSpace: [2]uint32{0x20000, 0},
		events:      events,
	}
}

// SetDRAM binds the guest memory the device DMAs into and out of.
func (v *Virtio) SetDRAM(d DRAM) {
	v.guestMemory = d
}

// Init loads a disk image backing the block device.
func (v *Virtio) Init(data []byte) {
	v.disk = make([]byte, len(data))
	copy(v.disk, data)
}

// Tick advances the device clock. DMA completion is driven by the event
// scheduler registered at construction (the 128-cycle delay is exact,
// not throttled like the UART's polling cadence).
func (v *Virtio) Tick() {
	v.cycle++
}

func (v *Virtio) IRQ() bool {
	return v.interruptStatus&0x3 != 0
}

func (v *Virtio) ReadWord(addr uint64) uint32 {
	switch addr {
	case regMagicValue:
		return 0x74726976 // "virt"
	case regVersion:
		return 0x1
	case regDeviceID:
		return 0x2 // block device
	case regVendorID:
		return 0x554d4551
	case regDeviceFeatures:
		return v.deviceFeaturesSel
	case regQueueNumMax:
		return queueNumMax
	case regQueuePFN:
		return v.queuePFN
	case regInterruptStatus:
		return v.interruptStatus
	case regDeviceStatus:
		return v.deviceStatus
	case regConfigSpace0:
		return v.configSpace[0]
	case regConfigSpace1:
		return v.configSpace[1]
	default:
		panic("virtio: read from reserved area")
	}
}

func (v *Virtio) WriteWord(addr uint64, data uint32) {
	switch addr {
	case regDeviceFeatSel:
		v.deviceFeaturesSel = data
	case regDriverFeatures:
		v.driverFeatures = data
	case regDriverFeatSel:
		v.driverFeaturesSel = data
	case regGuestPageSize:
		v.guestPageSize = data
	case regQueueSel:
		v.queueSel = data
	case regQueueNum:
		v.queueNum = data
	case regQueueAlign:
		v.queueAlign = data
	case regQueuePFN:
		v.queuePFN = data
	case regQueueNotify:
		v.events.Add(v, v.completeNotify, dmaDelay, 0)
	case regInterruptACK:
		if data&interruptQueue != 0 {
			v.interruptStatus &^= interruptQueue
		}
		if data&interruptConfiguration != 0 {
			v.interruptStatus &^= interruptConfiguration
		}
	case regDeviceStatus:
		v.deviceStatus = data
	case regConfigSpace0:
		v.configSpace[0] = data
	case regConfigSpace1:
		v.configSpace[1] = data
	default:
		panic("virtio: write to reserved area")
	}
}

type virtqueue struct {
	descTableHead uint64
	availRingHead uint64
	usedRingHead  uint64
}

type descriptor struct {
	addr  uint64
	len   uint32
	flags uint16
	next  uint64
}

func (v *Virtio) completeNotify(int) {
	if v.guestMemory == nil {
		return
	}
	v.transfer(v.guestMemory)
	v.interruptStatus |= interruptQueue
}

func (v *Virtio) getVirtqueue() virtqueue {
	queueSize := uint64(v.queueNum)
	pageAddr := uint64(v.queuePFN) * uint64(v.guestPageSize)
	descTable := pageAddr - v.dramBase

	availAddr := descTable + queueSize*16

	align := uint64(v.queueAlign)
	usedAddr := ((availAddr + 4 + queueSize*2 + align - 1) / align) * align

	return virtqueue{descTableHead: descTable, availRingHead: availAddr, usedRingHead: usedAddr}
}

func (v *Virtio) getDescriptor(dram DRAM, tableHead, prev uint64) descriptor {
	queueSize := uint64(v.queueNum)
	entity := tableHead + descriptorSize*prev
	return descriptor{
		addr:  dram.ReadDouble(entity) - v.dramBase,
		len:   dram.ReadWord(entity + 8),
		flags: dram.ReadHalf(entity + 12),
		next:  uint64(dram.ReadHalf(entity+14)) % queueSize,
	}
}

// transfer walks one descriptor chain: header (sector index), data
// buffer (the actual read/write payload), status byte. See spec §4.9.
func (v *Virtio) transfer(dram DRAM) {
	queueSize := uint64(v.queueNum)
	vq := v.getVirtqueue()

	descIdx := uint64(dram.ReadHalf(vq.availRingHead+4+v.lastAvailIdx*2)) % queueSize

	desc0 := v.getDescriptor(dram, vq.descTableHead, descIdx)
	sectorIdx := dram.ReadDouble(desc0.addr + 8)

	desc1 := v.getDescriptor(dram, vq.descTableHead, desc0.next)
	diskAddr := sectorIdx * sectorSize

	length := uint64(desc1.len)
	aligned := length &^ 7 // largest multiple of 8 not exceeding length

	if desc1.flags&descFWrite == 0 {
		// Write only, from the host's perspective: guest -> disk.
		var i uint64
		if desc1.addr&7 == 0 && diskAddr&7 == 0 {
			for ; i < aligned; i += 8 {
				v.writeDisk64(diskAddr+i, dram.ReadDouble(desc1.addr+i))
			}
		}
		for ; i < length; i++ {
			v.writeDisk8(diskAddr+i, dram.ReadByte(desc1.addr+i))
		}
	} else {
		// Read only, from the host's perspective: disk -> guest.
		var i uint64
		if desc1.addr&7 == 0 && diskAddr&7 == 0 {
			for ; i < aligned; i += 8 {
				dram.WriteDouble(desc1.addr+i, v.readDisk64(diskAddr+i))
			}
		}
		for ; i < length; i++ {
			dram.WriteByte(desc1.addr+i, v.readDisk8(diskAddr+i))
		}
	}

	desc2 := v.getDescriptor(dram, vq.descTableHead, desc1.next)
	dram.WriteByte(desc2.addr, statusOK)

	dram.WriteWord(vq.usedRingHead+4+v.lastAvailIdx*8, uint32(descIdx))
	v.lastAvailIdx = (v.lastAvailIdx + 1) % queueSize
	dram.WriteHalf(vq.usedRingHead+2, uint16(v.lastAvailIdx))
}

func (v *Virtio) readDisk8(addr uint64) uint8 {
	if int(addr) >= len(v.disk) {
		return 0
	}
	return v.disk[addr]
}

func (v *Virtio) writeDisk8(addr uint64, data uint8) {
	if int(addr) >= len(v.disk) {
		return
	}
	v.disk[addr] = data
}

func (v *Virtio) readDisk64(addr uint64) uint64 {
	if int(addr)+8 > len(v.disk) {
		return 0
	}
	return binary.LittleEndian.Uint64(v.disk[addr:])
}

func (v *Virtio) writeDisk64(addr uint64, data uint64) {
	if int(addr)+8 > len(v.disk) {
		return
	}
	binary.LittleEndian.PutUint64(v.disk[addr:], data)
}
