/*
 * riscv-emu - Linear byte addressable memory
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

// Package memory is the backing store for DRAM, mask ROM and the DTB
// mirror: a flat byte slice with little-endian 8/16/32/64-bit accessors.
// Unlike the teacher's word-oriented S/370 store, RISC-V requires byte
// addressability, so every accessor here composes/decomposes bytes
// directly rather than masking a 32-bit word array.
package memory

// Memory is a fixed-size, zero-initialized byte array.
type Memory struct {
	data []byte
}

// New allocates a Memory of the given size in bytes.
func New(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the capacity of the backing store in bytes.
func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// Load copies data into the start of the backing store, used to seed DRAM
// from an ELF segment or the DTB/disk image blobs.
func (m *Memory) Load(data []byte) {
	copy(m.data, data)
}

// Bytes exposes the backing store directly, used by the virtio device for
// bulk sector transfers.
func (m *Memory) Bytes() []byte {
	return m.data
}

func (m *Memory) ReadByte(addr uint64) uint8 {
	return m.data[addr]
}

func (m *Memory) WriteByte(addr uint64, v uint8) {
	m.data[addr] = v
}

func (m *Memory) ReadHalf(addr uint64) uint16 {
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8
}

func (m *Memory) WriteHalf(addr uint64, v uint16) {
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
}

func (m *Memory) ReadWord(addr uint64) uint32 {
	return uint32(m.data[addr]) |
		uint32(m.data[addr+1])<<8 |
		uint32(m.data[addr+2])<<16 |
		uint32(m.data[addr+3])<<24
}

func (m *Memory) WriteWord(addr uint64, v uint32) {
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
	m.data[addr+2] = byte(v >> 16)
	m.data[addr+3] = byte(v >> 24)
}

func (m *Memory) ReadDouble(addr uint64) uint64 {
	return uint64(m.ReadWord(addr)) | uint64(m.ReadWord(addr+4))<<32
}

func (m *Memory) WriteDouble(addr uint64, v uint64) {
	m.WriteWord(addr, uint32(v))
	m.WriteWord(addr+4, uint32(v>>32))
}
