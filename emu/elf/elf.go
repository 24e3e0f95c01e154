/*
 * riscv-emu - ELF program loader
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

// Package elf reads just enough of the ELF32/ELF64 format to load a
// RISC-V program image: the file header, program headers (for load
// address/size) and section headers (to locate PROGBITS sections and,
// in test mode, a .tohost symbol).
package elf

import "encoding/binary"

const (
	magic = 0x464c457f // "\x7fELF" little-endian as a 32-bit word

	Class32 = 1
	Class64 = 2

	MachineRISCV = 0xf3

	typeProgbits = 0x01
	typeStrtab   = 0x03
)

// Header is the subset of the ELF file header the loader needs.
type Header struct {
	Class      uint8
	Entry      uint64
	PhOff      uint64
	ShOff      uint64
	PhEntSize  uint16
	PhNum      uint16
	ShEntSize  uint16
	ShNum      uint16
	ShStrNdx   uint16
	Machine    uint16
}

// ProgramHeader is one PT_LOAD-style entry.
type ProgramHeader struct {
	Type   uint32
	Offset uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Flags  uint32
}

// SectionHeader is one section table entry.
type SectionHeader struct {
	Name   uint32
	Type   uint32
	Addr   uint64
	Offset uint64
	Size   uint64
}

// File wraps the raw bytes of an ELF image and the header/table readers
// that operate on it.
type File struct {
	data []byte
}

func New(data []byte) *File {
	return &File{data: data}
}

func (f *File) IsELF() bool {
	return len(f.data) >= 4 && binary.LittleEndian.Uint32(f.data[0:4]) == magic
}

func (f *File) read8(off int) uint8 { return f.data[off] }

func (f *File) read16(off int) uint16 {
	return binary.LittleEndian.Uint16(f.data[off : off+2])
}

func (f *File) read32(off int) uint32 {
	return binary.LittleEndian.Uint32(f.data[off : off+4])
}

func (f *File) read64(off int) uint64 {
	return binary.LittleEndian.Uint64(f.data[off : off+8])
}

// Header parses the ELF file header. It panics on a malformed header:
// there is no recovery path for "this isn't a program we can run".
func (f *File) Header() Header {
	class := f.read8(4)
	if class != Class32 && class != Class64 {
		panic("elf: unsupported ei_class")
	}

	is32 := class == Class32
	h := Header{Class: class, Machine: uint16(f.read8(0x12))}
	switch {
	case is32:
		h.Entry = uint64(f.read32(0x18))
		h.PhOff = uint64(f.read32(0x1c))
		h.ShOff = uint64(f.read32(0x20))
		h.PhEntSize = f.read16(0x2a)
		h.PhNum = f.read16(0x2c)
		h.ShEntSize = f.read16(0x2e)
		h.ShNum = f.read16(0x30)
		h.ShStrNdx = f.read16(0x32)
	default:
		h.Entry = f.read64(0x18)
		h.PhOff = f.read64(0x20)
		h.ShOff = f.read64(0x28)
		h.PhEntSize = f.read16(0x36)
		h.PhNum = f.read16(0x38)
		h.ShEntSize = f.read16(0x3a)
		h.ShNum = f.read16(0x3c)
		h.ShStrNdx = f.read16(0x3e)
	}
	return h
}

func (f *File) ProgramHeaders(h Header) []ProgramHeader {
	phs := make([]ProgramHeader, 0, h.PhNum)
	for i := 0; i < int(h.PhNum); i++ {
		off := int(h.PhOff) + int(h.PhEntSize)*i
		if h.Class == Class32 {
			phs = append(phs, ProgramHeader{
				Type:   f.read32(off),
				Offset: uint64(f.read32(off + 4)),
				VAddr:  uint64(f.read32(off + 8)),
				PAddr:  uint64(f.read32(off + 12)),
				FileSz: uint64(f.read32(off + 16)),
				MemSz:  uint64(f.read32(off + 20)),
				Flags:  f.read32(off + 24),
			})
			continue
		}
		phs = append(phs, ProgramHeader{
			Type:   f.read32(off),
			Flags:  f.read32(off + 4),
			Offset: f.read64(off + 8),
			VAddr:  f.read64(off + 16),
			PAddr:  f.read64(off + 24),
			FileSz: f.read64(off + 32),
			MemSz:  f.read64(off + 40),
		})
	}
	return phs
}

func (f *File) SectionHeaders(h Header) []SectionHeader {
	shs := make([]SectionHeader, 0, h.ShNum)
	for i := 0; i < int(h.ShNum); i++ {
		off := int(h.ShOff) + int(h.ShEntSize)*i
		name := f.read32(off)
		typ := f.read32(off + 4)
		if h.Class == Class32 {
			shs = append(shs, SectionHeader{
				Name: name, Type: typ,
				Addr:   uint64(f.read32(off + 0x0c)),
				Offset: uint64(f.read32(off + 0x10)),
				Size:   uint64(f.read32(off + 0x14)),
			})
			continue
		}
		shs = append(shs, SectionHeader{
			Name: name, Type: typ,
			Addr:   f.read64(off + 0x10),
			Offset: f.read64(off + 0x18),
			Size:   f.read64(off + 0x20),
		})
	}
	return shs
}

// Tohost scans PROGBITS section names (resolved against every STRTAB
// section, as the reference loader does) for a section literally named
// ".tohost" and returns its address. Used only in test mode, where a
// program signals pass/fail by writing to this location.
func Tohost(f *File, sections []SectionHeader) (uint64, bool) {
	var strtabs, progbits []SectionHeader
	for _, s := range sections {
		switch s.Type {
		case typeStrtab:
			strtabs = append(strtabs, s)
		case typeProgbits:
			progbits = append(progbits, s)
		}
	}
	const tohostTag = ".tohost\x00"
	for _, p := range progbits {
		for _, st := range strtabs {
			off := int(p.Name) + int(st.Offset)
			if off < 0 || off+len(tohostTag) > len(f.data) {
				continue
			}
			if string(f.data[off:off+len(tohostTag)]) == tohostTag {
				return p.Addr, true
			}
		}
	}
	return 0, false
}
