/*
 * riscv-emu - Compressed (RVC) instruction expansion
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

package cpu

// decompress expands a 16-bit C-extension word into the equivalent 32-bit
// instruction word, which then runs through the ordinary execute path.
// The mapping follows the RVC encoding tables; c8 (compressed register
// number) maps to x8..x15.
func (c *Cpu) decompress(word uint16) (uint32, bool) {
	op := word & 0x3
	funct3 := (word >> 13) & 0x7

	rType := func(rd, rs1, rs2 uint32, funct7, funct3, opcode uint32) uint32 {
		return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
	}
	iType := func(rd, rs1 uint32, imm int64, funct3 uint32, opcode uint32) uint32 {
		return (uint32(imm)&0xfff)<<20 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
	}
	sType := func(rs1, rs2 uint32, imm int64, funct3 uint32, opcode uint32) uint32 {
		u := uint32(imm) & 0xfff
		return (u>>5)<<25 | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | ((u & 0x1f) << 7) | opcode
	}
	bType := func(rs1, rs2 uint32, imm int64, funct3 uint32) uint32 {
		u := uint32(imm)
		b12 := (u >> 12) & 1
		b11 := (u >> 11) & 1
		b10_5 := (u >> 5) & 0x3f
		b4_1 := (u >> 1) & 0xf
		return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
			(b4_1 << 8) | (b11 << 7) | opBranch
	}
	jType := func(rd uint32, imm int64, opcode uint32) uint32 {
		u := uint32(imm)
		b20 := (u >> 20) & 1
		b19_12 := (u >> 12) & 0xff
		b11 := (u >> 11) & 1
		b10_1 := (u >> 1) & 0x3ff
		return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
	}
	uType := func(rd uint32, imm int64, opcode uint32) uint32 {
		return (uint32(imm) & 0xfffff000) | (rd << 7) | opcode
	}

	c8 := func(bits uint16) uint32 { return uint32(bits&0x7) + 8 }

	switch op {
	case 0x0:
		switch funct3 {
		case 0x0: // C.ADDI4SPN
			nzuimm := ((word >> 7) & 0x30) | ((word >> 1) & 0x3c0) | ((word >> 4) & 0x4) | ((word >> 2) & 0x8)
			if nzuimm == 0 {
				return 0, false
			}
			return iType(c8(word>>2), 2, int64(nzuimm), 0, opOpImm), true
		case 0x2: // C.LW
			off := ((word>>5)&1)<<6 | ((word>>10)&0x7)<<3 | ((word>>6)&1)<<2
			return iType(c8(word>>2), c8(word>>7), int64(off), 0x2, opLoad), true
		case 0x3:
			if c.Xlen == X32 { // C.FLW
				off := ((word>>5)&1)<<6 | ((word>>10)&0x7)<<3 | ((word>>6)&1)<<2
				return iType(c8(word>>2), c8(word>>7), int64(off), 0x2, opLoadFP), true
			}
			// C.LD
			off := ((word>>10)&0x7)<<3 | ((word>>5)&0x3)<<6
			return iType(c8(word>>2), c8(word>>7), int64(off), 0x3, opLoad), true
		case 0x6: // C.SW
			off := ((word>>5)&1)<<6 | ((word>>10)&0x7)<<3 | ((word>>6)&1)<<2
			return sType(c8(word>>7), c8(word>>2), int64(off), 0x2, opStore), true
		case 0x7:
			if c.Xlen == X32 { // C.FSW
				off := ((word>>5)&1)<<6 | ((word>>10)&0x7)<<3 | ((word>>6)&1)<<2
				return sType(c8(word>>7), c8(word>>2), int64(off), 0x2, opStoreFP), true
			}
			// C.SD
			off := ((word>>10)&0x7)<<3 | ((word>>5)&0x3)<<6
			return sType(c8(word>>7), c8(word>>2), int64(off), 0x3, opStore), true
		}
		return 0, false

	case 0x1:
		rd := uint32((word >> 7) & 0x1f)
		switch funct3 {
		case 0x0: // C.NOP / C.ADDI
			imm := signExtend(uint32(((word>>12)&1)<<5|((word>>2)&0x1f)), 6)
			return iType(rd, rd, imm, 0, opOpImm), true
		case 0x1:
			if c.Xlen == X32 { // C.JAL
				u := ((word>>12)&1)<<11 | ((word>>8)&1)<<10 | ((word>>9)&3)<<8 |
					((word>>6)&1)<<7 | ((word>>7)&1)<<6 | ((word>>2)&1)<<5 |
					((word>>11)&1)<<4 | ((word>>3)&7)<<1
				imm := signExtend(uint32(u), 12)
				return jType(1, imm, opJAL), true
			}
			// C.ADDIW (RV64)
			imm := signExtend(uint32(((word>>12)&1)<<5|((word>>2)&0x1f)), 6)
			return iType(rd, rd, imm, 0, opOpImm32), true
		case 0x2: // C.LI
			imm := signExtend(uint32(((word>>12)&1)<<5|((word>>2)&0x1f)), 6)
			return iType(rd, 0, imm, 0, opOpImm), true
		case 0x3:
			if rd == 2 { // C.ADDI16SP
				u := ((word>>12)&1)<<9 | ((word>>3)&3)<<7 | ((word>>5)&1)<<6 |
					((word>>2)&1)<<5 | ((word>>6)&1)<<4
				imm := signExtend(uint32(u), 10)
				return iType(2, 2, imm, 0, opOpImm), true
			}
			// C.LUI
			u := uint32((word>>12)&1)<<17 | uint32((word>>2)&0x1f)<<12
			imm := signExtend(u, 18)
			return uType(rd, imm, opLUI), true
		case 0x4:
			funct2 := (word >> 10) & 0x3
			rdp := c8(word >> 7)
			switch funct2 {
			case 0x0: // C.SRLI
				shamt := ((word>>12)&1)<<5 | (word>>2)&0x1f
				return iType(rdp, rdp, int64(shamt), 0x5, opOpImm), true
			case 0x1: // C.SRAI
				shamt := ((word>>12)&1)<<5 | (word>>2)&0x1f
				return iType(rdp, rdp, int64(shamt)|(0x20<<5), 0x5, opOpImm), true
			case 0x2: // C.ANDI
				imm := signExtend(uint32(((word>>12)&1)<<5|((word>>2)&0x1f)), 6)
				return iType(rdp, rdp, imm, 0x7, opOpImm), true
			case 0x3:
				rs2p := c8(word >> 2)
				bit12 := (word >> 12) & 1
				sub3 := (word >> 5) & 0x3
				if bit12 == 0 {
					switch sub3 {
					case 0x0: // C.SUB
						return rType(rdp, rdp, rs2p, 0x20, 0x0, opOp), true
					case 0x1: // C.XOR
						return rType(rdp, rdp, rs2p, 0x00, 0x4, opOp), true
					case 0x2: // C.OR
						return rType(rdp, rdp, rs2p, 0x00, 0x6, opOp), true
					case 0x3: // C.AND
						return rType(rdp, rdp, rs2p, 0x00, 0x7, opOp), true
					}
				} else {
					switch sub3 {
					case 0x0: // C.SUBW
						return rType(rdp, rdp, rs2p, 0x20, 0x0, opOp32), true
					case 0x1: // C.ADDW
						return rType(rdp, rdp, rs2p, 0x00, 0x0, opOp32), true
					}
				}
				return 0, false
			}
			return 0, false
		case 0x5: // C.J
			u := ((word>>12)&1)<<11 | ((word>>8)&1)<<10 | ((word>>9)&3)<<8 |
				((word>>6)&1)<<7 | ((word>>7)&1)<<6 | ((word>>2)&1)<<5 |
				((word>>11)&1)<<4 | ((word>>3)&7)<<1
			imm := signExtend(uint32(u), 12)
			return jType(0, imm, opJAL), true
		case 0x6: // C.BEQZ
			rs1 := c8(word >> 7)
			u := ((word>>12)&1)<<8 | ((word>>5)&3)<<6 | ((word>>2)&1)<<5 |
				((word>>10)&3)<<3 | ((word>>3)&3)<<1
			imm := signExtend(uint32(u), 9)
			return bType(rs1, 0, imm, 0x0), true
		case 0x7: // C.BNEZ
			rs1 := c8(word >> 7)
			u := ((word>>12)&1)<<8 | ((word>>5)&3)<<6 | ((word>>2)&1)<<5 |
				((word>>10)&3)<<3 | ((word>>3)&3)<<1
			imm := signExtend(uint32(u), 9)
			return bType(rs1, 0, imm, 0x1), true
		}
		return 0, false

	case 0x2:
		rd := uint32((word >> 7) & 0x1f)
		switch funct3 {
		case 0x0: // C.SLLI
			shamt := ((word>>12)&1)<<5 | (word>>2)&0x1f
			return iType(rd, rd, int64(shamt), 0x1, opOpImm), true
		case 0x2: // C.LWSP
			off := ((word>>4)&0x7)<<2 | ((word>>12)&1)<<5 | ((word>>2)&0x3)<<6
			return iType(rd, 2, int64(off), 0x2, opLoad), true
		case 0x3:
			if c.Xlen == X32 { // C.FLWSP
				off := ((word>>2)&0x3)<<6 | ((word>>12)&1)<<5 | ((word>>4)&0x7)<<2
				return iType(rd, 2, int64(off), 0x2, opLoadFP), true
			}
			// C.LDSP
			off := ((word>>5)&0x3)<<3 | ((word>>12)&1)<<5 | ((word>>2)&0x7)<<6
			return iType(rd, 2, int64(off), 0x3, opLoad), true
		case 0x4:
			bit12 := (word >> 12) & 1
			rs2 := uint32((word >> 2) & 0x1f)
			if bit12 == 0 {
				if rs2 == 0 { // C.JR
					return iType(0, rd, 0, 0, opJALR), true
				}
				// C.MV
				return rType(rd, 0, rs2, 0x00, 0x0, opOp), true
			}
			if rd == 0 && rs2 == 0 { // C.EBREAK
				return 0x00100073, true
			}
			if rs2 == 0 { // C.JALR
				return iType(1, rd, 0, 0, opJALR), true
			}
			// C.ADD
			return rType(rd, rd, rs2, 0x00, 0x0, opOp), true
		case 0x6: // C.SWSP
			off := ((word>>9)&0xf)<<2 | ((word>>7)&0x3)<<6
			return sType(2, uint32((word>>2)&0x1f), int64(off), 0x2, opStore), true
		case 0x7:
			if c.Xlen == X32 { // C.FSWSP
				off := ((word>>9)&0xf)<<2 | ((word>>7)&0x3)<<6
				return sType(2, uint32((word>>2)&0x1f), int64(off), 0x2, opStoreFP), true
			}
			// C.SDSP
			off := ((word>>10)&0x7)<<3 | ((word>>7)&0x7)<<6
			return sType(2, uint32((word>>2)&0x1f), int64(off), 0x3, opStore), true
		}
		return 0, false
	}
	return 0, false
}
