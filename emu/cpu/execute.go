/*
 * riscv-emu - RV32I/RV64I/M/A/Zicsr instruction execution
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

import (
	"math"
	"math/bits"

	"github.com/rcornwell/riscv-emu/emu/csr"
	"github.com/rcornwell/riscv-emu/emu/trap"
)

// Opcode (bits 6:0) groups, dispatched by a plain switch rather than a map
// lookup.
const (
	opLoad     = 0x03
	opLoadFP   = 0x07
	opMiscMem  = 0x0f
	opOpImm    = 0x13
	opAuipc    = 0x17
	opOpImm32  = 0x1b
	opStore    = 0x23
	opStoreFP  = 0x27
	opAMO      = 0x2f
	opOp       = 0x33
	opLUI      = 0x37
	opOp32     = 0x3b
	opBranch   = 0x63
	opJALR     = 0x67
	opJAL      = 0x6f
	opSystem   = 0x73
)

func signExtend(v uint32, bit int) int64 {
	shift := 32 - bit
	return int64(int32(v<<shift) >> shift)
}

func iImm(word uint32) int64  { return signExtend(word>>20, 12) }
func sImm(word uint32) int64 {
	v := ((word >> 25) << 5) | ((word >> 7) & 0x1f)
	return signExtend(v, 12)
}
func bImm(word uint32) int64 {
	v := (((word >> 31) & 1) << 12) | (((word >> 7) & 1) << 11) |
		(((word >> 25) & 0x3f) << 5) | (((word >> 8) & 0xf) << 1)
	return signExtend(v, 13)
}
func uImm(word uint32) int64 { return int64(int32(word & 0xfffff000)) }
func jImm(word uint32) int64 {
	v := (((word >> 31) & 1) << 20) | (((word >> 12) & 0xff) << 12) |
		(((word >> 20) & 1) << 11) | (((word >> 21) & 0x3ff) << 1)
	return signExtend(v, 21)
}

// x0 reads as zero even mid-instruction; x[0] itself is only reset to 0
// after the instruction retires.
func (c *Cpu) rx(i int) int64 {
	if i == 0 {
		return 0
	}
	return c.X[i]
}

func (c *Cpu) wx(i int, v int64) {
	if i != 0 {
		c.X[i] = v
	}
}

// sext truncates v to 32 bits and sign-extends back to 64 when the hart is
// running RV32; in RV64 it is the identity. Every XLEN-sensitive ALU result
// passes through this at the point it is written to a register.
func (c *Cpu) sext(v int64) int64 {
	if c.Xlen == X32 {
		return int64(int32(v))
	}
	return v
}

// zext truncates v to 32 bits and zero-extends when running RV32, for the
// unsigned comparisons and shifts (SLTU, SLTIU, BLTU, BGEU, SRLI/SRL).
func (c *Cpu) zext(v int64) int64 {
	if c.Xlen == X32 {
		return int64(uint32(v))
	}
	return v
}

// shiftMask returns the shift-amount mask for the current register width:
// 5 bits for RV32, 6 bits for RV64.
func (c *Cpu) shiftMask() uint64 {
	if c.Xlen == X32 {
		return 0x1f
	}
	return 0x3f
}

// execute decodes and runs one already-fetched instruction word, returning
// ok=false with the trap to raise on a synchronous exception.
func (c *Cpu) execute(addr uint64, word uint32) (trap.Trap, bool) {
	opcode := word & 0x7f
	rd := int((word >> 7) & 0x1f)
	funct3 := (word >> 12) & 0x7
	rs1 := int((word >> 15) & 0x1f)
	rs2 := int((word >> 20) & 0x1f)
	funct7 := (word >> 25) & 0x7f

	switch opcode {
	case opLUI:
		c.wx(rd, uImm(word))
		return trap.Trap{}, true

	case opAuipc:
		c.wx(rd, int64(addr)+uImm(word))
		return trap.Trap{}, true

	case opJAL:
		c.wx(rd, int64(c.PC))
		c.PC = addr + uint64(jImm(word))
		return trap.Trap{}, true

	case opJALR:
		target := (uint64(c.rx(rs1)+iImm(word))) &^ 1
		link := c.PC
		c.PC = target
		c.wx(rd, int64(link))
		return trap.Trap{}, true

	case opBranch:
		return c.execBranch(addr, word, funct3, rs1, rs2)

	case opLoad:
		return c.execLoad(word, funct3, rd, rs1)

	case opStore:
		return c.execStore(word, funct3, rs1, rs2)

	case opOpImm:
		return c.execOpImm(word, funct3, funct7, rd, rs1)

	case opOpImm32:
		return c.execOpImm32(word, funct3, funct7, rd, rs1)

	case opOp:
		return c.execOp(funct3, funct7, rd, rs1, rs2)

	case opOp32:
		return c.execOp32(funct3, funct7, rd, rs1, rs2)

	case opMiscMem:
		// FENCE / FENCE.I: this single-hart emulator has nothing to order.
		return trap.Trap{}, true

	case opSystem:
		return c.execSystem(addr, word, funct3, rd, rs1)

	case opAMO:
		return c.execAMO(word, funct3, funct7, rd, rs1, rs2)

	case opLoadFP:
		return c.execLoadFP(word, funct3, rd, rs1)

	case opStoreFP:
		return c.execStoreFP(word, funct3, rs1, rs2)

	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
}

func (c *Cpu) execBranch(addr uint64, word uint32, funct3 uint32, rs1, rs2 int) (trap.Trap, bool) {
	a, b := c.sext(c.rx(rs1)), c.sext(c.rx(rs2))
	var taken bool
	switch funct3 {
	case 0x0:
		taken = a == b
	case 0x1:
		taken = a != b
	case 0x4:
		taken = a < b
	case 0x5:
		taken = a >= b
	case 0x6:
		taken = uint64(c.zext(a)) < uint64(c.zext(b))
	case 0x7:
		taken = uint64(c.zext(a)) >= uint64(c.zext(b))
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	if taken {
		target := addr + uint64(bImm(word))
		if target&1 != 0 {
			return trap.New(trap.InstructionAddressMisaligned, target), false
		}
		c.PC = target
	}
	return trap.Trap{}, true
}

func (c *Cpu) execLoad(word uint32, funct3 uint32, rd, rs1 int) (trap.Trap, bool) {
	vAddr := uint64(c.rx(rs1) + iImm(word))
	switch funct3 {
	case 0x0: // LB
		v, tr, ok := c.Mmu.Read8(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(int8(v)))
	case 0x1: // LH
		v, tr, ok := c.Mmu.Read16(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(int16(v)))
	case 0x2: // LW
		v, tr, ok := c.Mmu.Read32(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(int32(v)))
	case 0x3: // LD
		v, tr, ok := c.Mmu.Read64(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(v))
	case 0x4: // LBU
		v, tr, ok := c.Mmu.Read8(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(v))
	case 0x5: // LHU
		v, tr, ok := c.Mmu.Read16(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(v))
	case 0x6: // LWU
		v, tr, ok := c.Mmu.Read32(vAddr)
		if !ok {
			return tr, false
		}
		c.wx(rd, int64(v))
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}

func (c *Cpu) execStore(word uint32, funct3 uint32, rs1, rs2 int) (trap.Trap, bool) {
	vAddr := uint64(c.rx(rs1) + sImm(word))
	v := c.rx(rs2)
	switch funct3 {
	case 0x0:
		if tr, ok := c.Mmu.Write8(vAddr, uint8(v)); !ok {
			return tr, false
		}
	case 0x1:
		if tr, ok := c.Mmu.Write16(vAddr, uint16(v)); !ok {
			return tr, false
		}
	case 0x2:
		if tr, ok := c.Mmu.Write32(vAddr, uint32(v)); !ok {
			return tr, false
		}
	case 0x3:
		if tr, ok := c.Mmu.Write64(vAddr, uint64(v)); !ok {
			return tr, false
		}
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}

func (c *Cpu) execOpImm(word uint32, funct3, funct7 uint32, rd, rs1 int) (trap.Trap, bool) {
	imm := iImm(word)
	a := c.rx(rs1)
	shamt := uint(word>>20) & uint(c.shiftMask())
	switch funct3 {
	case 0x0: // ADDI
		c.wx(rd, c.sext(a+imm))
	case 0x1: // SLLI
		c.wx(rd, c.sext(a<<shamt))
	case 0x2: // SLTI
		c.wx(rd, b2i(c.sext(a) < c.sext(imm)))
	case 0x3: // SLTIU
		c.wx(rd, b2i(uint64(c.zext(a)) < uint64(c.zext(imm))))
	case 0x4: // XORI
		c.wx(rd, c.sext(a^imm))
	case 0x5:
		if funct7&0x20 != 0 { // SRAI
			c.wx(rd, c.sext(a>>shamt))
		} else { // SRLI
			c.wx(rd, c.sext(int64(uint64(c.zext(a))>>shamt)))
		}
	case 0x6: // ORI
		c.wx(rd, c.sext(a|imm))
	case 0x7: // ANDI
		c.wx(rd, c.sext(a&imm))
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}

// execOpImm32 handles the RV64-only OP-IMM-32 (ADDIW/SLLIW/SRLIW/SRAIW)
// encodings. These words don't exist in RV32I; reject them as illegal
// when the hart is running with a 32-bit register width.
func (c *Cpu) execOpImm32(word uint32, funct3, funct7 uint32, rd, rs1 int) (trap.Trap, bool) {
	if c.Xlen == X32 {
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	imm := iImm(word)
	a := int32(c.rx(rs1))
	shamt := uint((word >> 20) & 0x1f)
	switch funct3 {
	case 0x0: // ADDIW
		c.wx(rd, int64(a+int32(imm)))
	case 0x1: // SLLIW
		c.wx(rd, int64(a<<shamt))
	case 0x5:
		if funct7&0x20 != 0 { // SRAIW
			c.wx(rd, int64(a>>shamt))
		} else { // SRLIW
			c.wx(rd, int64(int32(uint32(a)>>shamt)))
		}
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}

func (c *Cpu) execOp(funct3, funct7 uint32, rd, rs1, rs2 int) (trap.Trap, bool) {
	a, b := c.rx(rs1), c.rx(rs2)
	if funct7 == 0x01 { // M extension
		return c.execMulDiv(funct3, rd, a, b, c.Xlen == X32)
	}
	mask := uint(c.shiftMask())
	switch funct3 {
	case 0x0:
		if funct7&0x20 != 0 {
			c.wx(rd, c.sext(a-b))
		} else {
			c.wx(rd, c.sext(a+b))
		}
	case 0x1:
		c.wx(rd, c.sext(a<<(uint(b)&mask)))
	case 0x2:
		c.wx(rd, b2i(c.sext(a) < c.sext(b)))
	case 0x3:
		c.wx(rd, b2i(uint64(c.zext(a)) < uint64(c.zext(b))))
	case 0x4:
		c.wx(rd, c.sext(a^b))
	case 0x5:
		if funct7&0x20 != 0 {
			c.wx(rd, c.sext(a>>(uint(b)&mask)))
		} else {
			c.wx(rd, c.sext(int64(uint64(c.zext(a))>>(uint(b)&mask))))
		}
	case 0x6:
		c.wx(rd, c.sext(a|b))
	case 0x7:
		c.wx(rd, c.sext(a&b))
	default:
		return trap.New(trap.IllegalInstruction, 0), false
	}
	return trap.Trap{}, true
}

// execOp32 handles the RV64-only OP-32 (ADDW/SUBW/SLLW/SRLW/SRAW and the
// M-extension W forms) encodings, illegal outside RV64.
func (c *Cpu) execOp32(funct3, funct7 uint32, rd, rs1, rs2 int) (trap.Trap, bool) {
	if c.Xlen == X32 {
		return trap.New(trap.IllegalInstruction, 0), false
	}
	a, b := int32(c.rx(rs1)), int32(c.rx(rs2))
	if funct7 == 0x01 {
		return c.execMulDiv(funct3, rd, int64(a), int64(b), true)
	}
	switch funct3 {
	case 0x0:
		if funct7&0x20 != 0 {
			c.wx(rd, int64(a-b))
		} else {
			c.wx(rd, int64(a+b))
		}
	case 0x1:
		c.wx(rd, int64(a<<uint(b&0x1f)))
	case 0x5:
		if funct7&0x20 != 0 {
			c.wx(rd, int64(a>>uint(b&0x1f)))
		} else {
			c.wx(rd, int64(int32(uint32(a)>>uint(b&0x1f))))
		}
	default:
		return trap.New(trap.IllegalInstruction, 0), false
	}
	return trap.Trap{}, true
}

// execMulDiv implements M: MUL/MULH{,SU,U}/DIV{,U}/REM{,U}, each with the
// W-suffixed 32-bit form when w32 is set. DIV/REM follow the architectural
// divide-by-zero (quotient=-1 or 2^n-1, remainder=dividend) and signed
// MIN/-1 overflow (quotient=dividend, remainder=0) rules rather than
// trapping.
func (c *Cpu) execMulDiv(funct3 uint32, rd int, a, b int64, w32 bool) (trap.Trap, bool) {
	switch funct3 {
	case 0x0: // MUL / MULW
		if w32 {
			c.wx(rd, int64(int32(a)*int32(b)))
		} else {
			c.wx(rd, a*b)
		}
	case 0x1: // MULH
		if w32 {
			c.wx(rd, (int64(int32(a))*int64(int32(b)))>>32)
		} else {
			c.wx(rd, mulhSigned(a, b))
		}
	case 0x2: // MULHSU
		if w32 {
			c.wx(rd, (int64(int32(a))*int64(uint32(b)))>>32)
		} else {
			c.wx(rd, mulhSignedUnsigned(a, uint64(b)))
		}
	case 0x3: // MULHU
		if w32 {
			c.wx(rd, int64(int32((uint64(uint32(a))*uint64(uint32(b)))>>32)))
		} else {
			hi, _ := bits.Mul64(uint64(a), uint64(b))
			c.wx(rd, int64(hi))
		}
	case 0x4: // DIV / DIVW
		if w32 {
			aw, bw := int32(a), int32(b)
			switch {
			case bw == 0:
				c.wx(rd, -1)
			case aw == math.MinInt32 && bw == -1:
				c.wx(rd, int64(aw))
			default:
				c.wx(rd, int64(aw/bw))
			}
		} else {
			switch {
			case b == 0:
				c.wx(rd, -1)
			case a == math.MinInt64 && b == -1:
				c.wx(rd, a)
			default:
				c.wx(rd, a/b)
			}
		}
	case 0x5: // DIVU / DIVUW
		if w32 {
			aw, bw := uint32(a), uint32(b)
			if bw == 0 {
				c.wx(rd, -1)
			} else {
				c.wx(rd, int64(int32(aw/bw)))
			}
		} else {
			au, bu := uint64(a), uint64(b)
			if bu == 0 {
				c.wx(rd, -1)
			} else {
				c.wx(rd, int64(au/bu))
			}
		}
	case 0x6: // REM / REMW
		if w32 {
			aw, bw := int32(a), int32(b)
			switch {
			case bw == 0:
				c.wx(rd, int64(aw))
			case aw == math.MinInt32 && bw == -1:
				c.wx(rd, 0)
			default:
				c.wx(rd, int64(aw%bw))
			}
		} else {
			switch {
			case b == 0:
				c.wx(rd, a)
			case a == math.MinInt64 && b == -1:
				c.wx(rd, 0)
			default:
				c.wx(rd, a%b)
			}
		}
	case 0x7: // REMU / REMUW
		if w32 {
			aw, bw := uint32(a), uint32(b)
			if bw == 0 {
				c.wx(rd, int64(int32(aw)))
			} else {
				c.wx(rd, int64(int32(aw%bw)))
			}
		} else {
			au, bu := uint64(a), uint64(b)
			if bu == 0 {
				c.wx(rd, a)
			} else {
				c.wx(rd, int64(au%bu))
			}
		}
	default:
		return trap.New(trap.IllegalInstruction, 0), false
	}
	return trap.Trap{}, true
}

func mulhSigned(a, b int64) int64 {
	neg := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo := bits.Mul64(ua, ub)
	if neg {
		lo = ^lo + 1
		if lo == 0 {
			hi++
		}
		hi = ^hi
	}
	return int64(hi)
}

func mulhSignedUnsigned(a int64, b uint64) int64 {
	neg := a < 0
	ua := uint64(a)
	if neg {
		ua = uint64(-a)
	}
	hi, lo := bits.Mul64(ua, b)
	if neg {
		lo = ^lo + 1
		if lo == 0 {
			hi++
		}
		hi = ^hi
	}
	return int64(hi)
}

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// execAMO implements the A extension: LR.W/D, SC.W/D, and the
// AMOSWAP/ADD/XOR/AND/OR/MIN/MAX{,U}.{W,D} read-modify-write ops.
func (c *Cpu) execAMO(word uint32, funct3, funct7 uint32, rd, rs1, rs2 int) (trap.Trap, bool) {
	isWord := funct3 == 0x2
	vAddr := uint64(c.rx(rs1))
	op := funct7 >> 2

	load := func() (int64, trap.Trap, bool) {
		if isWord {
			v, tr, ok := c.Mmu.Read32(vAddr)
			return int64(int32(v)), tr, ok
		}
		v, tr, ok := c.Mmu.Read64(vAddr)
		return int64(v), tr, ok
	}
	store := func(v int64) (trap.Trap, bool) {
		if isWord {
			return c.Mmu.Write32(vAddr, uint32(v))
		}
		return c.Mmu.Write64(vAddr, uint64(v))
	}

	switch op {
	case 0x02: // LR
		v, tr, ok := load()
		if !ok {
			return tr, false
		}
		c.Mmu.SetReservation(vAddr)
		c.wx(rd, v)
		return trap.Trap{}, true
	case 0x03: // SC
		if c.Mmu.IsReserved(vAddr) {
			c.Mmu.ClearReservation(vAddr)
			if tr, ok := store(c.rx(rs2)); !ok {
				return tr, false
			}
			c.wx(rd, 0)
		} else {
			c.wx(rd, 1)
		}
		return trap.Trap{}, true
	}

	old, tr, ok := load()
	if !ok {
		return tr, false
	}
	rhs := c.rx(rs2)
	var result int64
	switch op {
	case 0x00:
		result = old + rhs
	case 0x01:
		result = rhs
	case 0x04:
		result = old ^ rhs
	case 0x0c:
		result = old & rhs
	case 0x08:
		result = old | rhs
	case 0x10:
		result = minI64(old, rhs)
	case 0x14:
		result = maxI64(old, rhs)
	case 0x18:
		result = int64(minU64(uint64(old), uint64(rhs)))
	case 0x1c:
		result = int64(maxU64(uint64(old), uint64(rhs)))
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	if tr, ok := store(result); !ok {
		return tr, false
	}
	c.wx(rd, old)
	return trap.Trap{}, true
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// execSystem implements ECALL/EBREAK, the Zicsr instructions, MRET/SRET,
// WFI, and SFENCE.VMA.
func (c *Cpu) execSystem(addr uint64, word uint32, funct3 uint32, rd, rs1 int) (trap.Trap, bool) {
	if funct3 == 0 {
		funct12 := word >> 20
		switch funct12 {
		case 0x000: // ECALL
			var exc int
			switch c.Priv {
			case csr.User:
				exc = trap.EnvironmentCallFromUMode
			case csr.Supervisor:
				exc = trap.EnvironmentCallFromSMode
			default:
				exc = trap.EnvironmentCallFromMMode
			}
			return trap.New(exc, addr), false
		case 0x001: // EBREAK
			return trap.New(trap.Breakpoint, addr), false
		case 0x102: // SRET
			c.sret()
			return trap.Trap{}, true
		case 0x302: // MRET
			c.mret()
			return trap.Trap{}, true
		case 0x105: // WFI
			c.Wfi = true
			return trap.Trap{}, true
		default:
			if (word>>25)&0x7f == 0x09 { // SFENCE.VMA
				return trap.Trap{}, true
			}
			return trap.New(trap.IllegalInstruction, uint64(word)), false
		}
	}

	// Zicsr: CSRRW/CSRRS/CSRRC and their immediate forms.
	csrAddr := uint16(word >> 20)
	var writeVal uint64
	var old uint64
	var ok bool
	switch funct3 {
	case 0x1, 0x2, 0x3:
		old, ok = c.Csr.Read(csrAddr, c.Priv)
		if !ok {
			return trap.New(trap.IllegalInstruction, uint64(word)), false
		}
		src := uint64(c.rx(rs1))
		switch funct3 {
		case 0x1:
			writeVal = src
		case 0x2:
			writeVal = old | src
		case 0x3:
			writeVal = old &^ src
		}
	case 0x5, 0x6, 0x7:
		old, ok = c.Csr.Read(csrAddr, c.Priv)
		if !ok {
			return trap.New(trap.IllegalInstruction, uint64(word)), false
		}
		src := uint64(rs1)
		switch funct3 {
		case 0x5:
			writeVal = src
		case 0x6:
			writeVal = old | src
		case 0x7:
			writeVal = old &^ src
		}
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}

	// CSRRS/CSRRC(I) with rs1/uimm==0 is a pure read, no write attempted.
	isReadModify := funct3 == 0x2 || funct3 == 0x3 || funct3 == 0x6 || funct3 == 0x7
	skipWrite := isReadModify && rs1 == 0
	if !skipWrite {
		satpWrite, wok := c.Csr.Write(csrAddr, writeVal, c.Priv)
		if !wok {
			return trap.New(trap.IllegalInstruction, uint64(word)), false
		}
		if satpWrite {
			c.Mmu.UpdateAddressingMode(writeVal)
		}
		if csrAddr == csr.Mstatus || csrAddr == csr.Sstatus {
			// sstatus aliases SUM but not MXR, so re-read the canonical
			// mstatus bits rather than trusting writeVal's shape.
			status := c.Csr.ReadDirect(csr.Mstatus)
			c.Mmu.SetStatus(status&csr.StatusSUM != 0, status&csr.StatusMXR != 0)
		}
	}
	c.wx(rd, int64(old))
	return trap.Trap{}, true
}

func (c *Cpu) sret() {
	status := c.Csr.ReadDirect(csr.Sstatus)
	spie := (status >> 5) & 1
	spp := (status >> 8) & 1
	c.Csr.ReadModifyWriteDirect(csr.Sstatus, (spie<<1)|(1<<5), 0x122)
	var next csr.Privilege
	if spp != 0 {
		next = csr.Supervisor
	} else {
		next = csr.User
	}
	c.changePrivilege(next)
	c.PC = c.Csr.ReadDirect(csr.Sepc)
}

func (c *Cpu) mret() {
	status := c.Csr.ReadDirect(csr.Mstatus)
	mpie := (status >> 7) & 1
	mpp := (status >> 11) & 0x3
	c.Csr.ReadModifyWriteDirect(csr.Mstatus, (mpie<<3)|(1<<7), 0x1888)
	c.changePrivilege(csr.Privilege(mpp))
	c.PC = c.Csr.ReadDirect(csr.Mepc)
}

// execLoadFP/execStoreFP implement the D/F subset this build carries:
// loads and stores only, per the machine's "no FPU arithmetic" scope.
func (c *Cpu) execLoadFP(word uint32, funct3 uint32, rd, rs1 int) (trap.Trap, bool) {
	vAddr := uint64(c.rx(rs1) + iImm(word))
	switch funct3 {
	case 0x2: // FLW
		v, tr, ok := c.Mmu.Read32(vAddr)
		if !ok {
			return tr, false
		}
		c.F[rd] = float64(math.Float32frombits(v))
	case 0x3: // FLD
		v, tr, ok := c.Mmu.Read64(vAddr)
		if !ok {
			return tr, false
		}
		c.F[rd] = math.Float64frombits(v)
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}

func (c *Cpu) execStoreFP(word uint32, funct3 uint32, rs1, rs2 int) (trap.Trap, bool) {
	vAddr := uint64(c.rx(rs1) + sImm(word))
	switch funct3 {
	case 0x2: // FSW
		if tr, ok := c.Mmu.Write32(vAddr, math.Float32bits(float32(c.F[rs2]))); !ok {
			return tr, false
		}
	case 0x3: // FSD
		if tr, ok := c.Mmu.Write64(vAddr, math.Float64bits(c.F[rs2])); !ok {
			return tr, false
		}
	default:
		return trap.New(trap.IllegalInstruction, uint64(word)), false
	}
	return trap.Trap{}, true
}
