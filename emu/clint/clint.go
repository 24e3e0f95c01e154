/*
 * riscv-emu - CLINT (Core Local Interruptor)
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

// Package clint models the SiFive CLINT: a per-hart MSIP software
// interrupt latch and an MTIME/MTIMECMP pair generating the timer
// interrupt. Register offsets follow the standard SiFive CLINT memory
// map (the same one QEMU's virt board and the FU540/FE310 boards use),
// since the original Rust source this repository is grounded on omits
// its own CLINT file from the reference pack.
package clint

const (
	msipBase     = 0x0000
	mtimecmpBase = 0x4000
	mtimeBase    = 0xbff8

	hartCount = 1
)

// Clint holds one hart's worth of software-interrupt and timer state.
type Clint struct {
	msip     [hartCount]uint32
	mtimecmp [hartCount]uint64
	mtime    uint64
}

// New returns a CLINT with mtime/mtimecmp zeroed and MSIP clear.
func New() *Clint {
	return &Clint{}
}

// Tick advances the free-running mtime counter by one.
func (c *Clint) Tick() {
	c.mtime++
}

// IsPendingSoftwareInterrupt reports MSIP for the given hart.
func (c *Clint) IsPendingSoftwareInterrupt(hart int) bool {
	return c.msip[hart]&0x1 != 0
}

// IsPendingTimerInterrupt reports whether mtime has reached mtimecmp.
func (c *Clint) IsPendingTimerInterrupt(hart int) bool {
	return c.mtime >= c.mtimecmp[hart]
}

// ReadWord implements device.WordRegs: all CLINT registers are accessed
// as naturally aligned 32-bit words; the bus synthesizes 64-bit mtime/
// mtimecmp accesses as two of these.
func (c *Clint) ReadWord(off uint64) uint32 {
	switch {
	case off >= msipBase && off < msipBase+4*hartCount:
		return c.msip[(off-msipBase)/4]
	case off >= mtimecmpBase && off < mtimecmpBase+8*hartCount:
		hart := (off - mtimecmpBase) / 8
		if (off-mtimecmpBase)%8 == 0 {
			return uint32(c.mtimecmp[hart])
		}
		return uint32(c.mtimecmp[hart] >> 32)
	case off == mtimeBase:
		return uint32(c.mtime)
	case off == mtimeBase+4:
		return uint32(c.mtime >> 32)
	default:
		panic("clint: read from reserved offset")
	}
}

func (c *Clint) WriteWord(off uint64, val uint32) {
	switch {
	case off >= msipBase && off < msipBase+4*hartCount:
		c.msip[(off-msipBase)/4] = val & 0x1
	case off >= mtimecmpBase && off < mtimecmpBase+8*hartCount:
		hart := (off - mtimecmpBase) / 8
		if (off-mtimecmpBase)%8 == 0 {
			c.mtimecmp[hart] = (c.mtimecmp[hart] &^ 0xffffffff) | uint64(val)
		} else {
			c.mtimecmp[hart] = (c.mtimecmp[hart] & 0xffffffff) | uint64(val)<<32
		}
	case off == mtimeBase:
		c.mtime = (c.mtime &^ 0xffffffff) | uint64(val)
	case off == mtimeBase+4:
		c.mtime = (c.mtime & 0xffffffff) | uint64(val)<<32
	default:
		panic("clint: write to reserved offset")
	}
}
