/*
 * riscv-emu - Trap causes
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

// Package trap names the exception and interrupt causes the CPU can
// raise, and the carrier type (Trap) that funnels an architectural fault
// from wherever it's detected back to the trap-entry code. Traps are
// ordinary Go values here, never panics: only non-architectural "can't
// happen" defects (decode-table fallthrough, a reserved bus address with
// no Err path) panic.
package trap

// Exception codes, placed in {m,s}cause with the MSB clear.
const (
	InstructionAddressMisaligned = 0
	InstructionAccessFault       = 1
	IllegalInstruction            = 2
	Breakpoint                    = 3
	LoadAddressMisaligned        = 4
	LoadAccessFault               = 5
	StoreAddressMisaligned       = 6
	StoreAccessFault              = 7
	EnvironmentCallFromUMode     = 8
	EnvironmentCallFromSMode     = 9
	EnvironmentCallFromMMode     = 11
	InstructionPageFault          = 12
	LoadPageFault                 = 13
	StorePageFault                = 15
)

// Interrupt codes, placed in {m,s}cause with the MSB set.
const (
	UserSoftware       = 0
	SupervisorSoftware = 1
	MachineSoftware    = 3
	UserTimer          = 4
	SupervisorTimer    = 5
	MachineTimer       = 7
	UserExternal       = 8
	SupervisorExternal = 9
	MachineExternal    = 11
)

// Trap carries one architectural fault: the exception code and the
// associated tval (faulting address, or the illegal instruction word).
type Trap struct {
	Exception int
	Value     uint64
}

func (t Trap) Error() string {
	return "trap"
}

// New is a small constructor used throughout the MMU and CPU so trap
// sites read as one line instead of a struct literal.
func New(exception int, value uint64) Trap {
	return Trap{Exception: exception, Value: value}
}
