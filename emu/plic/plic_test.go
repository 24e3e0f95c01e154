/*
 * riscv-emu - PLIC (Platform-Level Interrupt Controller)
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

package plic

import "testing"

func TestPriorityRegisterRoundTrip(t *testing.T) {
	p := New()
	p.WriteWord(4, 5) // source 1's priority
	if got := p.ReadWord(4); got != 5 {
		t.Errorf("priority[1] = %d, want 5", got)
	}
}

func TestTickClaimsHighestEnabledSourceAboveThreshold(t *testing.T) {
	p := New()
	p.WriteWord(4, 5)               // priority[1] = 5
	p.WriteWord(menableBase, 1<<1)  // hart 0 machine-enable source 1

	irqs := p.Tick(0, []int{1})
	if !irqs[ContextMachine] {
		t.Fatal("expected a machine-mode IRQ line to assert")
	}
	if irqs[ContextSupervisor] {
		t.Fatal("supervisor context was never enabled for this source")
	}
	if got := p.ReadWord(mclaimBase); got != 1 {
		t.Errorf("mclaim = %d, want source id 1", got)
	}
}

func TestTickIgnoresSourceBelowThreshold(t *testing.T) {
	p := New()
	p.WriteWord(4, 5)
	p.WriteWord(menableBase, 1<<1)
	p.WriteWord(mthresholdBase, 5) // threshold == priority, not strictly less

	irqs := p.Tick(0, []int{1})
	if irqs[ContextMachine] {
		t.Fatal("a source at or below threshold must not interrupt")
	}
}

func TestClaimRegisterClearsOnMatchingWrite(t *testing.T) {
	p := New()
	p.WriteWord(4, 5)
	p.WriteWord(menableBase, 1<<1)
	p.Tick(0, []int{1})

	p.WriteWord(mclaimBase, 1) // complete the claim
	if got := p.ReadWord(mclaimBase); got != 0 {
		t.Errorf("mclaim after completion = %d, want 0", got)
	}
}

func TestSupervisorBankIsIndependentOfMachine(t *testing.T) {
	p := New()
	p.WriteWord(4, 9)
	p.WriteWord(senableBase, 1<<1)

	irqs := p.Tick(0, []int{1})
	if !irqs[ContextSupervisor] {
		t.Fatal("expected a supervisor-mode IRQ line to assert")
	}
	if got := p.ReadWord(sclaimBase); got != 1 {
		t.Errorf("sclaim = %d, want source id 1", got)
	}
}

func TestReservedAreaAfterPendingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic reading the reserved area after the pending register")
		}
	}()
	New().ReadWord(pendingBase + 4)
}
