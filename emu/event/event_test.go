package event

/*
 * riscv-emu - Event scheduler
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

import "testing"

func TestImmediateFires(t *testing.T) {
	var l List
	fired := false
	l.Add("dev", func(int) { fired = true }, 0, 0)
	if !fired {
		t.Errorf("delay of 0 did not fire immediately")
	}
	if l.Pending() {
		t.Errorf("immediate event should not enter the list")
	}
}

func TestAdvanceOrdering(t *testing.T) {
	var l List
	var order []int
	l.Add("a", func(i int) { order = append(order, i) }, 10, 1)
	l.Add("a", func(i int) { order = append(order, i) }, 5, 2)

	l.Advance(5)
	if len(order) != 1 || order[0] != 2 {
		t.Errorf("expected event 2 to fire first, got %v", order)
	}
	l.Advance(5)
	if len(order) != 2 || order[1] != 1 {
		t.Errorf("expected event 1 to fire second, got %v", order)
	}
	if l.Pending() {
		t.Errorf("list should be empty after both events fire")
	}
}

func TestCancel(t *testing.T) {
	var l List
	fired := false
	l.Add("dev", func(int) { fired = true }, 10, 7)
	l.Cancel("dev", 7)
	l.Advance(100)
	if fired {
		t.Errorf("cancelled event fired")
	}
}

func TestDmaDelayScenario(t *testing.T) {
	var l List
	completed := false
	l.Add("virtio", func(int) { completed = true }, 128, 0)
	l.Advance(127)
	if completed {
		t.Errorf("completion fired one tick early")
	}
	l.Advance(1)
	if !completed {
		t.Errorf("completion did not fire at the scheduled cycle")
	}
}
