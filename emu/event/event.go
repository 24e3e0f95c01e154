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

// Callback fires when a scheduled event's delay has elapsed. iarg carries
// a caller chosen tag, used by the virtio queue to identify which notify
// a completion belongs to.
type Callback = func(iarg int)

// Event is a node in the time ordered delta list. time holds the number
// of ticks remaining after the previous event in the list fires, not an
// absolute deadline, so advancing the clock is a single subtraction on
// the head of the list.
type Event struct {
	time int         // Ticks until this event, relative to the previous one
	owner interface{} // Owner used to find a specific event for cancellation
	cb    Callback
	iarg  int
	prev  *Event
	next  *Event
}

// List is an independent, owner scoped schedule. The bus owns one List
// per simulated machine so tests can run several emulators concurrently
// without sharing scheduler state.
type List struct {
	head *Event
	tail *Event
}

// Add schedules cb to run after delay ticks. A delay of 0 runs cb
// immediately, inline, without entering the list.
func (l *List) Add(owner interface{}, cb Callback, delay int, iarg int) {
	if delay <= 0 {
		cb(iarg)
		return
	}

	ev := &Event{owner: owner, cb: cb, time: delay, iarg: iarg}

	evptr := l.head
	if evptr == nil {
		l.head = ev
		l.tail = ev
		return
	}

	for evptr != nil {
		if ev.time <= evptr.time {
			evptr.time -= ev.time
			ev.prev = evptr.prev
			ev.next = evptr
			evptr.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.time -= evptr.time
		evptr = evptr.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first pending event matching owner and iarg, folding
// its remaining delay into the following event so absolute deadlines of
// later events are preserved.
func (l *List) Cancel(owner interface{}, iarg int) {
	for evptr := l.head; evptr != nil; evptr = evptr.next {
		if evptr.owner != owner || evptr.iarg != iarg {
			continue
		}
		if evptr.next != nil {
			evptr.next.time += evptr.time
			evptr.next.prev = evptr.prev
		} else {
			l.tail = evptr.prev
		}
		if evptr.prev != nil {
			evptr.prev.next = evptr.next
		} else {
			l.head = evptr.next
		}
		return
	}
}

// Pending reports whether any event is scheduled.
func (l *List) Pending() bool {
	return l.head != nil
}

// Advance moves the clock forward by t ticks, firing every event whose
// delay has elapsed. Callbacks may themselves schedule new events; those
// are appended correctly since Add always walks from the (already
// advanced) head.
func (l *List) Advance(t int) {
	evptr := l.head
	if evptr == nil {
		return
	}
	evptr.time -= t
	for evptr != nil && evptr.time <= 0 {
		l.head = evptr.next
		if l.head != nil {
			l.head.prev = nil
			// Carry ticks beyond this event's deadline on to the next one.
			l.head.time += evptr.time
		} else {
			l.tail = nil
		}
		cb, iarg := evptr.cb, evptr.iarg
		cb(iarg)
		evptr = l.head
	}
}
