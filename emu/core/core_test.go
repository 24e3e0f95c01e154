/*
 * riscv-emu - Core run loop
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

package core

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/cpu"
)

type fakeBus struct {
	mem [1 << 16]byte
}

func (b *fakeBus) SetDeviceData(bus.Device, []byte)    {}
func (b *fakeBus) BaseAddress(bus.Device) uint64        { return 0 }
func (b *fakeBus) Console() console.Console             { return console.Dummy{} }
func (b *fakeBus) Tick() [4]bool                        { return [4]bool{} }
func (b *fakeBus) IsPendingSoftwareInterrupt(int) bool  { return false }
func (b *fakeBus) IsPendingTimerInterrupt(int) bool     { return false }

func (b *fakeBus) Read8(addr uint64) (uint8, bool)   { return b.mem[addr], true }
func (b *fakeBus) Read16(addr uint64) (uint16, bool) { return binary.LittleEndian.Uint16(b.mem[addr:]), true }
func (b *fakeBus) Read32(addr uint64) (uint32, bool) { return binary.LittleEndian.Uint32(b.mem[addr:]), true }
func (b *fakeBus) Read64(addr uint64) (uint64, bool) { return binary.LittleEndian.Uint64(b.mem[addr:]), true }

func (b *fakeBus) Write8(addr uint64, v uint8) bool { b.mem[addr] = v; return true }
func (b *fakeBus) Write16(addr uint64, v uint16) bool {
	binary.LittleEndian.PutUint16(b.mem[addr:], v)
	return true
}
func (b *fakeBus) Write32(addr uint64, v uint32) bool {
	binary.LittleEndian.PutUint32(b.mem[addr:], v)
	return true
}
func (b *fakeBus) Write64(addr uint64, v uint64) bool {
	binary.LittleEndian.PutUint64(b.mem[addr:], v)
	return true
}

func TestStartStop(t *testing.T) {
	b := &fakeBus{}
	c := cpu.New(b, false, false)
	co := New(c, 0)

	go co.Start()
	time.Sleep(10 * time.Millisecond)
	co.Stop()
}

func TestPauseStopsTicking(t *testing.T) {
	b := &fakeBus{}
	c := cpu.New(b, false, false)
	co := New(c, 0)

	go co.Start()
	co.Pause()
	time.Sleep(5 * time.Millisecond)
	pcAfterPause := c.PC

	time.Sleep(20 * time.Millisecond)
	if c.PC != pcAfterPause {
		t.Error("paused core should not advance pc")
	}

	co.Resume()
	time.Sleep(10 * time.Millisecond)
	co.Stop()
}

func TestTohostPassSignalsResult(t *testing.T) {
	const tohost = 0x1000
	b := &fakeBus{}
	// An infinite loop (jal x0, 0) so the test terminates only via the
	// .tohost write below, not by falling off the end of memory.
	b.Write32(0, 0x0000006f)
	c := cpu.New(b, false, true)
	co := New(c, tohost)

	go co.Start()
	b.Write32(tohost, 1)

	select {
	case res := <-co.Result():
		if !res.Pass {
			t.Errorf("expected Pass=true, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for test result")
	}
}
