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

// Package core runs a hart on its own goroutine, the way the teacher's
// mainframe core ran the System/370 CPU: Start launches the loop, Stop
// asks it to drain and waits (with a timeout) for it to actually exit.
package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/riscv-emu/emu/cpu"
)

// Core drives one Cpu's Tick loop until stopped, or until test mode
// detects the program's pass/fail signal.
type Core struct {
	wg      sync.WaitGroup
	done    chan struct{}
	running bool
	mu      sync.Mutex

	cpu     *cpu.Cpu
	tohost  uint64
	result  chan TestResult
}

// TestResult carries a .tohost outcome back to whoever is waiting on it.
type TestResult struct {
	Code uint32
	Pass bool
}

// New wires a Core to a Cpu. tohost is 0 outside test mode.
func New(c *cpu.Cpu, tohost uint64) *Core {
	return &Core{
		cpu:     c,
		tohost:  tohost,
		running: true,
		done:    make(chan struct{}),
		result:  make(chan TestResult, 1),
	}
}

// Start runs the hart until Stop is called or, in test mode, until the
// program writes to its .tohost cell.
func (co *Core) Start() {
	co.wg.Add(1)
	defer co.wg.Done()

	for {
		select {
		case <-co.done:
			slog.Info("core stopped")
			return
		default:
		}

		co.mu.Lock()
		running := co.running
		co.mu.Unlock()
		if !running {
			time.Sleep(time.Millisecond)
			continue
		}

		co.cpu.Tick()

		if co.tohost != 0 {
			data, tr, ok := co.cpu.Mmu.Read32(co.tohost)
			if !ok {
				slog.Error("failed to read .tohost", "exception", tr.Exception)
				return
			}
			switch data {
			case 0:
			case 1:
				co.result <- TestResult{Code: 1, Pass: true}
				return
			default:
				co.result <- TestResult{Code: data, Pass: false}
				return
			}
		}
	}
}

// Stop asks the loop to exit and waits up to a second for it to do so.
func (co *Core) Stop() {
	close(co.done)
	finished := make(chan struct{})
	go func() {
		co.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for core to stop")
	}
}

// Pause/Resume implement the interactive monitor's stop/go commands.
func (co *Core) Pause() {
	co.mu.Lock()
	co.running = false
	co.mu.Unlock()
}

func (co *Core) Resume() {
	co.mu.Lock()
	co.running = true
	co.mu.Unlock()
}

// Result blocks for the test-mode outcome; callers outside test mode
// never read from this channel.
func (co *Core) Result() <-chan TestResult {
	return co.result
}
