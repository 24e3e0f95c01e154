/*
 * riscv-emu - Emulator facade: machine selection, image loading, run
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

// Package emulator ties a Cpu to a loaded program: it picks the load
// target by machine kind, walks the ELF program/section headers to copy
// PROGBITS into guest memory, and (in test mode) locates .tohost so the
// caller can poll for a pass/fail signal.
package emulator

import (
	"fmt"
	"os"

	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/cpu"
	"github.com/rcornwell/riscv-emu/emu/elf"
)

// Machine names the three board models SPEC_FULL wires a Bus for.
type Machine int

const (
	SiFiveE Machine = iota
	SiFiveU
	QemuVirt
)

// Emulator owns the hart and knows where its program landed.
type Emulator struct {
	CPU      *cpu.Cpu
	machine  Machine
	testMode bool
	tohost   uint64
}

func New(b bus.Bus, machine Machine, rv32 bool, testMode bool) *Emulator {
	return &Emulator{
		CPU:      cpu.New(b, rv32, testMode),
		machine:  machine,
		testMode: testMode,
	}
}

func (e *Emulator) Reset() {
	e.CPU.Reset()
}

func (e *Emulator) Console() console.Console {
	return e.CPU.Mmu.Bus.Console()
}

// LoadDeviceFile reads filename whole and hands it to the bus as device's
// raw data (DRAM image, SPI flash image, disk image, or DTB blob).
func (e *Emulator) LoadDeviceFile(device bus.Device, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("emulator: reading %s: %w", filename, err)
	}
	e.CPU.Mmu.Bus.SetDeviceData(device, data)
	return nil
}

func (e *Emulator) LoadDeviceData(device bus.Device, data []byte) {
	e.CPU.Mmu.Bus.SetDeviceData(device, data)
}

// LoadProgramFile reads an ELF file and loads it the way LoadProgram does.
func (e *Emulator) LoadProgramFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("emulator: reading %s: %w", filename, err)
	}
	return e.LoadProgram(data)
}

// LoadProgram parses data as an ELF image, sets pc/xlen from its header,
// and copies every PROGBITS section that lands at or above the machine's
// boot device into guest memory at its physical load address.
func (e *Emulator) LoadProgram(data []byte) error {
	f := elf.New(data)
	if !f.IsELF() {
		return fmt.Errorf("emulator: not an ELF image")
	}

	h := f.Header()
	if h.Machine != elf.MachineRISCV {
		return fmt.Errorf("emulator: not a RISC-V program (e_machine=%#x)", h.Machine)
	}

	e.CPU.SetPC(h.Entry)
	if h.Class == elf.Class32 {
		e.CPU.SetXlen(cpu.X32)
	} else {
		e.CPU.SetXlen(cpu.X64)
	}

	sections := f.SectionHeaders(h)
	programHeaders := f.ProgramHeaders(h)

	targetDevice := bus.DeviceSpiFlash
	if e.machine == QemuVirt || e.machine == SiFiveU {
		targetDevice = bus.DeviceDRAM
	}
	target := e.CPU.Mmu.Bus.BaseAddress(targetDevice)

	for _, sh := range sections {
		const typeProgbits = 0x01
		if sh.Type != typeProgbits || sh.Addr < target || sh.Offset == 0 {
			continue
		}

		pAddr, size := sh.Addr, sh.Size
		for _, ph := range programHeaders {
			if sh.Addr == ph.VAddr {
				pAddr, size = ph.PAddr, ph.FileSz
				break
			}
		}

		for j := uint64(0); j < size; j++ {
			datum := data[sh.Offset+j]
			if tr, ok := e.CPU.Mmu.Write8(pAddr+j, datum); !ok {
				return fmt.Errorf("emulator: loading program: %d", tr.Exception)
			}
		}
	}

	if e.testMode {
		if addr, ok := elf.Tohost(f, sections); ok {
			e.tohost = addr
		}
	}
	return nil
}

// Tohost returns the .tohost address found during LoadProgram, or 0 if
// none (or not in test mode).
func (e *Emulator) Tohost() uint64 {
	return e.tohost
}

// Run ticks the hart until, in test mode, .tohost signals pass (1) or
// fail (any other nonzero value).
func (e *Emulator) Run() (pass bool, code uint32) {
	for {
		e.CPU.Tick()
		if e.testMode && e.tohost != 0 {
			data, tr, ok := e.CPU.Mmu.Read32(e.tohost)
			if !ok {
				panic(fmt.Sprintf("emulator: failed to read .tohost: %d", tr.Exception))
			}
			switch data {
			case 0:
			case 1:
				return true, 1
			default:
				return false, data
			}
		}
	}
}

// RunSteps ticks the hart a fixed number of times, for the interactive
// monitor's single-step command.
func (e *Emulator) RunSteps(steps int) {
	for i := 0; i < steps; i++ {
		e.CPU.Tick()
	}
}
