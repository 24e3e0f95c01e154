/*
 * riscv-emu - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/rcornwell/riscv-emu/emu/bus"
	"github.com/rcornwell/riscv-emu/emu/console"
	"github.com/rcornwell/riscv-emu/emu/core"
	"github.com/rcornwell/riscv-emu/emu/emulator"
	"github.com/rcornwell/riscv-emu/internal/debug"
	"github.com/rcornwell/riscv-emu/internal/logger"
)

var Logger *slog.Logger

func main() {
	optKernel := getopt.StringLong("kernel", 'k', "", "Kernel ELF image (required)")
	optFS := getopt.StringLong("fs", 'f', "", "Root filesystem disk image")
	optDTB := getopt.StringLong("dtb", 'd', "", "Device tree blob")
	optMachine := getopt.StringLong("machine", 'm', "SiFive_u", "Machine: SiFive_e, SiFive_u, Qemu_virt")
	optRV32 := getopt.BoolLong("rv32", '3', "Run as RV32 instead of RV64")
	optTest := getopt.BoolLong("test", 't', "Test mode: trace instructions, poll .tohost")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebugFlag := getopt.BoolLong("debug", 'v', "Also echo debug-level log output to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebugFlag))
	slog.SetDefault(Logger)

	Logger.Info("riscv-emu started")

	if *optKernel == "" {
		Logger.Error("a kernel image is required: -k <kernel-elf>")
		os.Exit(1)
	}

	if *optTest {
		debug.SetOutput(os.Stderr)
		debug.Enable(debug.Inst)
	}

	con, err := console.NewTerminal()
	if err != nil {
		Logger.Error("opening console", "error", err)
		os.Exit(1)
	}
	defer con.Close()

	var b bus.Bus
	machine := emulator.SiFiveU
	switch strings.ToLower(*optMachine) {
	case "sifive_e":
		b = bus.NewSiFiveE(con, console.Dummy{})
		machine = emulator.SiFiveE
	case "sifive_u":
		b = bus.NewSiFiveU(con, console.Dummy{})
		machine = emulator.SiFiveU
	case "qemu_virt":
		b = bus.NewQemuVirt(con)
		machine = emulator.QemuVirt
	default:
		Logger.Error("unknown machine", "machine", *optMachine)
		os.Exit(1)
	}

	em := emulator.New(b, machine, *optRV32, *optTest)

	if *optDTB != "" {
		if err := em.LoadDeviceFile(bus.DeviceDTB, *optDTB); err != nil {
			Logger.Error("loading device tree blob", "error", err)
			os.Exit(1)
		}
	}
	if *optFS != "" {
		if err := em.LoadDeviceFile(bus.DeviceDisk, *optFS); err != nil {
			Logger.Error("loading filesystem image", "error", err)
			os.Exit(1)
		}
	}
	if err := em.LoadProgramFile(*optKernel); err != nil {
		Logger.Error("loading kernel", "error", err)
		os.Exit(1)
	}

	if *optTest {
		pass, code := em.Run()
		if pass {
			Logger.Info("test passed")
			os.Exit(1)
		}
		Logger.Error("test failed", "code", code)
		os.Exit(int(code))
	}

	c := core.New(em.CPU, em.Tohost())
	go c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for range sigChan {
		Logger.Info("entering monitor")
		c.Pause()
		monitor(em, c)
		Logger.Info("resuming")
		c.Resume()
	}
}

// monitor runs a small interactive prompt while the hart is paused,
// entered on SIGINT. "regs" dumps PC and the general registers, "step [n]"
// ticks the hart n times (default 1) and "quit" exits; "cont", an empty
// line or end of input resumes execution, and any other command prints
// the command list.
func monitor(em *emulator.Emulator, c *core.Core) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		cmd, err := line.Prompt("riscv-emu> ")
		if err != nil {
			return
		}
		cmd = strings.TrimSpace(cmd)
		line.AppendHistory(cmd)

		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			return
		}

		switch fields[0] {
		case "regs":
			fmt.Printf("pc=%#016x\n", em.CPU.PC)
			for i := 0; i < 32; i++ {
				fmt.Printf("x%-2d=%#016x ", i, em.CPU.X[i])
				if i%4 == 3 {
					fmt.Println()
				}
			}
		case "step":
			steps := 1
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					steps = n
				}
			}
			em.RunSteps(steps)
		case "cont", "c":
			return
		case "quit", "q":
			os.Exit(0)
		default:
			fmt.Println("commands: regs, step [n], cont, quit")
		}
	}
}
