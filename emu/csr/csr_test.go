/*
 * riscv-emu - Control and Status Register file
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

package csr

import "testing"

func TestNewSetsMisaByWidth(t *testing.T) {
	if c := New(false); c.ReadDirect(Misa) != misaRV64GC {
		t.Errorf("rv64 misa = %#x, want %#x", c.ReadDirect(Misa), uint64(misaRV64GC))
	}
	if c := New(true); c.ReadDirect(Misa) != misaRV32GC {
		t.Errorf("rv32 misa = %#x, want %#x", c.ReadDirect(Misa), misaRV32GC)
	}
}

func TestPrivilegeGating(t *testing.T) {
	c := New(false)
	if _, ok := c.Read(Mstatus, Supervisor); ok {
		t.Error("supervisor read of mstatus should be illegal")
	}
	if _, ok := c.Read(Mstatus, Machine); !ok {
		t.Error("machine read of mstatus should be legal")
	}
	if _, ok := c.Write(Sstatus, 0, User); ok {
		t.Error("user write of sstatus should be illegal")
	}
}

func TestSstatusAliasesMstatus(t *testing.T) {
	c := New(false)
	c.WriteDirect(Mstatus, StatusMIE|StatusSIE|StatusSPP|StatusMPP)
	got := c.ReadDirect(Sstatus)
	want := uint64(StatusSIE | StatusSPP)
	if got != want {
		t.Errorf("sstatus view = %#x, want %#x (MIE/MPP must not leak through)", got, want)
	}

	c.WriteDirect(Sstatus, 0)
	if c.ReadDirect(Mstatus)&StatusMIE == 0 {
		t.Error("writing sstatus must not clear mstatus bits outside its mask")
	}
	if c.ReadDirect(Mstatus)&StatusSIE != 0 {
		t.Error("writing sstatus=0 should clear SIE via the alias mask")
	}
}

func TestSieSipAliasMieMip(t *testing.T) {
	c := New(false)
	c.WriteDirect(Mie, IPMEIP|IPSEIP|IPSTIP)
	got := c.ReadDirect(Sie)
	want := uint64(IPSEIP | IPSTIP)
	if got != want {
		t.Errorf("sie view = %#x, want %#x", got, want)
	}

	satpWrite, ok := c.Write(Sip, IPSSIP, Supervisor)
	if !ok || satpWrite {
		t.Fatalf("write(Sip) = (%v, %v), want (false, true)", satpWrite, ok)
	}
	if c.ReadDirect(Mip)&IPSSIP == 0 {
		t.Error("writing sip should set the aliased mip bit")
	}
}

func TestWriteReportsSatp(t *testing.T) {
	c := New(false)
	satpWrite, ok := c.Write(Satp, 0x8000000000000123, Machine)
	if !ok || !satpWrite {
		t.Fatalf("write(Satp) = (%v, %v), want (true, true)", satpWrite, ok)
	}
	satpWrite, ok = c.Write(Mepc, 4, Machine)
	if !ok || satpWrite {
		t.Fatalf("write(Mepc) = (%v, %v), want (false, true)", satpWrite, ok)
	}
}

func TestReadModifyWriteDirect(t *testing.T) {
	c := New(false)
	c.WriteDirect(Mie, 0x0f)
	c.ReadModifyWriteDirect(Mie, IPMEIP, 0x0f)
	if got := c.ReadDirect(Mie); got != IPMEIP {
		t.Errorf("mie = %#x, want %#x", got, IPMEIP)
	}
}

func TestTickAdvancesCounters(t *testing.T) {
	c := New(false)
	c.Tick()
	c.Tick()
	c.RetireInstruction()
	if c.ReadDirect(Time) != 2 {
		t.Errorf("time = %d, want 2", c.ReadDirect(Time))
	}
	if c.ReadDirect(Cycle) != 2 {
		t.Errorf("cycle = %d, want 2", c.ReadDirect(Cycle))
	}
	if c.ReadDirect(Instret) != 1 {
		t.Errorf("instret = %d, want 1", c.ReadDirect(Instret))
	}
}
