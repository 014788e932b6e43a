package cpu

import "testing"

// testBus is a flat 64KiB RAM image satisfying the cpu.Bus interface,
// standing in for the real *bus.Bus so this package's tests don't need to
// import bus (which would make cpu a non-leaf package for tests too).
type testBus struct {
	mem [0x10000]byte
	ie  byte
	ifr byte
}

func (b *testBus) Read(addr uint16) byte     { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v byte) { b.mem[addr] = v }
func (b *testBus) IF() byte                  { return b.ifr }
func (b *testBus) IE() byte                  { return b.ie }
func (b *testBus) SetIF(v byte)              { b.ifr = v }

func newCPUWithROM(code []byte) (*CPU, *testBus) {
	b := &testBus{}
	copy(b.mem[0x0100:], code)
	c := New(b)
	c.ResetNoBoot()
	c.PC = 0x0100
	return c, b
}

// step runs m-cycles until one full instruction has retired (pendingDelay
// drains back to zero after a fetch), returning the m-cycle cost.
func step(c *CPU) int {
	n := 0
	c.TickMCycle()
	n++
	for c.pendingDelay > 0 {
		c.TickMCycle()
		n++
	}
	return n
}

func TestCPU_NopAndPC(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x00}) // NOP
	if cycles := step(c); cycles != 1 {
		t.Fatalf("NOP m-cycles got %d want 1", cycles)
	}
	if c.PC != 0x0101 {
		t.Fatalf("PC after NOP got %#04x want 0x0101", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x3E, 0x12, 0xAF}) // LD A,0x12; XOR A
	step(c)
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	step(c)
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if c.F&flagZ == 0 {
		t.Fatalf("Z flag not set after XOR A")
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c, b := newCPUWithROM(prog)
	step(c) // LD A,77
	step(c) // LD (C000),A
	if a := b.Read(0xC000); a != 0x77 {
		t.Fatalf("WRAM at C000 got %02x want 77", a)
	}
	step(c) // LD A,00
	step(c) // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	b := &testBus{}
	b.mem[0x0100] = 0xC3
	b.mem[0x0101] = 0x10
	b.mem[0x0102] = 0x00
	b.mem[0x0010] = 0x18 // JR -2
	b.mem[0x0011] = 0xFE
	c := New(b)
	c.ResetNoBoot()
	c.PC = 0x0100

	cycles := step(c) // JP
	if cycles != 4 || c.PC != 0x0010 {
		t.Fatalf("JP m-cycles=%d PC=%#04x want m-cycles=4 PC=0x0010", cycles, c.PC)
	}

	cycles = step(c) // JR -2 at the JP target jumps back onto itself
	if cycles != 3 || c.PC != 0x0010 {
		t.Fatalf("JR m-cycles=%d PC=%#04x want m-cycles=3 PC=0x0010", cycles, c.PC)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0x04, 0x04}) // INC B twice
	c.B = 0x0F
	c.F = flagC
	step(c)
	if c.B != 0x10 {
		t.Fatalf("INC B result got %02x want 10", c.B)
	}
	if c.F&flagH == 0 {
		t.Fatalf("INC B should set H flag")
	}
	if c.F&flagC == 0 {
		t.Fatalf("INC B should preserve C flag")
	}
	c.B = 0xFF
	step(c)
	if c.B != 0x00 || c.F&flagZ == 0 {
		t.Fatalf("INC B to 0 should set Z flag, B=%02x, F=%02x", c.B, c.F)
	}
}

func TestCPU_LD_16bit_and_LDH(t *testing.T) {
	prog := []byte{
		0x21, 0x00, 0xC0, // LD HL, C000
		0x36, 0x5A, // LD (HL), 5A
		0x3E, 0x00, // LD A, 00
		0xF0, 0x00, // LD A, (FF00+0)
		0xE0, 0x01, // LD (FF00+1), A
	}
	c, b := newCPUWithROM(prog)
	b.Write(0xFF00, 0x30)
	b.Write(0xFF80, 0xA7)

	for i := 0; i < 5; i++ {
		step(c)
	}
	if v := b.Read(0xC000); v != 0x5A {
		t.Fatalf("WRAM C000 got %02x want 5A", v)
	}
	if v := b.Read(0xFF01); v != c.A {
		t.Fatalf("LDH (FF00+1),A expected write to FF01 with A=%02x got %02x", c.A, v)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	b := &testBus{}
	b.mem[0x0100] = 0xCD
	b.mem[0x0101] = 0x05
	b.mem[0x0102] = 0x01
	b.mem[0x0105] = 0xC9 // RET
	c := New(b)
	c.ResetNoBoot()
	c.PC = 0x0100
	c.SP = 0xFFFE

	step(c) // CALL
	if c.PC != 0x0105 {
		t.Fatalf("PC after CALL got %04x want 0105", c.PC)
	}
	retCycles := step(c)
	if c.PC != 0x0103 || retCycles != 4 {
		t.Fatalf("RET did not return to 0103; PC=%04x m-cyc=%d", c.PC, retCycles)
	}
}

func TestCPU_IllegalOpcodeTrapped(t *testing.T) {
	c, _ := newCPUWithROM([]byte{0xD3})
	step(c)
	if c.LastIllegal() == nil {
		t.Fatalf("expected illegal opcode to be trapped")
	}
	before := c.PC
	c.TickMCycle() // must not advance past the trap
	if c.PC != before {
		t.Fatalf("CPU advanced past a trapped illegal opcode")
	}
}

func TestCPU_EI_DelaysOneInstruction(t *testing.T) {
	// EI; NOP; NOP -- IME must still be false right after EI retires, and
	// only become true once the instruction following EI has executed.
	c, _ := newCPUWithROM([]byte{0xFB, 0x00, 0x00})
	step(c) // EI
	if c.IME {
		t.Fatalf("IME enabled too early, right after EI")
	}
	step(c) // NOP (the instruction EI delays through)
	if !c.IME {
		t.Fatalf("IME should be enabled once the instruction after EI retires")
	}
}
