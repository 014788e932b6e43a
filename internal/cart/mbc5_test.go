package cart

import "testing"

func TestMBC5_ROMBanking(t *testing.T) {
	rom := make([]byte, 0x4000*4)
	for b := 0; b < 4; b++ {
		rom[b*0x4000] = byte(b)
	}
	m := NewMBC5(rom, 0)

	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("default bank got %#02x want 01", got)
	}

	m.Write(0x2000, 0x03) // low 8 bits
	if got := m.Read(0x4000); got != 3 {
		t.Fatalf("bank3 read got %#02x want 03", got)
	}

	// Unlike MBC1/MBC3, MBC5 allows bank 0 to be selected explicitly.
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("bank0 should be selectable on MBC5, got %#02x", got)
	}
}

func TestMBC5_RAMBankWrapsOnSmallRAM(t *testing.T) {
	rom := make([]byte, 0x4000*2)
	// Single 8KB RAM bank: selecting bank 2 must wrap to bank 0.
	m := NewMBC5(rom, 0x2000)
	m.Write(0x0000, 0x0A) // RAM enable
	m.Write(0x4000, 0x00)
	m.Write(0xA000, 0x5A)

	m.Write(0x4000, 0x02)
	if got := m.Read(0xA000); got != 0x5A {
		t.Fatalf("RAM bank2 should wrap onto bank0, got %#02x want 0x5a", got)
	}
}

func TestMBC5_RAMSaveLoadRoundtrip(t *testing.T) {
	rom := make([]byte, 0x4000*2)
	m := NewMBC5(rom, 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x7A)
	data := m.SaveRAM()

	n := NewMBC5(rom, 0x2000)
	n.Write(0x0000, 0x0A)
	n.LoadRAM(data)
	if got := n.Read(0xA000); got != 0x7A {
		t.Fatalf("loaded RAM got %#02x want 0x7A", got)
	}
}
