package cart

import "testing"

func TestNewCartridge_UnsupportedMapperErrors(t *testing.T) {
	rom := buildROM("TEST", 0xFE, 0x00, 0x00, 32*1024) // 0xFE is unassigned in the header spec
	c, err := NewCartridge(rom)
	if err == nil {
		t.Fatalf("expected error for unsupported cartridge type, got nil")
	}
	if c != nil {
		t.Fatalf("expected nil Cartridge alongside error, got %#v", c)
	}
}

func TestNewCartridge_KnownMappers(t *testing.T) {
	cases := []struct {
		name     string
		cartType byte
	}{
		{"ROMOnly", 0x00},
		{"MBC1", 0x01},
		{"MBC3", 0x0F},
		{"MBC5", 0x19},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rom := buildROM("TEST", tc.cartType, 0x00, 0x00, 32*1024)
			c, err := NewCartridge(rom)
			if err != nil {
				t.Fatalf("NewCartridge(%#02x) error: %v", tc.cartType, err)
			}
			if c == nil {
				t.Fatalf("NewCartridge(%#02x) returned nil Cartridge", tc.cartType)
			}
		})
	}
}
