// Package bus wires the CPU-visible address space to cartridge, WRAM, HRAM,
// PPU/APU registers, joypad, serial, timer, and the OAM DMA engine. Timer and
// DMA stepping are NOT driven from inside Bus: the top-level machine calls
// TickTimer/StepDMAByte itself, in the interleaved order the hardware
// actually uses (see internal/emu's master-tick loop).
package bus

import (
	"io"

	"github.com/dmg-core/gbcore/internal/apu"
	"github.com/dmg-core/gbcore/internal/cart"
	"github.com/dmg-core/gbcore/internal/ppu"
)

// Bus implements cpu.Bus plus the wider MMIO surface the machine needs.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ppu *ppu.PPU
	apu *apu.APU

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, lower 5 bits

	joypSelect byte
	joypad     byte
	joypLower4 byte

	sys uint16 // 16-bit free-running timer counter; DIV is its high byte
	tima byte
	tma  byte
	tac  byte

	timaReloadDelay int // master ticks remaining until TIMA reloads from TMA

	sb byte
	sc byte
	sw io.Writer

	dma dmaState

	bootROM     []byte
	bootEnabled bool
}

// New builds a Bus directly from ROM bytes, panicking if the header can't be
// parsed or names an unsupported mapper. Callers that need to surface a
// construction error to a user (the host, test-ROM runners) should build the
// Cartridge themselves via cart.NewCartridge and call NewWithCartridge.
func New(rom []byte) *Bus {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		panic(err)
	}
	return NewWithCartridge(c)
}

func NewWithCartridge(c cart.Cartridge) *Bus {
	b := &Bus{cart: c}
	b.ppu = ppu.New(func(bit int) { b.ifReg |= 1 << bit })
	b.apu = apu.New()
	return b
}

// TickAPUFast and TickAPUDivFalling let the top-level machine drive the APU
// at the two granularities §4.5/§4.6 require without reaching into its
// internals directly.
func (b *Bus) TickAPUFast()       { b.apu.TickFast() }
func (b *Bus) TickAPUDivFalling() { b.apu.TickDivFalling() }

func (b *Bus) PPU() *ppu.PPU { return b.ppu }
func (b *Bus) APU() *apu.APU { return b.apu }
func (b *Bus) Cart() cart.Cartridge { return b.cart }

func (b *Bus) IF() byte       { return b.ifReg }
func (b *Bus) IE() byte       { return b.ie }
func (b *Bus) SetIF(v byte)   { b.ifReg = v & 0x1F }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 && len(b.bootROM) >= 0x100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dma.active {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF // prohibited region
	case addr == 0xFF00:
		return b.readJoyp()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return byte(b.sys >> 8)
	case addr == 0xFF05:
		return b.tima
	case addr == 0xFF06:
		return b.tma
	case addr == 0xFF07:
		return 0xF8 | (b.tac & 0x07)
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFF10, addr == 0xFF11, addr == 0xFF12, addr == 0xFF13, addr == 0xFF14,
		addr == 0xFF16, addr == 0xFF17, addr == 0xFF18, addr == 0xFF19,
		addr == 0xFF1A, addr == 0xFF1B, addr == 0xFF1C, addr == 0xFF1D, addr == 0xFF1E,
		addr == 0xFF20, addr == 0xFF21, addr == 0xFF22, addr == 0xFF23,
		addr == 0xFF24, addr == 0xFF25, addr == 0xFF26,
		addr >= 0xFF30 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma.reg
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if !b.dma.active {
			b.ppu.CPUWrite(addr, value)
		}
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// writes to the prohibited region are discarded
	case addr == 0xFF00:
		b.joypSelect = value & 0x30
		b.updateJoypadIRQ()
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.ifReg |= 1 << 3
			b.sc &^= 0x80
		}
	case addr == 0xFF04:
		b.resetDIV()
	case addr == 0xFF05:
		b.tima = value
		b.timaReloadDelay = 0
	case addr == 0xFF06:
		b.tma = value
	case addr == 0xFF07:
		b.writeTAC(value)
	case addr == 0xFF10, addr == 0xFF11, addr == 0xFF12, addr == 0xFF13, addr == 0xFF14,
		addr == 0xFF16, addr == 0xFF17, addr == 0xFF18, addr == 0xFF19,
		addr == 0xFF1A, addr == 0xFF1B, addr == 0xFF1C, addr == 0xFF1D, addr == 0xFF1E,
		addr == 0xFF20, addr == 0xFF21, addr == 0xFF22, addr == 0xFF23,
		addr == 0xFF24, addr == 0xFF25, addr == 0xFF26,
		addr >= 0xFF30 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.armDMA(value)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	}
}

const (
	JoypRight     = 1 << 0
	JoypLeft      = 1 << 1
	JoypUp        = 1 << 2
	JoypDown      = 1 << 3
	JoypA         = 1 << 4
	JoypB         = 1 << 5
	JoypSelectBtn = 1 << 6
	JoypStart     = 1 << 7
)

func (b *Bus) SetJoypadState(mask byte) {
	b.joypad = mask
	b.updateJoypadIRQ()
}

func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

func (b *Bus) readJoyp() byte {
	res := byte(0xC0 | (b.joypSelect & 0x30) | 0x0F)
	if b.joypSelect&0x10 == 0 {
		if b.joypad&JoypRight != 0 {
			res &^= 0x01
		}
		if b.joypad&JoypLeft != 0 {
			res &^= 0x02
		}
		if b.joypad&JoypUp != 0 {
			res &^= 0x04
		}
		if b.joypad&JoypDown != 0 {
			res &^= 0x08
		}
	}
	if b.joypSelect&0x20 == 0 {
		if b.joypad&JoypA != 0 {
			res &^= 0x01
		}
		if b.joypad&JoypB != 0 {
			res &^= 0x02
		}
		if b.joypad&JoypSelectBtn != 0 {
			res &^= 0x04
		}
		if b.joypad&JoypStart != 0 {
			res &^= 0x08
		}
	}
	return res
}

func (b *Bus) updateJoypadIRQ() {
	newLower := byte(0x0F)
	if b.joypSelect&0x10 == 0 {
		if b.joypad&JoypRight != 0 {
			newLower &^= 0x01
		}
		if b.joypad&JoypLeft != 0 {
			newLower &^= 0x02
		}
		if b.joypad&JoypUp != 0 {
			newLower &^= 0x04
		}
		if b.joypad&JoypDown != 0 {
			newLower &^= 0x08
		}
	}
	if b.joypSelect&0x20 == 0 {
		if b.joypad&JoypA != 0 {
			newLower &^= 0x01
		}
		if b.joypad&JoypB != 0 {
			newLower &^= 0x02
		}
		if b.joypad&JoypSelectBtn != 0 {
			newLower &^= 0x04
		}
		if b.joypad&JoypStart != 0 {
			newLower &^= 0x08
		}
	}
	falling := b.joypLower4 &^ newLower
	if falling != 0 {
		b.ifReg |= 1 << 4
	}
	b.joypLower4 = newLower
}
