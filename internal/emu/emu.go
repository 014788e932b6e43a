// Package emu wires cartridge, bus, CPU, PPU, and APU into a runnable
// machine: the master-tick loop that interleaves them in hardware order,
// frame/battery/boot-ROM plumbing, and the host-facing framebuffer/audio
// pull surface.
package emu

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmg-core/gbcore/internal/bus"
	"github.com/dmg-core/gbcore/internal/cart"
	"github.com/dmg-core/gbcore/internal/cpu"
)

// Buttons is a snapshot of joypad state for the current frame.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine owns one running Game Boy: cartridge, bus, CPU, and the component
// chips reachable through the bus (PPU, APU, timer, DMA).
type Machine struct {
	cfg Config

	cart   cart.Cartridge
	bus    *bus.Bus
	cpu    *cpu.CPU
	header *cart.Header

	romPath string
	romData []byte
	bootROM []byte

	masterTickInMCycle int // 0..3, counts master ticks within the current m-cycle

	shades [4][3]byte          // zero value means "use defaultShades"
	fb     [160 * 144 * 4]byte // RGBA
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// LoadCartridge builds a fresh bus/cart/cpu around rom, optionally overlaying
// boot. Any previously attached serial writer is dropped, matching the
// teacher's "attach serial after loading ROM" convention used by the test
// harness.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	if err := m.build(rom, boot); err != nil {
		return err
	}
	m.romData = rom
	m.bootROM = boot
	return nil
}

// build wires up cart/bus/cpu around rom without touching the remembered
// romData/bootROM, so ResetPostBoot/ResetWithBoot can rebuild the machine
// independently of which boot mode is currently remembered.
func (m *Machine) build(rom []byte, boot []byte) error {
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return err
	}
	m.header = h
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return err
	}
	m.cart = c
	m.bus = bus.NewWithCartridge(m.cart)
	m.cpu = cpu.New(m.bus)
	if m.cfg.Trace {
		m.cpu.Trace = func(pc uint16, op byte) {
			fmt.Printf("PC=%04X OP=%02X\n", pc, op)
		}
	}
	if len(boot) > 0 {
		m.bus.SetBootROM(boot)
		m.cpu.SetPC(0x0000)
	} else {
		m.cpu.ResetNoBoot()
	}
	m.masterTickInMCycle = 0
	return nil
}

// LoadROMFromFile reads rom from path and loads it with no boot ROM.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ResetPostBoot reloads the current ROM straight into the documented DMG
// post-boot register state, skipping the boot ROM even if one was set.
func (m *Machine) ResetPostBoot() {
	if m.romData == nil {
		return
	}
	_ = m.build(m.romData, nil)
}

// ResetWithBoot reloads the current ROM and replays the boot ROM previously
// set via SetBootROM, if any; otherwise it behaves like ResetPostBoot.
func (m *Machine) ResetWithBoot() {
	if m.romData == nil {
		return
	}
	_ = m.build(m.romData, m.bootROM)
}

func (m *Machine) SetBootROM(data []byte) {
	if m.bus == nil {
		return
	}
	m.bus.SetBootROM(data)
	m.bootROM = data
	if len(data) > 0 {
		m.cpu.SetPC(0x0000)
	}
}

// SetTraceHook installs f to be called immediately before each opcode fetch,
// for debug tooling that wants per-instruction visibility beyond cfg.Trace's
// fixed stdout format.
func (m *Machine) SetTraceHook(f func(pc uint16, opcode byte)) {
	if m.cpu != nil {
		m.cpu.Trace = f
	}
}

// TickMasterCycle advances every component by exactly one master tick, for
// debug tooling that needs finer granularity than StepFrame's per-frame loop.
func (m *Machine) TickMasterCycle() { m.stepMasterTick() }

// ReadByte peeks a bus address without side effects beyond whatever the
// underlying device does on read (OK for debug tooling, not for hot paths).
func (m *Machine) ReadByte(addr uint16) byte {
	if m.bus == nil {
		return 0xFF
	}
	return m.bus.Read(addr)
}

func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

func (m *Machine) SetButtons(b Buttons) {
	if m.bus != nil {
		m.bus.SetJoypadState(b.mask())
	}
}

// LastIllegal reports a trapped illegal-opcode fault, if the CPU has
// stopped advancing because of one.
func (m *Machine) LastIllegal() *cpu.IllegalOpcodeError {
	if m.cpu == nil {
		return nil
	}
	return m.cpu.LastIllegal()
}

// stepMasterTick advances every component by one 4.19MHz master tick, in
// the order the hardware actually evaluates them: the timer sees the tick
// first (its falling edges gate both TIMA and the APU's frame sequencer),
// then the APU's per-tick channel timers, then the PPU's one dot. The CPU
// and the OAM DMA byte-copy only advance on m-cycle boundaries (every 4th
// master tick).
func (m *Machine) stepMasterTick() {
	m.bus.TickTimer()
	if m.bus.DivAPUBit12Falling() {
		m.bus.TickAPUDivFalling()
	}
	m.bus.TickAPUFast()
	m.bus.PPU().Tick(1)

	m.masterTickInMCycle++
	if m.masterTickInMCycle == 4 {
		m.masterTickInMCycle = 0
		m.bus.StepDMAByte()
		m.cpu.TickMCycle()
	}
}

// StepFrame runs the machine until one PPU frame completes and copies the
// result into the RGBA framebuffer.
func (m *Machine) StepFrame() {
	if m.bus == nil {
		return
	}
	p := m.bus.PPU()
	for !p.FrameReady() {
		m.stepMasterTick()
	}
	p.ConsumeFrame()
	m.renderRGBA()
}

// StepFrameNoRender runs the machine for one frame's worth of ticks without
// touching the RGBA framebuffer, for headless test-ROM harnesses that only
// care about serial output.
func (m *Machine) StepFrameNoRender() {
	if m.bus == nil {
		return
	}
	p := m.bus.PPU()
	for !p.FrameReady() {
		m.stepMasterTick()
	}
	p.ConsumeFrame()
}

var defaultShades = [4][3]byte{
	{0xE0, 0xF8, 0xD0},
	{0x88, 0xC0, 0x70},
	{0x34, 0x68, 0x56},
	{0x08, 0x18, 0x20},
}

// SetPaletteShades overrides the four DMG shade colors used when converting
// the PPU's 2-bit framebuffer to RGBA. Purely cosmetic: the PPU itself still
// only ever produces shade indices 0-3.
func (m *Machine) SetPaletteShades(shades [4][3]byte) { m.shades = shades }

func (m *Machine) renderRGBA() {
	shades := m.shades
	if shades == ([4][3]byte{}) {
		shades = defaultShades
	}
	src := m.bus.PPU().Framebuffer()
	for y := 0; y < 144; y++ {
		for x := 0; x < 160; x++ {
			shade := shades[src[y][x]&0x03]
			i := (y*160 + x) * 4
			m.fb[i+0] = shade[0]
			m.fb[i+1] = shade[1]
			m.fb[i+2] = shade[2]
			m.fb[i+3] = 0xFF
		}
	}
}

// Framebuffer returns the current frame as packed RGBA8888, 160x144.
func (m *Machine) Framebuffer() []byte { return m.fb[:] }

// APUBufferedStereo reports how many stereo frames are currently queued.
func (m *Machine) APUBufferedStereo() int {
	if m.bus == nil {
		return 0
	}
	return m.bus.APU().StereoAvailable()
}

// APUPullStereo dequeues up to max interleaved [L,R,L,R,...] int16 samples.
func (m *Machine) APUPullStereo(max int) []int16 {
	if m.bus == nil {
		return nil
	}
	return m.bus.APU().PullStereo(max)
}

// APUCapBufferedStereo drops queued stereo frames down to cap, oldest
// first, so a paused or stalled audio consumer doesn't force the emulator
// to catch up through minutes of backlog once it resumes pulling.
func (m *Machine) APUCapBufferedStereo(cap int) {
	if m.bus == nil || cap < 0 {
		return
	}
	a := m.bus.APU()
	if over := a.StereoAvailable() - cap; over > 0 {
		a.PullStereo(over)
	}
}

// APUClearAudioLatency discards all buffered stereo audio, resyncing the
// consumer to whatever the machine produces next.
func (m *Machine) APUClearAudioLatency() {
	if m.bus == nil {
		return
	}
	m.APUCapBufferedStereo(0)
}

// SetSampleRate reconfigures the APU's output sample rate.
func (m *Machine) SetSampleRate(rate int) {
	if m.bus != nil {
		m.bus.APU().SetSampleRate(rate)
	}
}

// ROMPath returns the path LoadROMFromFile was given, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// ROMTitle returns the cartridge header's title field, trimmed of padding.
func (m *Machine) ROMTitle() string {
	if m.header == nil {
		return ""
	}
	return strings.TrimRight(m.header.Title, "\x00")
}

// SaveBattery writes the cartridge's battery-backed RAM to path, if the
// cartridge has any.
func (m *Machine) SaveBattery(path string) error {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return nil
	}
	data := bb.SaveRAM()
	if len(data) == 0 {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadBattery reads battery-backed RAM from path into the cartridge, if it
// exists and the cartridge supports it.
func (m *Machine) LoadBattery(path string) error {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	bb.LoadRAM(data)
	return nil
}
