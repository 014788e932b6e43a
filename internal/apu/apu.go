// Package apu implements the DMG audio unit: four channels (two square, one
// wave, one noise), the mixer, and the published one-pole DAC high-pass
// approximation. The div-apu frame sequencer is NOT free-running here: it is
// clocked by the bus's DIV-bit12 falling edge, which the top-level machine
// detects and relays via TickDivFalling.
package apu

import "math"

const cpuHz = 4194304

// APU generates stereo 16-bit samples into a ring buffer at the configured
// sample rate.
type APU struct {
	enabled bool

	sampleRate      int
	cyclesPerSample float64
	cycAccum        float64
	mixGain         float64
	hpAlpha         float64
	hpCapL, hpCapR  float64

	fsStep int // 0..7, advanced once per div-apu falling edge

	sL, sR       []int16
	sHead, sTail int

	nr50 byte // 0xFF24
	nr51 byte // 0xFF25

	ch1 chSquare
	ch2 chSquare
	ch3 chWave
	ch4 chNoise
}

type chSquare struct {
	enabled bool
	duty    byte
	length  int
	lenEn   bool
	vol     byte
	envDir  int8
	envPer  byte
	curVol  byte
	envTmr  byte
	freq    uint16
	timer   int
	phase   int

	sweepPer     byte
	sweepNeg     bool
	sweepShift   byte
	sweepTmr     byte
	sweepEn      bool
	sweepShadow  uint16
	usedNegative bool // set once a sweep calculation actually subtracts; see NR10 write
}

type chWave struct {
	enabled bool
	dacEn   bool
	length  int
	lenEn   bool
	volCode byte
	freq    uint16
	timer   int
	pos     int
	ram     [16]byte
}

type chNoise struct {
	enabled bool
	length  int
	lenEn   bool
	vol     byte
	envDir  int8
	envPer  byte
	curVol  byte
	envTmr  byte
	shift   byte
	width7  bool
	divSel  byte
	timer   int
	lfsr    uint16
}

var dutyTable = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

func New() *APU {
	a := &APU{enabled: true, mixGain: 0.20}
	a.SetSampleRate(48000)
	a.nr50 = 0x77
	a.nr51 = 0xF3
	return a
}

// SetSampleRate (re)configures output sample generation. Buffers are reset.
func (a *APU) SetSampleRate(rate int) {
	if rate <= 0 {
		rate = 48000
	}
	a.sampleRate = rate
	a.cyclesPerSample = float64(cpuHz) / float64(rate)
	a.hpAlpha = math.Pow(0.999958, (float64(cpuHz)/float64(rate))/2.0)
	a.sL = make([]int16, 16384)
	a.sR = make([]int16, 16384)
	a.sHead, a.sTail = 0, 0
}

func (a *APU) CPURead(addr uint16) byte {
	switch addr {
	case 0xFF10:
		n := (a.ch1.sweepPer & 7) << 4
		if a.ch1.sweepNeg {
			n |= 1 << 3
		}
		n |= a.ch1.sweepShift & 7
		return 0x80 | n
	case 0xFF11:
		return (a.ch1.duty << 6) | 0x3F
	case 0xFF12:
		dir := byte(0)
		if a.ch1.envDir > 0 {
			dir = 1
		}
		return (a.ch1.vol << 4) | (dir << 3) | (a.ch1.envPer & 7)
	case 0xFF13:
		return 0xFF
	case 0xFF14:
		return 0xBF | (boolToByte(a.ch1.lenEn) << 6)
	case 0xFF16:
		return (a.ch2.duty << 6) | 0x3F
	case 0xFF17:
		dir := byte(0)
		if a.ch2.envDir > 0 {
			dir = 1
		}
		return (a.ch2.vol << 4) | (dir << 3) | (a.ch2.envPer & 7)
	case 0xFF18:
		return 0xFF
	case 0xFF19:
		return 0xBF | (boolToByte(a.ch2.lenEn) << 6)
	case 0xFF1A:
		if a.ch3.dacEn {
			return 0xFF
		}
		return 0x7F
	case 0xFF1B:
		return 0xFF
	case 0xFF1C:
		return 0x9F | (a.ch3.volCode << 5)
	case 0xFF1D:
		return 0xFF
	case 0xFF1E:
		return 0xBF | (boolToByte(a.ch3.lenEn) << 6)
	case 0xFF30, 0xFF31, 0xFF32, 0xFF33, 0xFF34, 0xFF35, 0xFF36, 0xFF37,
		0xFF38, 0xFF39, 0xFF3A, 0xFF3B, 0xFF3C, 0xFF3D, 0xFF3E, 0xFF3F:
		return a.ch3.ram[addr-0xFF30]
	case 0xFF20:
		return 0xFF
	case 0xFF21:
		dir := byte(0)
		if a.ch4.envDir > 0 {
			dir = 1
		}
		return (a.ch4.vol << 4) | (dir << 3) | (a.ch4.envPer & 7)
	case 0xFF22:
		w := byte(0)
		if a.ch4.width7 {
			w = 1
		}
		return (a.ch4.shift << 4) | (w << 3) | (a.ch4.divSel & 7)
	case 0xFF23:
		return 0xBF | (boolToByte(a.ch4.lenEn) << 6)
	case 0xFF24:
		return a.nr50
	case 0xFF25:
		return a.nr51
	case 0xFF26:
		chFlags := byte(0)
		if a.ch1.enabled {
			chFlags |= 1 << 0
		}
		if a.ch2.enabled {
			chFlags |= 1 << 1
		}
		if a.ch3.enabled {
			chFlags |= 1 << 2
		}
		if a.ch4.enabled {
			chFlags |= 1 << 3
		}
		return 0x70 | (boolToByte(a.enabled) << 7) | chFlags
	default:
		return 0xFF
	}
}

// lengthOnlyRegs are the four length-load registers (NR11/NR21/NR31/NR41).
// These stay writable even while the APU is powered off: the length
// counters themselves are preserved across power-off, and hardware still
// accepts writes that reload them.
var lengthOnlyRegs = map[uint16]bool{0xFF11: true, 0xFF16: true, 0xFF1B: true, 0xFF20: true}

func (a *APU) CPUWrite(addr uint16, v byte) {
	if !a.enabled && addr != 0xFF26 && !(addr >= 0xFF30 && addr <= 0xFF3F) && !lengthOnlyRegs[addr] {
		return // registers ignore writes while powered off, wave RAM and length loads excepted
	}
	switch addr {
	case 0xFF10:
		newNeg := v&(1<<3) != 0
		if a.ch1.sweepNeg && !newNeg && a.ch1.usedNegative {
			// Clearing negate after a sweep calculation has subtracted with it
			// disables the channel, matching real hardware's sweep unit.
			a.ch1.enabled = false
		}
		a.ch1.sweepPer = (v >> 4) & 7
		a.ch1.sweepNeg = newNeg
		a.ch1.sweepShift = v & 7
	case 0xFF11:
		a.ch1.duty = (v >> 6) & 3
		a.ch1.length = 64 - int(v&0x3F)
	case 0xFF12:
		a.ch1.vol = (v >> 4) & 0x0F
		if v&(1<<3) != 0 {
			a.ch1.envDir = 1
		} else {
			a.ch1.envDir = -1
		}
		a.ch1.envPer = v & 7
		if v&0xF8 == 0 {
			a.ch1.enabled = false
		}
	case 0xFF13:
		a.ch1.freq = (a.ch1.freq & 0x0700) | uint16(v)
		a.reloadCh1Timer()
	case 0xFF14:
		triggering := v&(1<<7) != 0
		a.applyLengthEnable(&a.ch1.lenEn, &a.ch1.length, &a.ch1.enabled, v&(1<<6) != 0, triggering)
		a.ch1.freq = (a.ch1.freq & 0x00FF) | (uint16(v&7) << 8)
		if triggering {
			a.triggerCh1()
		}
	case 0xFF16:
		a.ch2.duty = (v >> 6) & 3
		a.ch2.length = 64 - int(v&0x3F)
	case 0xFF17:
		a.ch2.vol = (v >> 4) & 0x0F
		if v&(1<<3) != 0 {
			a.ch2.envDir = 1
		} else {
			a.ch2.envDir = -1
		}
		a.ch2.envPer = v & 7
		if v&0xF8 == 0 {
			a.ch2.enabled = false
		}
	case 0xFF18:
		a.ch2.freq = (a.ch2.freq & 0x0700) | uint16(v)
		a.reloadCh2Timer()
	case 0xFF19:
		triggering := v&(1<<7) != 0
		a.applyLengthEnable(&a.ch2.lenEn, &a.ch2.length, &a.ch2.enabled, v&(1<<6) != 0, triggering)
		a.ch2.freq = (a.ch2.freq & 0x00FF) | (uint16(v&7) << 8)
		if triggering {
			a.triggerCh2()
		}
	case 0xFF1A:
		a.ch3.dacEn = v&0x80 != 0
		if !a.ch3.dacEn {
			a.ch3.enabled = false
		}
	case 0xFF1B:
		a.ch3.length = 256 - int(v)
	case 0xFF1C:
		a.ch3.volCode = (v >> 5) & 3
	case 0xFF1D:
		a.ch3.freq = (a.ch3.freq & 0x0700) | uint16(v)
		a.reloadCh3Timer()
	case 0xFF1E:
		triggering := v&(1<<7) != 0
		a.applyLengthEnable(&a.ch3.lenEn, &a.ch3.length, &a.ch3.enabled, v&(1<<6) != 0, triggering)
		a.ch3.freq = (a.ch3.freq & 0x00FF) | (uint16(v&7) << 8)
		if triggering {
			a.triggerCh3()
		}
	case 0xFF30, 0xFF31, 0xFF32, 0xFF33, 0xFF34, 0xFF35, 0xFF36, 0xFF37,
		0xFF38, 0xFF39, 0xFF3A, 0xFF3B, 0xFF3C, 0xFF3D, 0xFF3E, 0xFF3F:
		a.ch3.ram[addr-0xFF30] = v
	case 0xFF24:
		a.nr50 = v
	case 0xFF25:
		a.nr51 = v
	case 0xFF26:
		pwr := v&(1<<7) != 0
		if !pwr && a.enabled {
			a.powerOff()
		}
		a.enabled = pwr
	case 0xFF20:
		a.ch4.length = 64 - int(v&0x3F)
	case 0xFF21:
		a.ch4.vol = (v >> 4) & 0x0F
		if v&(1<<3) != 0 {
			a.ch4.envDir = 1
		} else {
			a.ch4.envDir = -1
		}
		a.ch4.envPer = v & 7
		if v&0xF8 == 0 {
			a.ch4.enabled = false
		}
	case 0xFF22:
		a.ch4.shift = (v >> 4) & 0x0F
		a.ch4.width7 = v&(1<<3) != 0
		a.ch4.divSel = v & 7
		a.reloadCh4Timer()
	case 0xFF23:
		triggering := v&(1<<7) != 0
		a.applyLengthEnable(&a.ch4.lenEn, &a.ch4.length, &a.ch4.enabled, v&(1<<6) != 0, triggering)
		if triggering {
			a.triggerCh4()
		}
	}
}

// powerOff resets every register and channel state machine to its
// post-power-off value, EXCEPT the length counters and channel 3's wave RAM,
// which hardware preserves across a power cycle (end-to-end scenario 5).
func (a *APU) powerOff() {
	keepLen1, keepLen2, keepLen3, keepLen4 := a.ch1.length, a.ch2.length, a.ch3.length, a.ch4.length
	keepWave := a.ch3.ram

	a.nr50, a.nr51 = 0, 0
	a.fsStep = 0
	a.ch1 = chSquare{length: keepLen1}
	a.ch2 = chSquare{length: keepLen2}
	a.ch3 = chWave{length: keepLen3, ram: keepWave}
	a.ch4 = chNoise{length: keepLen4}
}

func (a *APU) triggerCh1() {
	a.ch1.enabled = !(a.ch1.vol == 0 && a.ch1.envDir < 0)
	if a.ch1.length == 0 {
		a.ch1.length = 64
	}
	a.ch1.phase = 0
	a.reloadCh1Timer()
	a.ch1.curVol = a.ch1.vol
	per := a.ch1.envPer
	if per == 0 {
		per = 8
	}
	a.ch1.envTmr = per
	a.ch1.usedNegative = false
	a.ch1.sweepShadow = a.ch1.freq & 0x7FF
	a.ch1.sweepEn = a.ch1.sweepPer != 0 || a.ch1.sweepShift != 0
	st := a.ch1.sweepPer
	if st == 0 {
		st = 8
	}
	a.ch1.sweepTmr = st
	if a.ch1.sweepShift != 0 && a.calcCh1Sweep(true) > 2047 {
		a.ch1.enabled = false
	}
}

func (a *APU) triggerCh2() {
	if a.ch2.vol == 0 && a.ch2.envDir < 0 {
		a.ch2.enabled = false
		return
	}
	a.ch2.enabled = true
	if a.ch2.length == 0 {
		a.ch2.length = 64
	}
	a.ch2.phase = 0
	a.reloadCh2Timer()
	a.ch2.curVol = a.ch2.vol
	per := a.ch2.envPer
	if per == 0 {
		per = 8
	}
	a.ch2.envTmr = per
}

func (a *APU) reloadCh1Timer() {
	p := int(4 * (2048 - (a.ch1.freq & 0x7FF)))
	if p < 8 {
		p = 8
	}
	a.ch1.timer = p
}

func (a *APU) reloadCh2Timer() {
	p := int(4 * (2048 - (a.ch2.freq & 0x7FF)))
	if p < 8 {
		p = 8
	}
	a.ch2.timer = p
}

func (a *APU) reloadCh3Timer() {
	p := int(2 * (2048 - (a.ch3.freq & 0x7FF)))
	if p < 2 {
		p = 2
	}
	a.ch3.timer = p
}

func (a *APU) triggerCh3() {
	a.ch3.enabled = a.ch3.dacEn
	if a.ch3.length == 0 {
		a.ch3.length = 256
	}
	a.ch3.pos = 0
	a.reloadCh3Timer()
}

func (a *APU) triggerCh4() {
	a.ch4.enabled = !(a.ch4.vol == 0 && a.ch4.envDir < 0)
	if a.ch4.length == 0 {
		a.ch4.length = 64
	}
	a.ch4.curVol = a.ch4.vol
	per := a.ch4.envPer
	if per == 0 {
		per = 8
	}
	a.ch4.envTmr = per
	a.ch4.lfsr = 0x7FFF
	a.reloadCh4Timer()
}

var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

func (a *APU) reloadCh4Timer() {
	div := noiseDivisors[a.ch4.divSel&7]
	p := (div << int(a.ch4.shift)) * 4 // divisor<<shift m-cycles, in master ticks
	if p < 2 {
		p = 2
	}
	a.ch4.timer = p
}

// TickFast advances channel frequency timers and the sample generator by one
// master tick. Called unconditionally every tick by the top-level machine.
func (a *APU) TickFast() {
	if !a.enabled {
		return
	}
	if a.ch1.enabled {
		a.ch1.timer--
		if a.ch1.timer <= 0 {
			a.reloadCh1Timer()
			a.ch1.phase = (a.ch1.phase + 1) & 7
		}
	}
	if a.ch2.enabled {
		a.ch2.timer--
		if a.ch2.timer <= 0 {
			a.reloadCh2Timer()
			a.ch2.phase = (a.ch2.phase + 1) & 7
		}
	}
	if a.ch3.enabled {
		a.ch3.timer--
		if a.ch3.timer <= 0 {
			a.reloadCh3Timer()
			a.ch3.pos = (a.ch3.pos + 1) & 31
		}
	}
	if a.ch4.enabled {
		a.ch4.timer--
		if a.ch4.timer <= 0 {
			a.reloadCh4Timer()
			x := (a.ch4.lfsr ^ (a.ch4.lfsr >> 1)) & 1
			a.ch4.lfsr >>= 1
			a.ch4.lfsr |= x << 14
			if a.ch4.width7 {
				a.ch4.lfsr &^= 1 << 6
				a.ch4.lfsr |= x << 6
			}
		}
	}

	a.cycAccum++
	for a.cycAccum >= a.cyclesPerSample {
		a.cycAccum -= a.cyclesPerSample
		l, r := a.mixSampleStereo()
		a.pushStereo(l, r)
	}
}

// TickDivFalling advances the div-apu (length/sweep/envelope) sequencer by
// one step. Called only when the bus reports a DIV-bit12 falling edge, not
// on every master tick (§4.5/§4.6).
func (a *APU) TickDivFalling() {
	if !a.enabled {
		return
	}
	a.fsStep = (a.fsStep + 1) & 7
	if a.fsStep%2 == 0 {
		a.clockLength()
	}
	if a.fsStep == 2 || a.fsStep == 6 {
		a.clockSweep()
	}
	if a.fsStep == 7 {
		a.clockEnvelope()
	}
}

// applyLengthEnable writes a channel's NRx4 length-enable bit, including the
// extra-clock quirk: enabling length on an odd div-apu step (one that won't
// clock length on its own next step) immediately clocks it once, same as a
// natural frame-sequencer length clock would. triggering reports whether
// this same write also sets the trigger bit, since a from-zero length that
// the extra clock reaches is about to be reloaded by the trigger handler
// rather than disabling the channel.
func (a *APU) applyLengthEnable(lenEn *bool, length *int, enabled *bool, newVal bool, triggering bool) {
	if newVal && !*lenEn && a.fsStep%2 == 1 && *length > 0 {
		*length--
		if *length == 0 && !triggering {
			*enabled = false
		}
	}
	*lenEn = newVal
}

func (a *APU) clockLength() {
	if a.ch1.lenEn && a.ch1.length > 0 {
		a.ch1.length--
		if a.ch1.length <= 0 {
			a.ch1.enabled = false
		}
	}
	if a.ch2.lenEn && a.ch2.length > 0 {
		a.ch2.length--
		if a.ch2.length <= 0 {
			a.ch2.enabled = false
		}
	}
	if a.ch3.lenEn && a.ch3.length > 0 {
		a.ch3.length--
		if a.ch3.length <= 0 {
			a.ch3.enabled = false
		}
	}
	if a.ch4.lenEn && a.ch4.length > 0 {
		a.ch4.length--
		if a.ch4.length <= 0 {
			a.ch4.enabled = false
		}
	}
}

func (a *APU) clockEnvelope() {
	clockOne := func(enabled *bool, per byte, tmr *byte, dir int8, vol *byte) {
		if !*enabled || per == 0 {
			return
		}
		if *tmr > 0 {
			*tmr--
		}
		if *tmr == 0 {
			*tmr = per
			if dir > 0 && *vol < 15 {
				*vol++
			} else if dir < 0 && *vol > 0 {
				*vol--
			}
		}
	}
	clockOne(&a.ch1.enabled, a.ch1.envPer, &a.ch1.envTmr, a.ch1.envDir, &a.ch1.curVol)
	clockOne(&a.ch2.enabled, a.ch2.envPer, &a.ch2.envTmr, a.ch2.envDir, &a.ch2.curVol)
	clockOne(&a.ch4.enabled, a.ch4.envPer, &a.ch4.envTmr, a.ch4.envDir, &a.ch4.curVol)
}

func (a *APU) clockSweep() {
	if !a.ch1.enabled || !a.ch1.sweepEn || a.ch1.sweepPer == 0 {
		return
	}
	if a.ch1.sweepTmr > 0 {
		a.ch1.sweepTmr--
	}
	if a.ch1.sweepTmr == 0 {
		a.ch1.sweepTmr = a.ch1.sweepPer
		nf := a.calcCh1Sweep(true)
		if nf > 2047 {
			a.ch1.enabled = false
		} else {
			a.ch1.sweepShadow = uint16(nf)
			a.ch1.freq = (a.ch1.freq &^ 0x07FF) | (uint16(nf) & 0x07FF)
			a.reloadCh1Timer()
			if a.calcCh1Sweep(false) > 2047 {
				a.ch1.enabled = false
			}
		}
	}
}

func (a *APU) calcCh1Sweep(applyShift bool) int {
	base := int(a.ch1.sweepShadow)
	if a.ch1.sweepShift == 0 {
		return base
	}
	delta := base >> a.ch1.sweepShift
	if a.ch1.sweepNeg {
		a.ch1.usedNegative = true
		return base - delta
	}
	if applyShift {
		return base + delta
	}
	return base + delta
}

func (a *APU) mixSampleStereo() (int16, int16) {
	c1, c2, c3, c4 := 0.0, 0.0, 0.0, 0.0
	if a.ch1.enabled {
		on := dutyTable[a.ch1.duty][a.ch1.phase] != 0
		amp := float64(a.ch1.curVol) / 15.0
		if on {
			c1 += amp
		} else {
			c1 -= amp
		}
	}
	if a.ch2.enabled {
		on := dutyTable[a.ch2.duty][a.ch2.phase] != 0
		amp := float64(a.ch2.curVol) / 15.0
		if on {
			c2 += amp
		} else {
			c2 -= amp
		}
	}
	if a.ch3.enabled && a.ch3.dacEn {
		b := a.ch3.ram[a.ch3.pos>>1]
		var n4 byte
		if a.ch3.pos&1 == 0 {
			n4 = (b >> 4) & 0x0F
		} else {
			n4 = b & 0x0F
		}
		if a.ch3.volCode != 0 {
			shift := a.ch3.volCode - 1
			scaled := float64(n4 >> shift)
			max := float64(int(15) >> shift)
			if max < 1 {
				max = 1
			}
			c3 += (scaled/max)*2.0 - 1.0
		}
	}
	if a.ch4.enabled {
		on := (^a.ch4.lfsr)&1 != 0
		amp := float64(a.ch4.curVol) / 15.0
		if on {
			c4 += amp
		} else {
			c4 -= amp
		}
	}

	rMask := a.nr51 & 0x0F
	lMask := (a.nr51 >> 4) & 0x0F
	l, r := 0.0, 0.0
	if lMask&0x1 != 0 {
		l += c1
	}
	if lMask&0x2 != 0 {
		l += c2
	}
	if lMask&0x4 != 0 {
		l += c3
	}
	if lMask&0x8 != 0 {
		l += c4
	}
	if rMask&0x1 != 0 {
		r += c1
	}
	if rMask&0x2 != 0 {
		r += c2
	}
	if rMask&0x4 != 0 {
		r += c3
	}
	if rMask&0x8 != 0 {
		r += c4
	}

	rv := float64(a.nr50&0x07+1) / 8.0
	lv := float64((a.nr50>>4)&0x07+1) / 8.0
	l *= lv
	r *= rv

	// The high-pass stage only runs while at least one channel DAC is on.
	dacOn := a.ch1.vol != 0 || a.ch1.envDir > 0 || a.ch2.vol != 0 || a.ch2.envDir > 0 ||
		a.ch3.dacEn || a.ch4.vol != 0 || a.ch4.envDir > 0
	if dacOn {
		l = a.highpass(l, &a.hpCapL)
		r = a.highpass(r, &a.hpCapR)
	}

	l *= a.mixGain
	r *= a.mixGain
	l = clamp1(l)
	r = clamp1(r)
	return int16(l * 32767), int16(r * 32767)
}

// highpass applies the published one-pole DAC high-pass approximation used
// to remove the DC offset each channel's DAC otherwise leaves in the mix.
func (a *APU) highpass(in float64, cap *float64) float64 {
	out := in - *cap
	*cap = in - out*a.hpAlpha
	return out
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func (a *APU) pushStereo(l, r int16) {
	next := (a.sHead + 1) & (len(a.sL) - 1)
	if next == a.sTail {
		return
	}
	a.sL[a.sHead] = l
	a.sR[a.sHead] = r
	a.sHead = next
}

// PullStereo returns up to max stereo frames as interleaved [L0,R0,L1,R1,...].
func (a *APU) PullStereo(max int) []int16 {
	if max <= 0 || a.sHead == a.sTail {
		return nil
	}
	count := 0
	for i := a.sTail; i != a.sHead && count < max; i = (i + 1) & (len(a.sL) - 1) {
		count++
	}
	out := make([]int16, 0, count*2)
	for i := 0; i < count; i++ {
		out = append(out, a.sL[a.sTail], a.sR[a.sTail])
		a.sTail = (a.sTail + 1) & (len(a.sL) - 1)
	}
	return out
}

// StereoAvailable returns the number of buffered stereo frames.
func (a *APU) StereoAvailable() int {
	if a.sHead == a.sTail {
		return 0
	}
	if a.sHead >= a.sTail {
		return a.sHead - a.sTail
	}
	return (len(a.sL) - a.sTail) + a.sHead
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
