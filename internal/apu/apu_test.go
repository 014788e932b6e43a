package apu

import "testing"

func TestCPUWrite_PowerOff_LengthRegistersStillWritable(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF26, 0x00) // power off
	if a.enabled {
		t.Fatalf("expected APU to be powered off")
	}

	a.CPUWrite(0xFF11, 0x3F) // NR11 length load, full 63
	if a.ch1.length != 64-0x3F {
		t.Fatalf("NR11 length write ignored while powered off: got %d", a.ch1.length)
	}
	a.CPUWrite(0xFF16, 0x10)
	if a.ch2.length != 64-0x10 {
		t.Fatalf("NR21 length write ignored while powered off: got %d", a.ch2.length)
	}
	a.CPUWrite(0xFF1B, 0x80)
	if a.ch3.length != 256-0x80 {
		t.Fatalf("NR31 length write ignored while powered off: got %d", a.ch3.length)
	}
	a.CPUWrite(0xFF20, 0x05)
	if a.ch4.length != 64-0x05 {
		t.Fatalf("NR41 length write ignored while powered off: got %d", a.ch4.length)
	}

	// A non-length register should still be rejected.
	a.CPUWrite(0xFF12, 0xF0)
	if a.ch1.vol != 0 {
		t.Fatalf("NR12 write should be ignored while powered off, got vol=%d", a.ch1.vol)
	}
}

func TestCPUWrite_NRx4_ExtraLengthClock(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF11, 0x01) // length = 63
	a.fsStep = 3             // odd: next step won't clock length on its own

	// Enable length without triggering: should clock once immediately.
	a.CPUWrite(0xFF14, 0x40)
	if a.ch1.length != 62 {
		t.Fatalf("expected extra length clock to bring length to 62, got %d", a.ch1.length)
	}
	if !a.ch1.lenEn {
		t.Fatalf("expected lenEn to be set")
	}
}

func TestCPUWrite_NRx4_ExtraLengthClock_DisablesAtZero(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF11, 0x3F) // length = 1
	a.ch1.enabled = true
	a.fsStep = 5

	a.CPUWrite(0xFF14, 0x40) // enable length, no trigger
	if a.ch1.length != 0 {
		t.Fatalf("expected length to reach 0, got %d", a.ch1.length)
	}
	if a.ch1.enabled {
		t.Fatalf("expected channel to be disabled when extra clock exhausts length without trigger")
	}
}

func TestCPUWrite_NRx4_ExtraLengthClock_EvenStepNoClock(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF11, 0x01) // length = 63
	a.fsStep = 4             // even: next step will clock length on its own

	a.CPUWrite(0xFF14, 0x40)
	if a.ch1.length != 63 {
		t.Fatalf("expected no extra clock on even div-apu step, got %d", a.ch1.length)
	}
}

func TestSweepNegateThenClear_DisablesChannel(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF10, 0x1B) // sweep period + negate + shift=3
	a.CPUWrite(0xFF12, 0xF0) // max volume, decreasing envelope (keeps DAC on)
	a.CPUWrite(0xFF13, 0x00)
	a.CPUWrite(0xFF14, 0x84) // freq high bits + trigger

	if !a.ch1.enabled {
		t.Fatalf("expected channel to be enabled after trigger")
	}

	// Force a sweep calculation that actually subtracts, marking usedNegative.
	a.clockSweep()
	if !a.ch1.usedNegative {
		t.Fatalf("expected usedNegative to be set after a negate sweep calculation")
	}

	// Clearing the negate bit after a negate calculation disables the channel.
	a.CPUWrite(0xFF10, 0x03) // same period/shift, negate bit now clear
	if a.ch1.enabled {
		t.Fatalf("expected channel to be disabled after clearing negate post-calculation")
	}
}

func TestSweepNegateThenClear_NoEffectWithoutPriorCalculation(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF10, 0x08) // negate bit set, shift=0 so no calculation ever runs
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF13, 0x00)
	a.CPUWrite(0xFF14, 0x84)

	if !a.ch1.enabled {
		t.Fatalf("expected channel to be enabled after trigger")
	}
	a.CPUWrite(0xFF10, 0x00) // clear negate; no prior negate calculation occurred
	if !a.ch1.enabled {
		t.Fatalf("channel should stay enabled when negate was never used in a calculation")
	}
}
