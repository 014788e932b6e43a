package bus

// dmaState tracks the OAM DMA engine: a write to FF46 arms a 160-byte
// transfer that starts after a 2 m-cycle delay and then copies one byte per
// m-cycle, 162 m-cycles total (§4.7).
type dmaState struct {
	reg    byte
	src    uint16
	active bool
	armed  int // m-cycles remaining before the transfer actually starts
	index  int
}

func (b *Bus) armDMA(value byte) {
	b.dma.reg = value
	b.dma.src = uint16(value) << 8
	b.dma.active = true
	b.dma.armed = 2
	b.dma.index = 0
}

// StepDMAByte advances the OAM DMA engine by one m-cycle. Called by the
// top-level machine on the same m-cycle boundary as CPU.TickMCycle.
func (b *Bus) StepDMAByte() {
	if !b.dma.active {
		return
	}
	if b.dma.armed > 0 {
		b.dma.armed--
		return
	}
	if b.dma.index >= 0xA0 {
		b.dma.active = false
		return
	}
	v := b.Read(b.dma.src + uint16(b.dma.index))
	b.ppu.CPUWrite(0xFE00+uint16(b.dma.index), v)
	b.dma.index++
	if b.dma.index >= 0xA0 {
		b.dma.active = false
	}
}
