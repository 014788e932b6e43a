package ui

// Config contains window/input/audio related settings.
type Config struct {
	Title       string `yaml:"title"`
	Scale       int    `yaml:"scale"`
	AudioStereo bool   `yaml:"audio_stereo"` // if true, output true stereo; if false, fold to mono
	// Audio buffering
	AudioAdaptive   bool   `yaml:"audio_adaptive"`    // adaptive target on underrun
	AudioBufferMs   int    `yaml:"audio_buffer_ms"`   // initial desired buffer in ms (approx)
	AudioLowLatency bool   `yaml:"audio_low_latency"` // hard-cap buffering for minimal latency
	ROMsDir         string `yaml:"roms_dir"`          // directory to browse for ROMs
	// Per-ROM preferences
	PerROMPalette map[string]int `yaml:"per_rom_palette"` // ROM path -> palette ID
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 60 // lower baseline to reduce perceived latency
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.PerROMPalette == nil {
		c.PerROMPalette = make(map[string]int)
	}
}
