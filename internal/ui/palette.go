package ui

import (
	"hash/fnv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// paletteEntry names a four-shade DMG color ramp, from lightest to darkest.
type paletteEntry struct {
	name   string
	shades [4][3]byte
}

// ramp builds a four-shade ramp by blending from a light tint down to a
// dark tint through go-colorful's perceptually-even Lab interpolation,
// rather than hand-picking four RGB triples per palette.
func ramp(light, dark colorful.Color) [4][3]byte {
	var out [4][3]byte
	for i := 0; i < 4; i++ {
		t := float64(i) / 3
		c := light.BlendLab(dark, t)
		r, g, b := c.Clamped().RGB255()
		out[i] = [3]byte{r, g, b}
	}
	return out
}

var palettes = buildPalettes()

func buildPalettes() []paletteEntry {
	return []paletteEntry{
		{"Green", ramp(colorful.Color{R: 0.88, G: 0.97, B: 0.82}, colorful.Color{R: 0.03, G: 0.09, B: 0.13})},
		{"Sepia", ramp(colorful.Color{R: 0.96, G: 0.90, B: 0.72}, colorful.Color{R: 0.18, G: 0.10, B: 0.03})},
		{"Blue", ramp(colorful.Color{R: 0.85, G: 0.92, B: 1.0}, colorful.Color{R: 0.02, G: 0.06, B: 0.20})},
		{"Red", ramp(colorful.Color{R: 1.0, G: 0.90, B: 0.85}, colorful.Color{R: 0.20, G: 0.02, B: 0.04})},
		{"Pastel", ramp(colorful.Color{R: 0.96, G: 0.93, B: 1.0}, colorful.Color{R: 0.30, G: 0.22, B: 0.32})},
		{"Grayscale", ramp(colorful.Color{R: 0.94, G: 0.94, B: 0.94}, colorful.Color{R: 0.04, G: 0.04, B: 0.04})},
	}
}

func paletteCount() int { return len(palettes) }

func paletteName(id int) string {
	if id < 0 || id >= len(palettes) {
		return "Default"
	}
	return palettes[id].name
}

func paletteShades(id int) [4][3]byte {
	if id < 0 || id >= len(palettes) {
		id = 0
	}
	return palettes[id].shades
}

func normalizePaletteID(id, delta int) int {
	n := paletteCount()
	id = (id + delta) % n
	if id < 0 {
		id += n
	}
	return id
}

// titleExact maps well-known, normalized titles to a palette that suits
// their box art, the way a DMG-on-later-hardware would pick one.
var titleExact = map[string]int{
	"TETRIS":              2, // Blue
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3, // Red
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4, // Pastel
	"DONKEY KONG":         1, // Sepia
	"THE LEGEND OF ZELDA": 0, // Green
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

type titleContainsRule struct {
	substr string
	id     int
}

// titleContains applies broader substring heuristics for whole series.
var titleContains = []titleContainsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}

// defaultPaletteForTitle picks a sensible starting palette for a ROM based
// on its cartridge title, falling back to a stable hash so unrecognized
// titles still get some variety instead of all landing on Green.
func defaultPaletteForTitle(title string) int {
	t := strings.ToUpper(strings.TrimSpace(title))
	if t == "" {
		return 0
	}
	if id, ok := titleExact[t]; ok {
		return id
	}
	for _, r := range titleContains {
		if strings.Contains(t, r.substr) {
			return r.id
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(t))
	return int(h.Sum32() % uint32(paletteCount()))
}
