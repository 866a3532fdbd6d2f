package palette

import (
	"fmt"
	"image/color"
	stdpalette "image/color/palette"
	"os"
	"path/filepath"
	"strings"
)

// builtin palettes by name
var builtin = map[string]func() color.Palette{
	"bw":      func() color.Palette { return gray(2) },
	"gray4":   func() color.Palette { return gray(4) },
	"gray16":  func() color.Palette { return gray(16) },
	"gray256": func() color.Palette { return gray(256) },
	"websafe": func() color.Palette { return stdpalette.WebSafe },
	"plan9":   func() color.Palette { return stdpalette.Plan9 },
}

// Names lists the builtin palette names.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	return names
}

// LoadPalette returns a builtin palette by name, or the palettes of a RIFF
// PAL file concatenated.
func LoadPalette(name string) (color.Palette, error) {
	if f, ok := builtin[strings.ToLower(name)]; ok {
		return f(), nil
	}

	if !strings.EqualFold(filepath.Ext(name), ".pal") {
		return nil, fmt.Errorf("unknown palette %q", name)
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open palette file %q: %w", name, err)
	}
	defer file.Close()

	pals, err := ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("could not load palettes from %q: %w", name, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("palette file %q has no colors", name)
	}
	return res, nil
}

func gray(n int) color.Palette {
	pal := make(color.Palette, n)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i * 255 / (n - 1))}
	}
	return pal
}
