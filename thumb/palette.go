package thumb

import (
	"image/color"
	"log/slog"

	"gifblobber/palette"
	"gifblobber/paletted"
)

// recolor swaps every visible entry of the image's palette for its
// perceptually nearest color in pal. Transparent entries are left alone.
func recolor(logger *slog.Logger, img *paletted.Image, pal color.Palette) int {
	lab := palette.NewLabPalette(pal)

	logger.Info("applying palette", "colors", len(pal), "entries", img.EntryCount())
	changed := 0
	for i := range img.EntryCount() {
		old, err := img.PaletteEntry(paletted.Unfiltered, i)
		if err != nil || old.Alpha() == 0 {
			continue
		}

		c := paletted.FromColor(pal[lab.Index(old.WithAlpha(0xff))]).WithAlpha(old.Alpha())
		if c == old {
			continue
		}
		if err := img.SetPaletteEntry(i, c); err != nil {
			logger.Error("could not set palette entry", "index", i, "error", err)
			continue
		}
		changed++
	}

	img.RefreshFiltered()
	return changed
}
