package paletted

import (
	"image/color"

	"gifblobber/okcolor"
)

// RefreshFiltered rebuilds the filtered table from the unfiltered one, giving
// the transparent entry the RGB of its surroundings. Like SetPaletteEntry it
// mutates the image.
func (m *Image) RefreshFiltered() {
	m.filtered = m.unfiltered

	ti := m.meta.TransparentIndex
	if ti < 0 || m.unfiltered[ti].Alpha() != 0 {
		return
	}

	m.estimate = m.edgeEstimate(uint8(ti))
	m.filtered[ti] = m.estimate.WithAlpha(0)
}

// edgeEstimate averages, in Oklab, the opaque pixels that touch a pixel of
// index ti. Falls back to the palette neighbours of ti, then to every opaque
// entry, then to the stored color itself.
func (m *Image) edgeEstimate(ti uint8) Color {
	var acc okcolor.Accumulator

	w, h := m.width, m.height
	for y := range h {
		row := m.pix[y*w : (y+1)*w]
		for x, v := range row {
			if v != ti {
				continue
			}
			if x > 0 {
				m.addOpaque(&acc, row[x-1])
			}
			if x+1 < w {
				m.addOpaque(&acc, row[x+1])
			}
			if y > 0 {
				m.addOpaque(&acc, m.pix[(y-1)*w+x])
			}
			if y+1 < h {
				m.addOpaque(&acc, m.pix[(y+1)*w+x])
			}
		}
	}

	if acc.Count() == 0 {
		if ti > 0 {
			m.addOpaque(&acc, ti-1)
		}
		if int(ti)+1 < m.entries {
			m.addOpaque(&acc, ti+1)
		}
	}

	if acc.Count() == 0 {
		for i := range m.entries {
			m.addOpaque(&acc, uint8(i))
		}
	}

	mean, ok := acc.Mean()
	if !ok {
		return m.unfiltered[ti]
	}
	r, g, b := okcolor.Clip(mean).LinearRGBA().SRGB8()
	return RGBA8(r, g, b, 0xff)
}

func (m *Image) addOpaque(acc *okcolor.Accumulator, index uint8) {
	c := m.unfiltered[index]
	if c.Alpha() == 0 {
		return
	}
	r, g, b, _ := c.Channels()
	acc.Add(color.NRGBA{R: r, G: g, B: b, A: 0xff})
}
