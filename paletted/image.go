package paletted

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// MaxEntries is the largest palette a GIF color table can describe.
const MaxEntries = 256

// NoTransparency marks an image without a transparent palette entry.
const NoTransparency = -1

var ErrOutOfRange = errors.New("out of range")

// Table selects one of the two palettes of an Image.
type Table int

const (
	Unfiltered Table = iota
	Filtered
)

func (t Table) String() string {
	switch t {
	case Unfiltered:
		return "unfiltered"
	case Filtered:
		return "filtered"
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// Palette is a fixed-size color table. Entries past the image's entry count
// are zero.
type Palette [MaxEntries]Color

// Meta describes how the image was stored in its source file.
type Meta struct {
	Version          string          // GIF87a or GIF89a
	Frame            image.Rectangle // decoded image block inside the logical screen
	Interlaced       bool
	BackgroundIndex  uint8
	TransparentIndex int // NoTransparency when the file declares none
}

// Image is a palette-indexed raster with an unfiltered and a filtered color
// table.
//
// Dimensions and pixel indices never change after New. Palette entries can be
// changed with SetPaletteEntry; that must not run concurrently with any read
// of the same image (ColorAt, stretching, ...). Concurrent reads are safe.
type Image struct {
	width, height int
	pix           []uint8
	entries       int

	unfiltered Palette
	filtered   Palette
	estimate   Color // RGB substituted into the transparent entry of the filtered table

	meta Meta
}

var _ image.PalettedImage = (*Image)(nil)

// New builds an image from decoded indices and a color table. The table is
// taken verbatim except that the transparent entry, if any, gets zero
// alpha. pix is retained, not copied.
func New(width, height int, pix []uint8, table []Color, meta Meta) (*Image, error) {
	switch {
	case width <= 0 || height <= 0:
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	case len(pix) != width*height:
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(pix), width, height)
	case len(table) == 0 || len(table) > MaxEntries:
		return nil, fmt.Errorf("invalid palette size %d", len(table))
	case meta.TransparentIndex >= len(table):
		return nil, fmt.Errorf("transparent index %d outside %d entries", meta.TransparentIndex, len(table))
	}

	for i, v := range pix {
		if int(v) >= len(table) {
			return nil, fmt.Errorf("pixel %d has index %d outside %d entries", i, v, len(table))
		}
	}

	img := &Image{
		width:   width,
		height:  height,
		pix:     pix,
		entries: len(table),
		meta:    meta,
	}
	copy(img.unfiltered[:], table)
	if ti := meta.TransparentIndex; ti >= 0 {
		img.unfiltered[ti] = img.unfiltered[ti].WithAlpha(0)
	}
	img.RefreshFiltered()

	return img, nil
}

func (m *Image) Width() int  { return m.width }
func (m *Image) Height() int { return m.height }
func (m *Image) Meta() Meta  { return m.meta }

// EntryCount is the number of meaningful palette entries.
func (m *Image) EntryCount() int { return m.entries }

// Pixels returns the index buffer. Callers must not modify it.
func (m *Image) Pixels() []uint8 { return m.pix }

// Palette returns a copy of the selected table.
func (m *Image) Palette(t Table) Palette {
	if t == Filtered {
		return m.filtered
	}
	return m.unfiltered
}

// table returns the live table for internal readers like the resampler.
func (m *Image) table(t Table) *Palette {
	if t == Filtered {
		return &m.filtered
	}
	return &m.unfiltered
}

// PaletteEntry returns one entry of the selected table.
func (m *Image) PaletteEntry(t Table, index int) (Color, error) {
	if index < 0 || index >= MaxEntries {
		return 0, fmt.Errorf("palette index %d: %w", index, ErrOutOfRange)
	}
	return m.table(t)[index], nil
}

// SetPaletteEntry overwrites entry index of the unfiltered table and mirrors
// it into the filtered one. Setting the transparent entry to a fully
// transparent color keeps the filtered estimate as its RGB. Not safe to call
// while the image is being read elsewhere.
func (m *Image) SetPaletteEntry(index int, c Color) error {
	if index < 0 || index >= MaxEntries {
		return fmt.Errorf("palette index %d: %w", index, ErrOutOfRange)
	}

	m.unfiltered[index] = c
	m.filtered[index] = c
	if index == m.meta.TransparentIndex && c.Alpha() == 0 {
		m.filtered[index] = m.estimate.WithAlpha(0)
	}
	if index >= m.entries {
		m.entries = index + 1
	}
	return nil
}

// ColorAt returns the unfiltered color of the pixel at (x, y).
func (m *Image) ColorAt(x, y int) (Color, error) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0, fmt.Errorf("pixel (%d, %d) outside %dx%d: %w", x, y, m.width, m.height, ErrOutOfRange)
	}
	return m.unfiltered[m.pix[y*m.width+x]], nil
}

func (m *Image) ColorModel() color.Model {
	pal := make(color.Palette, m.entries)
	for i := range pal {
		pal[i] = m.unfiltered[i]
	}
	return pal
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Image) At(x, y int) color.Color {
	c, err := m.ColorAt(x, y)
	if err != nil {
		return Color(0)
	}
	return c
}

func (m *Image) ColorIndexAt(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.pix[y*m.width+x]
}
