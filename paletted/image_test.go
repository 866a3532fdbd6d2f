package paletted_test

import (
	"image"
	"image/color"
	"testing"

	"gifblobber/paletted"

	"github.com/stretchr/testify/require"
)

var (
	red   = paletted.RGBA8(0xff, 0, 0, 0xff)
	green = paletted.RGBA8(0, 0xff, 0, 0xff)
	blue  = paletted.RGBA8(0, 0, 0xff, 0xff)
	black = paletted.RGBA8(0, 0, 0, 0xff)
)

func newImage(t *testing.T, w, h int, pix []uint8, table []paletted.Color, transparent int) *paletted.Image {
	t.Helper()

	img, err := paletted.New(w, h, pix, table, paletted.Meta{TransparentIndex: transparent})
	require.NoError(t, err)
	return img
}

func TestColorPacking(t *testing.T) {
	c := paletted.RGBA8(0x11, 0x22, 0x33, 0x44)
	require.Equal(t, paletted.Color(0x44332211), c)

	r, g, b, a := c.Channels()
	require.Equal(t, []uint8{0x11, 0x22, 0x33, 0x44}, []uint8{r, g, b, a})
	require.Equal(t, uint8(0x44), c.Alpha())
	require.Equal(t, paletted.Color(0x00332211), c.WithAlpha(0))

	buf := make([]byte, 4)
	c.PutBytes(buf)
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, buf)
	require.Equal(t, c, paletted.ColorFromBytes(buf))

	require.Equal(t, c, paletted.FromColor(color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}))
}

func TestNewRejects(t *testing.T) {
	table := []paletted.Color{red, green}
	for _, tc := range []struct {
		name  string
		w, h  int
		pix   []uint8
		table []paletted.Color
		ti    int
	}{
		{"zero width", 0, 1, nil, table, -1},
		{"pixel count", 2, 2, []uint8{0, 1, 0}, table, -1},
		{"empty table", 1, 1, []uint8{0}, nil, -1},
		{"big table", 1, 1, []uint8{0}, make([]paletted.Color, 257), -1},
		{"index past table", 1, 1, []uint8{2}, table, -1},
		{"transparent past table", 1, 1, []uint8{0}, table, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := paletted.New(tc.w, tc.h, tc.pix, tc.table, paletted.Meta{TransparentIndex: tc.ti})
			require.Error(t, err)
		})
	}
}

func TestColorAt(t *testing.T) {
	img := newImage(t, 2, 1, []uint8{1, 0}, []paletted.Color{red, green}, paletted.NoTransparency)

	c, err := img.ColorAt(0, 0)
	require.NoError(t, err)
	require.Equal(t, green, c)

	for _, p := range []image.Point{{-1, 0}, {2, 0}, {0, 1}, {0, -1}} {
		_, err := img.ColorAt(p.X, p.Y)
		require.ErrorIs(t, err, paletted.ErrOutOfRange)
	}
}

func TestSetPaletteEntry(t *testing.T) {
	img := newImage(t, 2, 1, []uint8{0, 1}, []paletted.Color{red, green}, paletted.NoTransparency)

	require.NoError(t, img.SetPaletteEntry(0, blue))
	c, err := img.ColorAt(0, 0)
	require.NoError(t, err)
	require.Equal(t, blue, c)

	f, err := img.PaletteEntry(paletted.Filtered, 0)
	require.NoError(t, err)
	require.Equal(t, blue, f)

	// entries past the table extend it
	require.NoError(t, img.SetPaletteEntry(200, black))
	require.Equal(t, 201, img.EntryCount())

	require.ErrorIs(t, img.SetPaletteEntry(256, blue), paletted.ErrOutOfRange)
	require.ErrorIs(t, img.SetPaletteEntry(-1, blue), paletted.ErrOutOfRange)
	_, err = img.PaletteEntry(paletted.Unfiltered, 256)
	require.ErrorIs(t, err, paletted.ErrOutOfRange)
}

func TestTransparentEntry(t *testing.T) {
	// transparent index 2 stored as black, surrounded by blue
	img := newImage(t, 3, 1, []uint8{1, 2, 1}, []paletted.Color{red, blue, black}, 2)

	u, err := img.PaletteEntry(paletted.Unfiltered, 2)
	require.NoError(t, err)
	require.Equal(t, black.WithAlpha(0), u)

	f, err := img.PaletteEntry(paletted.Filtered, 2)
	require.NoError(t, err)
	require.Equal(t, blue.WithAlpha(0), f)

	// a new invisible color keeps the estimate in the filtered table
	require.NoError(t, img.SetPaletteEntry(2, red.WithAlpha(0)))
	u, _ = img.PaletteEntry(paletted.Unfiltered, 2)
	require.Equal(t, red.WithAlpha(0), u)
	f, _ = img.PaletteEntry(paletted.Filtered, 2)
	require.Equal(t, blue.WithAlpha(0), f)

	// a visible one is mirrored as is
	require.NoError(t, img.SetPaletteEntry(2, green))
	f, _ = img.PaletteEntry(paletted.Filtered, 2)
	require.Equal(t, green, f)

	// a recolored neighbour moves the estimate on refresh
	require.NoError(t, img.SetPaletteEntry(2, black.WithAlpha(0)))
	require.NoError(t, img.SetPaletteEntry(1, green))
	img.RefreshFiltered()
	f, _ = img.PaletteEntry(paletted.Filtered, 2)
	require.Equal(t, green.WithAlpha(0), f)
}

func TestTransparentEstimateFallback(t *testing.T) {
	// index 1 is transparent but no pixel uses it: its palette neighbours
	// decide
	img := newImage(t, 1, 1, []uint8{0}, []paletted.Color{red, black, red}, 1)
	f, err := img.PaletteEntry(paletted.Filtered, 1)
	require.NoError(t, err)
	require.Equal(t, red.WithAlpha(0), f)

	// a fully transparent image keeps the stored color
	img = newImage(t, 1, 1, []uint8{0}, []paletted.Color{green}, 0)
	f, err = img.PaletteEntry(paletted.Filtered, 0)
	require.NoError(t, err)
	require.Equal(t, green.WithAlpha(0), f)
}

func TestPaletteCopies(t *testing.T) {
	img := newImage(t, 1, 1, []uint8{0}, []paletted.Color{red}, paletted.NoTransparency)
	pal := img.Palette(paletted.Unfiltered)
	pal[0] = blue

	c, err := img.ColorAt(0, 0)
	require.NoError(t, err)
	require.Equal(t, red, c)
	require.Equal(t, "filtered", paletted.Filtered.String())
}

func TestImageInterface(t *testing.T) {
	img := newImage(t, 2, 2, []uint8{0, 1, 1, 0}, []paletted.Color{red, green}, paletted.NoTransparency)

	var pi image.PalettedImage = img
	require.Equal(t, image.Rect(0, 0, 2, 2), pi.Bounds())
	require.Equal(t, uint8(1), pi.ColorIndexAt(1, 0))
	require.Equal(t, color.NRGBAModel.Convert(green), color.NRGBAModel.Convert(pi.At(0, 1)))
	require.Len(t, pi.ColorModel().(color.Palette), 2)
}
