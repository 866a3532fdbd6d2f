package gifdec_test

import (
	"bytes"
	"compress/lzw"
	"encoding/binary"
	"image"
	"math/bits"
	"testing"

	"gifblobber/paletted"

	"github.com/stretchr/testify/require"
)

// testGIF describes a single-image GIF to be assembled by build.
type testGIF struct {
	version     string
	screen      image.Point // zero means the frame's extent
	background  uint8
	global      []paletted.Color
	local       []paletted.Color
	frame       image.Rectangle
	pix         []uint8 // frame pixels, sequential row order
	interlace   bool
	transparent int // -1 for no graphic control extension
	extensions  bool
	trailing    []byte // raw bytes appended after the image block
}

func colorTable(buf *bytes.Buffer, table []paletted.Color) byte {
	for _, c := range table {
		r, g, b, _ := c.Channels()
		buf.Write([]byte{r, g, b})
	}
	return byte(bits.Len(uint(len(table))) - 2)
}

func subBlocks(buf *bytes.Buffer, data []byte) {
	for len(data) > 0 {
		n := min(len(data), 255)
		buf.WriteByte(byte(n))
		buf.Write(data[:n])
		data = data[n:]
	}
	buf.WriteByte(0)
}

func interlaced(pix []uint8, w, h int) []uint8 {
	out := make([]uint8, 0, len(pix))
	for _, pass := range []struct{ skip, start int }{{8, 0}, {8, 4}, {4, 2}, {2, 1}} {
		for y := pass.start; y < h; y += pass.skip {
			out = append(out, pix[y*w:(y+1)*w]...)
		}
	}
	return out
}

func compress(t *testing.T, litWidth int, pix []uint8) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.LSB, litWidth)
	_, err := w.Write(pix)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// header writes the signature, the logical screen descriptor and the global
// table.
func (g testGIF) header(buf *bytes.Buffer) {
	version := g.version
	if version == "" {
		version = "GIF89a"
	}
	buf.WriteString(version)

	screen := g.screen
	if screen == (image.Point{}) {
		screen = g.frame.Max
	}
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(screen.X)))
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(screen.Y)))

	var table bytes.Buffer
	var flags byte
	if len(g.global) > 0 {
		flags = 0x80 | colorTable(&table, g.global)
	}
	buf.Write([]byte{flags, g.background, 0})
	buf.Write(table.Bytes())
}

func (g testGIF) build(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	g.header(&buf)

	if g.extensions {
		buf.Write([]byte{0x21, 0xFE})
		subBlocks(&buf, []byte("made for a test"))
		buf.Write([]byte{0x21, 0xFF, 11})
		buf.WriteString("NETSCAPE2.0")
		subBlocks(&buf, []byte{1, 0, 0})
	}

	if g.transparent >= 0 {
		buf.Write([]byte{0x21, 0xF9, 4, 0x01, 0, 0, byte(g.transparent), 0})
	}

	w, h := g.frame.Dx(), g.frame.Dy()
	buf.WriteByte(0x2C)
	for _, v := range []int{g.frame.Min.X, g.frame.Min.Y, w, h} {
		buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(v)))
	}

	var table bytes.Buffer
	var flags byte
	entries := len(g.global)
	if len(g.local) > 0 {
		flags = 0x80 | colorTable(&table, g.local)
		entries = len(g.local)
	}
	if g.interlace {
		flags |= 0x40
	}
	buf.WriteByte(flags)
	buf.Write(table.Bytes())

	pix := g.pix
	if g.interlace {
		pix = interlaced(pix, w, h)
	}
	litWidth := 2
	if entries > 4 {
		litWidth = bits.Len(uint(entries - 1))
	}
	buf.WriteByte(byte(litWidth))
	subBlocks(&buf, compress(t, litWidth, pix))

	buf.Write(g.trailing)
	buf.WriteByte(0x3B)
	return buf.Bytes()
}

// raw wraps an already compressed image data stream in a GIF with a 4 color
// global table.
func raw(w, h int, litWidth byte, data []byte) []byte {
	var buf bytes.Buffer
	testGIF{
		frame:  image.Rect(0, 0, w, h),
		global: fourColors,
	}.header(&buf)

	buf.WriteByte(0x2C)
	for _, v := range []int{0, 0, w, h} {
		buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(v)))
	}
	buf.WriteByte(0)
	buf.WriteByte(litWidth)
	subBlocks(&buf, data)
	buf.WriteByte(0x3B)
	return buf.Bytes()
}

var fourColors = []paletted.Color{
	paletted.RGBA8(0xff, 0, 0, 0xff),
	paletted.RGBA8(0, 0xff, 0, 0xff),
	paletted.RGBA8(0, 0, 0xff, 0xff),
	paletted.RGBA8(0xff, 0xff, 0xff, 0xff),
}

func grayTable(n int) []paletted.Color {
	table := make([]paletted.Color, n)
	for i := range table {
		v := uint8(i * 255 / (n - 1))
		table[i] = paletted.RGBA8(v, v, v, 0xff)
	}
	return table
}
