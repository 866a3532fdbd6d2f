// Package gifdec decodes the first image of a GIF file into a
// paletted.Image.
//
// The format is described at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gifdec

import (
	"encoding/binary"
	"image"
	"log/slog"

	"gifblobber/paletted"
	"gifblobber/parallel"
)

// Masks etc.
const (
	// Logical screen descriptor fields.
	fColorTable     = 1 << 7
	fColorTableSize = 7

	// Image descriptor fields.
	ifLocalColorTable     = 1 << 7
	ifInterlace           = 1 << 6
	ifLocalColorTableSize = 7

	// Graphic control flags.
	gcTransparentColorSet = 1 << 0
)

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extensions.
const (
	eText           = 0x01
	eGraphicControl = 0xF9
	eComment        = 0xFE
	eApplication    = 0xFF
)

// decoder walks a GIF held entirely in memory.
type decoder struct {
	data []byte
	pos  int

	version       string
	width, height int
	background    uint8
	globalTable   []paletted.Color

	// Set by a graphic control extension, consumed by the next image or
	// plain text block.
	hasTransparent   bool
	transparentIndex uint8
}

// Decode parses data and returns its first image. Any failure is a
// *DecodeError.
func Decode(data []byte) (*paletted.Image, error) {
	d := &decoder{data: data}
	img, err := d.decode()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeAsync runs Decode on another goroutine. data must not be modified
// until the task is done.
func DecodeAsync(data []byte) *parallel.Task[*paletted.Image] {
	return parallel.Go(func() (*paletted.Image, error) {
		return Decode(data)
	})
}

func (d *decoder) decode() (*paletted.Image, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	for {
		start := d.pos
		c, err := d.readByte()
		if err != nil {
			return nil, decodeErr(ErrTruncatedData, start, "file ended before any image")
		}

		switch c {
		case sExtension:
			if err := d.readExtension(); err != nil {
				return nil, err
			}
		case sImageDescriptor:
			img, err := d.readImage()
			if err != nil {
				return nil, err
			}
			if d.pos < len(d.data) {
				slog.Debug("gif: ignoring blocks after first image", "bytes", len(d.data)-d.pos)
			}
			return img, nil
		case sTrailer:
			return nil, decodeErr(ErrTruncatedData, start, "trailer before any image")
		default:
			return nil, decodeErr(ErrInvalidHeader, start, "unknown block type 0x%02x", c)
		}
	}
}

func (d *decoder) readHeader() error {
	if len(d.data) < 3 || string(d.data[:3]) != "GIF" {
		return decodeErr(ErrInvalidHeader, 0, "missing GIF signature")
	}

	sig, err := d.readFull(6)
	if err != nil {
		return err
	}
	d.version = string(sig)
	if d.version != "GIF87a" && d.version != "GIF89a" {
		return decodeErr(ErrUnsupportedVersion, 3, "version %q", sig[3:])
	}

	// logical screen descriptor
	b, err := d.readFull(7)
	if err != nil {
		return err
	}
	d.width = int(binary.LittleEndian.Uint16(b[0:2]))
	d.height = int(binary.LittleEndian.Uint16(b[2:4]))
	d.background = b[5]

	if flags := b[4]; flags&fColorTable != 0 {
		d.globalTable, err = d.readColorTable(flags & fColorTableSize)
		if err != nil {
			return err
		}
	}
	return nil
}

// readColorTable reads 2^(exp+1) RGB triples as opaque colors.
func (d *decoder) readColorTable(exp uint8) ([]paletted.Color, error) {
	n := 1 << (exp + 1)
	b, err := d.readFull(3 * n)
	if err != nil {
		return nil, err
	}

	table := make([]paletted.Color, n)
	for i := range table {
		table[i] = paletted.RGBA8(b[3*i], b[3*i+1], b[3*i+2], 0xff)
	}
	return table, nil
}

func (d *decoder) readExtension() error {
	label, err := d.readByte()
	if err != nil {
		return decodeErr(ErrTruncatedData, d.pos, "missing extension label")
	}

	switch label {
	case eGraphicControl:
		return d.readGraphicControl()
	case eText:
		// A plain text block is rendered in place of an image and uses up
		// the pending graphic control.
		d.hasTransparent = false
	case eComment, eApplication:
	default:
		slog.Debug("gif: skipping unknown extension", "label", label, "offset", d.pos-2)
	}

	return d.skipSubBlocks()
}

func (d *decoder) readGraphicControl() error {
	start := d.pos
	blocks, err := d.readSubBlocks()
	if err != nil {
		return err
	}

	if len(blocks) < 4 {
		slog.Debug("gif: short graphic control extension", "offset", start, "size", len(blocks))
		d.hasTransparent = false
		return nil
	}
	d.hasTransparent = blocks[0]&gcTransparentColorSet != 0
	d.transparentIndex = blocks[3]
	return nil
}

func (d *decoder) readImage() (*paletted.Image, error) {
	start := d.pos
	b, err := d.readFull(9)
	if err != nil {
		return nil, err
	}

	frame := image.Rect(0, 0, int(binary.LittleEndian.Uint16(b[4:6])), int(binary.LittleEndian.Uint16(b[6:8]))).
		Add(image.Pt(int(binary.LittleEndian.Uint16(b[0:2])), int(binary.LittleEndian.Uint16(b[2:4]))))
	flags := b[8]
	interlaced := flags&ifInterlace != 0

	table := d.globalTable
	if flags&ifLocalColorTable != 0 {
		if table, err = d.readColorTable(flags & ifLocalColorTableSize); err != nil {
			return nil, err
		}
	}
	if len(table) == 0 {
		return nil, decodeErr(ErrInvalidColorTable, start, "image has neither a local nor a global color table")
	}

	if frame.Empty() {
		return nil, decodeErr(ErrDimensionOverflow, start, "empty image %v", frame)
	}
	screen := image.Rect(0, 0, d.width, d.height)
	if screen.Empty() {
		screen = image.Rect(0, 0, frame.Max.X, frame.Max.Y)
	}
	if !frame.In(screen) {
		return nil, decodeErr(ErrDimensionOverflow, start, "image %v outside logical screen %v", frame, screen)
	}

	meta := paletted.Meta{
		Version:          d.version,
		Frame:            frame,
		Interlaced:       interlaced,
		BackgroundIndex:  d.background,
		TransparentIndex: paletted.NoTransparency,
	}
	if d.hasTransparent {
		meta.TransparentIndex = int(d.transparentIndex)
		if meta.TransparentIndex >= len(table) {
			// grow the table up to the transparent index
			grown := make([]paletted.Color, meta.TransparentIndex+1)
			copy(grown, table)
			table = grown
		}
	}

	pix, err := d.readPixels(frame.Dx(), frame.Dy(), interlaced)
	if err != nil {
		return nil, err
	}
	for i, v := range pix {
		if int(v) >= len(table) {
			return nil, decodeErr(ErrInvalidColorTable, start, "pixel %d uses index %d of a %d entry table", i, v, len(table))
		}
	}

	if frame != screen {
		pix = place(pix, frame, screen, d.fillIndex(meta.TransparentIndex, len(table)))
	}

	img, err := paletted.New(screen.Dx(), screen.Dy(), pix, table, meta)
	if err != nil {
		return nil, decodeErr(ErrInvalidColorTable, start, "%v", err)
	}
	return img, nil
}

// readPixels reads the LZW minimum code size and the image sub-blocks, and
// returns w*h indices in row order.
func (d *decoder) readPixels(w, h int, interlaced bool) ([]uint8, error) {
	start := d.pos
	litWidth, err := d.readByte()
	if err != nil {
		return nil, decodeErr(ErrTruncatedData, start, "missing LZW minimum code size")
	}
	if litWidth < 2 || litWidth > 8 {
		return nil, decodeErr(ErrInvalidLZWCode, start, "LZW minimum code size %d", litWidth)
	}

	dataStart := d.pos
	stream, err := d.readSubBlocks()
	if err != nil {
		return nil, err
	}

	pix := make([]uint8, w*h)
	lzw := &lzwDecoder{src: stream, offset: dataStart, litWidth: int(litWidth)}
	if err := lzw.decode(pix); err != nil {
		return nil, err
	}

	if interlaced {
		pix = uninterlace(pix, w, h)
	}
	return pix, nil
}

func (d *decoder) fillIndex(transparent, entries int) uint8 {
	if transparent >= 0 {
		return uint8(transparent)
	}
	if int(d.background) < entries {
		return d.background
	}
	return 0
}

// place copies the frame's pixels into a screen-sized raster filled with
// fill.
func place(pix []uint8, frame, screen image.Rectangle, fill uint8) []uint8 {
	sw, fw := screen.Dx(), frame.Dx()
	out := make([]uint8, sw*screen.Dy())
	if fill != 0 {
		for i := range out {
			out[i] = fill
		}
	}
	for y := range frame.Dy() {
		o := (frame.Min.Y+y)*sw + frame.Min.X
		copy(out[o:o+fw], pix[y*fw:(y+1)*fw])
	}
	return out
}

// interlaceScan defines the ordering for a pass of the interlace algorithm.
type interlaceScan struct {
	skip, start int
}

var interlacing = []interlaceScan{
	{8, 0}, // every 8th row from row 0
	{8, 4}, // every 8th row from row 4
	{4, 2}, // every 4th row from row 2
	{2, 1}, // every 2nd row from row 1
}

func uninterlace(pix []uint8, w, h int) []uint8 {
	out := make([]uint8, len(pix))
	offset := 0
	for _, pass := range interlacing {
		for y := pass.start; y < h; y += pass.skip {
			copy(out[y*w:(y+1)*w], pix[offset:offset+w])
			offset += w
		}
	}
	return out
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, decodeErr(ErrTruncatedData, d.pos, "unexpected end of data")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readFull(n int) ([]byte, error) {
	if len(d.data)-d.pos < n {
		return nil, decodeErr(ErrTruncatedData, d.pos, "need %d bytes, have %d", n, len(d.data)-d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// readSubBlocks concatenates a run of length-prefixed sub-blocks up to and
// including the zero-length terminator.
func (d *decoder) readSubBlocks() ([]byte, error) {
	var out []byte
	for {
		n, err := d.readByte()
		if err != nil {
			return nil, decodeErr(ErrTruncatedData, d.pos, "missing block terminator")
		}
		if n == 0 {
			return out, nil
		}
		b, err := d.readFull(int(n))
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
}

func (d *decoder) skipSubBlocks() error {
	for {
		n, err := d.readByte()
		if err != nil {
			return decodeErr(ErrTruncatedData, d.pos, "missing block terminator")
		}
		if n == 0 {
			return nil
		}
		if _, err := d.readFull(int(n)); err != nil {
			return err
		}
	}
}
