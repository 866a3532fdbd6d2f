package paletted

import (
	"encoding/binary"
	"image/color"
)

// Color is a straight-alpha RGBA color packed little-endian: R in the low
// byte, then G, B and A. Its byte layout matches one pixel of a stretched
// RGBA buffer.
type Color uint32

// RGBA8 packs four channels into a Color.
func RGBA8(r, g, b, a uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24)
}

// ColorFromBytes reads a Color from the first four bytes of b.
func ColorFromBytes(b []byte) Color {
	return Color(binary.LittleEndian.Uint32(b))
}

// FromColor converts any color.Color to a Color.
func FromColor(c color.Color) Color {
	if pc, ok := c.(Color); ok {
		return pc
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA8(n.R, n.G, n.B, n.A)
}

// Channels unpacks the color.
func (c Color) Channels() (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// PutBytes writes the color into the first four bytes of b.
func (c Color) PutBytes(b []byte) {
	binary.LittleEndian.PutUint32(b, uint32(c))
}

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 {
	return uint8(c >> 24)
}

// WithAlpha returns c with its alpha channel replaced.
func (c Color) WithAlpha(a uint8) Color {
	return c&0x00ffffff | Color(a)<<24
}

// RGBA implements color.Color.
func (c Color) RGBA() (uint32, uint32, uint32, uint32) {
	r, g, b, a := c.Channels()
	return color.NRGBA{R: r, G: g, B: b, A: a}.RGBA()
}
