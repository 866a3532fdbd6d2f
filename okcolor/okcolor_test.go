package okcolor_test

import (
	"image/color"
	"math"
	"testing"

	"gifblobber/okcolor"

	"github.com/stretchr/testify/require"
)

func TestLabRoundTrip(t *testing.T) {
	for _, c := range []color.NRGBA{
		{0, 0, 0, 0xff},
		{0xff, 0xff, 0xff, 0xff},
		{0xff, 0, 0, 0xff},
		{0x12, 0x9a, 0xf0, 0xff},
		{0x80, 0x80, 0x80, 0x80},
	} {
		lab := okcolor.LabModel.Convert(c).(okcolor.Lab)
		r, g, b := lab.LinearRGBA().SRGB8()
		require.Equal(t, []uint8{c.R, c.G, c.B}, []uint8{r, g, b})
		require.Equal(t, uint16(c.A)*0x101, lab.Alpha)
	}

	white := okcolor.LabModel.Convert(color.White).(okcolor.Lab)
	require.InDelta(t, 1, white.L, 1e-3)
	require.InDelta(t, 0, white.A, 1e-3)
	require.InDelta(t, 0, white.B, 1e-3)
}

func TestDistance(t *testing.T) {
	black := okcolor.LabModel.Convert(color.Black).(okcolor.Lab)
	white := okcolor.LabModel.Convert(color.White).(okcolor.Lab)
	gray := okcolor.LabModel.Convert(color.Gray{Y: 0x80}).(okcolor.Lab)

	require.Zero(t, black.Distance(black))
	require.Less(t, gray.Distance(white), black.Distance(white))
	require.InDelta(t, black.Distance(white), white.Distance(black), 1e-12)
}

func TestAccumulator(t *testing.T) {
	var acc okcolor.Accumulator
	_, ok := acc.Mean()
	require.False(t, ok)

	acc.Add(color.NRGBA{0x20, 0x40, 0x60, 0xff})
	acc.Add(color.NRGBA{0x20, 0x40, 0x60, 0xff})
	require.Equal(t, 2, acc.Count())

	mean, ok := acc.Mean()
	require.True(t, ok)
	require.Equal(t, uint16(0xffff), mean.Alpha)
	r, g, b := mean.LinearRGBA().SRGB8()
	require.Equal(t, []uint8{0x20, 0x40, 0x60}, []uint8{r, g, b})

	// black and white average to a neutral gray of half lightness
	var bw okcolor.Accumulator
	bw.Add(color.Black)
	bw.Add(color.White)
	mean, _ = bw.Mean()
	require.InDelta(t, 0.5, mean.L, 1e-3)
	r, g, b = mean.LinearRGBA().SRGB8()
	require.Equal(t, r, g)
	require.Equal(t, r, b)
}

func TestClip(t *testing.T) {
	red := okcolor.LabModel.Convert(color.NRGBA{0xff, 0, 0, 0xff}).(okcolor.Lab)
	require.True(t, red.InGamut())
	require.Equal(t, red, okcolor.Clip(red))

	// same hue, half again the chroma sRGB red already maxes out at
	vivid := okcolor.Lab{L: red.L, A: red.A * 1.5, B: red.B * 1.5, Alpha: 0xffff}
	require.False(t, vivid.InGamut())

	clipped := okcolor.Clip(vivid)
	c := clipped.LinearRGBA()
	for _, v := range []float64{c.R, c.G, c.B} {
		require.GreaterOrEqual(t, v, -1e-3)
		require.LessOrEqual(t, v, 1+1e-3)
	}
	require.InDelta(t, math.Atan2(vivid.B, vivid.A), math.Atan2(clipped.B, clipped.A), 1e-9)
	require.Equal(t, vivid.Alpha, clipped.Alpha)

	// still reads as red
	r, g, b := clipped.LinearRGBA().SRGB8()
	require.Greater(t, r, g)
	require.Greater(t, r, b)
}
