package okcolor

import (
	"image/color"
	"math"
)

// LinearRGBA is a color with linear-light channels in [0, 1] and a straight
// 16-bit alpha.
type LinearRGBA struct {
	R float64
	G float64
	B float64
	A uint16
}

func linearRGBAConvert(c color.Color) color.Color {
	if _, ok := c.(LinearRGBA); ok {
		return c
	}

	return sRGBToLinearRGB(color.NRGBA64Model.Convert(c).(color.NRGBA64))
}

// RGBA implements color.Color. Out of gamut channels are clamped.
func (lc LinearRGBA) RGBA() (uint32, uint32, uint32, uint32) {
	return linearRGBToSRGB(lc).RGBA()
}

// SRGB8 returns the clamped 8-bit sRGB channels, ignoring alpha.
func (lc LinearRGBA) SRGB8() (uint8, uint8, uint8) {
	return to8(fromLinear(lc.R)), to8(fromLinear(lc.G)), to8(fromLinear(lc.B))
}

func linearRGBToSRGB(lc LinearRGBA) color.NRGBA64 {
	return color.NRGBA64{
		R: to16(fromLinear(lc.R)),
		G: to16(fromLinear(lc.G)),
		B: to16(fromLinear(lc.B)),
		A: lc.A,
	}
}

func sRGBToLinearRGB(c color.NRGBA64) LinearRGBA {
	return LinearRGBA{
		R: toLinear(float64(c.R) / 65535),
		G: toLinear(float64(c.G) / 65535),
		B: toLinear(float64(c.B) / 65535),
		A: c.A,
	}
}

func to8(x float64) uint8 {
	return uint8(math.Round(clamp(x, 0, 1) * 255))
}

func to16(x float64) uint16 {
	return uint16(math.Round(clamp(x, 0, 1) * 65535))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

const pow float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, pow)*1.055 - 0.055
	} else {
		return x * 12.92
	}
}
