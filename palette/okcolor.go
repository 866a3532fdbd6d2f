package palette

import (
	"image/color"
	"math"

	"gifblobber/okcolor"
)

// Lab is a palette held in Oklab, for perceptual nearest-color lookups.
type Lab []okcolor.Lab

func NewLabPalette(p color.Palette) Lab {
	pal := make(Lab, 0, len(p))
	for _, col := range p {
		pal = append(pal, okcolor.LabModel.Convert(col).(okcolor.Lab))
	}
	return pal
}

// Index returns the entry closest to c. An empty palette returns 0.
func (p Lab) Index(c color.Color) int {
	lc := okcolor.LabModel.Convert(c).(okcolor.Lab)

	ret, bestSum := 0, math.MaxFloat64
	for i, v := range p {
		sum := lc.Distance(v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}
