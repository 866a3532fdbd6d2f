// based on:
// https://bottosson.github.io/posts/gamutclipping/

package okcolor

import "math"

const eps = 0.00001

// InGamut reports whether the color maps to sRGB without clamping.
func (lc Lab) InGamut() bool {
	c := lc.LinearRGBA()
	return c.R >= -eps && c.R <= 1+eps &&
		c.G >= -eps && c.G <= 1+eps &&
		c.B >= -eps && c.B <= 1+eps
}

// Clip brings an out of gamut color back into sRGB, keeping its hue. Colors
// already in gamut are returned as is.
func Clip(lc Lab) Lab {
	if lc.InGamut() {
		return lc
	}
	return GamutClipAdaptive05(lc, 0.05)
}

// GamutClipAdaptive05 projects toward a lightness between the color's own and
// 0.5, chosen by alpha: higher alpha trades lightness for chroma.
func GamutClipAdaptive05(lc Lab, alpha float64) Lab {
	c := max(eps, math.Sqrt(lc.A*lc.A+lc.B*lc.B))
	a_ := lc.A / c
	b_ := lc.B / c

	ld := lc.L - 0.5
	e1 := 0.5 + math.Abs(ld) + alpha*c
	l0 := 0.5 * (1 + sgn(ld)*(e1-math.Sqrt(e1*e1-2*math.Abs(ld))))

	t := findGamutIntersection(a_, b_, lc.L, c, l0)
	lClipped := l0*(1-t) + t*lc.L
	cClipped := t * c

	return Lab{
		L:     lClipped,
		A:     cClipped * a_,
		B:     cClipped * b_,
		Alpha: lc.Alpha,
	}
}

func sgn(x float64) float64 {
	if x < 0 {
		return -1
	} else if x > 0 {
		return 1
	}
	return 0
}

// findGamutIntersection finds where the line
// L = l0 * (1 - t) + t * l1
// C = t * c1
// leaves the gamut. a and b must be normalized so a^2 + b^2 == 1.
func findGamutIntersection(a, b, l1, c1, l0 float64) float64 {
	lC, cC := findCusp(a, b)

	if (l1-l0)*cC-(lC-l0)*c1 <= 0 {
		// lower half
		return cC * l0 / (c1*lC + cC*(l0-l1))
	}

	// upper half: intersect with the triangle, then one Halley step
	t := cC * (l0 - 1) / (c1*(lC-1) + cC*(l0-l1))

	dL := l1 - l0
	dC := c1

	kL := +0.3963377774*a + 0.2158037573*b
	kM := -0.1055613458*a - 0.0638541728*b
	kS := -0.0894841775*a - 1.2914855480*b

	lDt := dL + dC*kL
	mDt := dL + dC*kM
	sDt := dL + dC*kS

	L := l0*(1-t) + t*l1
	C := t * c1

	l_ := L + C*kL
	l := l_ * l_ * l_
	ldt := 3 * lDt * l_ * l_
	ldt2 := 6 * lDt * lDt * l_

	m_ := L + C*kM
	m := m_ * m_ * m_
	mdt := 3 * mDt * m_ * m_
	mdt2 := 6 * mDt * mDt * m_

	s_ := L + C*kS
	s := s_ * s_ * s_
	sdt := 3 * sDt * s_ * s_
	sdt2 := 6 * sDt * sDt * s_

	step := func(wl, wm, ws float64) float64 {
		v := wl*l + wm*m + ws*s - 1
		v1 := wl*ldt + wm*mdt + ws*sdt
		v2 := wl*ldt2 + wm*mdt2 + ws*sdt2
		u := v1 / (v1*v1 - 0.5*v*v2)
		if u < 0 {
			return math.MaxFloat64
		}
		return -v * u
	}

	return t + min(
		step(4.0767416621, -3.3077115913, 0.2309699292),
		step(-1.2684380046, 2.6097574011, -0.3413193965),
		step(-0.0041960863, -0.7034186147, 1.7076147010),
	)
}

// findCusp returns the lightness and chroma of the most saturated sRGB color
// of the given hue.
func findCusp(a, b float64) (float64, float64) {
	sCusp := computeMaxSaturation(a, b)

	rgbAtMax := Lab{L: 1, A: sCusp * a, B: sCusp * b}.LinearRGBA()
	lCusp := math.Cbrt(1 / max(rgbAtMax.R, rgbAtMax.G, rgbAtMax.B))
	return lCusp, lCusp * sCusp
}

// computeMaxSaturation approximates the largest S = C/L of a hue that still
// fits in sRGB.
func computeMaxSaturation(a, b float64) float64 {
	var k0, k1, k2, k3, k4, wl, wm, ws float64
	switch {
	case -1.88170328*a-0.80936493*b > 1: // red goes negative first
		k0, k1, k2, k3, k4 = +1.19086277, +1.76576728, +0.59662641, +0.75515197, +0.56771245
		wl, wm, ws = +4.0767416621, -3.3077115913, +0.2309699292
	case 1.81444104*a-1.19445276*b > 1: // green
		k0, k1, k2, k3, k4 = +0.73956515, -0.45954404, +0.08285427, +0.12541070, +0.14503204
		wl, wm, ws = -1.2684380046, +2.6097574011, -0.3413193965
	default: // blue
		k0, k1, k2, k3, k4 = +1.35733652, -0.00915799, -1.15130210, -0.50559606, +0.00692167
		wl, wm, ws = -0.0041960863, -0.7034186147, +1.7076147010
	}

	sat := k0 + k1*a + k2*b + k3*a*a + k4*a*b

	// one Halley step
	kL := +0.3963377774*a + 0.2158037573*b
	kM := -0.1055613458*a - 0.0638541728*b
	kS := -0.0894841775*a - 1.2914855480*b

	l_ := 1 + sat*kL
	m_ := 1 + sat*kM
	s_ := 1 + sat*kS

	l := l_ * l_ * l_
	m := m_ * m_ * m_
	s := s_ * s_ * s_

	lDS := 3 * kL * l_ * l_
	mDS := 3 * kM * m_ * m_
	sDS := 3 * kS * s_ * s_

	lDS2 := 6 * kL * kL * l_
	mDS2 := 6 * kM * kM * m_
	sDS2 := 6 * kS * kS * s_

	f := wl*l + wm*m + ws*s
	f1 := wl*lDS + wm*mDS + ws*sDS
	f2 := wl*lDS2 + wm*mDS2 + ws*sDS2

	return sat - f*f1/(f1*f1-0.5*f*f2)
}
