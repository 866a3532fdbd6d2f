// Package stretch resamples a region of a paletted.Image into a straight
// alpha RGBA buffer.
package stretch

import (
	"fmt"
	"image"
	"math"
	"sync"

	"gifblobber/paletted"
	"gifblobber/parallel"
)

// Region is a rectangle of source pixels. Edges may be fractional; Right and
// Bottom are exclusive.
type Region struct {
	Left, Right, Top, Bottom float64
}

// Full covers the whole image.
func Full(img *paletted.Image) Region {
	return Region{Right: float64(img.Width()), Bottom: float64(img.Height())}
}

func (r Region) Dx() float64 { return r.Right - r.Left }
func (r Region) Dy() float64 { return r.Bottom - r.Top }

// smaller outputs are stretched on the calling goroutine
const parallelThreshold = 1 << 16

// bands is shared by every Stretch call, so concurrent callers queue for the
// same GOMAXPROCS workers.
var bands = sync.OnceValue(func() *parallel.Pool {
	return parallel.Start(0)
})

// Stretch scales src of img to width x height pixels and writes them to dst
// as 4 bytes per pixel (R, G, B, A, straight alpha), row after row.
//
// Unfiltered sampling copies the unfiltered color of the source pixel whose
// cell contains the destination pixel's leading edge.
// Filtered sampling blends filtered palette colors: an area average on axes
// that shrink, bilinear interpolation on axes that grow or keep their size.
//
// Arguments are checked before anything is written; on error dst is left
// untouched and the error is a *ResampleError.
func Stretch(img *paletted.Image, src Region, width, height int, filtered bool, dst []byte) error {
	if err := validate(img, src, width, height, dst); err != nil {
		return err
	}

	s := &sampler{
		img:    img,
		width:  width,
		dst:    dst[:width*height*4],
		stride: img.Width(),
	}

	var rows func(lo, hi int)
	if filtered {
		s.palette = img.Palette(paletted.Filtered)
		s.xTaps = axisTaps(src.Left, src.Right, img.Width(), width)
		s.yTaps = axisTaps(src.Top, src.Bottom, img.Height(), height)
		rows = s.blendRows
	} else {
		s.palette = img.Palette(paletted.Unfiltered)
		s.xs = nearest(src.Left, src.Right, img.Width(), width)
		s.ys = nearest(src.Top, src.Bottom, img.Height(), height)
		rows = s.nearestRows
	}

	if width*height < parallelThreshold {
		rows(0, height)
		return nil
	}
	bands().Range(height, max(1, parallelThreshold/(4*width)), rows)
	return nil
}

// Go runs Stretch on another goroutine. dst must stay alive and untouched by
// the caller until the task is done.
func Go(img *paletted.Image, src Region, width, height int, filtered bool, dst []byte) *parallel.Task[struct{}] {
	return parallel.Go(func() (struct{}, error) {
		return struct{}{}, Stretch(img, src, width, height, filtered, dst)
	})
}

// Image stretches into a newly allocated image.NRGBA.
func Image(img *paletted.Image, src Region, width, height int, filtered bool) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || width > math.MaxInt/4/height {
		return nil, &ResampleError{Kind: ErrInvalidDimensions, Detail: fmt.Sprintf("%dx%d", width, height)}
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := Stretch(img, src, width, height, filtered, out.Pix); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(img *paletted.Image, src Region, width, height int, dst []byte) error {
	w, h := float64(img.Width()), float64(img.Height())
	// negated comparisons so that NaN edges fail too
	if !(src.Left >= 0 && src.Left < src.Right && src.Right <= w) ||
		!(src.Top >= 0 && src.Top < src.Bottom && src.Bottom <= h) {
		return &ResampleError{
			Kind:   ErrInvalidRegion,
			Detail: fmt.Sprintf("%+v in %dx%d image", src, img.Width(), img.Height()),
		}
	}
	if width <= 0 || height <= 0 {
		return &ResampleError{Kind: ErrInvalidDimensions, Detail: fmt.Sprintf("%dx%d", width, height)}
	}
	// width*height*4 may overflow int
	if len(dst)/4/height < width {
		return &ResampleError{
			Kind:   ErrBufferTooSmall,
			Detail: fmt.Sprintf("have %d bytes, need 4 per pixel of %dx%d", len(dst), width, height),
		}
	}
	return nil
}

type sampler struct {
	img     *paletted.Image
	palette paletted.Palette
	width   int
	stride  int
	dst     []byte

	xs, ys       []int
	xTaps, yTaps [][]tap
}

func (s *sampler) nearestRows(lo, hi int) {
	pix := s.img.Pixels()
	for dy := lo; dy < hi; dy++ {
		row := pix[s.ys[dy]*s.stride:]
		out := s.dst[dy*s.width*4:]
		for dx, sx := range s.xs {
			s.palette[row[sx]].PutBytes(out[dx*4:])
		}
	}
}

func (s *sampler) blendRows(lo, hi int) {
	pix := s.img.Pixels()

	var channels [paletted.MaxEntries][4]float64
	for i, c := range s.palette {
		r, g, b, a := c.Channels()
		channels[i] = [4]float64{float64(r), float64(g), float64(b), float64(a)}
	}

	for dy := lo; dy < hi; dy++ {
		out := s.dst[dy*s.width*4:]
		for dx, xt := range s.xTaps {
			var sum [4]float64
			for _, yt := range s.yTaps[dy] {
				row := pix[yt.index*s.stride:]
				for _, t := range xt {
					w := yt.weight * t.weight
					c := &channels[row[t.index]]
					sum[0] += w * c[0]
					sum[1] += w * c[1]
					sum[2] += w * c[2]
					sum[3] += w * c[3]
				}
			}
			o := out[dx*4 : dx*4+4]
			for i, v := range sum {
				o[i] = uint8(math.Round(min(max(v, 0), 255)))
			}
		}
	}
}

// tap is one source pixel's share of a destination pixel along an axis.
type tap struct {
	index  int
	weight float64
}

// span returns the first and last source pixel a region edge pair touches,
// clamped to the image.
func span(lo, hi float64, size int) (int, int) {
	first := max(int(math.Floor(lo)), 0)
	last := min(int(math.Ceil(hi))-1, size-1)
	return first, max(first, last)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// nearest maps each destination coordinate to the source pixel under its
// leading edge.
func nearest(lo, hi float64, size, n int) []int {
	first, last := span(lo, hi, size)
	scale := (hi - lo) / float64(n)

	out := make([]int, n)
	for i := range out {
		out[i] = clampInt(int(math.Floor(lo+float64(i)*scale+snap)), first, last)
	}
	return out
}

// snap absorbs rounding in i*scale, so a coordinate that is exactly on a
// pixel edge lands on that pixel.
const snap = 1e-9

// axisTaps returns, for every destination coordinate, the weighted source
// pixels contributing to it. Weights sum to 1.
func axisTaps(lo, hi float64, size, n int) [][]tap {
	first, last := span(lo, hi, size)
	scale := (hi - lo) / float64(n)

	out := make([][]tap, n)
	if scale > 1 {
		// box filter: weight by overlap with the footprint
		for i := range out {
			a := lo + float64(i)*scale
			b := min(a+scale, hi)
			var taps []tap
			var total float64
			for p := int(math.Floor(a)); float64(p) < b; p++ {
				overlap := min(b, float64(p+1)) - max(a, float64(p))
				if overlap <= 0 {
					continue
				}
				taps = append(taps, tap{index: clampInt(p, first, last), weight: overlap})
				total += overlap
			}
			for j := range taps {
				taps[j].weight /= total
			}
			out[i] = taps
		}
		return out
	}

	// bilinear between the two pixel centers around the sample point
	for i := range out {
		u := lo + (float64(i)+0.5)*scale - 0.5
		p := math.Floor(u)
		f := u - p
		p0 := clampInt(int(p), first, last)
		p1 := clampInt(int(p)+1, first, last)
		if f == 0 || p0 == p1 {
			out[i] = []tap{{index: p0, weight: 1}}
			continue
		}
		out[i] = []tap{{index: p0, weight: 1 - f}, {index: p1, weight: f}}
	}
	return out
}
