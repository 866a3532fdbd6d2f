package gifdec

const (
	maxCodeWidth = 12
	tableSize    = 1 << maxCodeWidth
	noCode       = 0xffff
)

// lzwDecoder expands a GIF LZW stream, LSB-first with the code width growing
// as soon as the next free slot no longer fits.
type lzwDecoder struct {
	src    []byte
	pos    int // next unread byte of src
	bits   uint32
	nBits  uint
	offset int // input offset of src[0], for error reporting

	litWidth int

	prefix [tableSize]uint16
	suffix [tableSize]uint8
	length [tableSize]uint16
}

func (d *lzwDecoder) readCode(width uint) (uint16, bool) {
	for d.nBits < width {
		if d.pos >= len(d.src) {
			return 0, false
		}
		d.bits |= uint32(d.src[d.pos]) << d.nBits
		d.pos++
		d.nBits += 8
	}
	code := uint16(d.bits & (1<<width - 1))
	d.bits >>= width
	d.nBits -= width
	return code, true
}

// decode fills dst exactly. Reaching the end of src after dst is full is
// accepted even without an end code.
func (d *lzwDecoder) decode(dst []uint8) error {
	var (
		clear    = uint16(1) << d.litWidth
		end      = clear + 1
		width    = uint(d.litWidth + 1)
		hi       = end // last assigned code
		overflow = uint16(1) << width
		last     = uint16(noCode)
		n        = 0
	)

	for i := range clear {
		d.prefix[i] = noCode
		d.suffix[i] = uint8(i)
		d.length[i] = 1
	}

	for {
		code, ok := d.readCode(width)
		if !ok {
			if n == len(dst) {
				return nil
			}
			return decodeErr(ErrDimensionOverflow, d.offset+d.pos,
				"image data ended after %d of %d pixels", n, len(dst))
		}

		switch {
		case code == clear:
			width = uint(d.litWidth + 1)
			hi = end
			overflow = 1 << width
			last = noCode
			continue

		case code == end:
			if n != len(dst) {
				return decodeErr(ErrDimensionOverflow, d.offset+d.pos,
					"end code after %d of %d pixels", n, len(dst))
			}
			return nil

		case code < clear:
			if last != noCode {
				d.add(hi+1, last, uint8(code))
			}

		case last == noCode:
			return decodeErr(ErrInvalidLZWCode, d.offset+d.pos,
				"code %d is not a literal after a clear code", code)

		case code <= hi:
			d.add(hi+1, last, d.first(code))

		case code == hi+1:
			// The code being defined right now: last's string plus its own
			// first byte.
			d.add(hi+1, last, d.first(last))

		default:
			return decodeErr(ErrInvalidLZWCode, d.offset+d.pos,
				"code %d is beyond the table end %d", code, hi+1)
		}

		if last != noCode && hi < tableSize-1 {
			hi++
		}

		l := int(d.length[code])
		if n+l > len(dst) {
			return decodeErr(ErrDimensionOverflow, d.offset+d.pos,
				"image data exceeds %d pixels", len(dst))
		}
		for c, i := code, n+l-1; i >= n; i-- {
			dst[i] = d.suffix[c]
			c = d.prefix[c]
		}
		n += l
		last = code

		if hi+1 >= overflow && width < maxCodeWidth {
			width++
			overflow <<= 1
		}
	}
}

// add defines code as prefix's string followed by b, unless the table is
// already full.
func (d *lzwDecoder) add(code, prefix uint16, b uint8) {
	if code >= tableSize {
		return
	}
	d.prefix[code] = prefix
	d.suffix[code] = b
	d.length[code] = d.length[prefix] + 1
}

func (d *lzwDecoder) first(code uint16) uint8 {
	for d.prefix[code] != noCode {
		code = d.prefix[code]
	}
	return d.suffix[code]
}
