package thumb

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type encodeFunc func(io.Writer, image.Image) error

var encoders = map[string]encodeFunc{
	"png": func(w io.Writer, img image.Image) error {
		enc := png.Encoder{CompressionLevel: png.BestCompression, BufferPool: pngBuffers}
		return enc.Encode(w, img)
	},
	"bmp": bmp.Encode,
	"tiff": func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

// save encodes img into a temporary file next to dest and renames it into
// place once it is complete. dest is never left half written.
func save(img image.Image, format, dest string) (err error) {
	encode, ok := encoders[format]
	if !ok {
		return fmt.Errorf("unsupported output format: %s", format)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary file for %q: %w", dest, err)
	}

	complete := false
	defer func() {
		if syncErr := tmp.Sync(); syncErr != nil && err == nil {
			err = fmt.Errorf("could not flush %q: %w", tmp.Name(), syncErr)
		}
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close %q: %w", tmp.Name(), closeErr)
		}

		if complete && err == nil {
			if err = os.Rename(tmp.Name(), dest); err == nil {
				return
			}
			err = fmt.Errorf("could not move thumbnail into place: %w", err)
		}
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			slog.Error("could not remove temporary file", "name", tmp.Name(), "error", rmErr)
		}
	}()

	if err = encode(tmp, img); err != nil {
		return fmt.Errorf("could not encode %s thumbnail %q: %w", format, dest, err)
	}
	complete = true
	return nil
}

// pngBufferPool lets concurrent workers share PNG encoder scratch space.
type pngBufferPool struct {
	sync.Pool
}

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	if buf, ok := p.Pool.Get().(*png.EncoderBuffer); ok {
		return buf
	}
	return nil
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	p.Pool.Put(buf)
}

var pngBuffers = &pngBufferPool{}
