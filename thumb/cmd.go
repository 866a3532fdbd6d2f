package thumb

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gifblobber/gifdec"
	"gifblobber/palette"
	"gifblobber/parallel"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan      string      `help:"Source folder to scan for GIF files" default:"."`
	Dest      string      `help:"Destination folder for thumbnails. Relative to scan dir if not absolute." default:"thumbs"`
	Width     int         `help:"Max width, 0 to follow height"`
	Height    int         `help:"Max height, 0 to follow width"`
	Crop      bool        `help:"Crop the source to keep the requested aspect ratio" default:"false"`
	Fill      string      `help:"If given and not cropping, fill the background with this color to keep the requested aspect ratio"`
	Filtered  bool        `help:"Blend colors when scaling instead of picking the nearest pixel" default:"false"`
	Palette   string      `help:"Recolor with a palette name (bw, gray4, gray16, gray256, websafe, plan9) or a PAL file in RIFF format"`
	Format    string      `help:"Output format" enum:"png,bmp,tiff" default:"png"`
	FillColor color.Color `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	switch {
	case c.Width < 0:
		return fmt.Errorf("invalid width: %d", c.Width)
	case c.Height < 0:
		return fmt.Errorf("invalid height: %d", c.Height)
	}

	if (!c.Crop) && (c.Fill != "") {
		if c.FillColor, err = parseHexToColor(c.Fill); err != nil {
			return err
		}
	}

	if c.Palette != "" {
		if _, err := palette.LoadPalette(c.Palette); err != nil {
			return err
		}
	}

	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	entries, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var pal color.Palette
	if c.Palette != "" {
		if pal, err = palette.LoadPalette(c.Palette); err != nil {
			return err
		}
	}

	var done, failed atomic.Uint64
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".gif") {
			continue
		}

		name := entry.Name()
		worker(func() {
			logger := slog.Default().With("file", filepath.Join(c.Scan, name))
			if err := c.thumbnail(logger, name, pal); err != nil {
				failed.Add(1)
				logger.Error("could not make thumbnail", "error", err)
				return
			}
			done.Add(1)
		})
	}

	wait(true)

	ok, bad := done.Load(), failed.Load()
	slog.Info("stats", "processed", ok, "errors", bad, "total", ok+bad)
	if bad > 0 {
		return fmt.Errorf("error processing %d files", bad)
	}
	return nil
}

// thumbnail runs one GIF through decode, recolor, stretch and encode.
func (c *CLICmd) thumbnail(logger *slog.Logger, name string, pal color.Palette) error {
	data, err := os.ReadFile(filepath.Join(c.Scan, name))
	if err != nil {
		return fmt.Errorf("could not read image: %w", err)
	}

	img, err := gifdec.Decode(data)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}
	logger.Debug("decoded", "width", img.Width(), "height", img.Height(), "entries", img.EntryCount())

	if pal != nil {
		recolor(logger.With("palette", c.Palette), img, pal)
	}

	out, err := resize(logger, img, c.Width, c.Height, c.Crop, c.Filtered, c.FillColor)
	if err != nil {
		return fmt.Errorf("could not resize image: %w", err)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	return save(out, c.Format, filepath.Join(c.Dest, base+"."+c.Format))
}

// parseHexToColor accepts #RGB, #RGBA, #RRGGBB and #RRGGBBAA.
func parseHexToColor(s string) (color.Color, error) {
	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("invalid fill color %q, should start with #", s)
	}

	var digits []uint8
	for _, r := range s[1:] {
		var v uint8
		switch {
		case r >= '0' && r <= '9':
			v = uint8(r - '0')
		case r >= 'a' && r <= 'f':
			v = uint8(r-'a') + 10
		case r >= 'A' && r <= 'F':
			v = uint8(r-'A') + 10
		default:
			return nil, fmt.Errorf("invalid hex digit %q in fill color %q", r, s)
		}
		digits = append(digits, v)
	}

	c := color.NRGBA{A: 0xff}
	switch len(digits) {
	case 3, 4:
		c.R, c.G, c.B = digits[0]*0x11, digits[1]*0x11, digits[2]*0x11
		if len(digits) == 4 {
			c.A = digits[3] * 0x11
		}
	case 6, 8:
		c.R, c.G, c.B = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		if len(digits) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
	default:
		return nil, fmt.Errorf("invalid fill color, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA")
	}

	return c, nil
}
