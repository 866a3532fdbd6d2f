package inspect

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"gifblobber/gifdec"
	"gifblobber/palette"
	"gifblobber/paletted"
	"gifblobber/parallel"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Files          []string `arg:"" help:"GIF files to inspect" type:"existingfile"`
	ExportPalettes string   `help:"Write each image's palette as a RIFF PAL file into this folder"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.ExportPalettes == "" {
		return nil
	}

	dir, err := filepath.Abs(c.ExportPalettes)
	if err != nil {
		return fmt.Errorf("invalid palette export path %q: %w", c.ExportPalettes, err)
	}
	c.ExportPalettes = dir
	return nil
}

// Summary is what inspect reports for one file.
type Summary struct {
	Width, Height int
	Version       string
	Entries       int
	Interlaced    bool
	Transparent   int // transparent index, -1 when none
	Clear         int // pixels using the transparent index
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if c.ExportPalettes != "" {
		if err := os.MkdirAll(c.ExportPalettes, 0o755); err != nil {
			return fmt.Errorf("unable to create palette folder %q: %w", c.ExportPalettes, err)
		}
	}

	var okCount, errCount atomic.Uint64
	for _, name := range c.Files {
		worker(func() {
			logger := slog.Default().With("file", name)
			if err := c.inspect(logger, name); err != nil {
				errCount.Add(1)
				logger.Error("could not inspect image", "error", err)
				return
			}
			okCount.Add(1)
		})
	}

	wait(true)

	ok, bad := okCount.Load(), errCount.Load()
	slog.Info("stats", "inspected", ok, "errors", bad, "total", ok+bad)
	if bad > 0 {
		return fmt.Errorf("error processing %d files", bad)
	}
	return nil
}

// inspect decodes one file, logs its summary and exports its palette if
// asked to. Only one file is held in memory per worker.
func (c *CLICmd) inspect(logger *slog.Logger, name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	img, err := gifdec.Decode(data)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	s := Summarize(img)
	logger.Info("image", "version", s.Version, "width", s.Width, "height", s.Height,
		"entries", s.Entries, "interlaced", s.Interlaced, "transparent", s.Transparent, "clear", s.Clear)

	if c.ExportPalettes == "" {
		return nil
	}
	if err := exportPalette(img, c.ExportPalettes, name); err != nil {
		return fmt.Errorf("could not export palette: %w", err)
	}
	return nil
}

func Summarize(img *paletted.Image) Summary {
	meta := img.Meta()
	s := Summary{
		Width:       img.Width(),
		Height:      img.Height(),
		Version:     meta.Version,
		Entries:     img.EntryCount(),
		Interlaced:  meta.Interlaced,
		Transparent: meta.TransparentIndex,
	}
	if ti := meta.TransparentIndex; ti >= 0 {
		for _, v := range img.Pixels() {
			if int(v) == ti {
				s.Clear++
			}
		}
	}
	return s
}

func exportPalette(img *paletted.Image, dir, srcName string) error {
	base := filepath.Base(srcName)
	dest := filepath.Join(dir, base[:len(base)-len(filepath.Ext(base))]+".pal")
	slog.Info("exporting palette", "from", srcName, "to", dest)

	if err := checkFile(srcName, dest); err != nil {
		return err
	}

	table := img.Palette(paletted.Unfiltered)
	pal := make(color.Palette, img.EntryCount())
	for i := range pal {
		pal[i] = table[i]
	}

	outFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("could not open destination file %q: %w", dest, err)
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			slog.Error("could not close destination file", "name", dest, "error", closeErr)
		}
	}()

	if _, err = palette.WriteTo(outFile, []color.Palette{pal}); err != nil {
		return fmt.Errorf("could not write palette to %q: %w", dest, err)
	}

	if err = outFile.Sync(); err != nil {
		return fmt.Errorf("could not flush destination file %q: %w", dest, err)
	}
	return nil
}
