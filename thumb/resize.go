package thumb

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"gifblobber/paletted"
	"gifblobber/stretch"

	"golang.org/x/image/draw"
)

func resize(logger *slog.Logger, img *paletted.Image, width, height int, crop, filtered bool, fillColor color.Color) (image.Image, error) {
	src := stretch.Full(img)
	srcWidth := src.Dx()
	srcHeight := src.Dy()
	srcAR := srcWidth / srcHeight

	destWidth := float64(width)
	destHeight := float64(height)
	switch {
	case width == 0 && height == 0:
		destWidth, destHeight = srcWidth, srcHeight
	case width == 0:
		destWidth = max(1, math.Round(destHeight*srcAR))
	case height == 0:
		destHeight = max(1, math.Round(destWidth/srcAR))
	}

	destSize := image.Rect(0, 0, int(destWidth), int(destHeight))
	destBounds := destSize

	destAR := destWidth / destHeight
	var fill bool
	if crop {
		// the source region may be fractional, no rounding needed
		if srcAR < destAR {
			dh := (srcHeight - srcWidth/destAR) / 2
			src.Top += dh
			src.Bottom -= dh
		} else if srcAR > destAR {
			dw := (srcWidth - srcHeight*destAR) / 2
			src.Left += dw
			src.Right -= dw
		}
	} else {
		if srcAR < destAR {
			dw := destHeight * srcAR
			if fillColor == nil {
				destSize.Max.X = max(1, int(math.Round(dw)))
				destBounds.Max.X = destSize.Max.X
			} else if fill = destWidth > dw; fill {
				idw := int(math.Round((destWidth - dw) / 2))
				destBounds.Min.X += idw
				destBounds.Max.X -= idw
			}
		} else if srcAR > destAR {
			dh := destWidth / srcAR
			if fillColor == nil {
				destSize.Max.Y = max(1, int(math.Round(dh)))
				destBounds.Max.Y = destSize.Max.Y
			} else if fill = destHeight > dh; fill {
				idh := int(math.Round((destHeight - dh) / 2))
				destBounds.Min.Y += idh
				destBounds.Max.Y -= idh
			}
		}
	}

	logger.Info("resizing", "width", destBounds.Dx(), "height", destBounds.Dy(), "filtered", filtered)
	scaled, err := stretch.Image(img, src, destBounds.Dx(), destBounds.Dy(), filtered)
	if err != nil {
		return nil, err
	}
	if !fill {
		return scaled, nil
	}

	dest := image.NewNRGBA(destSize)
	draw.Draw(dest, destSize, image.NewUniform(fillColor), image.Point{}, draw.Src)
	draw.Draw(dest, destBounds, scaled, image.Point{}, draw.Over)
	return dest, nil
}
