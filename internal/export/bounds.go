package export

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AlphaThreshold is the largest alpha still treated as empty. It keeps
// anti-aliasing dust at alpha 1 out of the bounding box.
const AlphaThreshold = 1

// Bounds is a crop box in raster pixels. Width and Height are inclusive
// extents of the content, and never zero.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height)
}

type band struct {
	found                  bool
	minX, minY, maxX, maxY int
}

// DetectBounds scans every pixel of img for alpha above AlphaThreshold and
// returns the smallest box holding all of them. An image with no content
// yields {0, 0, 1, 1}. Rows are scanned in bands concurrently and merged in
// band order.
func DetectBounds(ctx context.Context, img *image.NRGBA) (Bounds, error) {
	r := img.Bounds()
	h := r.Dy()
	if r.Dx() == 0 || h == 0 {
		return Bounds{Width: 1, Height: 1}, nil
	}

	workers := min(runtime.GOMAXPROCS(0), h)
	rowsPer := (h + workers - 1) / workers
	bands := make([]band, (h+rowsPer-1)/rowsPer)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range bands {
		y0 := r.Min.Y + i*rowsPer
		y1 := min(y0+rowsPer, r.Max.Y)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bands[i] = scanRows(img, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Bounds{}, err
	}

	var total band
	for _, b := range bands {
		if !b.found {
			continue
		}
		if !total.found {
			total = b
			continue
		}
		total.minX = min(total.minX, b.minX)
		total.minY = min(total.minY, b.minY)
		total.maxX = max(total.maxX, b.maxX)
		total.maxY = max(total.maxY, b.maxY)
	}
	if !total.found {
		return Bounds{Width: 1, Height: 1}, nil
	}
	return Bounds{
		Left:   total.minX - r.Min.X,
		Top:    total.minY - r.Min.Y,
		Width:  total.maxX - total.minX + 1,
		Height: total.maxY - total.minY + 1,
	}, nil
}

func scanRows(img *image.NRGBA, y0, y1 int) band {
	var b band
	r := img.Bounds()
	for y := y0; y < y1; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			if row[x*4+3] <= AlphaThreshold {
				continue
			}
			px := r.Min.X + x
			if !b.found {
				b = band{found: true, minX: px, maxX: px, minY: y, maxY: y}
				continue
			}
			b.minX = min(b.minX, px)
			b.maxX = max(b.maxX, px)
			b.minY = min(b.minY, y)
			b.maxY = max(b.maxY, y)
		}
	}
	return b
}
