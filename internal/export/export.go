package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/viewport"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// DefaultFormat is the encoding used when none is configured.
const DefaultFormat = "png"

// Surface is the canvas being exported.
type Surface interface {
	Dimensions() object.Size
	SetDimensions(width, height float64)
	Transform() viewport.Transform
	SetTransform(t viewport.Transform)
	CalcOffset()
	RequestRender()
	Active() []object.Object
	Render() *image.NRGBA
}

// Buffer is a cropped raster in non-premultiplied RGBA order, with the
// position it was cut from.
type Buffer struct {
	Data   []byte `json:"-"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Image wraps the buffer without copying.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{Pix: b.Data, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// Encoded is a cropped raster encoded as Format.
type Encoded struct {
	Format string
	Data   []byte
}

func (e *Encoded) MIMEType() string {
	switch e.Format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	}
	return "image/" + e.Format
}

func (e *Encoded) DataURL() string {
	return "data:" + e.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// Result carries exactly one of Raw or Encoded.
type Result struct {
	Bounds  Bounds
	Raw     *Buffer
	Encoded *Encoded
}

type Option func(*Engine)

// WithFormat sets the encoding, named by file extension (png, jpeg, gif, bmp, tiff).
func WithFormat(format string) Option {
	return func(e *Engine) { e.format = strings.ToLower(strings.TrimPrefix(format, ".")) }
}

// WithQuality sets the JPEG quality, 1 to 100.
func WithQuality(q int) Option {
	return func(e *Engine) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine snapshots a surface at 1:1 and crops the snapshot to its content.
type Engine struct {
	surface Surface
	vp      *viewport.Controller
	format  string
	quality int
	logger  *slog.Logger
}

func New(surface Surface, vp *viewport.Controller, opts ...Option) *Engine {
	e := &Engine{
		surface: surface,
		vp:      vp,
		format:  DefaultFormat,
		quality: 95,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateFormat reports whether format can be encoded.
func ValidateFormat(format string) error {
	if _, err := imaging.FormatFromExtension(format); err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// CaptureCropped renders the surface at zoom 1 without selection chrome, crops
// the result to its content and returns it raw or encoded. The selection
// decorations and the viewport are restored afterwards, also on error.
func (e *Engine) CaptureCropped(ctx context.Context, wantRaw bool) (*Result, error) {
	active := e.surface.Active()
	type decorations struct{ controls, borders bool }
	saved := make([]decorations, len(active))
	for i, obj := range active {
		b := obj.Common()
		saved[i].controls, saved[i].borders = b.Decorations()
		b.SetDecorations(false, false)
	}
	dims := e.surface.Dimensions()
	transform := e.surface.Transform()
	state := e.vp.State()
	defer func() {
		for i, obj := range active {
			obj.Common().SetDecorations(saved[i].controls, saved[i].borders)
		}
		e.surface.SetDimensions(dims.Width, dims.Height)
		e.surface.SetTransform(transform)
		e.surface.CalcOffset()
		e.vp.Restore(state)
		e.surface.RequestRender()
	}()

	e.vp.Apply(1)
	e.surface.SetTransform(viewport.Transform{Zoom: 1})
	snapshot := e.surface.Render()

	bounds, err := DetectBounds(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content bounds: %w", err)
	}
	e.logger.Debug("content bounds", "left", bounds.Left, "top", bounds.Top, "width", bounds.Width, "height", bounds.Height)

	cropped := imaging.Crop(snapshot, bounds.Rect())
	res := &Result{Bounds: bounds}
	if wantRaw {
		res.Raw = &Buffer{
			Data:   cropped.Pix,
			Left:   bounds.Left,
			Top:    bounds.Top,
			Width:  cropped.Bounds().Dx(),
			Height: cropped.Bounds().Dy(),
		}
		return res, nil
	}

	enc, err := Encode(cropped, e.format, e.quality)
	if err != nil {
		return nil, err
	}
	res.Encoded = enc
	return res, nil
}

// Encode writes img in the format named by its file extension.
func Encode(img image.Image, format string, quality int) (*Encoded, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return &Encoded{Format: format, Data: buf.Bytes()}, nil
}

// Checkerboard colors and cell size used behind previews.
const (
	checkerSize  = 10
	checkerDark  = "#888888cc"
	checkerLight = "#cccccccc"
)

// Preview draws buf over a checkerboard so transparent areas stay visible.
func Preview(buf *Buffer) *image.NRGBA {
	dc := gg.NewContext(max(1, buf.Width), max(1, buf.Height))
	for y := 0; y < buf.Height; y += checkerSize {
		for x := 0; x < buf.Width; x += checkerSize {
			if (x/checkerSize+y/checkerSize)%2 == 0 {
				dc.SetHexColor(checkerDark)
			} else {
				dc.SetHexColor(checkerLight)
			}
			dc.DrawRectangle(float64(x), float64(y), checkerSize, checkerSize)
			dc.Fill()
		}
	}
	dc.DrawImage(buf.Image(), 0, 0)
	return imaging.Clone(dc.Image())
}
