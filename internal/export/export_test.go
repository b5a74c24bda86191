package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/registry"
	"github.com/imamik/funcanvas/internal/scene"
	"github.com/imamik/funcanvas/internal/viewport"
)

func TestDetectBounds(t *testing.T) {
	tests := []struct {
		name  string
		paint func(img *image.NRGBA)
		want  Bounds
	}{
		{"empty", func(*image.NRGBA) {}, Bounds{0, 0, 1, 1}},
		{"alpha one is noise", func(img *image.NRGBA) {
			img.SetNRGBA(5, 5, color.NRGBA{R: 255, A: 1})
		}, Bounds{0, 0, 1, 1}},
		{"single pixel", func(img *image.NRGBA) {
			img.SetNRGBA(3, 4, color.NRGBA{A: 2})
		}, Bounds{3, 4, 1, 1}},
		{"corners", func(img *image.NRGBA) {
			img.SetNRGBA(0, 0, color.NRGBA{A: 255})
			img.SetNRGBA(63, 47, color.NRGBA{A: 255})
		}, Bounds{0, 0, 64, 48}},
		{"spread", func(img *image.NRGBA) {
			img.SetNRGBA(10, 30, color.NRGBA{A: 128})
			img.SetNRGBA(40, 2, color.NRGBA{A: 128})
			img.SetNRGBA(25, 44, color.NRGBA{A: 128})
		}, Bounds{10, 2, 31, 43}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
			tt.paint(img)
			got, err := DetectBounds(context.Background(), img)
			if err != nil {
				t.Fatalf("DetectBounds() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetectBoundsOffsetImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 30, 40))
	img.SetNRGBA(15, 25, color.NRGBA{A: 255})
	got, err := DetectBounds(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Bounds{5, 5, 1, 1}); got != want {
		t.Errorf("DetectBounds() = %+v, want %+v", got, want)
	}
}

func TestDetectBoundsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DetectBounds(ctx, image.NewNRGBA(image.Rect(0, 0, 100, 100))); !errors.Is(err, context.Canceled) {
		t.Errorf("DetectBounds() error = %v, want context.Canceled", err)
	}
}

type fixture struct {
	canvas *scene.Canvas
	vp     *viewport.Controller
	rect   *object.Rect
}

// newFixture builds a 1600x1200 canvas displayed at 75% with one selected
// opaque 100x50 rectangle at (700, 575).
func newFixture(t *testing.T, withRect bool) *fixture {
	t.Helper()
	c := scene.New(registry.New(filters.Builtin()))
	vp := viewport.New(c, c.Logical())
	vp.FitToWidth(800)
	vp.SetZoom(1.5)

	f := &fixture{canvas: c, vp: vp}
	if withRect {
		f.rect = object.NewRect(100, 50)
		f.rect.Left, f.rect.Top, f.rect.Fill = 700, 575, "#3366ff"
		if err := c.Add(f.rect); err != nil {
			t.Fatal(err)
		}
		c.SetActive(f.rect)
	}
	return f
}

func (f *fixture) assertRestored(t *testing.T) {
	t.Helper()
	if f.vp.Effective() != 0.75 || f.vp.Requested() != 1.5 {
		t.Errorf("viewport = %+v, want effective 0.75 requested 1.5", f.vp.State())
	}
	if f.canvas.Zoom() != 0.75 {
		t.Errorf("canvas zoom = %v, want 0.75", f.canvas.Zoom())
	}
	if d := f.canvas.Dimensions(); d.Width != 1200 || d.Height != 900 {
		t.Errorf("canvas dimensions = %v, want 1200x900", d)
	}
	if f.rect != nil {
		if controls, borders := f.rect.Decorations(); !controls || !borders {
			t.Errorf("decorations = %v, %v; want restored", controls, borders)
		}
	}
	if !f.canvas.Dirty() {
		t.Error("no re-render requested after export")
	}
}

func TestCaptureCroppedRaw(t *testing.T) {
	f := newFixture(t, true)
	res, err := New(f.canvas, f.vp).CaptureCropped(context.Background(), true)
	if err != nil {
		t.Fatalf("CaptureCropped() error = %v", err)
	}
	if res.Encoded != nil {
		t.Error("raw capture also encoded")
	}
	want := Bounds{Left: 700, Top: 575, Width: 100, Height: 50}
	got := Bounds{Left: res.Raw.Left, Top: res.Raw.Top, Width: res.Raw.Width, Height: res.Raw.Height}
	if got != want {
		t.Errorf("Raw box = %+v, want %+v", got, want)
	}
	if res.Bounds != want {
		t.Errorf("Bounds = %+v, want %+v", res.Bounds, want)
	}
	if len(res.Raw.Data) != 100*50*4 {
		t.Errorf("len(Data) = %d, want %d", len(res.Raw.Data), 100*50*4)
	}
	if px := res.Raw.Image().NRGBAAt(0, 0); px != (color.NRGBA{R: 0x33, G: 0x66, B: 0xff, A: 255}) {
		t.Errorf("corner pixel = %v, want the fill color without chrome", px)
	}
	f.assertRestored(t)
}

func TestCaptureCroppedEmptyCanvas(t *testing.T) {
	f := newFixture(t, false)
	res, err := New(f.canvas, f.vp).CaptureCropped(context.Background(), true)
	if err != nil {
		t.Fatalf("CaptureCropped() error = %v", err)
	}
	if res.Bounds != (Bounds{0, 0, 1, 1}) {
		t.Errorf("Bounds = %+v, want {0 0 1 1}", res.Bounds)
	}
	if len(res.Raw.Data) != 4 {
		t.Errorf("len(Data) = %d, want 4", len(res.Raw.Data))
	}
	f.assertRestored(t)
}

func TestCaptureCroppedEncoded(t *testing.T) {
	f := newFixture(t, true)
	res, err := New(f.canvas, f.vp).CaptureCropped(context.Background(), false)
	if err != nil {
		t.Fatalf("CaptureCropped() error = %v", err)
	}
	if res.Raw != nil {
		t.Error("encoded capture also returned a raw buffer")
	}
	if res.Encoded.Format != "png" {
		t.Errorf("Format = %q, want png", res.Encoded.Format)
	}
	img, err := png.Decode(bytes.NewReader(res.Encoded.Data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("encoded size = %v, want 100x50", b)
	}
	if !strings.HasPrefix(res.Encoded.DataURL(), "data:image/png;base64,") {
		t.Errorf("DataURL() = %.40s", res.Encoded.DataURL())
	}
	f.assertRestored(t)
}

func TestCaptureCroppedJPEG(t *testing.T) {
	f := newFixture(t, true)
	res, err := New(f.canvas, f.vp, WithFormat(".JPG"), WithQuality(80)).CaptureCropped(context.Background(), false)
	if err != nil {
		t.Fatalf("CaptureCropped() error = %v", err)
	}
	if got := res.Encoded.MIMEType(); got != "image/jpeg" {
		t.Errorf("MIMEType() = %q", got)
	}
}

func TestCaptureCroppedRestoresOnError(t *testing.T) {
	f := newFixture(t, true)
	_, err := New(f.canvas, f.vp, WithFormat("webp")).CaptureCropped(context.Background(), false)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("CaptureCropped() error = %v, want ErrUnsupportedFormat", err)
	}
	f.assertRestored(t)
}

func TestCaptureIgnoresPan(t *testing.T) {
	f := newFixture(t, true)
	f.vp.SetZoomAtPoint(2, object.Point{X: 100, Y: 100})
	pan := f.canvas.Transform()

	res, err := New(f.canvas, f.vp).CaptureCropped(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bounds != (Bounds{700, 575, 100, 50}) {
		t.Errorf("Bounds = %+v with a panned view", res.Bounds)
	}
	if f.canvas.Transform() != pan {
		t.Errorf("transform = %+v, want %+v", f.canvas.Transform(), pan)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, ok := range []string{"png", "jpeg", "jpg", "gif", "bmp", "tiff"} {
		if err := ValidateFormat(ok); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", ok, err)
		}
	}
	if err := ValidateFormat("svg"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ValidateFormat(svg) error = %v", err)
	}
}

func TestPreviewShowsCheckerboard(t *testing.T) {
	buf := &Buffer{Data: make([]byte, 30*20*4), Width: 30, Height: 20}
	// One opaque red pixel in the second cell.
	copy(buf.Data[(5*30+15)*4:], []byte{255, 0, 0, 255})

	img := Preview(buf)
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("Preview() size = %v", b)
	}
	dark, light := img.NRGBAAt(2, 2), img.NRGBAAt(12, 2)
	if !near(dark.R, 0x88) || !near(light.R, 0xcc) || !near(dark.A, 0xcc) {
		t.Errorf("checker cells = %v, %v", dark, light)
	}
	if got := img.NRGBAAt(15, 5); got.R != 255 || got.G != 0 || got.A != 255 {
		t.Errorf("content pixel = %v, want opaque red", got)
	}
}

func near(got, want uint8) bool {
	d := int(got) - int(want)
	return d >= -2 && d <= 2
}
