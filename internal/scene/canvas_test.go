package scene

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/picture"
	"github.com/imamik/funcanvas/internal/registry"
	"github.com/imamik/funcanvas/internal/viewport"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return img
}

var errMissing = errors.New("missing")

// testDecoder serves 64x48 rasters for every source except "missing".
var testDecoder = picture.DecoderFunc(func(_ context.Context, src string) (image.Image, error) {
	if src == "missing" {
		return nil, errMissing
	}
	return createTestImage(64, 48), nil
})

func newCanvas(opts ...Option) *Canvas {
	opts = append([]Option{WithDecoder(testDecoder)}, opts...)
	return New(registry.New(filters.Builtin()), opts...)
}

func TestCreatePlacesInViewAndSelects(t *testing.T) {
	c := newCanvas()
	obj, err := c.Create(object.TypeRect)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b := obj.Common()
	if b.Left != 650 || b.Top != 450 {
		t.Errorf("rect placed at (%v, %v), want (650, 450)", b.Left, b.Top)
	}
	if b.Fill != "#00ff00" || b.Stroke != "#0000ff" {
		t.Errorf("style not applied: fill=%s stroke=%s", b.Fill, b.Stroke)
	}
	if got := c.Active(); len(got) != 1 || got[0] != obj {
		t.Errorf("Active() = %v, want the new rect", got)
	}
	if !b.ContainsPoint(object.Point{X: 800, Y: 600}) {
		t.Error("coordinates not refreshed after placement")
	}

	if _, err := c.Create("triangle"); !errors.Is(err, object.ErrUnknownType) {
		t.Errorf("Create(triangle) error = %v", err)
	}
}

func TestAddPath(t *testing.T) {
	c := newCanvas()
	path, err := c.AddPath([]object.Point{{X: 100, Y: 300}, {X: 400, Y: 200}, {X: 250, Y: 500}})
	if err != nil {
		t.Fatalf("AddPath() error = %v", err)
	}
	if r := path.Bounds(); r != (object.Box{Left: 100, Top: 200, Width: 300, Height: 300}) {
		t.Errorf("path box = %+v", r)
	}
	if path.Stroke != "#0000ff" || path.StrokeWidth != 1 {
		t.Errorf("style not applied: stroke=%s width=%v", path.Stroke, path.StrokeWidth)
	}
	if got := c.Active(); len(got) != 1 || got[0] != path {
		t.Errorf("Active() = %v, want the new path", got)
	}

	if _, err := c.AddPath(nil); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("AddPath(nil) error = %v, want ErrEmptyPath", err)
	}
	if n := len(c.Objects()); n != 1 {
		t.Errorf("len(Objects()) = %d, want 1", n)
	}
}

func TestZOrder(t *testing.T) {
	c := newCanvas()
	a, b, d := object.NewRect(1, 1), object.NewRect(2, 2), object.NewRect(3, 3)
	if err := c.Add(a, b, d); err != nil {
		t.Fatal(err)
	}
	order := func() []object.Object { return c.Objects() }

	c.SetActive(a)
	c.BringToFront()
	if want := []object.Object{b, d, a}; !reflect.DeepEqual(order(), want) {
		t.Errorf("BringToFront() order wrong")
	}
	c.SendBackwards()
	if want := []object.Object{b, a, d}; !reflect.DeepEqual(order(), want) {
		t.Errorf("SendBackwards() order wrong")
	}
	c.SendToBack()
	if want := []object.Object{a, b, d}; !reflect.DeepEqual(order(), want) {
		t.Errorf("SendToBack() order wrong")
	}
	c.BringForward()
	if want := []object.Object{b, a, d}; !reflect.DeepEqual(order(), want) {
		t.Errorf("BringForward() order wrong")
	}

	c.SetActive(a, d)
	c.SendToBack()
	if want := []object.Object{a, d, b}; !reflect.DeepEqual(order(), want) {
		t.Errorf("SendToBack() with two selected changed their order")
	}
}

func TestRemoveActive(t *testing.T) {
	c := newCanvas()
	a, b := object.NewRect(1, 1), object.NewCircle(1)
	c.Add(a, b)
	var removed []object.Object
	c.On(object.EventObjectRemoved, func(ev object.Event) { removed = append(removed, ev.Target) })

	c.SetActive(b)
	c.RemoveActive()
	if len(c.Active()) != 0 {
		t.Error("selection not cleared")
	}
	if got := c.Objects(); len(got) != 1 || got[0] != a {
		t.Errorf("Objects() = %v", got)
	}
	if len(removed) != 1 || removed[0] != b {
		t.Errorf("removed events = %v", removed)
	}
}

func TestLoadImageAndFilterFanOut(t *testing.T) {
	ctx := context.Background()
	c := newCanvas()
	p, err := c.LoadImage(ctx, "photo.png", map[string]any{"Sepia": true, "Brightness": true, "Brightness_brightness": 0.2})
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if got := types(p.Filters()); !reflect.DeepEqual(got, []string{"Brightness", "Sepia"}) {
		t.Errorf("initial filters = %v", got)
	}
	if !c.IsFilterOn("Sepia") {
		t.Error("IsFilterOn(Sepia) = false")
	}

	c.Render()
	c.SetFilter("Invert", true)
	if !c.Dirty() {
		t.Error("filter change did not request a render")
	}
	if got := types(p.Filters()); !reflect.DeepEqual(got, []string{"Brightness", "Sepia", "Invert"}) {
		t.Errorf("filters after SetFilter = %v", got)
	}

	c.SetFilterProperty("Brightness", "brightness", -0.5)
	if v, _ := c.FilterProperty("Brightness", "brightness"); v != -0.5 {
		t.Errorf("FilterProperty() = %v, want -0.5", v)
	}
	d, _ := c.Registry().Defaults("Brightness")
	if d["brightness"] != -0.5 {
		t.Errorf("registry default = %v, want -0.5", d["brightness"])
	}

	c.Discard()
	if c.IsFilterOn("Sepia") {
		t.Error("IsFilterOn() true with nothing selected")
	}
	if v, ok := c.FilterProperty("Brightness", "brightness"); !ok || v != -0.5 {
		t.Errorf("FilterProperty() without selection = %v, %v; want registry default", v, ok)
	}
}

func TestLoadImageFailureLeavesCanvasUnchanged(t *testing.T) {
	c := newCanvas()
	var errs int
	c.On(object.EventImageError, func(object.Event) { errs++ })

	if _, err := c.LoadImage(context.Background(), "missing", nil); !errors.Is(err, errMissing) {
		t.Fatalf("LoadImage() error = %v, want errMissing", err)
	}
	if len(c.Objects()) != 0 {
		t.Errorf("failed image left %d objects", len(c.Objects()))
	}
	if errs != 1 {
		t.Errorf("image:error fired %d times", errs)
	}
}

func TestAddRejectsLoadingPicture(t *testing.T) {
	c := newCanvas()
	block := make(chan struct{})
	defer close(block)
	dec := picture.DecoderFunc(func(context.Context, string) (image.Image, error) {
		<-block
		return createTestImage(1, 1), nil
	})
	p := picture.New(context.Background(), dec, c.Registry(), picture.Options{})
	if err := c.Add(p); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Add() error = %v, want ErrNotLoaded", err)
	}
}

func TestRenderAtZoom(t *testing.T) {
	c := newCanvas()
	r := object.NewRect(100, 50)
	r.Left, r.Top, r.Fill = 700, 575, "#ff0000"
	c.Add(r)

	vp := viewport.New(c, c.Logical())
	vp.FitToWidth(800)
	if d := c.Dimensions(); d.Width != 800 || d.Height != 600 {
		t.Fatalf("Dimensions() = %v, want 800x600", d)
	}
	if c.Zoom() != 0.5 {
		t.Fatalf("Zoom() = %v, want 0.5", c.Zoom())
	}

	img := c.Render()
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("Render() size = %v", b)
	}
	if got := img.NRGBAAt(375, 300); got.R != 255 || got.A != 255 {
		t.Errorf("rect center pixel = %v, want opaque red", got)
	}
	if got := img.NRGBAAt(340, 300); got.A != 0 {
		t.Errorf("pixel left of rect = %v, want transparent", got)
	}
	if c.Dirty() {
		t.Error("Dirty() after Render")
	}
}

func TestRenderDrawsSelectionChrome(t *testing.T) {
	c := newCanvas()
	r := object.NewRect(100, 100)
	r.Left, r.Top = 100, 100
	c.Add(r)

	if a := c.Render().NRGBAAt(100, 100).A; a != 0 {
		t.Errorf("unselected corner alpha = %d, want 0", a)
	}
	c.SetActive(r)
	if a := c.Render().NRGBAAt(100, 100).A; a == 0 {
		t.Error("selected corner handle not drawn")
	}
}

func TestToLogicalUsesLastOffset(t *testing.T) {
	c := newCanvas()
	c.SetZoom(2)
	p := object.Point{X: 200, Y: 100}
	if got := c.ToLogical(p); got != p {
		t.Errorf("ToLogical() before CalcOffset = %v, want %v", got, p)
	}
	c.CalcOffset()
	if got := c.ToLogical(p); got != (object.Point{X: 100, Y: 50}) {
		t.Errorf("ToLogical() = %v, want {100 50}", got)
	}
}

func TestZoomAtSelectionKeepsItStill(t *testing.T) {
	c := newCanvas()
	obj, _ := c.Create(object.TypeCircle)
	vp := viewport.New(c, c.Logical())
	vp.FitToWidth(800)

	before := *c.SelectionCenter()
	vp.SetZoomAtPoint(2, viewport.FocalPoint(c.SelectionCenter(), c.Dimensions()))
	after := c.Transform().ToScreen(obj.Common().CenterPoint())
	if after != before {
		t.Errorf("selection center moved from %v to %v", before, after)
	}
	if d := c.Dimensions(); d.Width != 800 {
		t.Errorf("display width changed to %v", d.Width)
	}
}

func TestSetAndGetOnSelection(t *testing.T) {
	c := newCanvas()
	text, _ := c.Create(object.TypeText)
	rect, _ := c.Create(object.TypeRect)
	c.SetActive(text, rect)

	c.Set("fill", "#123456")
	c.Set("fontSize", 40.0)
	if text.Common().Fill != "#123456" || rect.Common().Fill != "#123456" {
		t.Error("fill not applied to every active object")
	}
	if v, ok := c.Get("fontSize"); !ok || v != 40.0 {
		t.Errorf("Get(fontSize) = %v, %v", v, ok)
	}
	if _, ok := c.Get("radius"); ok {
		t.Error("Get(radius) found a value on a rect and text")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newCanvas(WithBackground("#ffffff"))
	rect, _ := c.Create(object.TypeRect)
	p, err := c.LoadImage(ctx, "photo.png", map[string]any{"Invert": true, "Grayscale": true})
	if err != nil {
		t.Fatal(err)
	}
	p.SetFilter("Grayscale", true)
	c.Create(object.TypeText)

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	back := newCanvas()
	if err := back.Load(ctx, raw); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	objs := back.Objects()
	if len(objs) != 3 {
		t.Fatalf("loaded %d objects, want 3", len(objs))
	}
	wantTypes := []string{object.TypeRect, object.TypeImage, object.TypeText}
	for i, obj := range objs {
		if obj.Type() != wantTypes[i] {
			t.Errorf("object %d type = %s, want %s", i, obj.Type(), wantTypes[i])
		}
	}
	if objs[0].Common().Bounds() != rect.Common().Bounds() {
		t.Errorf("rect bounds = %v, want %v", objs[0].Common().Bounds(), rect.Common().Bounds())
	}
	lp := objs[1].(*picture.Picture)
	if !reflect.DeepEqual(lp.Filters(), p.Filters()) {
		t.Errorf("picture filters = %v, want %v", types(lp.Filters()), types(p.Filters()))
	}
	if lp.Detached() {
		t.Error("loaded picture is detached")
	}
}

func TestLoadFailureLeavesCanvasUnchanged(t *testing.T) {
	ctx := context.Background()
	c := newCanvas()
	c.Create(object.TypeRect)

	raw := []byte(`{"version":"1","objects":[{"type":"circle","radius":5},{"type":"fImage","src":"missing"}]}`)
	if err := c.Load(ctx, raw); !errors.Is(err, errMissing) {
		t.Fatalf("Load() error = %v, want errMissing", err)
	}
	if got := c.Objects(); len(got) != 1 || got[0].Type() != object.TypeRect {
		t.Errorf("canvas changed after failed load: %v", got)
	}

	if err := c.Load(ctx, []byte(`{"objects":[{"type":"hexagon"}]}`)); !errors.Is(err, object.ErrUnknownType) {
		t.Errorf("Load() error = %v, want ErrUnknownType", err)
	}
}

func types(in []*filters.Instance) []string {
	var out []string
	for _, f := range in {
		out = append(out, f.Type)
	}
	return out
}
