package scene

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/picture"
	"github.com/imamik/funcanvas/internal/registry"
	"github.com/imamik/funcanvas/internal/viewport"
)

// Logical canvas size used when none is configured.
const (
	DefaultWidth  = 1600
	DefaultHeight = 1200
)

var ErrNotLoaded = errors.New("image is not loaded")

var ErrEmptyPath = errors.New("path has no points")

type Option func(*Canvas)

func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSize sets the logical canvas size.
func WithSize(s object.Size) Option {
	return func(c *Canvas) {
		if s.Width > 0 && s.Height > 0 {
			c.logical = s
		}
	}
}

// WithMaxImageSize bounds the size of loaded pictures. It defaults to the
// logical canvas size.
func WithMaxImageSize(s object.Size) Option {
	return func(c *Canvas) {
		if s.Width > 0 && s.Height > 0 {
			c.maxImage = s
		}
	}
}

func WithDecoder(d picture.Decoder) Option {
	return func(c *Canvas) {
		if d != nil {
			c.decoder = d
		}
	}
}

// WithBackground fills the canvas with a color before objects are drawn.
func WithBackground(hex string) Option {
	return func(c *Canvas) { c.background = hex }
}

func WithStyle(s Style) Option {
	return func(c *Canvas) { c.style = s }
}

// Canvas is an editable scene: a fixed logical area holding objects in
// z-order, an active selection, and the transform that maps it to a display
// box. It is driven from one goroutine; only Fire may be called from others.
type Canvas struct {
	object.Bus

	reg        *registry.Registry
	decoder    picture.Decoder
	logger     *slog.Logger
	logical    object.Size
	maxImage   object.Size
	background string
	style      Style

	objects   []object.Object
	active    []object.Object
	display   object.Size
	transform viewport.Transform
	inverse   viewport.Transform

	renders atomic.Int64
}

func New(reg *registry.Registry, opts ...Option) *Canvas {
	c := &Canvas{
		reg:     reg,
		decoder: picture.FileDecoder{},
		logger:  slog.New(slog.DiscardHandler),
		logical: object.Size{Width: DefaultWidth, Height: DefaultHeight},
		style:   DefaultStyle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxImage == (object.Size{}) {
		c.maxImage = c.logical
	}
	c.display = c.logical
	c.transform = viewport.Transform{Zoom: 1}
	c.inverse = c.transform
	c.On(object.EventObjectChanged, func(object.Event) { c.RequestRender() })
	return c
}

func (c *Canvas) Registry() *registry.Registry { return c.reg }

func (c *Canvas) Logical() object.Size { return c.logical }

func (c *Canvas) Style() Style { return c.style }

func (c *Canvas) SetStyle(s Style) { c.style = s }

// SetDimensions resizes the display box.
func (c *Canvas) SetDimensions(width, height float64) {
	c.display = object.Size{Width: width, Height: height}
}

func (c *Canvas) Dimensions() object.Size { return c.display }

func (c *Canvas) SetZoom(zoom float64) {
	c.ZoomToPoint(object.Point{}, zoom)
}

func (c *Canvas) ZoomToPoint(p object.Point, zoom float64) {
	c.transform = c.transform.ZoomedAt(p, zoom)
}

func (c *Canvas) Zoom() float64 { return c.transform.Zoom }

func (c *Canvas) Transform() viewport.Transform { return c.transform }

func (c *Canvas) SetTransform(t viewport.Transform) {
	if t.Zoom > 0 {
		c.transform = t
	}
}

// CalcOffset refreshes the mapping used by ToLogical.
func (c *Canvas) CalcOffset() {
	c.inverse = c.transform
}

// ToLogical maps a pointer position in the display box to logical units as of
// the last CalcOffset.
func (c *Canvas) ToLogical(p object.Point) object.Point {
	return c.inverse.ToLogical(p)
}

// RequestRender marks the canvas as needing a repaint.
func (c *Canvas) RequestRender() {
	c.renders.Add(1)
}

// Dirty reports whether a render was requested since the last Render.
func (c *Canvas) Dirty() bool {
	return c.renders.Load() > 0
}

// Render paints the scene into a raster the size of the display box, at the
// current transform, with selection chrome on the active objects.
func (c *Canvas) Render() *image.NRGBA {
	c.renders.Store(0)
	w := max(1, int(math.Round(c.display.Width)))
	h := max(1, int(math.Round(c.display.Height)))
	dc := gg.NewContext(w, h)
	if c.background != "" {
		if bg, err := filters.ParseColor(c.background); err == nil {
			dc.SetColor(bg)
			dc.Clear()
		}
	}

	dc.Push()
	dc.Translate(c.transform.Pan.X, c.transform.Pan.Y)
	dc.Scale(c.transform.Zoom, c.transform.Zoom)
	for _, obj := range c.objects {
		obj.Draw(dc)
	}
	for _, obj := range c.active {
		obj.Common().DrawDecorations(dc, c.transform.Zoom)
	}
	dc.Pop()
	return imaging.Clone(dc.Image())
}

// Add appends objects on top of the stack. Pictures must be loaded.
func (c *Canvas) Add(objs ...object.Object) error {
	for _, obj := range objs {
		if p, ok := obj.(*picture.Picture); ok && p.State() != picture.Loaded {
			return ErrNotLoaded
		}
	}
	for _, obj := range objs {
		if p, ok := obj.(*picture.Picture); ok {
			p.SetSurface(c)
		}
		obj.Common().SetCoords()
		c.objects = append(c.objects, obj)
		c.Fire(object.EventObjectAdded, object.Event{Target: obj})
	}
	c.RequestRender()
	return nil
}

// Place adds obj centered in the visible part of the canvas and selects it.
func (c *Canvas) Place(obj object.Object) error {
	if err := c.Add(obj); err != nil {
		return err
	}
	b := obj.Common()
	b.CenterOn(c.transform.ToLogical(object.Point{X: c.display.Width / 2, Y: c.display.Height / 2}))
	b.SetCoords()
	c.SetActive(obj)
	return nil
}

// Remove takes objects off the canvas. Removed pictures are detached.
func (c *Canvas) Remove(objs ...object.Object) {
	for _, obj := range objs {
		i := slices.Index(c.objects, obj)
		if i < 0 {
			continue
		}
		c.objects = slices.Delete(c.objects, i, i+1)
		if j := slices.Index(c.active, obj); j >= 0 {
			c.active = slices.Delete(c.active, j, j+1)
		}
		if p, ok := obj.(*picture.Picture); ok {
			p.Detach()
		}
		c.Fire(object.EventObjectRemoved, object.Event{Target: obj})
	}
	c.RequestRender()
}

// RemoveActive deselects and removes the active objects.
func (c *Canvas) RemoveActive() {
	active := c.Active()
	c.Discard()
	c.Remove(active...)
}

// Clear removes every object.
func (c *Canvas) Clear() {
	c.Discard()
	c.Remove(c.Objects()...)
}

func (c *Canvas) Objects() []object.Object {
	return slices.Clone(c.objects)
}

// SetActive replaces the selection with the given objects that are on the canvas.
func (c *Canvas) SetActive(objs ...object.Object) {
	var active []object.Object
	for _, obj := range objs {
		if slices.Contains(c.objects, obj) && !slices.Contains(active, obj) {
			active = append(active, obj)
		}
	}
	c.active = active
	c.Fire(object.EventSelection, object.Event{})
	c.RequestRender()
}

func (c *Canvas) Active() []object.Object {
	return slices.Clone(c.active)
}

// Discard clears the selection.
func (c *Canvas) Discard() {
	if len(c.active) == 0 {
		return
	}
	c.active = nil
	c.Fire(object.EventSelection, object.Event{})
	c.RequestRender()
}

// SelectionCenter returns the center of the selection in display coordinates.
func (c *Canvas) SelectionCenter() *object.Point {
	if len(c.active) == 0 {
		return nil
	}
	r := c.active[0].Common().Bounds()
	minX, minY := r.Left, r.Top
	maxX, maxY := r.Left+r.Width, r.Top+r.Height
	for _, obj := range c.active[1:] {
		r := obj.Common().Bounds()
		minX, minY = math.Min(minX, r.Left), math.Min(minY, r.Top)
		maxX, maxY = math.Max(maxX, r.Left+r.Width), math.Max(maxY, r.Top+r.Height)
	}
	p := c.transform.ToScreen(object.Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2})
	return &p
}

// ObjectAt returns the topmost object whose hit-test box contains the
// logical point p.
func (c *Canvas) ObjectAt(p object.Point) object.Object {
	for i := len(c.objects) - 1; i >= 0; i-- {
		if c.objects[i].Common().ContainsPoint(p) {
			return c.objects[i]
		}
	}
	return nil
}
