package scene

import (
	"context"
	"fmt"
	"slices"

	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/picture"
)

// Style holds the drawing properties given to newly created objects.
type Style struct {
	Fill        string  `yaml:"fill" json:"fill"`
	Stroke      string  `yaml:"stroke" json:"stroke"`
	StrokeWidth float64 `yaml:"stroke_width" json:"strokeWidth"`
	Opacity     float64 `yaml:"opacity" json:"opacity"`
	FontFamily  string  `yaml:"font_family" json:"fontFamily"`
	FontSize    float64 `yaml:"font_size" json:"fontSize"`
}

func DefaultStyle() Style {
	return Style{
		Fill:        "#00ff00",
		Stroke:      "#0000ff",
		StrokeWidth: 1,
		Opacity:     1,
		FontFamily:  "Arial",
		FontSize:    100,
	}
}

func (s Style) applyTo(obj object.Object) {
	obj.Set("fill", s.Fill)
	obj.Set("stroke", s.Stroke)
	obj.Set("strokeWidth", s.StrokeWidth)
	obj.Set("opacity", s.Opacity)
	obj.Set("fontFamily", s.FontFamily)
	obj.Set("fontSize", s.FontSize)
}

// Create builds a shape of the given type with the canvas style, places it in
// view and selects it.
func (c *Canvas) Create(typ string) (object.Object, error) {
	var obj object.Object
	switch typ {
	case object.TypeRect:
		obj = object.NewRect(300, 300)
	case object.TypeCircle:
		obj = object.NewCircle(150)
	case object.TypeText:
		obj = object.NewText("text")
	default:
		return nil, fmt.Errorf("%w: %q", object.ErrUnknownType, typ)
	}
	c.style.applyTo(obj)
	if err := c.Place(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// AddPath adds a free-drawn stroke through points, given in logical canvas
// coordinates, and selects it. The stroke uses the canvas style.
func (c *Canvas) AddPath(points []object.Point) (*object.Path, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPath
	}
	path := object.NewPath(points)
	c.style.applyTo(path)
	if err := c.Add(path); err != nil {
		return nil, err
	}
	c.SetActive(path)
	return path, nil
}

// LoadImage decodes src with the filters requested in bag, then places it.
// A failed load leaves the canvas unchanged.
func (c *Canvas) LoadImage(ctx context.Context, src string, bag map[string]any) (*picture.Picture, error) {
	p := picture.New(ctx, c.decoder, c.reg, picture.Options{
		Src:     src,
		Filters: c.reg.CollectRequested(bag),
		MaxSize: c.maxImage,
		Logger:  c.logger,
	})
	if err := p.Wait(ctx); err != nil {
		p.Detach()
		c.Fire(object.EventImageError, object.Event{Target: p, Err: err})
		return nil, err
	}
	c.style.applyTo(p)
	if err := c.Place(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Set applies a property to every active object.
func (c *Canvas) Set(property string, value any) {
	if value == nil || len(c.active) == 0 {
		return
	}
	for i := len(c.active) - 1; i >= 0; i-- {
		obj := c.active[i]
		obj.Set(property, value)
		obj.Common().SetCoords()
	}
	c.RequestRender()
}

// Get returns the property of the first active object that has it.
func (c *Canvas) Get(property string) (any, bool) {
	for _, obj := range c.active {
		if v, ok := obj.Get(property); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

type filterable interface {
	SetFilter(typ string, on bool)
	SetFilterProperty(typ, property string, value any)
	FilterProperty(typ, property string) (any, bool)
	IsFilterOn(typ string) bool
}

// each calls fn on the active objects that take filters, last selected first,
// and stops early when fn returns true.
func (c *Canvas) each(fn func(filterable) bool) {
	for i := len(c.active) - 1; i >= 0; i-- {
		if f, ok := c.active[i].(filterable); ok && fn(f) {
			return
		}
	}
}

// SetFilter toggles a filter on the active pictures.
func (c *Canvas) SetFilter(typ string, on bool) {
	c.each(func(f filterable) bool {
		f.SetFilter(typ, on)
		return false
	})
}

// SetFilterProperty edits a filter parameter on the active pictures and in
// the defaults used for new filters.
func (c *Canvas) SetFilterProperty(typ, property string, value any) {
	c.reg.SetDefault(typ, property, value)
	c.each(func(f filterable) bool {
		f.SetFilterProperty(typ, property, value)
		return false
	})
}

// FilterProperty reads a filter parameter from the active pictures, falling
// back to the registry default.
func (c *Canvas) FilterProperty(typ, property string) (any, bool) {
	var v any
	var found bool
	c.each(func(f filterable) bool {
		v, found = f.FilterProperty(typ, property)
		return found
	})
	if found {
		return v, true
	}
	d, err := c.reg.Defaults(typ)
	if err != nil {
		return nil, false
	}
	v, found = d[property]
	return v, found
}

// IsFilterOn reports whether an active picture has the filter on.
func (c *Canvas) IsFilterOn(typ string) bool {
	on := false
	c.each(func(f filterable) bool {
		on = f.IsFilterOn(typ)
		return true
	})
	return on
}

// BringToFront moves the active objects to the top, keeping their order.
func (c *Canvas) BringToFront() {
	for _, obj := range c.activeInStackOrder() {
		c.moveTo(obj, len(c.objects)-1)
	}
}

// SendToBack moves the active objects to the bottom, keeping their order.
func (c *Canvas) SendToBack() {
	sel := c.activeInStackOrder()
	for i := len(sel) - 1; i >= 0; i-- {
		c.moveTo(sel[i], 0)
	}
}

// BringForward moves each active object one step up, past the next
// unselected object.
func (c *Canvas) BringForward() {
	sel := c.activeInStackOrder()
	for i := len(sel) - 1; i >= 0; i-- {
		idx := slices.Index(c.objects, sel[i])
		if idx < len(c.objects)-1 && !slices.Contains(c.active, c.objects[idx+1]) {
			c.moveTo(sel[i], idx+1)
		}
	}
}

// SendBackwards moves each active object one step down.
func (c *Canvas) SendBackwards() {
	for _, obj := range c.activeInStackOrder() {
		idx := slices.Index(c.objects, obj)
		if idx > 0 && !slices.Contains(c.active, c.objects[idx-1]) {
			c.moveTo(obj, idx-1)
		}
	}
}

func (c *Canvas) activeInStackOrder() []object.Object {
	var out []object.Object
	for _, obj := range c.objects {
		if slices.Contains(c.active, obj) {
			out = append(out, obj)
		}
	}
	return out
}

func (c *Canvas) moveTo(obj object.Object, to int) {
	from := slices.Index(c.objects, obj)
	if from < 0 || from == to {
		return
	}
	c.objects = slices.Delete(c.objects, from, from+1)
	c.objects = slices.Insert(c.objects, to, obj)
	c.RequestRender()
}
