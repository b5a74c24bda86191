package object

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/imamik/funcanvas/internal/filters"
)

// Object is a placeable item on the canvas.
type Object interface {
	Type() string
	Common() *Base
	Draw(dc *gg.Context)
	Set(property string, value any) bool
	Get(property string) (any, bool)
}

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

// Box is an axis-aligned box in logical canvas units.
type Box struct {
	Left, Top, Width, Height float64
}

func (r Box) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

func (r Box) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width && p.Y >= r.Top && p.Y <= r.Top+r.Height
}

const (
	handleSize  = 13.0
	borderColor = "#66a3ff"
)

// Base carries the placement, paint and selection state shared by every object.
type Base struct {
	Bus `json:"-"`

	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Opacity     float64 `json:"opacity"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth"`

	HasControls bool `json:"-"`
	HasBorders  bool `json:"-"`

	coords Box
}

// NewBase returns a unit-scale, opaque base with decorations enabled.
func NewBase() Base {
	return Base{ScaleX: 1, ScaleY: 1, Opacity: 1, HasControls: true, HasBorders: true}
}

func (b *Base) Common() *Base { return b }

// Assign copies placement and paint from o. Listeners are left alone.
func (b *Base) Assign(o *Base) {
	b.Left, b.Top = o.Left, o.Top
	b.Width, b.Height = o.Width, o.Height
	b.ScaleX, b.ScaleY = o.ScaleX, o.ScaleY
	b.Opacity = o.Opacity
	b.Fill, b.Stroke, b.StrokeWidth = o.Fill, o.Stroke, o.StrokeWidth
	b.HasControls, b.HasBorders = o.HasControls, o.HasBorders
	b.coords = o.coords
}

// Bounds is the scaled extent of the object in logical units.
func (b *Base) Bounds() Box {
	return Box{Left: b.Left, Top: b.Top, Width: b.Width * b.ScaleX, Height: b.Height * b.ScaleY}
}

func (b *Base) CenterPoint() Point {
	return b.Bounds().Center()
}

// SetCoords refreshes the hit-test box. It must be called after any change to
// placement made outside of pointer interaction.
func (b *Base) SetCoords() {
	b.coords = b.Bounds()
}

func (b *Base) Coords() Box {
	return b.coords
}

// ContainsPoint hit-tests p against the last computed coordinates.
func (b *Base) ContainsPoint(p Point) bool {
	return b.coords.Contains(p)
}

// CenterOn places the object so its center lies on p.
func (b *Base) CenterOn(p Point) {
	r := b.Bounds()
	b.Left = p.X - r.Width/2
	b.Top = p.Y - r.Height/2
}

func (b *Base) SetDecorations(controls, borders bool) {
	b.HasControls = controls
	b.HasBorders = borders
}

func (b *Base) Decorations() (controls, borders bool) {
	return b.HasControls, b.HasBorders
}

// Set applies a shared property and reports whether it was recognized.
func (b *Base) Set(property string, value any) bool {
	switch property {
	case "left", "top", "scaleX", "scaleY", "opacity", "strokeWidth", "width", "height":
		f, ok := toFloat(value)
		if !ok {
			return false
		}
		switch property {
		case "left":
			b.Left = f
		case "top":
			b.Top = f
		case "scaleX":
			b.ScaleX = f
		case "scaleY":
			b.ScaleY = f
		case "opacity":
			b.Opacity = math.Max(0, math.Min(1, f))
		case "strokeWidth":
			b.StrokeWidth = math.Max(0, f)
		case "width":
			b.Width = f
		case "height":
			b.Height = f
		}
		return true
	case "fill", "stroke":
		s, ok := value.(string)
		if !ok {
			return false
		}
		if property == "fill" {
			b.Fill = s
		} else {
			b.Stroke = s
		}
		return true
	}
	return false
}

func (b *Base) Get(property string) (any, bool) {
	switch property {
	case "left":
		return b.Left, true
	case "top":
		return b.Top, true
	case "width":
		return b.Width, true
	case "height":
		return b.Height, true
	case "scaleX":
		return b.ScaleX, true
	case "scaleY":
		return b.ScaleY, true
	case "opacity":
		return b.Opacity, true
	case "fill":
		return b.Fill, true
	case "stroke":
		return b.Stroke, true
	case "strokeWidth":
		return b.StrokeWidth, true
	}
	return nil, false
}

// transform moves dc into the object's local space. Callers pair it with dc.Pop.
func (b *Base) transform(dc *gg.Context) {
	dc.Push()
	dc.Translate(b.Left, b.Top)
	dc.Scale(b.ScaleX, b.ScaleY)
}

// paint fills and strokes the current path with the object's colors.
func (b *Base) paint(dc *gg.Context) {
	fill, hasFill := b.color(b.Fill)
	stroke, hasStroke := b.color(b.Stroke)
	hasStroke = hasStroke && b.StrokeWidth > 0
	if hasFill {
		dc.SetColor(fill)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		dc.SetColor(stroke)
		dc.SetLineWidth(b.StrokeWidth)
		dc.Stroke()
	}
	dc.ClearPath()
}

func (b *Base) color(hex string) (color.NRGBA, bool) {
	if hex == "" {
		return color.NRGBA{}, false
	}
	c, err := filters.ParseColor(hex)
	if err != nil {
		return color.NRGBA{}, false
	}
	c.A = uint8(math.Round(float64(c.A) * b.Opacity))
	return c, c.A > 0
}

// DrawDecorations strokes the selection border and resize handles. zoom keeps
// them a constant size on screen.
func (b *Base) DrawDecorations(dc *gg.Context, zoom float64) {
	if !b.HasBorders && !b.HasControls || zoom <= 0 {
		return
	}
	c, _ := filters.ParseColor(borderColor)
	r := b.Bounds()
	dc.Push()
	defer dc.Pop()
	dc.SetColor(c)
	dc.SetLineWidth(1 / zoom)
	if b.HasBorders {
		dc.DrawRectangle(r.Left, r.Top, r.Width, r.Height)
		dc.Stroke()
	}
	if b.HasControls {
		hs := handleSize / zoom
		for _, p := range handlePoints(r) {
			dc.DrawRectangle(p.X-hs/2, p.Y-hs/2, hs, hs)
		}
		dc.Fill()
	}
}

func handlePoints(r Box) []Point {
	cx, cy := r.Left+r.Width/2, r.Top+r.Height/2
	right, bottom := r.Left+r.Width, r.Top+r.Height
	return []Point{
		{r.Left, r.Top}, {cx, r.Top}, {right, r.Top}, {right, cy},
		{right, bottom}, {cx, bottom}, {r.Left, bottom}, {r.Left, cy},
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
