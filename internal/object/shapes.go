package object

import (
	"encoding/json"
	"math"

	"github.com/fogleman/gg"
)

// Type tags written to scene documents.
const (
	TypeRect      = "rect"
	TypeCircle    = "circle"
	TypeText      = "fText"
	TypePath      = "path"
	TypeWatermark = "fWatermark"
	TypeImage     = "fImage"
)

type Rect struct {
	Base
	Rx float64 `json:"rx,omitempty"`
	Ry float64 `json:"ry,omitempty"`
}

func NewRect(width, height float64) *Rect {
	r := &Rect{Base: NewBase()}
	r.Width, r.Height = width, height
	return r
}

func (r *Rect) Type() string { return TypeRect }

func (r *Rect) Draw(dc *gg.Context) {
	r.transform(dc)
	defer dc.Pop()
	if r.Rx > 0 || r.Ry > 0 {
		dc.DrawRoundedRectangle(0, 0, r.Width, r.Height, math.Max(r.Rx, r.Ry))
	} else {
		dc.DrawRectangle(0, 0, r.Width, r.Height)
	}
	r.paint(dc)
}

func (r *Rect) Set(property string, value any) bool {
	switch property {
	case "rx", "ry":
		f, ok := toFloat(value)
		if !ok {
			return false
		}
		if property == "rx" {
			r.Rx = f
		} else {
			r.Ry = f
		}
		return true
	}
	return r.Base.Set(property, value)
}

func (r *Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeRect, (*plain)(r)})
}

type Circle struct {
	Base
	Radius float64 `json:"radius"`
}

func NewCircle(radius float64) *Circle {
	c := &Circle{Base: NewBase()}
	c.setRadius(radius)
	return c
}

func (c *Circle) setRadius(radius float64) {
	c.Radius = math.Max(0, radius)
	c.Width, c.Height = 2*c.Radius, 2*c.Radius
}

func (c *Circle) Type() string { return TypeCircle }

func (c *Circle) Draw(dc *gg.Context) {
	c.transform(dc)
	defer dc.Pop()
	dc.DrawCircle(c.Radius, c.Radius, c.Radius)
	c.paint(dc)
}

func (c *Circle) Set(property string, value any) bool {
	if property == "radius" {
		f, ok := toFloat(value)
		if !ok {
			return false
		}
		c.setRadius(f)
		return true
	}
	return c.Base.Set(property, value)
}

func (c *Circle) Get(property string) (any, bool) {
	if property == "radius" {
		return c.Radius, true
	}
	return c.Base.Get(property)
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeCircle, (*plain)(c)})
}

// Path is a free-drawn stroke. Points are relative to Left/Top.
type Path struct {
	Base
	Points []Point `json:"path"`
}

// NewPath builds a path from points in logical canvas coordinates.
func NewPath(points []Point) *Path {
	p := &Path{Base: NewBase()}
	if len(points) == 0 {
		return p
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range points[1:] {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	p.Left, p.Top = minX, minY
	p.Width, p.Height = maxX-minX, maxY-minY
	p.Points = make([]Point, len(points))
	for i, pt := range points {
		p.Points[i] = Point{X: pt.X - minX, Y: pt.Y - minY}
	}
	return p
}

func (p *Path) Type() string { return TypePath }

func (p *Path) Draw(dc *gg.Context) {
	if len(p.Points) == 0 {
		return
	}
	p.transform(dc)
	defer dc.Pop()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.MoveTo(p.Points[0].X, p.Points[0].Y)
	for _, pt := range p.Points[1:] {
		dc.LineTo(pt.X, pt.Y)
	}
	if len(p.Points) == 1 {
		dc.LineTo(p.Points[0].X, p.Points[0].Y)
	}
	stroke, ok := p.color(p.Stroke)
	if !ok || p.StrokeWidth <= 0 {
		dc.ClearPath()
		return
	}
	dc.SetColor(stroke)
	dc.SetLineWidth(p.StrokeWidth)
	dc.Stroke()
}

func (p *Path) MarshalJSON() ([]byte, error) {
	type plain Path
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypePath, (*plain)(p)})
}
