package viewport

import (
	"math"

	"github.com/imamik/funcanvas/internal/object"
)

// Zoom control range. Levels are relative to the baseline, so 1 is "100%".
const (
	MinLevel  = 0.1
	MaxLevel  = 4.0
	LevelStep = 0.1
)

// Transform is the internal scale and pan of a surface. A logical point p is
// drawn at p*Zoom + Pan on screen.
type Transform struct {
	Zoom float64
	Pan  object.Point
}

// ToScreen maps a logical point to the display box.
func (t Transform) ToScreen(p object.Point) object.Point {
	return object.Point{X: p.X*t.Zoom + t.Pan.X, Y: p.Y*t.Zoom + t.Pan.Y}
}

// ToLogical maps a display point back to logical units.
func (t Transform) ToLogical(p object.Point) object.Point {
	if t.Zoom == 0 {
		return p
	}
	return object.Point{X: (p.X - t.Pan.X) / t.Zoom, Y: (p.Y - t.Pan.Y) / t.Zoom}
}

// ZoomedAt returns the transform with the given zoom that keeps the screen
// point p fixed.
func (t Transform) ZoomedAt(p object.Point, zoom float64) Transform {
	l := t.ToLogical(p)
	return Transform{Zoom: zoom, Pan: object.Point{X: p.X - l.X*zoom, Y: p.Y - l.Y*zoom}}
}

// Target is the drawing surface the controller drives.
type Target interface {
	// SetDimensions resizes the on-screen display box.
	SetDimensions(width, height float64)
	// SetZoom sets the internal scale, keeping the screen origin fixed.
	SetZoom(zoom float64)
	// ZoomToPoint sets the internal scale, keeping the screen point p fixed.
	ZoomToPoint(p object.Point, zoom float64)
	// CalcOffset refreshes pointer-to-logical mapping after a change.
	CalcOffset()
	RequestRender()
}

// Controller maps a fixed logical canvas onto a display box whose width
// follows a responsive container.
type Controller struct {
	target  Target
	logical object.Size

	baseline  float64
	requested float64
	effective float64
}

func New(target Target, logical object.Size) *Controller {
	return &Controller{
		target:    target,
		logical:   logical,
		baseline:  1,
		requested: 1,
		effective: 1,
	}
}

func (c *Controller) Logical() object.Size { return c.logical }

// Baseline is the zoom at which the logical width fills the container, at most 1.
func (c *Controller) Baseline() float64 { return c.baseline }

// Requested is the last accepted zoom control value.
func (c *Controller) Requested() float64 { return c.requested }

// Effective is the scale actually applied to the canvas.
func (c *Controller) Effective() float64 { return c.effective }

// Display is the size of the display box at the effective zoom.
func (c *Controller) Display() object.Size {
	return object.Size{Width: c.logical.Width * c.effective, Height: c.logical.Height * c.effective}
}

// State is the controller bookkeeping, saved and restored around exports.
type State struct {
	Baseline, Requested, Effective float64
}

func (c *Controller) State() State {
	return State{Baseline: c.baseline, Requested: c.requested, Effective: c.effective}
}

// Restore puts back saved bookkeeping without touching the target.
func (c *Controller) Restore(s State) {
	c.baseline, c.requested, c.effective = s.Baseline, s.Requested, s.Effective
}

// FitToWidth recomputes the baseline for a container of the given width and
// reapplies the previously requested level. Non-positive widths are ignored.
func (c *Controller) FitToWidth(containerWidth float64) {
	if !(containerWidth > 0) || c.logical.Width <= 0 {
		return
	}
	c.baseline = math.Min(1, containerWidth/c.logical.Width)
	c.SetZoom(c.requested)
}

// SetZoom applies level relative to the baseline, resizing the display box
// together with the internal scale. It reports whether level was accepted.
func (c *Controller) SetZoom(level float64) bool {
	level, ok := normalize(level)
	if !ok {
		return false
	}
	c.requested = level
	c.Apply(c.baseline * level)
	return true
}

// SetZoomAtPoint changes only the internal scale and pan so that focal, in
// screen coordinates, stays where it is. The display box keeps its size.
func (c *Controller) SetZoomAtPoint(level float64, focal object.Point) bool {
	level, ok := normalize(level)
	if !ok {
		return false
	}
	c.requested = level
	c.effective = c.baseline * level
	c.target.ZoomToPoint(focal, c.effective)
	c.target.CalcOffset()
	c.target.RequestRender()
	return true
}

// Apply sets an absolute zoom, not adjusted for the baseline.
func (c *Controller) Apply(zoom float64) {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return
	}
	c.effective = zoom
	c.target.SetDimensions(c.logical.Width*zoom, c.logical.Height*zoom)
	c.target.SetZoom(zoom)
	c.target.CalcOffset()
	c.target.RequestRender()
}

// normalize rejects levels that would make the zoom non-positive and lifts
// the rest to the floor.
func normalize(level float64) (float64, bool) {
	if math.IsNaN(level) || math.IsInf(level, 0) || level <= 0 {
		return 0, false
	}
	return math.Max(level, MinLevel), true
}

// FocalPoint is the screen point to keep still while zooming: the selection
// center when there is one, else the center of the display box.
func FocalPoint(selection *object.Point, display object.Size) object.Point {
	if selection != nil {
		return *selection
	}
	return object.Point{X: display.Width / 2, Y: display.Height / 2}
}
