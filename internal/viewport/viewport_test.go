package viewport

import (
	"math"
	"testing"

	"github.com/imamik/funcanvas/internal/object"
)

type fakeTarget struct {
	width, height float64
	zoom          float64
	focal         object.Point
	offsets       int
	renders       int
}

func (f *fakeTarget) SetDimensions(w, h float64) { f.width, f.height = w, h }
func (f *fakeTarget) SetZoom(z float64)          { f.zoom = z }
func (f *fakeTarget) ZoomToPoint(p object.Point, z float64) {
	f.focal, f.zoom = p, z
}
func (f *fakeTarget) CalcOffset()    { f.offsets++ }
func (f *fakeTarget) RequestRender() { f.renders++ }

var fullSize = object.Size{Width: 1600, Height: 1200}

func TestZoomIdempotence(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, fullSize)

	c.FitToWidth(800)
	if c.Baseline() != 0.5 {
		t.Fatalf("Baseline() = %v, want 0.5", c.Baseline())
	}
	c.SetZoom(1.0)
	if c.Effective() != c.Baseline() {
		t.Errorf("Effective() = %v, want baseline %v", c.Effective(), c.Baseline())
	}

	c.SetZoom(1.7)
	first := c.Effective()
	for i := 0; i < 5; i++ {
		c.FitToWidth(800)
	}
	if c.Effective() != first {
		t.Errorf("repeated FitToWidth drifted: %v != %v", c.Effective(), first)
	}
	if c.Requested() != 1.7 {
		t.Errorf("FitToWidth reset requested level to %v", c.Requested())
	}
}

func TestFitToWidthKeepsRequestedLevel(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, fullSize)
	c.SetZoom(2)

	tests := []struct {
		container float64
		baseline  float64
	}{
		{3200, 1},
		{1600, 1},
		{400, 0.25},
		{0, 0.25},
		{math.NaN(), 0.25},
	}
	for _, tt := range tests {
		c.FitToWidth(tt.container)
		if c.Baseline() != tt.baseline {
			t.Errorf("FitToWidth(%v) baseline = %v, want %v", tt.container, c.Baseline(), tt.baseline)
		}
		if want := tt.baseline * 2; c.Effective() != want {
			t.Errorf("FitToWidth(%v) effective = %v, want %v", tt.container, c.Effective(), want)
		}
	}
}

func TestSetZoomAppliesDimensionsAndScale(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, fullSize)
	c.FitToWidth(800)
	c.SetZoom(1.5)

	if target.zoom != 0.75 {
		t.Errorf("target zoom = %v, want 0.75", target.zoom)
	}
	if target.width != 1200 || target.height != 900 {
		t.Errorf("target dimensions = %vx%v, want 1200x900", target.width, target.height)
	}
	if target.offsets == 0 || target.renders == 0 {
		t.Error("offsets not recalculated or render not requested")
	}
	if d := c.Display(); d.Width != 1200 || d.Height != 900 {
		t.Errorf("Display() = %v", d)
	}
}

func TestZoomFloor(t *testing.T) {
	tests := []struct {
		level    float64
		accepted bool
		want     float64
	}{
		{0, false, 1},
		{-1, false, 1},
		{math.NaN(), false, 1},
		{math.Inf(1), false, 1},
		{0.01, true, MinLevel},
		{0.5, true, 0.5},
	}
	for _, tt := range tests {
		c := New(&fakeTarget{}, fullSize)
		if got := c.SetZoom(tt.level); got != tt.accepted {
			t.Errorf("SetZoom(%v) = %v, want %v", tt.level, got, tt.accepted)
		}
		if c.Requested() != tt.want {
			t.Errorf("SetZoom(%v) requested = %v, want %v", tt.level, c.Requested(), tt.want)
		}
		if c.Effective() <= 0 {
			t.Errorf("SetZoom(%v) effective = %v", tt.level, c.Effective())
		}
	}
}

func TestSetZoomAtPointKeepsDimensions(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, fullSize)
	c.FitToWidth(800)
	c.SetZoom(1)
	w, h := target.width, target.height

	focal := FocalPoint(nil, c.Display())
	if focal != (object.Point{X: 400, Y: 300}) {
		t.Errorf("FocalPoint(nil) = %v, want display center", focal)
	}
	if !c.SetZoomAtPoint(2, focal) {
		t.Fatal("SetZoomAtPoint() rejected a valid level")
	}
	if target.width != w || target.height != h {
		t.Errorf("dimensions changed to %vx%v", target.width, target.height)
	}
	if target.zoom != 1 || target.focal != focal {
		t.Errorf("ZoomToPoint got zoom=%v focal=%v", target.zoom, target.focal)
	}
	if c.SetZoomAtPoint(-2, focal) {
		t.Error("SetZoomAtPoint() accepted a negative level")
	}

	sel := object.Point{X: 10, Y: 20}
	if got := FocalPoint(&sel, c.Display()); got != sel {
		t.Errorf("FocalPoint(selection) = %v", got)
	}
}

func TestStateRestore(t *testing.T) {
	target := &fakeTarget{}
	c := New(target, fullSize)
	c.FitToWidth(800)
	c.SetZoom(3)
	saved := c.State()

	c.Apply(1)
	if c.Effective() != 1 {
		t.Fatalf("Apply(1) effective = %v", c.Effective())
	}
	c.Restore(saved)
	if c.State() != saved {
		t.Errorf("State() = %+v, want %+v", c.State(), saved)
	}
}

func TestTransformZoomedAtKeepsPoint(t *testing.T) {
	tr := Transform{Zoom: 0.5, Pan: object.Point{X: 30, Y: -10}}
	p := object.Point{X: 200, Y: 150}
	before := tr.ToLogical(p)

	next := tr.ZoomedAt(p, 2)
	if next.Zoom != 2 {
		t.Fatalf("Zoom = %v, want 2", next.Zoom)
	}
	if got := next.ToScreen(before); math.Abs(got.X-p.X) > 1e-9 || math.Abs(got.Y-p.Y) > 1e-9 {
		t.Errorf("focal point moved to %v, want %v", got, p)
	}
	if got := next.ToLogical(next.ToScreen(before)); math.Abs(got.X-before.X) > 1e-9 {
		t.Errorf("round trip = %v, want %v", got, before)
	}
}
