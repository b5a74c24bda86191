package picture

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"reflect"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/registry"
)

// KeyFilters is the change key fired when the filter stack is edited.
const KeyFilters = "filters"

type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Src          string
	Filters      []*filters.Instance
	ResizeFilter *filters.Instance
	// MaxSize bounds the displayed size. A zero dimension leaves that axis unbounded.
	MaxSize   object.Size
	Left, Top float64
	Surface   object.Surface
	Logger    *slog.Logger
}

// Picture is an image object with an ordered stack of filters and an optional
// resize filter used when it is drawn at a scale other than 1.
type Picture struct {
	object.Base

	reg     *registry.Registry
	logger  *slog.Logger
	src     string
	maxSize object.Size
	done    chan struct{}

	mu           sync.Mutex
	state        State
	err          error
	surface      object.Surface
	detached     bool
	original     *image.NRGBA
	composite    *image.NRGBA
	filters      []*filters.Instance
	resizeFilter *filters.Instance
}

// New starts decoding opts.Src in the background and returns the picture in
// the Loading state. Completion is reported through the load and error events
// and through Done.
func New(ctx context.Context, dec Decoder, reg *registry.Registry, opts Options) *Picture {
	p := newPicture(reg, opts)
	p.start(ctx, dec)
	return p
}

func newPicture(reg *registry.Registry, opts Options) *Picture {
	p := &Picture{
		Base:    object.NewBase(),
		reg:     reg,
		logger:  opts.Logger,
		src:     opts.Src,
		maxSize: opts.MaxSize,
		done:    make(chan struct{}),
		surface: opts.Surface,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.Left, p.Top = opts.Left, opts.Top
	for _, in := range opts.Filters {
		if in != nil {
			p.filters = append(p.filters, in.Clone())
		}
	}
	p.resizeFilter = opts.ResizeFilter.Clone()
	return p
}

func (p *Picture) start(ctx context.Context, dec Decoder) {
	go func() {
		img, err := dec.Decode(ctx, p.src)
		if err != nil {
			p.finish(&DecodeError{Src: p.src, Err: err})
			return
		}
		p.finish(p.setup(img))
	}()
}

func (p *Picture) setup(img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, in := range p.filters {
		if _, err := p.reg.Set().Build(in); err != nil {
			return &SetupError{Type: in.Type, Err: err}
		}
	}
	if p.resizeFilter != nil {
		if _, err := p.reg.Set().Build(p.resizeFilter); err != nil {
			return &SetupError{Type: p.resizeFilter.Type, Err: err}
		}
	}

	p.original = imaging.Clone(img)
	b := p.original.Bounds()
	p.Width, p.Height = float64(b.Dx()), float64(b.Dy())
	p.fitMaxSize()
	p.SetCoords()
	p.recompose()
	return nil
}

// fitMaxSize scales down, never up, keeping the aspect ratio.
func (p *Picture) fitMaxSize() {
	mw, mh := p.maxSize.Width, p.maxSize.Height
	if mw <= 0 && mh <= 0 {
		return
	}
	if mw <= 0 {
		mw = math.Inf(1)
	}
	if mh <= 0 {
		mh = math.Inf(1)
	}
	if p.Width > mw || p.Height > mh {
		s := math.Min(mw/p.Width, mh/p.Height)
		p.ScaleX, p.ScaleY = s, s
	}
}

func (p *Picture) finish(err error) {
	p.mu.Lock()
	if err != nil {
		p.state = Failed
		p.err = err
	} else {
		p.state = Loaded
	}
	surface := p.surface
	if p.detached {
		surface = nil
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("image load failed", "src", shorten(p.src), "err", err)
		p.Fire(object.EventError, object.Event{Target: p, Err: err})
		if surface != nil {
			surface.Fire(object.EventImageError, object.Event{Target: p, Err: err})
		}
	} else {
		p.logger.Debug("image loaded", "src", shorten(p.src), "width", p.Width, "height", p.Height)
		p.Fire(object.EventLoad, object.Event{Target: p})
		if surface != nil {
			surface.Fire(object.EventImageLoad, object.Event{Target: p})
		}
	}
	close(p.done)
}

func (p *Picture) Type() string { return object.TypeImage }

func (p *Picture) Src() string { return p.src }

// Done is closed once the picture is Loaded or Failed and its listeners have run.
func (p *Picture) Done() <-chan struct{} { return p.done }

// Wait blocks until loading finishes and returns the load error, if any.
func (p *Picture) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Picture) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Picture) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// SetSurface makes s the owner that receives the picture's surface events.
func (p *Picture) SetSurface(s object.Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface = s
	p.detached = false
}

// Detach drops the owning surface. A decode that completes afterwards records
// its state but never reaches a surface.
func (p *Picture) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface = nil
	p.detached = true
}

func (p *Picture) Detached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detached
}

// Image returns the composite raster, or nil while loading.
func (p *Picture) Image() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.composite
}

func (p *Picture) Original() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.original
}

// Filters returns a copy of the active filter stack in application order.
func (p *Picture) Filters() []*filters.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*filters.Instance, len(p.filters))
	for i, in := range p.filters {
		out[i] = in.Clone()
	}
	return out
}

func (p *Picture) ResizeFilter() *filters.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resizeFilter.Clone()
}

// SetResizeFilter replaces the resize slot. nil clears it.
func (p *Picture) SetResizeFilter(in *filters.Instance) {
	p.mu.Lock()
	p.resizeFilter = in.Clone()
	p.recompose()
	p.mu.Unlock()
	p.notifyChanged()
}

// Set applies a shared property. A scale change rebuilds the composite so
// the resize filter matches the new scale.
func (p *Picture) Set(property string, value any) bool {
	if property != "scaleX" && property != "scaleY" {
		return p.Base.Set(property, value)
	}
	p.mu.Lock()
	sx, sy := p.ScaleX, p.ScaleY
	if !p.Base.Set(property, value) {
		p.mu.Unlock()
		return false
	}
	changed := p.resizeFilter != nil && (p.ScaleX != sx || p.ScaleY != sy)
	if changed {
		p.recompose()
	}
	p.mu.Unlock()

	if changed {
		p.notify(property)
	}
	return true
}

// FindFilterIndex returns the position of typ in the stack, or -1.
func (p *Picture) FindFilterIndex(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.findFilterIndex(typ)
}

func (p *Picture) findFilterIndex(typ string) int {
	for i := len(p.filters) - 1; i >= 0; i-- {
		if p.filters[i].Type == typ {
			return i
		}
	}
	return -1
}

func (p *Picture) IsFilterOn(typ string) bool {
	return p.FindFilterIndex(typ) >= 0
}

// FilterProperty returns a parameter of the active filter of type typ.
func (p *Picture) FilterProperty(typ, property string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.findFilterIndex(typ)
	if i < 0 {
		return nil, false
	}
	v, ok := p.filters[i].Params[property]
	return v, ok
}

// SetFilter turns typ on or off. An existing instance is always removed first,
// so turning a filter on moves it to the end of the stack. A new instance is
// taken from the registry defaults. Unknown types are ignored.
func (p *Picture) SetFilter(typ string, on bool) {
	p.mu.Lock()
	index := p.findFilterIndex(typ)
	var in *filters.Instance
	if index >= 0 {
		in = p.filters[index]
		p.filters = append(p.filters[:index:index], p.filters[index+1:]...)
	}
	changed := !on && index >= 0
	if on {
		if in == nil {
			created, err := p.reg.Instantiate(typ)
			if err != nil {
				p.mu.Unlock()
				p.logger.Warn("ignoring filter", "type", typ, "err", err)
				return
			}
			in = created
		}
		p.filters = append(p.filters, in)
		changed = len(p.filters)-1 != index
	}
	if changed {
		p.recompose()
	}
	p.mu.Unlock()

	if changed {
		p.notifyChanged()
	}
}

// SetFilterProperty edits one parameter of the active filter of type typ in
// place. It does nothing if the filter is off or the value is unchanged.
func (p *Picture) SetFilterProperty(typ, property string, value any) {
	p.mu.Lock()
	i := p.findFilterIndex(typ)
	if i < 0 {
		p.mu.Unlock()
		return
	}
	in := p.filters[i]
	if old, ok := in.Params[property]; ok && reflect.DeepEqual(old, value) {
		p.mu.Unlock()
		return
	}
	if in.Params == nil {
		in.Params = filters.Params{}
	}
	in.Params[property] = value
	p.recompose()
	p.mu.Unlock()

	p.notifyChanged()
}

// recompose rebuilds the composite raster. Callers hold p.mu.
func (p *Picture) recompose() {
	if p.original == nil {
		return
	}
	set := p.reg.Set()
	fs := make([]filters.Filter, 0, len(p.filters)+1)
	for _, in := range p.filters {
		f, err := set.Build(in)
		if err != nil {
			p.logger.Warn("skipping filter", "type", in.Type, "err", err)
			continue
		}
		fs = append(fs, f)
	}
	if p.resizeFilter != nil && (p.ScaleX != 1 || p.ScaleY != 1) {
		in := p.resizeFilter.Clone()
		in.Params["scaleX"] = p.ScaleX
		in.Params["scaleY"] = p.ScaleY
		if f, err := set.Build(in); err == nil {
			fs = append(fs, f)
		} else {
			p.logger.Warn("skipping resize filter", "type", in.Type, "err", err)
		}
	}
	p.composite = filters.Chain(p.original, fs...)
}

func (p *Picture) notifyChanged() {
	p.notify(KeyFilters)
}

func (p *Picture) notify(key string) {
	p.mu.Lock()
	surface := p.surface
	p.mu.Unlock()

	ev := object.Event{Target: p, Key: key}
	p.Fire(object.EventChanged, ev)
	if surface != nil {
		surface.Fire(object.EventObjectChanged, ev)
	}
}

// Draw paints the composite raster into the picture's box.
func (p *Picture) Draw(dc *gg.Context) {
	img := p.Image()
	if img == nil || p.Opacity <= 0 {
		return
	}
	r := p.Bounds()
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	var src image.Image = img
	if p.Opacity < 1 {
		op := p.Opacity
		src = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.A = uint8(math.Round(float64(c.A) * op))
			return c
		})
	}
	dc.Push()
	defer dc.Pop()
	dc.Translate(r.Left, r.Top)
	dc.Scale(r.Width/float64(b.Dx()), r.Height/float64(b.Dy()))
	dc.DrawImage(src, 0, 0)
}

type document struct {
	Type string `json:"type"`
	*object.Base
	Src          string              `json:"src"`
	Filters      []*filters.Instance `json:"filters"`
	ResizeFilter *filters.Instance   `json:"resizeFilter,omitempty"`
}

func (p *Picture) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Type:         object.TypeImage,
		Base:         &p.Base,
		Src:          p.src,
		Filters:      p.Filters(),
		ResizeFilter: p.ResizeFilter(),
	})
}

// FromDocument starts loading a picture from its serialized form. The filter
// stack keeps its serialized order and parameters, and placement is restored
// as written.
func FromDocument(ctx context.Context, dec Decoder, reg *registry.Registry, raw []byte, opts Options) (*Picture, error) {
	base := object.NewBase()
	doc := document{Base: &base}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode image document: %w", err)
	}
	if doc.Type != "" && doc.Type != object.TypeImage {
		return nil, fmt.Errorf("%w: %q", object.ErrUnknownType, doc.Type)
	}
	opts.Src = doc.Src
	opts.Filters = doc.Filters
	opts.ResizeFilter = doc.ResizeFilter
	opts.MaxSize = object.Size{}

	p := newPicture(reg, opts)
	p.Assign(&base)
	p.start(ctx, dec)
	return p, nil
}
