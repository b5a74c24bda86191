package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/imamik/funcanvas/internal/config"
	"github.com/imamik/funcanvas/internal/export"
	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/frames"
	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/picture"
	"github.com/imamik/funcanvas/internal/registry"
	"github.com/imamik/funcanvas/internal/scene"
	"github.com/imamik/funcanvas/internal/store"
	"github.com/imamik/funcanvas/internal/viewport"
)

type Option func(*Composer)

func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegistry shares a filter registry between composers.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Composer) { c.reg = r }
}

func WithDecoder(d picture.Decoder) Option {
	return func(c *Composer) { c.decoder = d }
}

// Composer owns one canvas, its viewport and the settings used to export it.
type Composer struct {
	cfg     *config.Config
	reg     *registry.Registry
	decoder picture.Decoder
	logger  *slog.Logger

	canvas *scene.Canvas
	vp     *viewport.Controller
}

// New builds a canvas from cfg and fits it to the configured container at the
// configured zoom level.
func New(cfg *config.Config, opts ...Option) *Composer {
	c := &Composer{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reg == nil {
		c.reg = registry.New(filters.Builtin(), registry.WithLogger(c.logger))
	}

	maxW, maxH := cfg.Canvas.MaxImageSize()
	c.canvas = scene.New(c.reg,
		scene.WithLogger(c.logger),
		scene.WithSize(object.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}),
		scene.WithMaxImageSize(object.Size{Width: maxW, Height: maxH}),
		scene.WithDecoder(c.decoder),
		scene.WithBackground(cfg.Canvas.Background),
		scene.WithStyle(cfg.Style),
	)
	c.vp = viewport.New(c.canvas, c.canvas.Logical())
	c.vp.FitToWidth(cfg.Canvas.ContainerWidth)
	c.vp.SetZoom(cfg.Canvas.Zoom)
	return c
}

func (c *Composer) Canvas() *scene.Canvas { return c.canvas }

func (c *Composer) Viewport() *viewport.Controller { return c.vp }

func (c *Composer) Registry() *registry.Registry { return c.reg }

// AddImage loads src with the filters requested in bag and selects it.
func (c *Composer) AddImage(ctx context.Context, src string, bag map[string]any) (*picture.Picture, error) {
	p, err := c.canvas.LoadImage(ctx, src, bag)
	if err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}
	c.logger.Debug("image added", "src", src, "filters", len(p.Filters()))
	return p, nil
}

// AddShape creates a shape of type typ and applies props to it in key order.
func (c *Composer) AddShape(typ string, props map[string]any) (object.Object, error) {
	obj, err := c.canvas.Create(typ)
	if err != nil {
		return nil, fmt.Errorf("failed to add shape: %w", err)
	}
	for _, k := range slices.Sorted(maps.Keys(props)) {
		if !obj.Set(k, props[k]) {
			c.logger.Warn("ignored shape property", "type", typ, "property", k)
		}
	}
	obj.Common().SetCoords()
	c.canvas.RequestRender()
	return obj, nil
}

// AddPath draws a free-hand stroke through points and applies props to it.
func (c *Composer) AddPath(points []object.Point, props map[string]any) (*object.Path, error) {
	path, err := c.canvas.AddPath(points)
	if err != nil {
		return nil, fmt.Errorf("failed to add path: %w", err)
	}
	for _, k := range slices.Sorted(maps.Keys(props)) {
		if !path.Set(k, props[k]) {
			c.logger.Warn("ignored path property", "property", k)
		}
	}
	path.SetCoords()
	c.canvas.RequestRender()
	return path, nil
}

// AddText creates a text object with the given content.
func (c *Composer) AddText(text string, props map[string]any) (object.Object, error) {
	merged := maps.Clone(props)
	if merged == nil {
		merged = map[string]any{}
	}
	merged["text"] = text
	return c.AddShape(object.TypeText, merged)
}

// AddWatermark stretches a watermark over the whole canvas.
func (c *Composer) AddWatermark(text string) (*object.Watermark, error) {
	l := c.canvas.Logical()
	w := object.NewWatermark(text, object.Box{Width: l.Width, Height: l.Height})
	if err := c.canvas.Add(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Export captures the cropped canvas content.
func (c *Composer) Export(ctx context.Context, raw bool) (*export.Result, error) {
	eng := export.New(c.canvas, c.vp,
		export.WithFormat(c.cfg.Export.Format),
		export.WithQuality(c.cfg.Export.Quality),
		export.WithLogger(c.logger),
	)
	return eng.CaptureCropped(ctx, raw)
}

// Render exports the cropped content as an image, mounted on the configured
// frame if there is one.
func (c *Composer) Render(ctx context.Context) (image.Image, export.Bounds, error) {
	res, err := c.Export(ctx, true)
	if err != nil {
		return nil, export.Bounds{}, fmt.Errorf("failed to export canvas: %w", err)
	}
	var img image.Image = res.Raw.Image()
	if c.cfg.Export.Frame != "" {
		img, err = frames.Mount(img, c.cfg.Export.Frame)
		if err != nil {
			return nil, export.Bounds{}, err
		}
	}
	return img, res.Bounds, nil
}

// Save renders the canvas to outputPath. The format follows the file
// extension; a path without one gets the configured format.
func (c *Composer) Save(ctx context.Context, outputPath string) (string, export.Bounds, error) {
	if filepath.Ext(outputPath) == "" {
		outputPath += "." + c.cfg.Export.Format
	}
	format := strings.TrimPrefix(filepath.Ext(outputPath), ".")
	if err := export.ValidateFormat(format); err != nil {
		return "", export.Bounds{}, err
	}

	img, bounds, err := c.Render(ctx)
	if err != nil {
		return "", export.Bounds{}, err
	}
	if err := imaging.Save(img, outputPath, imaging.JPEGQuality(c.cfg.Export.Quality)); err != nil {
		return "", export.Bounds{}, fmt.Errorf("failed to save image: %w", err)
	}
	c.logger.Info("saved", "path", outputPath, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return outputPath, bounds, nil
}

// SaveScene writes the canvas document to st under name.
func (c *Composer) SaveScene(ctx context.Context, st *store.Store, name string) error {
	doc, err := json.Marshal(c.canvas)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return st.Save(ctx, name, doc)
}

// LoadScene replaces the canvas content with the scene stored under name.
func (c *Composer) LoadScene(ctx context.Context, st *store.Store, name string) error {
	doc, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := c.canvas.Load(ctx, doc); err != nil {
		return fmt.Errorf("failed to load scene %s: %w", name, err)
	}
	return nil
}

// ParseAssignments turns key=value pairs into a property bag. Values that
// parse as numbers or booleans are stored as such; a bare key means true.
func ParseAssignments(pairs []string) (map[string]any, error) {
	bag := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, hasValue := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid assignment %q: missing key", pair)
		}
		if !hasValue {
			bag[key] = true
			continue
		}
		bag[key] = parseValue(strings.TrimSpace(value))
	}
	return bag, nil
}

// ParsePoints reads space separated x,y pairs such as "10,20 30,40".
func ParsePoints(s string) ([]object.Point, error) {
	fields := strings.Fields(s)
	points := make([]object.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("invalid point %q: want x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", f, err)
		}
		points = append(points, object.Point{X: x, Y: y})
	}
	return points, nil
}

func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
