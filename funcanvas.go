package funcanvas

import (
	"context"
	"image"

	"github.com/imamik/funcanvas/internal/config"
	"github.com/imamik/funcanvas/internal/export"
	"github.com/imamik/funcanvas/internal/filters"
	"github.com/imamik/funcanvas/internal/frames"
	"github.com/imamik/funcanvas/internal/picture"
	"github.com/imamik/funcanvas/internal/pipeline"
	"github.com/imamik/funcanvas/internal/registry"
)

type Config = config.Config

type Bounds = export.Bounds

type FramePreset = frames.Preset

const (
	FramePolaroid600  FramePreset = frames.Polaroid600
	FrameInstaxMini   FramePreset = frames.InstaxMini
	FrameInstaxSquare FramePreset = frames.InstaxSquare
	FrameInstaxWide   FramePreset = frames.InstaxWide
)

func DefaultConfig() *Config {
	return config.Default()
}

// Filters lists the selectable filter types.
func Filters() []string {
	return registry.New(filters.Builtin()).Types()
}

func FramePresets() []FramePreset {
	return frames.Presets()
}

// Compose places every image with the requested filters on one canvas and
// saves the cropped result to outputPath. A nil cfg uses the defaults.
func Compose(ctx context.Context, cfg *Config, images []string, filterBag map[string]any, outputPath string) (string, Bounds, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return "", Bounds{}, err
	}
	c := pipeline.New(cfg)
	for _, src := range images {
		if _, err := c.AddImage(ctx, src, filterBag); err != nil {
			return "", Bounds{}, err
		}
	}
	return c.Save(ctx, outputPath)
}

// ProcessImage runs img through the requested filters on a canvas and returns
// the cropped export, mounted on the configured frame if any.
func ProcessImage(ctx context.Context, img image.Image, filterBag map[string]any, cfg *Config) (image.Image, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dec := picture.DecoderFunc(func(context.Context, string) (image.Image, error) { return img, nil })
	c := pipeline.New(cfg, pipeline.WithDecoder(dec))
	if _, err := c.AddImage(ctx, "memory:", filterBag); err != nil {
		return nil, err
	}
	out, _, err := c.Render(ctx)
	return out, err
}
