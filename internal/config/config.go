package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/imamik/funcanvas/internal/export"
	"github.com/imamik/funcanvas/internal/frames"
	"github.com/imamik/funcanvas/internal/scene"
	"github.com/imamik/funcanvas/internal/viewport"
)

// AppName is used for the XDG directory paths.
const AppName = "funcanvas"

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

// Config holds every funcanvas setting. It is loaded from YAML and passed
// down explicitly; there is no global instance.
type Config struct {
	Canvas  Canvas      `yaml:"canvas"`
	Export  Export      `yaml:"export"`
	Store   Store       `yaml:"store"`
	Batch   Batch       `yaml:"batch"`
	Style   scene.Style `yaml:"style"`
	Verbose bool        `yaml:"verbose"`
}

// Canvas describes the logical drawing area and how it is displayed.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// ContainerWidth is the width of the box the canvas is fitted into.
	ContainerWidth float64 `yaml:"container_width"`

	// Zoom is the requested level relative to the fitted baseline.
	Zoom float64 `yaml:"zoom"`

	// MaxImageWidth and MaxImageHeight bound the size of added pictures.
	// Zero means the canvas size.
	MaxImageWidth  float64 `yaml:"max_image_width"`
	MaxImageHeight float64 `yaml:"max_image_height"`

	Background string `yaml:"background"`
}

type Export struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`

	// Frame optionally mounts exports on an instant-film card.
	Frame frames.Preset `yaml:"frame"`
}

type Store struct {
	// Dir holds the scene database. Defaults to the XDG data directory.
	Dir string `yaml:"dir"`
}

type Batch struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Canvas: Canvas{
			Width:          scene.DefaultWidth,
			Height:         scene.DefaultHeight,
			ContainerWidth: scene.DefaultWidth,
			Zoom:           1,
		},
		Export: Export{
			Format:  export.DefaultFormat,
			Quality: DefaultQuality,
		},
		Store: Store{Dir: DataDir()},
		Batch: Batch{Concurrency: runtime.NumCPU()},
		Style: scene.DefaultStyle(),
	}
}

// DataDir returns the XDG data directory for funcanvas.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the XDG config directory for funcanvas.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// MaxImageSize resolves the bound for added pictures.
func (c *Canvas) MaxImageSize() (width, height float64) {
	width, height = c.MaxImageWidth, c.MaxImageHeight
	if width == 0 {
		width = c.Width
	}
	if height == 0 {
		height = c.Height
	}
	return width, height
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !(c.Canvas.Width > 0) || !(c.Canvas.Height > 0) {
		return ErrInvalidCanvasSize
	}
	if !(c.Canvas.ContainerWidth > 0) {
		return ErrInvalidContainerWidth
	}
	if !(c.Canvas.Zoom >= viewport.MinLevel) || c.Canvas.Zoom > viewport.MaxLevel {
		return ErrInvalidZoom
	}
	if c.Canvas.MaxImageWidth < 0 || c.Canvas.MaxImageHeight < 0 {
		return ErrInvalidMaxImageSize
	}
	if err := export.ValidateFormat(c.Export.Format); err != nil {
		return err
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return ErrInvalidQuality
	}
	if c.Export.Frame != "" {
		if _, err := frames.Lookup(c.Export.Frame); err != nil {
			return fmt.Errorf("invalid export frame: %w", err)
		}
	}
	if c.Batch.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	return nil
}
