package frames

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Preset names an instant-film card layout.
type Preset string

const (
	Polaroid600  Preset = "polaroid_600"
	InstaxMini   Preset = "instax_mini"
	InstaxSquare Preset = "instax_square"
	InstaxWide   Preset = "instax_wide"
)

var ErrUnknownPreset = errors.New("unknown frame preset")

// Spec is a card layout in pixels: the card size and the photo window placed
// at Offset on it.
type Spec struct {
	Card   image.Point
	Window image.Point
	Offset image.Point
}

var Specs = map[Preset]Spec{
	Polaroid600: {
		Card:   image.Pt(1080, 1296),
		Window: image.Pt(956, 956),
		Offset: image.Pt(62, 77),
	},
	InstaxMini: {
		Card:   image.Pt(1080, 1720),
		Window: image.Pt(920, 1240),
		Offset: image.Pt(80, 100),
	},
	InstaxSquare: {
		Card:   image.Pt(1080, 1290),
		Window: image.Pt(930, 930),
		Offset: image.Pt(75, 105),
	},
	InstaxWide: {
		Card:   image.Pt(1080, 860),
		Window: image.Pt(990, 620),
		Offset: image.Pt(45, 100),
	},
}

var (
	cardColor   = color.NRGBA{252, 252, 250, 255}
	paperColor  = color.NRGBA{255, 255, 255, 255}
	borderColor = color.NRGBA{60, 60, 60, 200}
)

const (
	windowRadius = 5.0
	borderWidth  = 1.5
)

func Lookup(p Preset) (Spec, error) {
	spec, ok := Specs[p]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	return spec, nil
}

func Presets() []Preset {
	return []Preset{Polaroid600, InstaxMini, InstaxSquare, InstaxWide}
}

// Mount scales img to fit the photo window of the preset, centers it on white
// paper and pastes the window onto the card. The content is never cropped.
func Mount(img image.Image, p Preset) (*image.NRGBA, error) {
	spec, err := Lookup(p)
	if err != nil {
		return nil, err
	}
	ww, wh := spec.Window.X, spec.Window.Y

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("failed to mount empty image")
	}
	scale := math.Min(float64(ww)/float64(b.Dx()), float64(wh)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	fitted := imaging.Resize(img, w, h, imaging.Lanczos)

	dc := gg.NewContext(ww, wh)
	dc.DrawRoundedRectangle(0, 0, float64(ww), float64(wh), windowRadius)
	dc.Clip()
	dc.SetColor(paperColor)
	dc.DrawRectangle(0, 0, float64(ww), float64(wh))
	dc.Fill()
	dc.DrawImage(fitted, (ww-w)/2, (wh-h)/2)
	dc.ResetClip()

	dc.DrawRoundedRectangle(0.5, 0.5, float64(ww)-1, float64(wh)-1, windowRadius)
	dc.SetColor(borderColor)
	dc.SetLineWidth(borderWidth)
	dc.Stroke()

	card := imaging.New(spec.Card.X, spec.Card.Y, cardColor)
	return imaging.Overlay(card, dc.Image(), spec.Offset, 1.0), nil
}
