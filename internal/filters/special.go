package filters

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ResizeTypes maps the resizeType parameter of the Resize kind to a resampler.
var ResizeTypes = map[string]imaging.ResampleFilter{
	"lanczos":  imaging.Lanczos,
	"bilinear": imaging.Linear,
	"hermite":  imaging.Hermite,
	"box":      imaging.Box,
	"nearest":  imaging.NearestNeighbor,
}

func baseFilterKind() Kind {
	return Kind{Name: "BaseFilter"}
}

func colorMatrixKind() Kind {
	return Kind{
		Name:     "ColorMatrix",
		Defaults: Params{"colorsOnly": true},
		New: func(p Params) (Filter, error) {
			m, err := p.Floats("matrix")
			if err != nil {
				return nil, err
			}
			if m == nil {
				m = []float64{
					1, 0, 0, 0, 0,
					0, 1, 0, 0, 0,
					0, 0, 1, 0, 0,
					0, 0, 0, 1, 0,
				}
			}
			return newColorMatrix(m, p.Bool("colorsOnly", true))
		},
	}
}

// newColorMatrix builds a 5x4 row-major color transform. Translation terms are
// expressed on a 0-1 scale.
func newColorMatrix(m []float64, colorsOnly bool) (Filter, error) {
	if len(m) != 20 {
		return nil, fmt.Errorf("color matrix needs 20 values, got %d", len(m))
	}
	return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
		return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
			r, g, b, a := float64(c.R), float64(c.G), float64(c.B), float64(c.A)
			out := color.NRGBA{
				R: clampByte(r*m[0] + g*m[1] + b*m[2] + a*m[3] + m[4]*255),
				G: clampByte(r*m[5] + g*m[6] + b*m[7] + a*m[8] + m[9]*255),
				B: clampByte(r*m[10] + g*m[11] + b*m[12] + a*m[13] + m[14]*255),
				A: c.A,
			}
			if !colorsOnly {
				out.A = clampByte(r*m[15] + g*m[16] + b*m[17] + a*m[18] + m[19]*255)
			}
			return out
		})
	}), nil
}

func convoluteKind() Kind {
	return Kind{
		Name: "Convolute",
		New: func(p Params) (Filter, error) {
			m, err := p.Floats("matrix")
			if err != nil {
				return nil, err
			}
			opts := &imaging.ConvolveOptions{Normalize: p.Bool("normalize", false)}
			switch len(m) {
			case 9:
				var k [9]float64
				copy(k[:], m)
				return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
					return imaging.Convolve3x3(src, k, opts)
				}), nil
			case 25:
				var k [25]float64
				copy(k[:], m)
				return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
					return imaging.Convolve5x5(src, k, opts)
				}), nil
			}
			return nil, fmt.Errorf("convolution matrix must have 9 or 25 values, got %d", len(m))
		},
	}
}

// resizeKind is the sampling-quality filter applied when an image is drawn at
// a scale other than 1. The picture supplies scaleX and scaleY at render time.
func resizeKind() Kind {
	return Kind{
		Name:     "Resize",
		Defaults: Params{"resizeType": "lanczos", "scaleX": 1.0, "scaleY": 1.0},
		New: func(p Params) (Filter, error) {
			rf, ok := ResizeTypes[p.String("resizeType", "lanczos")]
			if !ok {
				return nil, fmt.Errorf("unknown resize type %q", p.String("resizeType", ""))
			}
			sx, err := p.Float("scaleX", 1)
			if err != nil {
				return nil, err
			}
			sy, err := p.Float("scaleY", 1)
			if err != nil {
				return nil, err
			}
			if sx <= 0 || sy <= 0 {
				return nil, fmt.Errorf("resize scale must be positive, got %gx%g", sx, sy)
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				b := src.Bounds()
				w := max(1, int(math.Round(float64(b.Dx())*sx)))
				h := max(1, int(math.Round(float64(b.Dy())*sy)))
				return imaging.Resize(src, w, h, rf)
			}), nil
		},
	}
}

func blendImageKind() Kind {
	return Kind{
		Name:     "BlendImage",
		Defaults: Params{"mode": "multiply", "alpha": 1.0},
		New: func(p Params) (Filter, error) {
			overlay, ok := p.Image("image")
			if !ok {
				return nil, fmt.Errorf("blend image needs an image parameter")
			}
			alpha, err := p.Float("alpha", 1)
			if err != nil {
				return nil, err
			}
			mode := p.String("mode", "multiply")
			if mode != "multiply" && mode != "mask" {
				return nil, fmt.Errorf("unknown blend image mode %q", mode)
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				b := src.Bounds()
				ov := imaging.Resize(overlay, b.Dx(), b.Dy(), imaging.Lanczos)
				out := imaging.Clone(src)
				for i := 0; i+3 < len(out.Pix); i += 4 {
					if mode == "mask" {
						out.Pix[i+3] = clampByte(float64(out.Pix[i+3]) * float64(ov.Pix[i+3]) / 255)
						continue
					}
					for ch := 0; ch < 3; ch++ {
						s := float64(out.Pix[i+ch])
						out.Pix[i+ch] = clampByte(s*(1-alpha) + s*float64(ov.Pix[i+ch])/255*alpha)
					}
				}
				return out
			}), nil
		},
	}
}

func gammaKind() Kind {
	return Kind{
		Name:     "Gamma",
		Defaults: Params{"gamma": []float64{1, 1, 1}},
		New: func(p Params) (Filter, error) {
			g, err := p.Floats("gamma")
			if err != nil {
				return nil, err
			}
			if len(g) != 3 {
				return nil, fmt.Errorf("gamma needs 3 values, got %d", len(g))
			}
			var lut [3][256]uint8
			for ch := 0; ch < 3; ch++ {
				if g[ch] <= 0 {
					return nil, fmt.Errorf("gamma values must be positive")
				}
				for i := 0; i < 256; i++ {
					lut[ch][i] = clampByte(math.Pow(float64(i)/255, 1/g[ch]) * 255)
				}
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
					return color.NRGBA{lut[0][c.R], lut[1][c.G], lut[2][c.B], c.A}
				})
			}), nil
		},
	}
}

// composedKind chains a nested filter list into a single filter. It resolves
// the nested kinds against s.
func composedKind(s *Set) Kind {
	return Kind{
		Name: "Composed",
		New: func(p Params) (Filter, error) {
			subs, err := p.Instances("subFilters")
			if err != nil {
				return nil, err
			}
			built := make([]Filter, 0, len(subs))
			for _, in := range subs {
				f, err := s.Build(in)
				if err != nil {
					return nil, err
				}
				built = append(built, f)
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return Chain(src, built...)
			}), nil
		},
	}
}
