package filters

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// BlendModes lists the modes understood by BlendColor, in display order.
var BlendModes = []string{
	"multiply", "add", "difference", "screen", "subtract",
	"darken", "lighten", "overlay", "exclusion", "tint",
}

// GrayscaleModes lists the modes understood by Grayscale.
var GrayscaleModes = []string{"average", "luminosity", "lightness"}

// Builtin returns the full implementation set, including the abstract and
// special-purpose kinds that are not offered as user-selectable filters.
func Builtin() *Set {
	s := NewSet(
		blendColorKind(),
		bloomKind(),
		blurKind(),
		brightnessKind(),
		chromaticAberrationKind(),
		contrastKind(),
		embossKind(),
		grayscaleKind(),
		invertKind(),
		noiseKind(),
		pixelateKind(),
		removeColorKind(),
		saturationKind(),
		sepiaKind(),
		sharpenKind(),
		vignetteKind(),
		vintageKind(),

		baseFilterKind(),
		colorMatrixKind(),
		convoluteKind(),
		resizeKind(),
		blendImageKind(),
		gammaKind(),
	)
	s.Register(composedKind(s))
	return s
}

func blendColorKind() Kind {
	return Kind{
		Name:     "BlendColor",
		Defaults: Params{"alpha": 1.0},
		New: func(p Params) (Filter, error) {
			c, err := p.Color("color", color.NRGBA{R: 0xF9, G: 0x5C, B: 0x63, A: 0xFF})
			if err != nil {
				return nil, err
			}
			alpha, err := p.Float("alpha", 1)
			if err != nil {
				return nil, err
			}
			mode := p.String("mode", "multiply")
			blend, ok := blendFuncs[mode]
			if !ok {
				return nil, fmt.Errorf("unknown blend mode %q", mode)
			}
			alpha = clamp(alpha, 0, 1)
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustFunc(src, func(px color.NRGBA) color.NRGBA {
					mix := func(s, c uint8) uint8 {
						fs, fc := float64(s), float64(c)
						return clampByte(fs*(1-alpha) + blend(fs, fc)*alpha)
					}
					return color.NRGBA{mix(px.R, c.R), mix(px.G, c.G), mix(px.B, c.B), px.A}
				})
			}), nil
		},
	}
}

var blendFuncs = map[string]func(s, c float64) float64{
	"multiply":   func(s, c float64) float64 { return s * c / 255 },
	"add":        func(s, c float64) float64 { return math.Min(255, s+c) },
	"difference": func(s, c float64) float64 { return math.Abs(s - c) },
	"screen":     func(s, c float64) float64 { return 255 - (255-s)*(255-c)/255 },
	"subtract":   func(s, c float64) float64 { return math.Max(0, s-c) },
	"darken":     math.Min,
	"lighten":    math.Max,
	"overlay": func(s, c float64) float64 {
		if s < 128 {
			return 2 * s * c / 255
		}
		return 255 - 2*(255-s)*(255-c)/255
	},
	"exclusion": func(s, c float64) float64 { return s + c - 2*s*c/255 },
	"tint":      func(_, c float64) float64 { return c },
}

func bloomKind() Kind {
	return Kind{
		Name:     "Bloom",
		Defaults: Params{"threshold": 0.7},
		New: func(p Params) (Filter, error) {
			threshold, err := p.Float("threshold", 0.7)
			if err != nil {
				return nil, err
			}
			amount, err := p.Float("amount", 0.5)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return bloom(src, clamp(threshold, 0, 1)*255, clamp(amount, 0, 1))
			}), nil
		},
	}
}

func bloom(src *image.NRGBA, thresh, amount float64) *image.NRGBA {
	b := src.Bounds()
	if b.Empty() {
		return imaging.Clone(src)
	}
	highlights := imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		if float64(c.R) < thresh && float64(c.G) < thresh && float64(c.B) < thresh {
			return color.NRGBA{0, 0, 0, c.A}
		}
		m := 255.0 / math.Max(1, 255.0-thresh)
		lift := func(v uint8) uint8 { return clampByte((float64(v) - thresh) * m) }
		return color.NRGBA{lift(c.R), lift(c.G), lift(c.B), c.A}
	})
	glow := imaging.Blur(highlights, float64(min(b.Dx(), b.Dy()))*0.015+0.5)
	base := imaging.Clone(src)
	out := image.NewNRGBA(base.Bounds())
	for i := 0; i+3 < len(base.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			s := float64(base.Pix[i+ch])
			g := float64(glow.Pix[i+ch]) * amount
			out.Pix[i+ch] = clampByte(255 - (255-s)*(255-g)/255)
		}
		out.Pix[i+3] = base.Pix[i+3]
	}
	return out
}

func blurKind() Kind {
	return Kind{
		Name:     "Blur",
		Defaults: Params{"blur": 0.0},
		New: func(p Params) (Filter, error) {
			amount, err := p.Float("blur", 0)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				b := src.Bounds()
				sigma := clamp(amount, 0, 1) * float64(min(b.Dx(), b.Dy())) / 10
				if sigma <= 0 {
					return imaging.Clone(src)
				}
				return imaging.Blur(src, sigma)
			}), nil
		},
	}
}

func brightnessKind() Kind {
	return Kind{
		Name: "Brightness",
		New: func(p Params) (Filter, error) {
			v, err := p.Float("brightness", 0)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustBrightness(src, clamp(v, -1, 1)*100)
			}), nil
		},
	}
}

func contrastKind() Kind {
	return Kind{
		Name: "Contrast",
		New: func(p Params) (Filter, error) {
			v, err := p.Float("contrast", 0)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustContrast(src, clamp(v, -1, 1)*100)
			}), nil
		},
	}
}

func saturationKind() Kind {
	return Kind{
		Name: "Saturation",
		New: func(p Params) (Filter, error) {
			v, err := p.Float("saturation", 0)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustSaturation(src, clamp(v, -1, 1)*100)
			}), nil
		},
	}
}

func chromaticAberrationKind() Kind {
	return Kind{
		Name:     "ChromaticAberration",
		Defaults: Params{"shift": 1.5},
		New: func(p Params) (Filter, error) {
			shift, err := p.Float("shift", 1.5)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return chromaticAberration(src, shift)
			}), nil
		},
	}
}

// chromaticAberration samples red ahead and blue behind the pixel with bilinear
// interpolation, leaving green and alpha in place.
func chromaticAberration(src *image.NRGBA, shift float64) *image.NRGBA {
	img := imaging.Clone(src)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	res := image.NewNRGBA(img.Bounds())
	if w*h == 0 {
		return res
	}
	clampIdx := func(v, n int) int {
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
	sample := func(x, y float64, ch int) float64 {
		x0, y0 := math.Floor(x), math.Floor(y)
		wx1, wy1 := x-x0, y-y0
		wx0, wy0 := 1-wx1, 1-wy1
		at := func(xx, yy float64) float64 {
			ix, iy := clampIdx(int(xx), w), clampIdx(int(yy), h)
			return float64(img.Pix[iy*img.Stride+ix*4+ch])
		}
		return at(x0, y0)*wx0*wy0 + at(x0, y0+1)*wx0*wy1 + at(x0+1, y0)*wx1*wy0 + at(x0+1, y0+1)*wx1*wy1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			res.Pix[i] = clampByte(sample(float64(x)+shift, float64(y)+shift, 0))
			res.Pix[i+1] = img.Pix[i+1]
			res.Pix[i+2] = clampByte(sample(float64(x)-shift, float64(y)-shift, 2))
			res.Pix[i+3] = img.Pix[i+3]
		}
	}
	return res
}

func embossKind() Kind {
	return Kind{
		Name: "Emboss",
		New: func(Params) (Filter, error) {
			kernel := [9]float64{-2, -1, 0, -1, 1, 1, 0, 1, 2}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.Convolve3x3(src, kernel, &imaging.ConvolveOptions{})
			}), nil
		},
	}
}

func grayscaleKind() Kind {
	return Kind{
		Name:     "Grayscale",
		Defaults: Params{"mode": "average"},
		New: func(p Params) (Filter, error) {
			mode := p.String("mode", "average")
			var lum func(r, g, b float64) float64
			switch mode {
			case "average":
				lum = func(r, g, b float64) float64 { return (r + g + b) / 3 }
			case "luminosity":
				lum = func(r, g, b float64) float64 { return 0.21*r + 0.72*g + 0.07*b }
			case "lightness":
				lum = func(r, g, b float64) float64 {
					return (math.Max(r, math.Max(g, b)) + math.Min(r, math.Min(g, b))) / 2
				}
			default:
				return nil, fmt.Errorf("unknown grayscale mode %q", mode)
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
					v := clampByte(lum(float64(c.R), float64(c.G), float64(c.B)))
					return color.NRGBA{v, v, v, c.A}
				})
			}), nil
		},
	}
}

func invertKind() Kind {
	return Kind{
		Name: "Invert",
		New: func(Params) (Filter, error) {
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.Invert(src)
			}), nil
		},
	}
}

func noiseKind() Kind {
	return Kind{
		Name:     "Noise",
		Defaults: Params{"noise": 0.0, "seed": 1.0},
		New: func(p Params) (Filter, error) {
			amount, err := p.Float("noise", 0)
			if err != nil {
				return nil, err
			}
			seed, err := p.Float("seed", 1)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				// imaging.AdjustFunc runs in parallel, so the seeded walk stays sequential here.
				r := rand.New(rand.NewSource(int64(seed)))
				out := imaging.Clone(src)
				for i := 0; i+3 < len(out.Pix); i += 4 {
					n := (0.5 - r.Float64()) * amount
					out.Pix[i] = clampByte(float64(out.Pix[i]) + n)
					out.Pix[i+1] = clampByte(float64(out.Pix[i+1]) + n)
					out.Pix[i+2] = clampByte(float64(out.Pix[i+2]) + n)
				}
				return out
			}), nil
		},
	}
}

func pixelateKind() Kind {
	return Kind{
		Name:     "Pixelate",
		Defaults: Params{"blocksize": 4.0},
		New: func(p Params) (Filter, error) {
			size, err := p.Float("blocksize", 4)
			if err != nil {
				return nil, err
			}
			block := max(1, int(size))
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				b := src.Bounds()
				if b.Empty() || block == 1 {
					return imaging.Clone(src)
				}
				small := imaging.Resize(src, max(1, b.Dx()/block), max(1, b.Dy()/block), imaging.Box)
				out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
				draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
				return out
			}), nil
		},
	}
}

func removeColorKind() Kind {
	return Kind{
		Name:     "RemoveColor",
		Defaults: Params{"color": "#FFFFFF", "distance": 0.02},
		New: func(p Params) (Filter, error) {
			target, err := p.Color("color", color.NRGBA{255, 255, 255, 255})
			if err != nil {
				return nil, err
			}
			distance, err := p.Float("distance", 0.02)
			if err != nil {
				return nil, err
			}
			limit := clamp(distance, 0, 1) * 255
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
					if math.Abs(float64(c.R)-float64(target.R)) <= limit &&
						math.Abs(float64(c.G)-float64(target.G)) <= limit &&
						math.Abs(float64(c.B)-float64(target.B)) <= limit {
						c.A = 0
					}
					return c
				})
			}), nil
		},
	}
}

var sepiaMatrix = []float64{
	0.393, 0.769, 0.189, 0, 0,
	0.349, 0.686, 0.168, 0, 0,
	0.272, 0.534, 0.131, 0, 0,
	0, 0, 0, 1, 0,
}

func sepiaKind() Kind {
	return Kind{
		Name: "Sepia",
		New: func(Params) (Filter, error) {
			return newColorMatrix(sepiaMatrix, true)
		},
	}
}

func sharpenKind() Kind {
	return Kind{
		Name:     "Sharpen",
		Defaults: Params{"sigma": 1.0},
		New: func(p Params) (Filter, error) {
			sigma, err := p.Float("sigma", 1)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				if sigma <= 0 {
					return imaging.Clone(src)
				}
				return imaging.Sharpen(src, sigma)
			}), nil
		},
	}
}

func vignetteKind() Kind {
	return Kind{
		Name: "Vignette",
		New: func(p Params) (Filter, error) {
			intensity, err := p.Float("intensity", 0.4)
			if err != nil {
				return nil, err
			}
			return FilterFunc(func(src *image.NRGBA) *image.NRGBA {
				return vignette(src, clamp(intensity, 0, 1))
			}), nil
		},
	}
}

func vignette(src *image.NRGBA, intensity float64) *image.NRGBA {
	img := imaging.Clone(src)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h)/2
	maxR := math.Sqrt(cx*cx + cy*cy)
	if maxR == 0 {
		return img
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			mask := 1.0 - clamp(math.Sqrt(dx*dx+dy*dy)/maxR-0.5, 0, 1)*intensity
			i := y*img.Stride + x*4
			img.Pix[i] = clampByte(float64(img.Pix[i]) * mask)
			img.Pix[i+1] = clampByte(float64(img.Pix[i+1]) * mask)
			img.Pix[i+2] = clampByte(float64(img.Pix[i+2]) * mask)
		}
	}
	return img
}

func vintageKind() Kind {
	return Kind{
		Name: "Vintage",
		New: func(Params) (Filter, error) {
			return FilterFunc(vintageCurves), nil
		},
	}
}

// vintageCurves warms the reds around a soft knee, lifts greens slightly and
// flattens the blues.
func vintageCurves(src *image.NRGBA) *image.NRGBA {
	const t = 100.0
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		switch {
		case r < t-5:
			r *= 1.05
		case r > t+5:
			r += (255 - r) * 0.1
		default:
			f := (r - (t - 5)) / 10
			r = r*1.05*(1-f) + (r+(255-r)*0.1)*f
		}
		g = g*0.98 + 5
		b = b*0.85 + 20
		return color.NRGBA{clampByte(r), clampByte(g), clampByte(b), c.A}
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampByte(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
