package registry

import "github.com/imamik/funcanvas/internal/filters"

// ParamKind is the kind of input control for a filter parameter.
type ParamKind string

const (
	ParamRange  ParamKind = "range"
	ParamColor  ParamKind = "color"
	ParamSelect ParamKind = "select"
)

// FallbackColor seeds color parameters that have no built-in default.
const FallbackColor = "#F95C63"

// Param describes one editable filter parameter.
type Param struct {
	Name    string
	Kind    ParamKind
	Label   string
	Min     float64
	Max     float64
	Step    float64
	Options []string
}

// Schema is the ordered list of editable parameters of one filter type.
type Schema []Param

// Denylist holds the kinds that are never offered as selectable filters:
// abstract kinds, the composite kind, the resize kind (it lives in its own
// slot), the image blend kind and the per-channel gamma kind.
var Denylist = map[string]bool{
	"BaseFilter":  true,
	"ColorMatrix": true,
	"Convolute":   true,
	"Composed":    true,
	"Resize":      true,
	"BlendImage":  true,
	"Gamma":       true,
}

// Controls is the editable parameter schema for each filter type that has one.
// Types without an entry are toggled on and off but have nothing to edit.
var Controls = map[string]Schema{
	"BlendColor": {
		{Name: "color", Kind: ParamColor, Label: "Blend color"},
		{Name: "alpha", Kind: ParamRange, Label: "Blend alpha", Min: 0, Max: 1, Step: 0.01},
		{Name: "mode", Kind: ParamSelect, Label: "Blend mode", Options: filters.BlendModes},
	},
	"Bloom": {
		{Name: "threshold", Kind: ParamRange, Label: "Bloom threshold", Min: 0, Max: 1, Step: 0.01},
		{Name: "amount", Kind: ParamRange, Label: "Bloom amount", Min: 0, Max: 1, Step: 0.01},
	},
	"Blur": {
		{Name: "blur", Kind: ParamRange, Label: "Blur range", Min: 0, Max: 1, Step: 0.01},
	},
	"Brightness": {
		{Name: "brightness", Kind: ParamRange, Label: "Bright. range", Min: -1, Max: 1, Step: 0.01},
	},
	"ChromaticAberration": {
		{Name: "shift", Kind: ParamRange, Label: "Shift", Min: 0, Max: 5, Step: 0.1},
	},
	"Contrast": {
		{Name: "contrast", Kind: ParamRange, Label: "Cont. range", Min: -1, Max: 1, Step: 0.01},
	},
	"Grayscale": {
		{Name: "mode", Kind: ParamSelect, Label: "Gray mode", Options: filters.GrayscaleModes},
	},
	"Noise": {
		{Name: "noise", Kind: ParamRange, Label: "Noise range", Min: 0, Max: 1000, Step: 1},
	},
	"Pixelate": {
		{Name: "blocksize", Kind: ParamRange, Label: "Pixel. size", Min: 2, Max: 20, Step: 1},
	},
	"RemoveColor": {
		{Name: "color", Kind: ParamColor, Label: "Remove color"},
		{Name: "distance", Kind: ParamRange, Label: "Remove distance", Min: 0, Max: 1, Step: 0.01},
	},
	"Saturation": {
		{Name: "saturation", Kind: ParamRange, Label: "Sat. range", Min: -1, Max: 1, Step: 0.01},
	},
	"Sharpen": {
		{Name: "sigma", Kind: ParamRange, Label: "Sharpen sigma", Min: 0, Max: 5, Step: 0.1},
	},
	"Vignette": {
		{Name: "intensity", Kind: ParamRange, Label: "Vignette", Min: 0, Max: 1, Step: 0.01},
	},
}

// seed picks the initial value of a parameter: the implementation's own
// default, else the middle of a range, else the first option, else a color.
func seed(p Param, builtin filters.Params) any {
	if v, ok := builtin[p.Name]; ok && v != nil {
		return v
	}
	switch p.Kind {
	case ParamRange:
		return (p.Min + p.Max) / 2
	case ParamSelect:
		if len(p.Options) > 0 {
			return p.Options[0]
		}
	}
	return FallbackColor
}
