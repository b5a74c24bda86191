package filters

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Params is a filter parameter bag. Numbers are stored as float64 so that a
// JSON round trip reproduces the same values.
type Params map[string]any

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		switch vv := v.(type) {
		case []float64:
			out[k] = append([]float64(nil), vv...)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return f, nil
}

func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	}
	return def
}

func (p Params) Color(key string, def color.NRGBA) (color.NRGBA, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch c := v.(type) {
	case string:
		parsed, err := ParseColor(c)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("param %s: %w", key, err)
		}
		return parsed, nil
	case color.Color:
		return color.NRGBAModel.Convert(c).(color.NRGBA), nil
	}
	return color.NRGBA{}, fmt.Errorf("param %s: unsupported color value %T", key, v)
}

func (p Params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []float64:
		return vv, nil
	case []any:
		out := make([]float64, len(vv))
		for i, e := range vv {
			f, err := toFloat(e)
			if err != nil {
				return nil, fmt.Errorf("param %s[%d]: %w", key, i, err)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("param %s: unsupported list value %T", key, v)
}

func (p Params) Image(key string) (image.Image, bool) {
	img, ok := p[key].(image.Image)
	return img, ok
}

// Instances reads a nested filter list, accepting both typed instances and the
// generic maps produced by decoding JSON.
func (p Params) Instances(key string) ([]*Instance, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []*Instance:
		return vv, nil
	case []any:
		out := make([]*Instance, 0, len(vv))
		for i, e := range vv {
			switch item := e.(type) {
			case *Instance:
				out = append(out, item)
			case map[string]any:
				typ, _ := item["type"].(string)
				params, _ := item["params"].(map[string]any)
				out = append(out, &Instance{Type: typ, Params: Params(params)})
			default:
				return nil, fmt.Errorf("param %s[%d]: unsupported filter value %T", key, i, e)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("param %s: unsupported filter list %T", key, v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// ParseColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("color must start with #: %q", s)
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid hex length: %q", s)
}

// FormatColor is the inverse of ParseColor for opaque colors.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
