package object

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

const lineHeight = 1.16

// Font families offered by the text controls.
var FontFamilies = []string{
	"serif", "sans-serif", "cursive", "monospace", "Arial",
	"Arial Black", "Courier New", "Georgia", "Impact", "Lucida Console",
	"Tahoma", "Times New Roman",
}

var (
	fontMu sync.Mutex
	parsed = map[string]*truetype.Font{}
)

func fontData(family string) (string, []byte) {
	switch family {
	case "monospace", "Courier New", "Lucida Console":
		return "mono", gomono.TTF
	case "Arial Black", "Impact":
		return "bold", gobold.TTF
	}
	return "regular", goregular.TTF
}

// Face returns a font face for family at size points. Families without a
// bundled font fall back to Go Regular.
func Face(family string, size float64) (font.Face, error) {
	key, data := fontData(family)
	fontMu.Lock()
	f, ok := parsed[key]
	if !ok {
		var err error
		f, err = truetype.Parse(data)
		if err != nil {
			fontMu.Unlock()
			return nil, fmt.Errorf("failed to parse %s font: %w", key, err)
		}
		parsed[key] = f
	}
	fontMu.Unlock()
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Text is a multi-line text block sized to its content.
type Text struct {
	Base
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	TextAlign  string  `json:"textAlign,omitempty"`
}

func NewText(text string) *Text {
	t := &Text{Base: NewBase(), Text: text, FontSize: 100, FontFamily: "Arial"}
	t.Measure()
	return t
}

func (t *Text) Type() string { return TypeText }

// Measure recomputes Width and Height from the text and font.
func (t *Text) Measure() {
	face, err := Face(t.FontFamily, t.FontSize)
	if err != nil {
		return
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	lines := strings.Split(t.Text, "\n")
	w := 0.0
	for _, line := range lines {
		lw, _ := dc.MeasureString(line)
		w = math.Max(w, lw)
	}
	t.Width = w
	t.Height = float64(len(lines)) * t.FontSize * lineHeight
}

func (t *Text) Draw(dc *gg.Context) {
	fill, ok := t.color(t.Fill)
	if !ok || t.Text == "" {
		return
	}
	face, err := Face(t.FontFamily, t.FontSize)
	if err != nil {
		return
	}
	t.transform(dc)
	defer dc.Pop()
	dc.SetFontFace(face)
	dc.SetColor(fill)

	x, ax := 0.0, 0.0
	switch t.TextAlign {
	case "center":
		x, ax = t.Width/2, 0.5
	case "right":
		x, ax = t.Width, 1
	}
	step := t.FontSize * lineHeight
	for i, line := range strings.Split(t.Text, "\n") {
		dc.DrawStringAnchored(line, x, (float64(i)+0.5)*step, ax, 0.35)
	}
}

func (t *Text) Set(property string, value any) bool {
	switch property {
	case "text", "fontFamily", "textAlign":
		s, ok := value.(string)
		if !ok {
			return false
		}
		switch property {
		case "text":
			t.Text = s
		case "fontFamily":
			t.FontFamily = s
		case "textAlign":
			t.TextAlign = s
		}
	case "fontSize":
		f, ok := toFloat(value)
		if !ok || f <= 0 {
			return false
		}
		t.FontSize = f
	default:
		return t.Base.Set(property, value)
	}
	t.Measure()
	return true
}

func (t *Text) Get(property string) (any, bool) {
	switch property {
	case "text":
		return t.Text, true
	case "fontSize":
		return t.FontSize, true
	case "fontFamily":
		return t.FontFamily, true
	case "textAlign":
		return t.TextAlign, true
	}
	return t.Base.Get(property)
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeText, (*plain)(t)})
}

// Watermark draws its text as large as fits inside its box, in a semi-opaque
// outlined monospace face.
type Watermark struct {
	Base
	Text string `json:"text"`
}

func NewWatermark(text string, box Box) *Watermark {
	w := &Watermark{Base: NewBase(), Text: text}
	w.SetPosition(box)
	return w
}

func (w *Watermark) Type() string { return TypeWatermark }

// SetPosition moves and resizes the watermark box.
func (w *Watermark) SetPosition(box Box) {
	w.Left, w.Top = box.Left, box.Top
	w.Width, w.Height = box.Width, box.Height
	w.ScaleX, w.ScaleY = 1, 1
	w.SetCoords()
}

// FontSize is the size that fits the text with one letter of padding on each
// side. Zero means the text is not drawn.
func (w *Watermark) FontSize() float64 {
	length := float64(len([]rune(w.Text)))/2 + 2
	size := math.Min(w.Height-10, (w.Width-10)/length)
	if w.Text == "" || size <= 1 {
		return 0
	}
	return size
}

func (w *Watermark) Draw(dc *gg.Context) {
	size := w.FontSize()
	if size == 0 {
		return
	}
	face, err := Face("monospace", size)
	if err != nil {
		return
	}
	w.transform(dc)
	defer dc.Pop()
	dc.SetFontFace(face)

	alpha := 0.5 * w.Opacity
	cx, cy := w.Width/2, w.Height/2
	dc.SetRGBA(0, 0, 0, alpha)
	for _, d := range [][2]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		dc.DrawStringAnchored(w.Text, cx+d[0]*0.75, cy+d[1]*0.75, 0.5, 0.35)
	}
	dc.SetRGBA(1, 1, 1, alpha)
	dc.DrawStringAnchored(w.Text, cx, cy, 0.5, 0.35)
}

func (w *Watermark) Set(property string, value any) bool {
	if property == "text" {
		s, ok := value.(string)
		if !ok {
			return false
		}
		w.Text = s
		return true
	}
	return w.Base.Set(property, value)
}

func (w *Watermark) Get(property string) (any, bool) {
	if property == "text" {
		return w.Text, true
	}
	return w.Base.Get(property)
}

func (w *Watermark) MarshalJSON() ([]byte, error) {
	type plain Watermark
	return json.Marshal(struct {
		Type string `json:"type"`
		*plain
	}{TypeWatermark, (*plain)(w)})
}
