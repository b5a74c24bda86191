package filters

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"testing"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / max(width, 1))  //nolint:gosec // test image generation
			g := uint8((y * 255) / max(height, 1)) //nolint:gosec // test image generation
			img.Set(x, y, color.NRGBA{r, g, 128, 255})
		}
	}
	return img
}

func imageFingerprint(img image.Image) uint64 {
	h := fnv.New64a()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			_, _ = h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)})
		}
	}
	return h.Sum64()
}

func TestBuiltinKindsBuildWithDefaults(t *testing.T) {
	set := Builtin()
	img := createTestImage(40, 30)

	skip := map[string]bool{"BaseFilter": true, "BlendImage": true, "Convolute": true}
	for _, name := range set.Names() {
		if skip[name] {
			continue
		}
		t.Run(name, func(t *testing.T) {
			f, err := set.Build(&Instance{Type: name})
			if err != nil {
				t.Fatalf("Build(%s) error = %v", name, err)
			}
			out := f.Apply(img)
			if out == nil {
				t.Fatalf("%s Apply() returned nil", name)
			}
			if name == "Pixelate" || name == "Resize" || name == "Composed" {
				return
			}
			if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 30 {
				t.Errorf("%s changed image size: got %dx%d, want 40x30", name, out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	set := Builtin()

	tests := []struct {
		name    string
		in      *Instance
		wantErr error
	}{
		{"unknown kind", &Instance{Type: "Sparkle"}, ErrUnknownKind},
		{"nil instance", nil, ErrUnknownKind},
		{"abstract kind", &Instance{Type: "BaseFilter"}, ErrAbstract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := set.Build(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	bad := []*Instance{
		{Type: "BlendColor", Params: Params{"mode": "sparkle"}},
		{Type: "BlendColor", Params: Params{"color": "red"}},
		{Type: "Brightness", Params: Params{"brightness": "bright"}},
		{Type: "Convolute", Params: Params{"matrix": []float64{1, 2}}},
		{Type: "Gamma", Params: Params{"gamma": []float64{1, 1}}},
		{Type: "Resize", Params: Params{"scaleX": 0.0}},
		{Type: "BlendImage"},
	}
	for _, in := range bad {
		if _, err := set.Build(in); err == nil {
			t.Errorf("Build(%s %v) expected error", in.Type, in.Params)
		}
	}
}

func TestNamesSorted(t *testing.T) {
	names := Builtin().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestResizeScalesRaster(t *testing.T) {
	f, err := Builtin().Build(&Instance{Type: "Resize", Params: Params{"scaleX": 0.5, "scaleY": 0.25}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	out := f.Apply(createTestImage(100, 80))
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 20 {
		t.Errorf("Resize produced %dx%d, want 50x20", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestRemoveColorClearsMatchingPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{10, 20, 30, 255})

	f, err := Builtin().Build(&Instance{Type: "RemoveColor"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	out := f.Apply(img)
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("white pixel alpha = %d, want 0", a)
	}
	if a := out.NRGBAAt(1, 0).A; a != 255 {
		t.Errorf("dark pixel alpha = %d, want 255", a)
	}
}

func TestInvertDoesNotModifySource(t *testing.T) {
	img := createTestImage(10, 10)
	before := imageFingerprint(img)
	f, err := Builtin().Build(&Instance{Type: "Invert"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	out := f.Apply(img)
	if imageFingerprint(img) != before {
		t.Fatal("Apply() modified its source")
	}
	if got := out.NRGBAAt(0, 0); got.B != 127 {
		t.Errorf("inverted blue = %d, want 127", got.B)
	}
}

func TestNoiseDeterministicWithSeed(t *testing.T) {
	set := Builtin()
	img := createTestImage(30, 30)
	build := func(seed float64) Filter {
		f, err := set.Build(&Instance{Type: "Noise", Params: Params{"noise": 200.0, "seed": seed}})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		return f
	}
	if imageFingerprint(build(42).Apply(img)) != imageFingerprint(build(42).Apply(img)) {
		t.Fatal("expected deterministic output with fixed seed")
	}
	if imageFingerprint(build(1).Apply(img)) == imageFingerprint(build(2).Apply(img)) {
		t.Fatal("expected different output for different seeds")
	}
}

func TestComposedAppliesInOrder(t *testing.T) {
	set := Builtin()
	img := createTestImage(20, 20)

	composed, err := set.Build(&Instance{Type: "Composed", Params: Params{
		"subFilters": []*Instance{{Type: "Grayscale"}, {Type: "Invert"}},
	}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	gray, _ := set.Build(&Instance{Type: "Grayscale"})
	inv, _ := set.Build(&Instance{Type: "Invert"})

	want := imageFingerprint(Chain(img, gray, inv))
	if got := imageFingerprint(composed.Apply(img)); got != want {
		t.Error("Composed output differs from the sequential chain")
	}
}

func TestComposedFromJSON(t *testing.T) {
	raw := `{"type":"Composed","params":{"subFilters":[{"type":"Sepia"},{"type":"Brightness","params":{"brightness":0.2}}]}}`
	var in Instance
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, err := Builtin().Build(&in); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#F95C63", color.NRGBA{0xF9, 0x5C, 0x63, 0xFF}, false},
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}, false},
		{"red", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := FormatColor(color.NRGBA{0xF9, 0x5C, 0x63, 0xFF}); s != "#f95c63" {
		t.Errorf("FormatColor() = %q, want #f95c63", s)
	}
}

func TestParamsFloat(t *testing.T) {
	p := Params{"a": 1, "b": "0.5", "c": json.Number("2.5"), "d": true}
	if v, err := p.Float("a", 0); err != nil || v != 1 {
		t.Errorf("Float(a) = %v, %v", v, err)
	}
	if v, err := p.Float("b", 0); err != nil || v != 0.5 {
		t.Errorf("Float(b) = %v, %v", v, err)
	}
	if v, err := p.Float("c", 0); err != nil || v != 2.5 {
		t.Errorf("Float(c) = %v, %v", v, err)
	}
	if _, err := p.Float("d", 0); err == nil {
		t.Error("Float(d) expected error for bool")
	}
	if v, err := p.Float("missing", 7); err != nil || v != 7 {
		t.Errorf("Float(missing) = %v, %v", v, err)
	}
}

func TestInstanceCloneIsIndependent(t *testing.T) {
	in := NewInstance("Blur", Params{"blur": 0.3})
	cp := in.Clone()
	cp.Params["blur"] = 0.9
	if in.Params["blur"] != 0.3 {
		t.Errorf("Clone() shares params with the original")
	}
}

func BenchmarkChain(b *testing.B) {
	set := Builtin()
	img := createTestImage(200, 200)
	var fs []Filter
	for _, name := range []string{"Brightness", "Vignette", "Sepia"} {
		f, err := set.Build(&Instance{Type: name})
		if err != nil {
			b.Fatal(err)
		}
		fs = append(fs, f)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Chain(img, fs...)
	}
}
