package funcanvas

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{255, 128, 64, 255})
		}
	}
	return img
}

func saveTestImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	f, err := os.Create(path) //nolint:gosec // test file path is controlled
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
}

func TestFilters(t *testing.T) {
	types := Filters()
	for _, want := range []string{"Blur", "Sepia", "Vintage"} {
		if !slices.Contains(types, want) {
			t.Errorf("Filters() is missing %s", want)
		}
	}
	if slices.Contains(types, "Resize") {
		t.Error("Filters() lists the resize kind")
	}
}

func TestFramePresets(t *testing.T) {
	if got := FramePresets(); len(got) != 4 || got[0] != FramePolaroid600 {
		t.Errorf("FramePresets() = %v", got)
	}
}

func TestCompose(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.png")
	saveTestImage(t, createTestImage(100, 60), a)

	tests := []struct {
		name    string
		images  []string
		wantErr bool
	}{
		{"single image", []string{a}, false},
		{"missing image", []string{filepath.Join(tmpDir, "missing.png")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(tmpDir, tt.name+".png")
			path, bounds, err := Compose(context.Background(), nil, tt.images, map[string]any{"Sepia": true}, out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compose() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if path != out {
				t.Errorf("Compose() path = %q, want %q", path, out)
			}
			if bounds.Width != 100 || bounds.Height != 60 {
				t.Errorf("Compose() bounds = %+v, want 100x60", bounds)
			}
		})
	}
}

func TestComposeRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.Zoom = 0
	if _, _, err := Compose(context.Background(), cfg, nil, nil, filepath.Join(t.TempDir(), "out.png")); err == nil {
		t.Error("Compose() with an invalid config succeeded")
	}
}

func TestProcessImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Frame = FrameInstaxSquare

	out, err := ProcessImage(context.Background(), createTestImage(80, 80), map[string]any{"Grayscale": true}, cfg)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if b := out.Bounds(); b.Dx() != 1080 || b.Dy() != 1290 {
		t.Errorf("ProcessImage() size = %v, want the instax square card", b)
	}

	plain, err := ProcessImage(context.Background(), createTestImage(80, 40), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b := plain.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("ProcessImage() size = %v, want 80x40", b)
	}
}
