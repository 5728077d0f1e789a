package histogram

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestCompute(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 0})

	h := Compute(img)

	if got := h.Total(); got != 4 {
		t.Fatalf("Total() = %d, want 4", got)
	}
	if h.Red[255] != 2 || h.Red[0] != 2 {
		t.Errorf("Red[255]=%d Red[0]=%d, want 2/2", h.Red[255], h.Red[0])
	}
	if h.Green[255] != 2 || h.Blue[255] != 2 {
		t.Errorf("Green[255]=%d Blue[255]=%d, want 2/2", h.Green[255], h.Blue[255])
	}

	wantLuma := map[int]uint32{54: 1, 182: 1, 18: 1, 255: 1}
	for idx, want := range wantLuma {
		if h.Luma[idx] != want {
			t.Errorf("Luma[%d] = %d, want %d", idx, h.Luma[idx], want)
		}
	}
}

func TestLumaIndex(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    int
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{255, 0, 0, 54},
		{0, 255, 0, 182},
		{0, 0, 255, 18},
		{128, 128, 128, 128},
	}
	for _, tt := range tests {
		if got := lumaIndex(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("lumaIndex(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestComputeSubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)

	if got := Compute(sub).Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
}

func TestFromFile(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	path := filepath.Join(t.TempDir(), "h.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	h, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error: %v", err)
	}
	if h.Total() != 6 {
		t.Errorf("Total() = %d, want 6", h.Total())
	}

	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("FromFile() on missing file returned nil error")
	}
}
