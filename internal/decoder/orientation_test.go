package decoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// twoPixel returns a 2x1 image: red on the left, blue on the right.
func twoPixel() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)
	return img
}

func patterned(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}

func TestApplyOrientationPixels(t *testing.T) {
	tests := []struct {
		orientation int
		wantW       int
		wantH       int
		first       color.NRGBA // pixel at (0,0)
	}{
		{1, 2, 1, red},
		{2, 2, 1, blue},
		{3, 2, 1, blue},
		{4, 2, 1, red},
		{5, 1, 2, red},
		{6, 1, 2, red},
		{7, 1, 2, blue},
		{8, 1, 2, blue},
		{9, 2, 1, red},
		{0, 2, 1, red},
	}

	for _, tt := range tests {
		got := ApplyOrientation(twoPixel(), tt.orientation)
		b := got.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("orientation %d: dimensions = %dx%d, want %dx%d",
				tt.orientation, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			continue
		}
		if c := got.NRGBAAt(0, 0); c != tt.first {
			t.Errorf("orientation %d: pixel(0,0) = %v, want %v", tt.orientation, c, tt.first)
		}
	}
}

func TestApplyOrientationInvolutions(t *testing.T) {
	src := patterned(5, 3)

	for _, o := range []int{2, 3, 4} {
		twice := ApplyOrientation(ApplyOrientation(src, o), o)
		if !bytes.Equal(twice.Pix, src.Pix) || twice.Bounds() != src.Bounds() {
			t.Errorf("orientation %d applied twice is not identity", o)
		}
	}
}

func TestApplyOrientationQuarterTurnsCancel(t *testing.T) {
	src := patterned(5, 3)

	back := ApplyOrientation(ApplyOrientation(src, 6), 8)
	if !bytes.Equal(back.Pix, src.Pix) {
		t.Error("orientation 6 followed by 8 is not identity")
	}

	// Transpose and transverse are their own inverses.
	for _, o := range []int{5, 7} {
		twice := ApplyOrientation(ApplyOrientation(src, o), o)
		if !bytes.Equal(twice.Pix, src.Pix) {
			t.Errorf("orientation %d applied twice is not identity", o)
		}
	}
}

func TestContainerOrientation(t *testing.T) {
	data := buildTIFF(func(uint32) []ifdEntry {
		return []ifdEntry{{tag: 0x0112, typ: 3, value: 3}}
	}, nil)

	if got := containerOrientation(bytes.NewReader(data)); got != 3 {
		t.Errorf("containerOrientation() = %d, want 3", got)
	}
	if got := containerOrientation(bytes.NewReader([]byte("nothing"))); got != 0 {
		t.Errorf("containerOrientation(garbage) = %d, want 0", got)
	}
}
