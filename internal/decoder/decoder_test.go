package decoder

import (
	"errors"
	"image/color"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestPolicyString(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{PolicyNone, "none"},
		{PolicyAny, "any"},
		{PolicyMinSize(800), "min-size(800)"},
	}
	for _, tt := range tests {
		if got := tt.policy.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDecodeRawPolicies(t *testing.T) {
	preview := encodeJPEG(t, solidImage(200, 100, color.NRGBA{R: 255, A: 255}))
	data := rawWithPreview(0, preview)

	tests := []struct {
		name       string
		policy     Policy
		wantSource Source
		wantW      int
		wantH      int
		wantCalls  int32
	}{
		{"any uses embedded", PolicyAny, SourceEmbedded, 100, 200, 0},
		{"min size satisfied", PolicyMinSize(150), SourceEmbedded, 100, 200, 0},
		{"min size too large develops", PolicyMinSize(800), SourceRaw, 800, 1200, 1},
		{"none develops", PolicyNone, SourceRaw, 800, 1200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "photo.CR2", data)
			dev := &fakeDeveloper{width: 1200, height: 800, orientation: 6}
			d := New(WithRawDeveloper(dev), WithFFmpeg(false))

			res, err := d.DecodeResult(path, tt.policy)
			if err != nil {
				t.Fatalf("DecodeResult() error: %v", err)
			}
			if res.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", res.Source, tt.wantSource)
			}
			if res.Orientation != 6 {
				t.Errorf("Orientation = %d, want 6", res.Orientation)
			}
			b := res.Image.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			if got := dev.calls.Load(); got != tt.wantCalls {
				t.Errorf("Develop calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestDecodeRawOrientationFallsBackToContainer(t *testing.T) {
	preview := encodeJPEG(t, solidImage(64, 32, color.NRGBA{G: 255, A: 255}))
	path := writeFile(t, "photo.nef", rawWithPreview(8, preview))

	d := New(WithRawDeveloper(&fakeDeveloper{}), WithFFmpeg(false))
	res, err := d.DecodeResult(path, PolicyAny)
	if err != nil {
		t.Fatalf("DecodeResult() error: %v", err)
	}
	if res.Orientation != 8 {
		t.Errorf("Orientation = %d, want 8", res.Orientation)
	}
	if b := res.Image.Bounds(); b.Dx() != 32 || b.Dy() != 64 {
		t.Errorf("dimensions = %dx%d, want 32x64", b.Dx(), b.Dy())
	}
}

func TestDecodeRawContainerOrientationSkipsDeveloper(t *testing.T) {
	preview := encodeJPEG(t, solidImage(64, 32, color.NRGBA{G: 255, A: 255}))
	path := writeFile(t, "photo.cr2", rawWithPreview(3, preview))

	dev := &fakeDeveloper{orientation: 6}
	d := New(WithRawDeveloper(dev), WithFFmpeg(false))

	res, err := d.DecodeResult(path, PolicyAny)
	if err != nil {
		t.Fatalf("DecodeResult() error: %v", err)
	}
	if res.Orientation != 3 {
		t.Errorf("Orientation = %d, want container value 3", res.Orientation)
	}
	if got := dev.orientationCalls.Load(); got != 0 {
		t.Errorf("developer Orientation called %d times, want 0", got)
	}
}

func TestDecodeKeepsDevelopedRaster(t *testing.T) {
	path := writeFile(t, "photo.raf", []byte("not a tiff"))
	dev := &fakeDeveloper{width: 40, height: 20}
	d := New(WithRawDeveloper(dev), WithFFmpeg(false))

	img, err := d.Decode(path, PolicyNone)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if img != dev.last.Load() {
		t.Error("developed NRGBA raster was copied instead of reused")
	}
}

func TestDecodeRawDevelopError(t *testing.T) {
	path := writeFile(t, "photo.arw", []byte("not a tiff"))
	wantErr := errors.New("unsupported camera")
	d := New(WithRawDeveloper(&fakeDeveloper{err: wantErr}), WithFFmpeg(false))

	_, err := d.Decode(path, PolicyAny)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Stage != SourceRaw {
		t.Errorf("Stage = %s, want %s", de.Stage, SourceRaw)
	}
	if de.Path != path {
		t.Errorf("Path = %q, want %q", de.Path, path)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error does not wrap developer error: %v", err)
	}
}

func TestDecodeRecoversPanic(t *testing.T) {
	path := writeFile(t, "photo.dng", []byte("garbage"))
	d := New(WithRawDeveloper(&fakeDeveloper{panicMsg: "index out of range"}), WithFFmpeg(false))

	_, err := d.Decode(path, PolicyNone)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Stage != SourceRaw {
		t.Errorf("Stage = %s, want %s", de.Stage, SourceRaw)
	}
}

func TestDecodeDevelopGate(t *testing.T) {
	path := writeFile(t, "photo.cr2", []byte("no preview"))
	d := New(WithRawDeveloper(&fakeDeveloper{width: 10, height: 10}), WithFFmpeg(false))

	var acquired, released int
	gate := WithDevelopGate(func() func() {
		acquired++
		return func() { released++ }
	})

	if _, err := d.Decode(path, PolicyAny, gate); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if acquired != 1 || released != 1 {
		t.Errorf("gate acquired=%d released=%d, want 1/1", acquired, released)
	}

	preview := encodeJPEG(t, solidImage(20, 10, color.NRGBA{A: 255}))
	withPreview := writeFile(t, "photo.cr2", rawWithPreview(0, preview))
	acquired, released = 0, 0
	if _, err := d.Decode(withPreview, PolicyAny, gate); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if acquired != 0 {
		t.Errorf("gate acquired for embedded preview")
	}
}

func TestDecodeRaster(t *testing.T) {
	src := solidImage(40, 30, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	tests := []struct {
		name   string
		file   string
		data   []byte
		policy Policy
	}{
		{"png full", "a.png", encodePNG(t, src), PolicyNone},
		{"png with policy", "a.png", encodePNG(t, src), PolicyAny},
		{"jpeg full", "a.jpg", encodeJPEG(t, src), PolicyNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			d := New(WithRawDeveloper(&fakeDeveloper{}), WithFFmpeg(false))

			res, err := d.DecodeResult(path, tt.policy)
			if err != nil {
				t.Fatalf("DecodeResult() error: %v", err)
			}
			if res.Source != SourceRaster {
				t.Errorf("Source = %s, want raster", res.Source)
			}
			if b := res.Image.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
				t.Errorf("dimensions = %dx%d, want 40x30", b.Dx(), b.Dy())
			}
		})
	}
}

func TestDecodeJPEGOrientation(t *testing.T) {
	data := jpegWithOrientation(t, solidImage(40, 20, color.NRGBA{B: 255, A: 255}), 6)

	for _, policy := range []Policy{PolicyNone, PolicyMinSize(1000)} {
		t.Run(policy.String(), func(t *testing.T) {
			path := writeFile(t, "rotated.jpg", data)
			d := New(WithFFmpeg(false))

			res, err := d.DecodeResult(path, policy)
			if err != nil {
				t.Fatalf("DecodeResult() error: %v", err)
			}
			if res.Orientation != 6 {
				t.Errorf("Orientation = %d, want 6", res.Orientation)
			}
			if b := res.Image.Bounds(); b.Dx() != 20 || b.Dy() != 40 {
				t.Errorf("dimensions = %dx%d, want 20x40", b.Dx(), b.Dy())
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	d := New(WithRawDeveloper(&fakeDeveloper{}), WithFFmpeg(false))

	t.Run("missing file with embedded policy", func(t *testing.T) {
		_, err := d.Decode(filepath.Join(t.TempDir(), "missing.jpg"), PolicyAny)
		var de *DecodeError
		if !errors.As(err, &de) || de.Stage != StageRead {
			t.Fatalf("error = %v, want read-stage DecodeError", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("error should wrap fs.ErrNotExist: %v", err)
		}
	})

	t.Run("corrupt raster", func(t *testing.T) {
		path := writeFile(t, "broken.png", []byte("\x89PNG garbage"))
		_, err := d.Decode(path, PolicyAny)
		var de *DecodeError
		if !errors.As(err, &de) || de.Stage != SourceRaster {
			t.Fatalf("error = %v, want raster-stage DecodeError", err)
		}
	})
}

func TestExtractJPEGBoundsCheck(t *testing.T) {
	preview := encodeJPEG(t, solidImage(8, 8, color.NRGBA{A: 255}))
	data := buildTIFF(func(off uint32) []ifdEntry {
		return []ifdEntry{
			{tag: tagJPEGInterchangeFormat, typ: 4, value: off},
			{tag: tagJPEGInterchangeFormatLength, typ: 4, value: uint32(len(preview) + 100)},
		}
	}, preview)

	if got := extractJPEG(data); got != nil {
		t.Errorf("extractJPEG() returned %d bytes for out-of-range length", len(got))
	}

	valid := rawWithPreview(0, preview)
	if got := extractJPEG(valid); len(got) != len(preview) {
		t.Errorf("extractJPEG() = %d bytes, want %d", len(got), len(preview))
	}
}

func TestEmbeddedPreviewMinSize(t *testing.T) {
	preview := encodeJPEG(t, solidImage(160, 120, color.NRGBA{A: 255}))
	data := rawWithPreview(0, preview)

	if embeddedPreview(data, 0) == nil {
		t.Error("embeddedPreview(min 0) = nil, want image")
	}
	if embeddedPreview(data, 160) == nil {
		t.Error("embeddedPreview(min 160) = nil, want image (width qualifies)")
	}
	if embeddedPreview(data, 161) != nil {
		t.Error("embeddedPreview(min 161) returned an image below the minimum")
	}
	if embeddedPreview(nil, 0) != nil {
		t.Error("embeddedPreview(nil) returned an image")
	}
}
