package decoder

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
)

type ifdEntry struct {
	tag   uint16
	typ   uint16 // 3 SHORT, 4 LONG
	value uint32
}

// buildTIFF returns a little-endian TIFF with a single IFD followed by
// payload. The payload offset is passed to entries via payloadOffset.
func buildTIFF(entries func(payloadOffset uint32) []ifdEntry, payload []byte) []byte {
	sizing := entries(0)
	payloadOffset := uint32(8 + 2 + 12*len(sizing) + 4)
	list := entries(payloadOffset)
	sort.Slice(list, func(i, j int) bool { return list[i].tag < list[j].tag })

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(list)))
	for _, e := range list {
		_ = binary.Write(&buf, binary.LittleEndian, e.tag)
		_ = binary.Write(&buf, binary.LittleEndian, e.typ)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(1))
		if e.typ == 3 {
			_ = binary.Write(&buf, binary.LittleEndian, uint16(e.value))
			_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
		} else {
			_ = binary.Write(&buf, binary.LittleEndian, e.value)
		}
	}
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.Write(payload)
	return buf.Bytes()
}

// rawWithPreview builds a TIFF-container file with an orientation tag and an
// embedded JPEG preview.
func rawWithPreview(orientation uint32, preview []byte) []byte {
	return buildTIFF(func(off uint32) []ifdEntry {
		list := []ifdEntry{
			{tag: tagJPEGInterchangeFormat, typ: 4, value: off},
			{tag: tagJPEGInterchangeFormatLength, typ: 4, value: uint32(len(preview))},
		}
		if orientation > 0 {
			list = append(list, ifdEntry{tag: 0x0112, typ: 3, value: orientation})
		}
		return list
	}, preview)
}

// jpegWithOrientation prefixes a JPEG with an EXIF APP1 segment carrying
// the orientation tag.
func jpegWithOrientation(t *testing.T, img image.Image, orientation uint32) []byte {
	t.Helper()
	body := encodeJPEG(t, img)
	tiff := buildTIFF(func(uint32) []ifdEntry {
		return []ifdEntry{{tag: 0x0112, typ: 3, value: orientation}}
	}, nil)

	var buf bytes.Buffer
	buf.Write(body[:2])
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(2+6+len(tiff)))
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	buf.Write(body[2:])
	return buf.Bytes()
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeDeveloper stands in for libvips in tests.
type fakeDeveloper struct {
	width, height int
	orientation   int
	err           error
	panicMsg      string
	calls         atomic.Int32

	orientationCalls atomic.Int32
	last             atomic.Pointer[image.NRGBA]
}

func (f *fakeDeveloper) Develop(path string) (image.Image, error) {
	f.calls.Add(1)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	img := solidImage(f.width, f.height, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	f.last.Store(img)
	return img, nil
}

func (f *fakeDeveloper) Orientation(path string) (int, bool) {
	f.orientationCalls.Add(1)
	if f.orientation == 0 {
		return 0, false
	}
	return f.orientation, true
}
