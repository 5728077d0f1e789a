package cache

import (
	"fmt"
	"strings"
)

// Kind selects a rendition family and therefore a cache subdirectory.
type Kind int

const (
	// Thumbnail renditions are small grid images.
	Thumbnail Kind = iota
	// Preview renditions are medium-size single-image views.
	Preview
	// All addresses the whole cache root. Only valid for maintenance.
	All
)

const (
	// ThumbnailLongEdge is the maximum long edge of a thumbnail in pixels.
	ThumbnailLongEdge = 300
	// PreviewLongEdge is the maximum long edge of a preview in pixels.
	PreviewLongEdge = 800
	// DefaultQuality is the JPEG quality used for both rendition kinds.
	DefaultQuality = 85

	// Extension is the file extension of every cache entry.
	Extension = ".jpg"
)

// Kinds lists the rendition kinds that have their own subdirectory.
func Kinds() []Kind {
	return []Kind{Thumbnail, Preview}
}

// Subdir returns the directory name for the kind under the cache root.
// All maps to the root itself.
func (k Kind) Subdir() string {
	switch k {
	case Thumbnail:
		return "thumbnails"
	case Preview:
		return "previews"
	default:
		return ""
	}
}

// LongEdge returns the maximum long edge for the kind, or 0 for All.
func (k Kind) LongEdge() int {
	switch k {
	case Thumbnail:
		return ThumbnailLongEdge
	case Preview:
		return PreviewLongEdge
	default:
		return 0
	}
}

// Quality returns the JPEG quality for the kind.
func (k Kind) Quality() int {
	return DefaultQuality
}

// Renderable reports whether renditions of this kind can be generated.
func (k Kind) Renderable() bool {
	return k == Thumbnail || k == Preview
}

func (k Kind) String() string {
	switch k {
	case Thumbnail:
		return "thumbnail"
	case Preview:
		return "preview"
	case All:
		return "all"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name. It accepts the singular and plural forms
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thumbnail", "thumbnails":
		return Thumbnail, nil
	case "preview", "previews":
		return Preview, nil
	case "all", "":
		return All, nil
	default:
		return All, fmt.Errorf("unknown rendition kind %q", s)
	}
}
