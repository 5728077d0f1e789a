package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	// Register decoders for formats the standard library lacks.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"photocache/internal/filesystem"
	"photocache/internal/logging"
	"photocache/internal/mediatypes"
	"photocache/internal/metrics"
)

// Policy controls whether an embedded preview may stand in for a full decode.
type Policy struct {
	embedded bool
	minSize  int
}

var (
	// PolicyNone always performs a full decode.
	PolicyNone = Policy{}
	// PolicyAny accepts any decodable embedded preview.
	PolicyAny = Policy{embedded: true}
)

// PolicyMinSize accepts an embedded preview only if its width or height is at least n.
func PolicyMinSize(n int) Policy {
	return Policy{embedded: true, minSize: n}
}

func (p Policy) String() string {
	switch {
	case !p.embedded:
		return "none"
	case p.minSize <= 0:
		return "any"
	default:
		return fmt.Sprintf("min-size(%d)", p.minSize)
	}
}

// Source identifies which attempt in the decode chain produced a raster.
type Source string

const (
	SourceEmbedded Source = "embedded"
	SourceRaw      Source = "raw"
	SourceRaster   Source = "raster"
	SourceFFmpeg   Source = "ffmpeg"
)

// StageRead is the DecodeError stage for failures reading the source file.
const StageRead Source = "read"

// DecodeError reports a failure to produce a raster from a source file.
type DecodeError struct {
	Path  string
	Stage Source
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Result is a decoded, orientation-corrected raster.
type Result struct {
	Image       *image.NRGBA
	Source      Source
	Orientation int
}

// Decoder turns source files into orientation-corrected rasters. It is safe
// for concurrent use.
type Decoder struct {
	raw    RawDeveloper
	ffmpeg bool
	retry  filesystem.RetryConfig
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRawDeveloper sets the RAW developer. The default uses libvips.
func WithRawDeveloper(dev RawDeveloper) Option {
	return func(d *Decoder) {
		d.raw = dev
	}
}

// WithFFmpeg enables or disables the ffmpeg fallback for rasters the Go
// decoders cannot read.
func WithFFmpeg(enabled bool) Option {
	return func(d *Decoder) {
		d.ffmpeg = enabled
	}
}

// New returns a Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		raw:    VipsDeveloper{},
		ffmpeg: true,
		retry:  filesystem.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodeOption adjusts a single Decode call.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	gate func() (release func())
}

// WithDevelopGate makes Decode call acquire before a full RAW development
// and the returned release afterwards. Embedded previews bypass the gate.
func WithDevelopGate(acquire func() (release func())) DecodeOption {
	return func(c *decodeConfig) {
		c.gate = acquire
	}
}

// Decode returns the raster for path under policy.
func (d *Decoder) Decode(path string, policy Policy, opts ...DecodeOption) (*image.NRGBA, error) {
	res, err := d.DecodeResult(path, policy, opts...)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// source carries per-call state through the attempt chain.
type source struct {
	path  string
	isRaw bool
	data  []byte
	cfg   decodeConfig
}

type attempt struct {
	stage Source
	run   func(src *source) (image.Image, error)
}

// DecodeResult is Decode plus which attempt produced the raster and the
// orientation that was applied.
func (d *Decoder) DecodeResult(path string, policy Policy, opts ...DecodeOption) (Result, error) {
	src := &source{
		path:  path,
		isRaw: mediatypes.IsRaw(path),
	}
	for _, opt := range opts {
		opt(&src.cfg)
	}

	if policy.embedded {
		data, release, err := mapFile(path, d.retry)
		if err != nil {
			metrics.DecodeErrorsTotal.WithLabelValues(string(StageRead)).Inc()
			return Result{}, &DecodeError{Path: path, Stage: StageRead, Err: err}
		}
		defer release()
		src.data = data
	}

	img, stage, err := d.runChain(src, d.chain(src, policy))
	if err != nil {
		metrics.DecodeErrorsTotal.WithLabelValues(string(stage)).Inc()
		return Result{}, &DecodeError{Path: path, Stage: stage, Err: err}
	}
	metrics.DecodeSourceTotal.WithLabelValues(string(stage)).Inc()

	orientation := d.orientation(src)
	out := applyOrientation(toNRGBA(img), orientation)

	logging.Debug("Decoded %s via %s: %dx%d (orientation %d)",
		path, stage, out.Bounds().Dx(), out.Bounds().Dy(), orientation)

	return Result{Image: out, Source: stage, Orientation: orientation}, nil
}

// chain builds the ordered attempts for a source.
func (d *Decoder) chain(src *source, policy Policy) []attempt {
	var attempts []attempt

	if policy.embedded {
		minSize := policy.minSize
		attempts = append(attempts, attempt{SourceEmbedded, func(src *source) (image.Image, error) {
			return embeddedPreview(src.data, minSize), nil
		}})
	}

	if src.isRaw {
		attempts = append(attempts, attempt{SourceRaw, d.develop})
		return attempts
	}

	attempts = append(attempts, attempt{SourceRaster, decodeRaster})
	if d.ffmpeg {
		attempts = append(attempts, attempt{SourceFFmpeg, func(src *source) (image.Image, error) {
			return decodeWithFFmpeg(src.path)
		}})
	}

	return attempts
}

// runChain returns the first raster any attempt produces. An attempt that
// returns (nil, nil) declined without error.
func (d *Decoder) runChain(src *source, attempts []attempt) (image.Image, Source, error) {
	var errs []error
	lastStage := StageRead

	for _, a := range attempts {
		img, err := safeRun(a, src)
		if err != nil {
			logging.Debug("Decode attempt %s failed for %s: %v", a.stage, src.path, err)
			errs = append(errs, fmt.Errorf("%s: %w", a.stage, err))
			lastStage = a.stage
			continue
		}
		if img != nil {
			return img, a.stage, nil
		}
	}

	if len(errs) == 0 {
		return nil, lastStage, errors.New("no decoder produced an image")
	}
	return nil, lastStage, errors.Join(errs...)
}

func safeRun(a attempt, src *source) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Decoder panic in %s stage for %s: %v\n%s", a.stage, src.path, r, debug.Stack())
			img = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.run(src)
}

func (d *Decoder) develop(src *source) (image.Image, error) {
	if d.raw == nil {
		return nil, errors.New("no RAW developer configured")
	}
	if src.cfg.gate != nil {
		start := time.Now()
		release := src.cfg.gate()
		metrics.RawLimiterWaitDuration.Observe(time.Since(start).Seconds())
		defer release()
	}
	return d.raw.Develop(src.path)
}

func decodeRaster(src *source) (image.Image, error) {
	if src.data != nil {
		return imaging.Decode(bytes.NewReader(src.data), imaging.AutoOrientation(false))
	}
	return imaging.Open(src.path, imaging.AutoOrientation(false))
}

// toNRGBA returns img as an origin-based NRGBA, copying only when it is not
// one already. Every attempt returns a fresh image, so no copy is shared.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// orientation resolves the EXIF orientation. When the file is already
// mapped its container tag is read first, so the RAW developer only opens
// the file for containers without one.
// Values outside 2..8 are reported as 1.
func (d *Decoder) orientation(src *source) int {
	value := 0
	if src.data != nil {
		value = containerOrientation(bytes.NewReader(src.data))
	}
	if value == 0 && src.isRaw && d.raw != nil {
		if v, ok := d.raw.Orientation(src.path); ok {
			value = v
		}
	}
	if value == 0 && src.data == nil {
		value = fileOrientation(src.path, d.retry)
	}
	if value < 2 || value > 8 {
		return 1
	}
	return value
}
