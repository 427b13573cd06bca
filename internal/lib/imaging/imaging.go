package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	dimaging "github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const (
	DefaultThumbWidth = 900
	DefaultQuality    = 85
	// DefaultMaxPixels is 0x3FFF * 0x3FFF.
	DefaultMaxPixels  = 268402689
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooManyPixels   = errors.New("image dimensions exceed limit")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Sniff detects the content type of data and returns it with the canonical
// file extension. Only jpeg, png and webp are accepted.
func Sniff(data []byte) (contentType, ext string, err error) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if e, ok := allowedTypes[m.String()]; ok {
			return m.String(), e, nil
		}
	}

	return mt.String(), "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// Options control a transcode.
type Options struct {
	ThumbWidth uint
	Quality    int
	MaxPixels  int
}

func (o Options) withDefaults() Options {
	if o.ThumbWidth == 0 {
		o.ThumbWidth = DefaultThumbWidth
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}

	return o
}

// Result holds the encoded renditions of one source image.
type Result struct {
	Full   []byte
	Thumb  []byte
	Width  int
	Height int
}

// CheckDimensions reads only the image header and rejects canvases larger
// than maxPixels. A non-positive maxPixels means DefaultMaxPixels.
func CheckDimensions(data []byte, maxPixels int) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decode image header: empty canvas %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	return nil
}

// Transcode re-encodes data as JPEG and builds a thumbnail no wider than
// opts.ThumbWidth. EXIF orientation is applied before encoding, and small
// images are never enlarged.
func Transcode(data []byte, opts Options) (Result, error) {
	opts = opts.withDefaults()

	if _, _, err := Sniff(data); err != nil {
		return Result{}, err
	}

	if err := CheckDimensions(data, opts.MaxPixels); err != nil {
		return Result{}, err
	}

	src, err := dimaging.Decode(bytes.NewReader(data), dimaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	flat := flatten(src)
	bounds := flat.Bounds()

	full, err := encodeJPEG(flat, opts.Quality)
	if err != nil {
		return Result{}, err
	}

	thumbSrc := image.Image(flat)
	if uint(bounds.Dx()) > opts.ThumbWidth {
		thumbSrc = resize.Resize(opts.ThumbWidth, 0, flat, resize.Lanczos3)
	}

	thumb, err := encodeJPEG(thumbSrc, opts.Quality)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Full:   full,
		Thumb:  thumb,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// flatten draws src over white so transparent areas don't turn black in JPEG.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)

	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
