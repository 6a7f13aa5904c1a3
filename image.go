package panscale

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/panscale/utils"
	"golang.org/x/term"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedImage is returned when the source is not a decodable image.
	ErrUnsupportedImage = errors.New("panscale: unsupported image")
	// ErrReleased is returned when a released Source is accessed.
	ErrReleased = errors.New("panscale: image source released")
)

// Source is a decoded image pictures are built from. Regions may be
// requested from any goroutine.
type Source struct {
	mu     sync.RWMutex
	img    *image.NRGBA
	width  int
	height int
}

// NewSource wraps an already decoded image.
func NewSource(img image.Image) *Source {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Source{img: nrgba, width: b.Dx(), height: b.Dy()}
}

// DecodeSource decodes an image stream, applying the EXIF orientation if present.
func DecodeSource(r io.Reader) (*Source, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	return NewSource(img), nil
}

// LoadImageSource opens the image pointed to by locator, which is either a
// file path, an http(s) url or "-" for the standard input.
func LoadImageSource(ctx context.Context, locator string) (*Source, error) {
	switch {
	case locator == "-":
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return DecodeSource(os.Stdin)
	case utils.IsValidUrl(locator):
		f, err := utils.DownloadImage(ctx, locator)
		if err != nil {
			return nil, err
		}
		defer func() {
			f.Close()
			os.Remove(f.Name())
		}()
		return DecodeSource(f)
	}

	ctype, err := utils.DetectContentType(locator)
	if err != nil {
		return nil, fmt.Errorf("could not open the image %q: %w", locator, err)
	}
	if !strings.Contains(ctype, "image") {
		return nil, fmt.Errorf("%w: %q has content type %s", ErrUnsupportedImage, locator, ctype)
	}
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("could not open the image %q: %w", locator, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeSource(f)
}

// Width returns the image width in pixels.
func (s *Source) Width() int { return s.width }

// Height returns the image height in pixels.
func (s *Source) Height() int { return s.height }

// Region returns the pixels inside r, downsampled by sampleSize.
func (s *Source) Region(r image.Rectangle, sampleSize int) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.img == nil {
		return nil, ErrReleased
	}
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("region %v outside of the %dx%d image", r, s.width, s.height)
	}
	if sampleSize < 1 {
		sampleSize = 1
	}
	tile := imaging.Crop(s.img, r)
	if sampleSize == 1 {
		return tile, nil
	}
	w := int(math.Ceil(float64(r.Dx()) / float64(sampleSize)))
	h := int(math.Ceil(float64(r.Dy()) / float64(sampleSize)))
	return imaging.Resize(tile, w, h, imaging.Box), nil
}

// Clone returns an independent copy of the source, so that it can be handed
// to another view which releases it on its own.
func (s *Source) Clone() (*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.img == nil {
		return nil, ErrReleased
	}
	return NewSource(s.img), nil
}

// Release drops the decoded pixels. Further Region calls fail with ErrReleased.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
}

// calculateSampleSize returns the largest power of two sample size keeping
// the downsampled dimension at or above target.
func calculateSampleSize(raw, target int) int {
	sampleSize := 1
	if target <= 0 {
		return sampleSize
	}
	for raw/(sampleSize<<1) > target {
		sampleSize <<= 1
	}
	return sampleSize
}
