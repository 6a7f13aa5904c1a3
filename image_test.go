package panscale

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImage_ShouldDecodeSource(t *testing.T) {
	src, err := DecodeSource(bytes.NewReader(encodePNG(t, makeImage(30, 20))))
	require.NoError(t, err)
	assert.Equal(t, 30, src.Width())
	assert.Equal(t, 20, src.Height())

	_, err = DecodeSource(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestImage_ShouldDownsampleRegions(t *testing.T) {
	src := NewSource(makeImage(101, 60))

	full, err := src.Region(image.Rect(0, 0, 101, 60), 1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(101, 60), full.Bounds().Size())

	half, err := src.Region(image.Rect(0, 0, 101, 60), 2)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(51, 30), half.Bounds().Size())

	clipped, err := src.Region(image.Rect(90, 50, 200, 200), 1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(11, 10), clipped.Bounds().Size())

	_, err = src.Region(image.Rect(200, 200, 300, 300), 1)
	assert.Error(t, err)

	src.Release()
	_, err = src.Region(image.Rect(0, 0, 10, 10), 1)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestImage_CalculateSampleSize(t *testing.T) {
	tests := []struct {
		raw, target, want int
	}{
		{raw: 1000, target: 1000, want: 1},
		{raw: 1000, target: 500, want: 1},
		{raw: 1000, target: 499, want: 2},
		{raw: 4000, target: 600, want: 4},
		{raw: 4000, target: 0, want: 1},
		{raw: 100, target: 800, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateSampleSize(tt.raw, tt.target), "raw %d target %d", tt.raw, tt.target)
	}
}

func TestImage_ShouldLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "sample.png")
	require.NoError(t, os.WriteFile(imgPath, encodePNG(t, makeImage(8, 4)), 0o644))

	src, err := LoadImageSource(context.Background(), imgPath)
	require.NoError(t, err)
	assert.Equal(t, 8, src.Width())

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello"), 0o644))
	_, err = LoadImageSource(context.Background(), txtPath)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = LoadImageSource(context.Background(), filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestPicture_ShouldTileDownsampledImage(t *testing.T) {
	src := NewSource(makeImage(1200, 700))
	p, err := newTiledPicture(src, 300, 256)
	require.NoError(t, err)

	assert.Equal(t, 2, p.sampleSize)
	require.Len(t, p.tiles, 6)
	assert.Equal(t, image.Pt(256, 256), p.tiles[0].size)
	last := p.tiles[len(p.tiles)-1]
	assert.Equal(t, image.Pt(88, 94), last.size)
	assert.InDelta(t, 1024.0/1200, last.domain.Left, 1e-12)
	assert.InDelta(t, 1.0, last.domain.Right, 1e-12)
	assert.InDelta(t, 1.0, last.domain.Bottom, 1e-12)

	_, err = newTiledPicture(nil, 300, 256)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
