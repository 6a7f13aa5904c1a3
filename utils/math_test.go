package utils

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMath_MinMax(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1, Min(1, 2))
	assert.Equal(1, Min(2, 1))
	assert.Equal(2, Max(1, 2))
	assert.Equal(-0.5, Min(-0.5, 0.5))
	assert.Equal(3.0, Abs(-3.0))
}

func TestMath_Clamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.5, Clamp(0.5, 0.0, 1.0))
	assert.Equal(0.0, Clamp(-2.0, 0.0, 1.0))
	assert.Equal(1.0, Clamp(3.0, 0.0, 1.0))
	// Inverted interval resolves to the lower bound.
	assert.Equal(0.6, Clamp(0.1, 0.6, 0.4))
}

func TestMath_Lerp(t *testing.T) {
	assert.Equal(t, -1.0, Lerp(-1.0, 1.0, 0))
	assert.Equal(t, 0.0, Lerp(-1.0, 1.0, 0.5))
	assert.Equal(t, float32(1), Lerp(float32(-1), 1, 1))
}

func TestFormat_Time(t *testing.T) {
	assert.Equal(t, "250ms", FormatTime(250*time.Millisecond))
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 5.00s", FormatTime(125*time.Second))
}

func TestFormat_DecorateText(t *testing.T) {
	assert.Equal(t, ErrorColor+"boom"+DefaultColor, DecorateText("boom", ErrorMessage))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))
}

func TestFormat_HexToRGBA(t *testing.T) {
	c, err := HexToRGBA("#2bc4c8")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x2b, G: 0xc4, B: 0xc8, A: 0xff}, c)

	c, err = HexToRGBA("f0a")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x00, B: 0xaa, A: 0xff}, c)

	c, err = HexToRGBA("#11223380")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x80}, c)

	_, err = HexToRGBA("#12")
	assert.Error(t, err)
	_, err = HexToRGBA("#zzzzzz")
	assert.Error(t, err)
}
