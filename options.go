package panscale

import (
	"time"

	"github.com/esimov/panscale/gesture"
	"github.com/esimov/panscale/motion"
	"github.com/esimov/panscale/viewport"
)

// DefaultTileSize is the edge, in texture pixels, of the tiles a picture is split into.
const DefaultTileSize = 512

// Options configures a View. Distances are expressed in device independent
// pixels (dp) and converted with the window's pixel density.
type Options struct {
	// MinViewportSize is the smallest fraction of the image visible on the
	// tight axis, which bounds the maximum zoom level.
	MinViewportSize float64
	// DoubleTapZoom is the zoom level a double tap zooms in to.
	DoubleTapZoom float64
	// ZoomToggleThreshold is the zoom level from which a double tap zooms out.
	ZoomToggleThreshold float64
	// ZoomDuration is the length of animated zooms.
	ZoomDuration time.Duration
	// DoubleTapTimeout separates a double tap from two single taps.
	DoubleTapTimeout time.Duration
	// TouchSlop is the distance in dp a pointer may move before a tap turns into a drag.
	TouchSlop float64
	// DoubleTapSlop is the largest distance in dp between the taps of a double tap.
	DoubleTapSlop float64
	// MinFlingVelocity and MaxFlingVelocity bound release velocities, in dp per second.
	MinFlingVelocity float64
	MaxFlingVelocity float64
	// FlingFriction is the drag coefficient of flings. It must be negative.
	FlingFriction float64
	// TileSize is the edge of the picture tiles in texture pixels.
	TileSize int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		MinViewportSize:     viewport.DefaultMinSize,
		DoubleTapZoom:       2,
		ZoomToggleThreshold: 1.5,
		ZoomDuration:        motion.DefaultZoomDuration,
		DoubleTapTimeout:    300 * time.Millisecond,
		TouchSlop:           8,
		DoubleTapSlop:       100,
		MinFlingVelocity:    50,
		MaxFlingVelocity:    8000,
		FlingFriction:       motion.DefaultFriction,
		TileSize:            DefaultTileSize,
	}
}

// gestureConfig converts the options to pixels for a display with pxPerDp
// pixels per dp.
func (o Options) gestureConfig(pxPerDp float64) gesture.Config {
	if pxPerDp <= 0 {
		pxPerDp = 1
	}
	cfg := gesture.DefaultConfig()
	cfg.DoubleTapZoom = o.DoubleTapZoom
	cfg.ZoomToggleThreshold = o.ZoomToggleThreshold
	cfg.ZoomDuration = o.ZoomDuration
	cfg.DoubleTapTimeout = o.DoubleTapTimeout
	cfg.TouchSlop = o.TouchSlop * pxPerDp
	cfg.DoubleTapSlop = o.DoubleTapSlop * pxPerDp
	cfg.MinFlingVelocity = o.MinFlingVelocity * pxPerDp
	cfg.MaxFlingVelocity = o.MaxFlingVelocity * pxPerDp
	cfg.FlingFriction = o.FlingFriction
	cfg.QuickScaleDistance *= pxPerDp
	return cfg
}

func (o Options) tileSize() int {
	if o.TileSize <= 0 {
		return DefaultTileSize
	}
	return o.TileSize
}
