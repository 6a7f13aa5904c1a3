package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/esimov/panscale"
	"github.com/esimov/panscale/bus"
	"github.com/esimov/panscale/utils"
)

const HelpBanner = `
┌─┐┌─┐┌┐┌┌─┐┌─┐┌─┐┬  ┌─┐
├─┘├─┤│││└─┐│  ├─┤│  ├┤
┴  ┴ ┴┘└┘└─┘└─┘┴ ┴┴─┘└─┘

Pan and zoom large images.
    Version: %s

`

// pipeName is the file name that indicates stdin is being used.
const pipeName = "-"

// closeTimeout bounds the time spent releasing the views on exit.
const closeTimeout = 2 * time.Second

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image: file path, URL or - for stdin")
	mirror      = flag.Bool("mirror", false, "Open a second window mirroring the viewport")
	frameAspect = flag.String("frame", "", "Crop the image to a WxH frame, e.g. 16x9")
	stateFile   = flag.String("state", "", "File the viewport is restored from and saved to")
	debug       = flag.Bool("debug", false, "Log debug messages and show the viewport minimap")
	minSize     = flag.Float64("min", panscale.DefaultOptions().MinViewportSize, "Smallest visible fraction of the image")
	tapZoom     = flag.Float64("zoom", panscale.DefaultOptions().DoubleTapZoom, "Zoom level of a double tap")
	tileSize    = flag.Int("tile", panscale.DefaultTileSize, "Texture tile size")
	hintColor   = flag.String("color", "#2bc4c8", "Overlay color")
	width       = flag.Int("width", 0, "Window width")
	height      = flag.Int("height", 0, "Window height")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, fmt.Sprintf(HelpBanner, Version))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		panscale.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	opts := panscale.DefaultOptions()
	opts.MinViewportSize = *minSize
	opts.DoubleTapZoom = *tapZoom
	opts.TileSize = *tileSize

	aspect, err := parseFrame(*frameAspect)
	if err != nil {
		log.Fatalf(utils.DecorateText("Invalid frame: %v", utils.ErrorMessage), err)
	}
	overlay, err := utils.HexToRGBA(*hintColor)
	if err != nil {
		log.Fatalf(utils.DecorateText("Invalid overlay color: %v", utils.ErrorMessage), err)
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ PANSCALE", utils.StatusMessage),
		utils.DecorateText("is loading the image...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*200, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		os.Exit(1)
	}()

	now := time.Now()
	spinner.Start()
	src, err := panscale.LoadImageSource(context.Background(), *source)
	if err != nil {
		spinner.StopMsg = fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ PANSCALE", utils.StatusMessage),
			utils.DecorateText("could not load the image ✘", utils.ErrorMessage))
		spinner.Stop()
		log.Fatalf(
			utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
	spinner.StopMsg = fmt.Sprintf("%s %s %s\n",
		utils.DecorateText("⚡ PANSCALE", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("loaded %s image in", utils.FormatSize(src.Width(), src.Height())), utils.DefaultMessage),
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	spinner.Stop()

	w, h := *width, *height
	if w <= 0 || h <= 0 {
		w, h = src.Width(), src.Height()
	}

	b := bus.New()
	primary := newWindow("main", "panscale", w, h, opts, overlay, spinner)
	primary.View().SetFrameAspect(aspect)
	panscale.Attach(primary.View(), b, panscale.AdapterOptions{})
	guis := []*panscale.Gui{primary}

	if *mirror {
		mirrorSrc, err := src.Clone()
		if err != nil {
			log.Fatalf(utils.DecorateText("Failed to copy the source image: %v", utils.ErrorMessage), err)
		}
		m := newWindow("mirror", "panscale mirror", w/2, h/2, opts, overlay, spinner)
		panscale.Attach(m.View(), b, panscale.AdapterOptions{FollowFrame: true})
		m.View().SetSource(mirrorSrc)
		guis = append(guis, m)
	}
	primary.View().SetSource(src)

	if *stateFile != "" {
		if err := restoreState(primary.View(), *stateFile); err != nil {
			log.Printf(utils.DecorateText("Could not restore the viewport: %v", utils.ErrorMessage), err)
		}
	}

	go func() {
		var wg sync.WaitGroup
		wg.Add(len(guis))
		for _, g := range guis {
			go func(g *panscale.Gui) {
				defer wg.Done()
				if err := g.Run(); err != nil {
					log.Printf(utils.DecorateText("Window error: %v", utils.ErrorMessage), err)
				}
			}(g)
		}
		wg.Wait()

		if *stateFile != "" {
			if err := os.WriteFile(*stateFile, primary.View().SaveState(nil), 0o644); err != nil {
				log.Printf(utils.DecorateText("Could not save the viewport: %v", utils.ErrorMessage), err)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		for _, g := range guis {
			if err := g.View().Close(ctx); err != nil {
				log.Printf(utils.DecorateText("Could not release the view: %v", utils.ErrorMessage), err)
			}
		}
		os.Exit(0)
	}()
	app.Main()
}

// newWindow creates a window whose hint is toggled by single taps.
func newWindow(id, title string, w, h int, opts panscale.Options, overlay color.NRGBA, spinner *utils.Spinner) *panscale.Gui {
	g := panscale.NewGUI(id, title, w, h, opts)
	g.Debug = *debug
	g.Spinner = spinner
	g.SetOverlayColor(overlay)
	g.SetHint("drag to pan · pinch, double tap or ctrl+scroll to zoom · esc to quit")
	g.View().OnSingleTap(g.ToggleHint)
	return g
}

// parseFrame parses a WxH frame into its aspect ratio. An empty frame uses
// the window aspect.
func parseFrame(frame string) (float64, error) {
	if frame == "" {
		return 0, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(frame), "x")
	if !ok {
		return 0, fmt.Errorf("%q is not in WxH form", frame)
	}
	fw, err := strconv.ParseFloat(ws, 64)
	if err != nil {
		return 0, err
	}
	fh, err := strconv.ParseFloat(hs, 64)
	if err != nil {
		return 0, err
	}
	if fw <= 0 || fh <= 0 {
		return 0, fmt.Errorf("%q must have positive sides", frame)
	}
	return fw / fh, nil
}

// restoreState restores the viewport saved in path. A missing file is not an error.
func restoreState(v *panscale.View, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = v.RestoreState(data)
	return err
}
