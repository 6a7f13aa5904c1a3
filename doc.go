/*
Package panscale renders a large image inside a gio window and lets the user pan and
zoom it with touch, mouse and wheel gestures, while the visible region stays inside the
image and keeps the aspect ratio of the frame it is displayed in.

The visible region is a normalized rectangle owned by a viewport.Model. Gestures are
interpreted by the gesture package, flings and animated zooms are driven by the motion
package, and the image is turned into GPU textures by a Synchronizer running on its own
goroutine, so decoding and texture creation never stall the input loop.

Several views can mirror each other through the sticky bus package:

	b := bus.New()
	v := panscale.NewView("main", panscale.DefaultOptions(), w.Invalidate)
	panscale.Attach(v, b, panscale.AdapterOptions{})
	v.SetImageSource("testdata/sample.jpg")

	for e := range w.Events() {
		switch e := e.(type) {
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			v.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}

The command line interface shipped in cmd/panscale opens one or two such windows.
To check the supported flags type:

	$ panscale --help
*/
package panscale
