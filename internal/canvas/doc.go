// Package canvas provides an in-memory gallery.Surface.
//
// A [Canvas] records every placement, source change and caption the gallery
// engine makes, and turns them into a [Layout] grouped by row. The service
// and the jglayout command use it to run the engine without a browser:
// [Render] drives one gallery over a canvas until the layout completes.
package canvas
