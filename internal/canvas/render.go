package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"justified-gallery/internal/gallery"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/loop"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/probe"
)

// ErrTimeout is returned by Render when ctx ends before the layout completes.
var ErrTimeout = errors.New("canvas: layout did not complete in time")

// Result is a completed layout together with the entry states behind it.
type Result struct {
	Gallery string             `json:"gallery"`
	Layout  Layout             `json:"layout"`
	Entries []gallery.Snapshot `json:"entries,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
}

// Render runs one gallery over c on a private loop and returns the first
// completed layout. The gallery is destroyed before Render returns. Width
// polling is disabled: the canvas width is fixed for the duration.
func Render(ctx context.Context, c *Canvas, requester probe.Requester, settings gallery.Settings) (Result, error) {
	start := time.Now()
	settings.RefreshTime = 0

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := loop.New(0)
	go l.Run(runCtx)
	defer l.Close()

	g, err := gallery.New(c, requester, l, settings, gallery.WithContext(runCtx))
	if err != nil {
		metrics.LayoutsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	completed := make(chan Result, 1)
	destroyed := make(chan struct{})
	g.Subscribe(func(ev gallery.Event) {
		switch ev.Type {
		case gallery.EventComplete, gallery.EventResize:
			// Subscribers run on the loop, so nothing moves while the
			// snapshot is taken.
			select {
			case completed <- Result{Gallery: ev.Gallery.String(), Layout: c.Layout(), Entries: g.Entries()}:
			default:
			}
		case gallery.EventDestroy:
			close(destroyed)
		}
	})
	g.Init()

	var res Result
	select {
	case res = <-completed:
	case <-ctx.Done():
		metrics.LayoutsTotal.WithLabelValues("timeout").Inc()
		logging.Warn("layout of %d entries timed out after %v", len(c.Items()), time.Since(start))
		g.Destroy()
		return Result{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	g.Destroy()
	select {
	case <-destroyed:
	case <-ctx.Done():
	}

	res.Elapsed = time.Since(start)
	metrics.LayoutsTotal.WithLabelValues("complete").Inc()
	metrics.LayoutDuration.Observe(res.Elapsed.Seconds())
	recordStatuses(res.Entries)
	logging.Debug("layout %s: %d rows, %d tiles, height %v in %v",
		res.Gallery, len(res.Layout.Rows), res.Layout.Tiles(), res.Layout.Height, res.Elapsed)
	return res, nil
}

func recordStatuses(entries []gallery.Snapshot) {
	counts := map[string]int{}
	for _, s := range []gallery.Status{gallery.StatusUnloaded, gallery.StatusLoading, gallery.StatusLoaded, gallery.StatusSkipped, gallery.StatusError} {
		counts[s.String()] = 0
	}
	for _, e := range entries {
		counts[e.Status]++
	}
	for status, n := range counts {
		metrics.EntriesByStatus.WithLabelValues(status).Set(float64(n))
	}
}
