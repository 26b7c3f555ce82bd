package gallery

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/loop"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/spinner"
	"justified-gallery/internal/suffix"
)

// Gallery lays out one container. All of its work runs as tasks on its
// scheduler; the exported methods only queue that work and may be called
// from any goroutine.
type Gallery struct {
	mu sync.Mutex

	id        uuid.UUID
	surface   Surface
	requester probe.Requester
	sched     loop.Scheduler
	settings  Settings
	resolver  *suffix.Resolver
	observer  SizeObserver
	spinner   *spinner.Animator
	shuffle   func(n int, swap func(i, j int))
	log       *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	lifecycle Lifecycle
	state     State
	row       BuildingRow
	entries   []*Entry
	all       []*Entry
	known     map[string]*Entry

	lastFetched  string
	tail         *checkpoint
	resizing     bool
	passErrors   bool
	continuation *loop.Task
	stopObserver func()
	shownHeight  float64

	subs         []subscriber
	nextSub      int
	events       chan Event
	eventsClosed bool
}

// Option customizes a Gallery.
type Option func(*Gallery)

// WithSizeObserver replaces the default width polling.
func WithSizeObserver(o SizeObserver) Option {
	return func(g *Gallery) { g.observer = o }
}

// WithShuffle replaces the shuffle used when Randomize is set.
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(g *Gallery) { g.shuffle = fn }
}

// WithSpinner configures the loading indicator.
func WithSpinner(dots int, timeSlot time.Duration) Option {
	return func(g *Gallery) { g.spinner = spinner.New(dots, timeSlot, g.surface) }
}

// WithContext sets the parent context of every probe request.
func WithContext(ctx context.Context) Option {
	return func(g *Gallery) { g.ctx = ctx }
}

// New validates settings and creates an idle gallery. Nothing is touched on
// the surface until Init runs.
func New(surface Surface, requester probe.Requester, sched loop.Scheduler, settings Settings, opts ...Option) (*Gallery, error) {
	if surface == nil || requester == nil || sched == nil {
		return nil, errors.New("gallery: surface, requester and scheduler are required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	resolver, err := suffix.New(settings.SizeRangeSuffixes)
	if err != nil {
		return nil, &SettingsError{Option: "sizeRangeSuffixes", Reason: err.Error()}
	}

	id := uuid.New()
	g := &Gallery{
		id:        id,
		surface:   surface,
		requester: requester,
		sched:     sched,
		settings:  settings,
		resolver:  resolver,
		log:       logging.With("gallery " + id.String()[:8]),
		ctx:       context.Background(),
		state:     newState(0, settings.border()),
		known:     make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.observer == nil {
		g.observer = PollingObserver{Interval: settings.RefreshTime, Width: surface.Width}
	}
	if g.spinner == nil {
		g.spinner = spinner.New(spinner.DefaultDots, spinner.DefaultTimeSlot, surface)
	}
	g.ctx, g.cancel = context.WithCancel(g.ctx)
	return g, nil
}

// ID returns the instance id carried by every event.
func (g *Gallery) ID() uuid.UUID {
	return g.id
}

// Init enumerates the entries, starts loading them and starts watching the
// container width.
func (g *Gallery) Init() {
	g.sched.Post(g.locked(g.init))
}

// Refresh picks up entries added to the surface. With rewind the whole
// list is enumerated again and laid out from the top; without it only the
// entries after the last one seen are added, and the trailing row is
// re-flowed together with them.
func (g *Gallery) Refresh(rewind bool) {
	g.sched.Post(g.locked(func() { g.refresh(rewind) }))
}

// Resize lays the gallery out again for a new container width.
func (g *Gallery) Resize(width float64) {
	g.sched.Post(g.locked(func() { g.checkWidth(width, 0) }))
}

// PassErrors lets the scan continue past entries whose image failed,
// leaving them out of the layout.
func (g *Gallery) PassErrors() {
	g.sched.Post(g.locked(g.passFailedEntries))
}

// Destroy stops all timers and pending work and restores every entry.
func (g *Gallery) Destroy() {
	g.sched.Post(g.locked(g.destroy))
}

// Lifecycle returns the current state machine position.
func (g *Gallery) Lifecycle() Lifecycle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lifecycle
}

// State returns a copy of the scan state.
func (g *Gallery) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Rows returns the number of committed rows.
func (g *Gallery) Rows() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Rows
}

// Height returns the container height last set on the surface.
func (g *Gallery) Height() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shownHeight
}

// Entries returns a snapshot of every enumerated entry, filtered ones
// included, in enumeration order.
func (g *Gallery) Entries() []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Snapshot, len(g.all))
	for i, e := range g.all {
		out[i] = e.snapshot()
	}
	return out
}

func (g *Gallery) locked(fn func()) func() {
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.lifecycle == StateDestroyed {
			return
		}
		fn()
	}
}

func (g *Gallery) init() {
	if g.lifecycle != StateIdle {
		g.log.Debug("init ignored, gallery is %s", g.lifecycle)
		return
	}
	g.lifecycle = StateInitializing
	metrics.GalleriesActive.Inc()

	g.state = newState(g.surface.Width(), g.settings.border())
	g.prepare(g.updateEntries(false))
	g.log.Debug("initialized with %d entries at width %v", len(g.entries), g.state.Width)

	g.lifecycle = StateScanning
	g.startAnalyzer()

	g.stopObserver = g.observer.Observe(g.sched, func(width float64) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.lifecycle == StateDestroyed {
			return
		}
		g.checkWidth(width, g.settings.RefreshSensitivity)
	})
}

// updateEntries enumerates the surface and returns the entries that take
// part in the layout for the first time in this enumeration.
func (g *Gallery) updateEntries(incremental bool) []*Entry {
	items := g.surface.Items()

	if incremental && g.lastFetched != "" {
		next := 0
		for i, it := range items {
			if it.ID == g.lastFetched {
				next = i + 1
			}
		}
		fresh := items[:0:0]
		for _, it := range items[next:] {
			if _, seen := g.known[it.ID]; !seen {
				fresh = append(fresh, it)
			}
		}
		items = fresh
	} else {
		g.entries = g.entries[:0]
		g.all = g.all[:0]
		current := make(map[string]*Entry, len(items))
		for _, it := range items {
			if e, ok := g.known[it.ID]; ok {
				current[it.ID] = e
			}
		}
		g.known = current
	}

	if len(items) == 0 {
		return nil
	}
	g.lastFetched = items[len(items)-1].ID

	batch := make([]Item, len(items))
	copy(batch, items)
	arrange(batch, &g.settings, g.shuffle)

	seen := make(map[string]bool, len(batch))
	var added []*Entry
	for i, it := range batch {
		if seen[it.ID] {
			g.log.Warn("duplicate entry id %q, ignoring", it.ID)
			continue
		}
		seen[it.ID] = true

		e := g.known[it.ID]
		if e == nil || e.OriginalSrc != it.Src {
			e = newEntry(it, 0)
			g.known[it.ID] = e
		}
		e.Item = it
		g.all = append(g.all, e)

		if !keep(it, i, &g.settings) {
			e.Filtered = true
			e.Visible = false
			g.surface.SetFiltered(it.ID, true)
			g.surface.Hide(it.ID)
			continue
		}
		e.Filtered = false
		if filtering(&g.settings) {
			g.surface.SetFiltered(it.ID, false)
		}
		e.Index = len(g.entries)
		g.entries = append(g.entries, e)
		added = append(added, e)
	}
	return added
}

// prepare starts loading entries that have no known size yet.
func (g *Gallery) prepare(entries []*Entry) {
	s := &g.settings
	for _, e := range entries {
		if e.Status != StatusUnloaded {
			continue
		}
		if s.Rel != nil || s.Target != nil {
			g.surface.SetLink(e.Item.ID, s.Rel, s.Target)
		}

		declared := e.Item.Width > 0 && e.Item.Height > 0
		switch {
		case e.Item.NoImage:
			w, h := e.Item.Width, e.Item.Height
			if w <= 0 {
				w = 1
			}
			if h <= 0 {
				h = 1
			}
			g.must(e.BeginLoad())
			g.must(e.FinishLoad(w, h))
		case declared && (!s.WaitThumbnailsLoad || e.OriginalSrc == ""):
			g.must(e.Skip(e.Item.Width, e.Item.Height))
		case e.OriginalSrc == "":
			g.must(e.BeginLoad())
			g.must(e.Fail())
		default:
			g.must(e.BeginLoad())
			g.startSpinner()
			g.load(e)
		}
	}
}

func (g *Gallery) load(e *Entry) {
	g.request(e.OriginalSrc, func(r probe.Result) {
		if e.Status != StatusLoading {
			return
		}
		if r.OK() {
			g.must(e.FinishLoad(float64(r.Size.Width), float64(r.Size.Height)))
		} else {
			g.log.Debug("image %s failed to load: %v", e.OriginalSrc, r.Err)
			g.must(e.Fail())
		}
		g.startAnalyzer()
	})
}

// request starts a probe whose result is handled on the scheduler, and only
// while the gallery is alive.
func (g *Gallery) request(src string, fn func(probe.Result)) {
	g.requester.Request(g.ctx, src, func(r probe.Result) {
		g.sched.Post(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.lifecycle == StateDestroyed {
				return
			}
			fn(r)
		})
	})
}

// startAnalyzer schedules the scan, superseding any pending continuation.
func (g *Gallery) startAnalyzer() {
	g.stopAnalyzer()
	var task *loop.Task
	task = g.sched.AfterFunc(g.settings.YieldDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.lifecycle == StateDestroyed || g.continuation != task {
			return
		}
		g.continuation = nil
		g.analyze()
	})
	g.continuation = task
}

func (g *Gallery) stopAnalyzer() {
	g.state.Flushed = 0
	g.continuation.Cancel()
	g.continuation = nil
}

// analyze advances the scan cursor through ready entries, flushing rows as
// they fill. It stops at the first entry still loading.
func (g *Gallery) analyze() {
	g.lifecycle = StateScanning
	s := &g.settings

	for i := g.state.LastAnalyzed + 1; i < len(g.entries); i++ {
		e := g.entries[i]
		switch {
		case e.Status.Ready():
			full := Accumulate(&g.row, e, s, g.state.Width)
			g.state.LastAnalyzed = i
			if !full {
				continue
			}
			g.flush(false)
			g.state.Flushed++
			if g.state.Flushed >= s.YieldEvery {
				metrics.ScanYields.Inc()
				g.startAnalyzer()
				return
			}
		case e.Status == StatusError && (s.SkipErrors || g.passErrors):
			continue
		case e.Status == StatusError:
			if g.pending() {
				return
			}
			g.log.Debug("scan halted at failed entry %q", e.Item.ID)
			g.complete()
			return
		default:
			return
		}
	}
	g.complete()
}

// pending reports whether any entry is still waiting for its probe.
func (g *Gallery) pending() bool {
	for _, e := range g.entries {
		if !e.Status.Resolved() {
			return true
		}
	}
	return false
}

func (g *Gallery) complete() {
	tail := checkpoint{
		lastAnalyzed: g.state.LastAnalyzed,
		offY:         g.state.OffY,
		rows:         g.state.Rows,
		heightToSet:  g.state.HeightToSet,
	}
	if g.row.Len() > 0 {
		tail.lastAnalyzed = g.row.Entries[0].Index - 1
		g.flush(true)
	}
	g.tail = &tail

	g.stopSpinner()
	g.stopAnalyzer()
	g.setFinalHeight(g.state.HeightToSet)
	g.lifecycle = StateComplete

	if g.resizing {
		g.resizing = false
		g.emit(EventResize)
	} else {
		g.emit(EventComplete)
	}
	g.log.Debug("layout complete: %d rows, height %v", g.state.Rows, g.state.HeightToSet)
}

func (g *Gallery) flush(isLast bool) {
	g.lifecycle = StateFlushing
	defer func() { g.lifecycle = StateScanning }()

	s := &g.settings
	hidden := s.MaxRowsCount > 0 && g.state.Rows >= s.MaxRowsCount
	out := Justify(&g.row, &g.state, s, isLast, hidden)

	if out.Hidden {
		for _, e := range g.row.Entries {
			g.hide(e)
		}
		g.row.Clear()
		metrics.RowsFlushed.WithLabelValues("hidden").Inc()
		return
	}

	for i, p := range out.Placements {
		g.place(g.row.Entries[i], p)
	}

	g.state.HeightToSet = g.state.OffY + out.Height + s.border()
	g.setTempHeight(g.state.HeightToSet)

	g.state.OffY += out.Height + s.Margins
	g.state.Rows++
	g.row.Clear()

	if isLast {
		metrics.RowsFlushed.WithLabelValues("last").Inc()
	} else {
		metrics.RowsFlushed.WithLabelValues("row").Inc()
	}
	g.emit(EventRowFlush)
}

func (g *Gallery) hide(e *Entry) {
	e.clearPlacement()
	e.Visible = false
	g.surface.Hide(e.Item.ID)
}

// place records the row geometry on the entry, positions it on the surface
// and upgrades its source to the thumbnail that fits the new size. An entry
// with a declared size becomes loaded once that thumbnail loads.
func (g *Gallery) place(e *Entry, p Placement) {
	e.JustifiedWidth, e.JustifiedHeight = p.Width, p.Height
	e.X, e.Y = p.X, p.Y
	e.RowHeight = p.RowHeight
	e.Row = p.Row
	e.Placed = true

	g.show(e)
	g.caption(e)

	if e.Item.NoImage || e.OriginalSrc == "" {
		return
	}
	src := g.thumbnailSrc(e, p.Width, p.Height)
	if src == "" || src == e.CurrentSrc {
		return
	}
	g.setSource(e, src)
	g.request(src, func(r probe.Result) {
		if e.CurrentSrc != src {
			return
		}
		if r.OK() {
			if e.Status == StatusSkipped {
				g.must(e.Promote())
			}
			return
		}
		g.log.Debug("thumbnail %s failed, reverting to %s", src, e.OriginalSrc)
		g.setSource(e, e.OriginalSrc)
	})
}

func (g *Gallery) show(e *Entry) {
	e.Visible = true
	g.surface.Place(e.Item.ID, Placement{
		ID:        e.Item.ID,
		Index:     e.Index,
		X:         e.X,
		Y:         e.Y,
		Width:     e.JustifiedWidth,
		Height:    e.JustifiedHeight,
		RowHeight: e.RowHeight,
		Row:       e.Row,
	})
}

func (g *Gallery) setSource(e *Entry, src string) {
	if e.CurrentSrc == src {
		return
	}
	e.CurrentSrc = src
	g.surface.SetSource(e.Item.ID, src)
}

func (g *Gallery) thumbnailSrc(e *Entry, width, height int) string {
	if g.settings.ThumbnailPath != nil {
		return g.settings.ThumbnailPath(e.OriginalSrc, width, height)
	}
	return g.resolver.Apply(e.OriginalSrc, width, height, g.settings.extension())
}

// caption creates a caption from the alt text or title when the entry has
// none of its own.
func (g *Gallery) caption(e *Entry) {
	if !g.settings.Captions || e.Item.NoImage || e.CreatedCaption || e.Item.Caption != "" {
		return
	}
	text := strings.TrimSpace(e.Item.Alt)
	if text == "" {
		text = strings.TrimSpace(e.Item.Title)
	}
	if text == "" {
		return
	}
	g.surface.SetCaption(e.Item.ID, text)
	e.CreatedCaption = true
}

func (g *Gallery) startSpinner() {
	if g.spinner.Running() {
		return
	}
	g.surface.ShowSpinner(true)
	g.spinner.Start(g.sched)
}

func (g *Gallery) stopSpinner() {
	if !g.spinner.Running() {
		return
	}
	g.spinner.Stop()
	g.surface.ShowSpinner(false)
}

// setTempHeight only ever grows the container, so a layout in progress
// never makes the page jump.
func (g *Gallery) setTempHeight(h float64) {
	if h > g.shownHeight {
		g.shownHeight = h
		g.surface.SetHeight(h)
	}
}

func (g *Gallery) setFinalHeight(h float64) {
	g.shownHeight = h
	g.surface.SetHeight(h)
}

// checkWidth rewinds and replays the layout when the width moved by more
// than sensitivity.
func (g *Gallery) checkWidth(width, sensitivity float64) {
	if g.lifecycle == StateIdle || g.lifecycle == StateInitializing {
		return
	}
	if math.Abs(width-g.state.Width) <= sensitivity {
		return
	}
	g.log.Debug("width changed from %v to %v, rewinding", g.state.Width, width)
	g.state.Width = width
	g.rewind()
	g.lifecycle = StateResizing
	g.resizing = true
	metrics.LayoutRewinds.Inc()
	g.startAnalyzer()
}

func (g *Gallery) rewind() {
	g.state.rewind(g.settings.border())
	g.row.Clear()
	g.tail = nil
}

// restoreTail moves the scan back to just before the trailing row of a
// completed layout so that row is built again.
func (g *Gallery) restoreTail() {
	if g.lifecycle != StateComplete || g.tail == nil {
		return
	}
	g.state.LastAnalyzed = g.tail.lastAnalyzed
	g.state.OffY = g.tail.offY
	g.state.Rows = g.tail.rows
	g.state.HeightToSet = g.tail.heightToSet
	g.row.Clear()
	g.tail = nil
}

func (g *Gallery) refresh(rewind bool) {
	if g.lifecycle == StateIdle {
		g.init()
		return
	}
	if rewind {
		g.prepare(g.updateEntries(false))
		g.rewind()
		g.startAnalyzer()
		return
	}
	added := g.updateEntries(true)
	if len(added) == 0 {
		return
	}
	g.prepare(added)
	g.restoreTail()
	g.startAnalyzer()
}

func (g *Gallery) passFailedEntries() {
	if g.passErrors || g.settings.SkipErrors {
		return
	}
	g.passErrors = true
	g.restoreTail()
	g.startAnalyzer()
}

func (g *Gallery) destroy() {
	wasActive := g.lifecycle != StateIdle

	if g.stopObserver != nil {
		g.stopObserver()
		g.stopObserver = nil
	}
	g.stopAnalyzer()
	g.stopSpinner()
	g.cancel()

	for _, e := range g.all {
		if e.CreatedCaption {
			g.surface.RemoveCaption(e.Item.ID)
		}
		g.surface.Reset(e.Item.ID)
		e.Reset()
	}
	g.row.Clear()
	g.state.rewind(g.settings.border())
	g.tail = nil
	g.shownHeight = 0
	g.surface.SetHeight(0)

	g.lifecycle = StateDestroyed
	if wasActive {
		metrics.GalleriesActive.Dec()
	}
	g.emit(EventDestroy)
}

// must logs transition errors. They indicate a controller bug, never bad
// input, so the layout carries on.
func (g *Gallery) must(err error) {
	if err != nil {
		g.log.Error("%v", err)
	}
}
