package gallery

// State is the scan state of one gallery.
type State struct {
	Width float64 `json:"width"`
	// OffY is the top of the next row.
	OffY float64 `json:"offY"`
	Rows int     `json:"rows"`
	// LastAnalyzed is the index of the last entry the scan accumulated,
	// -1 before the first one.
	LastAnalyzed int `json:"lastAnalyzed"`
	// Flushed counts rows flushed since the scan last yielded.
	Flushed     int     `json:"flushed"`
	HeightToSet float64 `json:"heightToSet"`
}

func newState(width, border float64) State {
	return State{Width: width, OffY: border, LastAnalyzed: -1}
}

func (st *State) rewind(border float64) {
	st.OffY = border
	st.Rows = 0
	st.LastAnalyzed = -1
	st.Flushed = 0
	st.HeightToSet = 0
}

// checkpoint is the state just before the trailing row was flushed, kept
// so that appended entries or newly passable errors can re-flow that row.
type checkpoint struct {
	lastAnalyzed int
	offY         float64
	rows         int
	heightToSet  float64
}

// Lifecycle is the controller's state machine position.
type Lifecycle int

const (
	StateIdle Lifecycle = iota
	StateInitializing
	StateScanning
	StateFlushing
	StateComplete
	StateResizing
	StateDestroyed
)

func (l Lifecycle) String() string {
	switch l {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StateFlushing:
		return "flushing"
	case StateComplete:
		return "complete"
	case StateResizing:
		return "resizing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
