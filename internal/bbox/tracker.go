package bbox

// State is the life-cycle state of a Tracker.
type State int

const (
	// Active means at least one cell is alive.
	Active State = iota
	// Extinct means the population is zero. It is absorbing.
	Extinct
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Extinct:
		return "extinct"
	default:
		return "unknown"
	}
}

// Margin is how far a live region can spread in one generation.
const Margin = 1

// Tracker holds the live-cell box of the most recent generation on a
// size x size grid. It is a value type: Advance returns the next tracker and
// leaves the receiver unchanged.
type Tracker struct {
	box  Box
	size int
}

// NewTracker starts tracking from an initial live-cell box.
func NewTracker(size int, live Box) Tracker {
	return Tracker{box: live.Clamp(size), size: size}
}

// Box returns the tracked live-cell box.
func (t Tracker) Box() Box { return t.box }

// Size returns the grid side length.
func (t Tracker) Size() int { return t.size }

// State reports Active or Extinct.
func (t Tracker) State() State {
	if t.box.IsEmpty() {
		return Extinct
	}
	return Active
}

// ScanRegion returns the only cells that can be alive next generation: the
// tracked box grown by Margin and clamped to the grid. Any cell born next
// generation has three live neighbours inside the box, so it lies within one
// cell of it. An extinct tracker scans nothing.
func (t Tracker) ScanRegion() Box {
	if t.State() == Extinct {
		return Empty()
	}
	return t.box.Expand(Margin).Clamp(t.size)
}

// Advance moves to the box of cells alive in the generation just computed.
// Once extinct, the tracker stays extinct.
func (t Tracker) Advance(live Box) Tracker {
	if t.State() == Extinct {
		return t
	}
	return Tracker{box: live.Clamp(t.size), size: t.size}
}
