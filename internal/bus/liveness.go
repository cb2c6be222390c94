package bus

import "sync/atomic"

// Liveness is the shared flag every loop reads at its head. Any consumer that
// hits a terminal failure kills it, and producers stop pulling from the feed.
// This is a cooperative signal, not a hard cancellation.
type Liveness struct {
	alive atomic.Bool
}

// NewLiveness starts in the alive state.
func NewLiveness() *Liveness {
	l := &Liveness{}
	l.alive.Store(true)
	return l
}

// Alive reports whether the pipeline should keep running.
func (l *Liveness) Alive() bool {
	return l.alive.Load()
}

// Kill marks the pipeline dead.
func (l *Liveness) Kill() {
	l.alive.Store(false)
}
