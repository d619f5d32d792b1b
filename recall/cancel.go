package recall

import "sync/atomic"

// StopSignal is a cooperative cancellation flag checked between files and
// between search passes during long-running imports and scans (spec
// §4.8.4, §5). It is distinct from context cancellation: a caller can
// trip it from another goroutine without needing a context plumbed
// through every call.
type StopSignal struct {
	tripped atomic.Bool
}

// NewStopSignal returns an untripped signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{}
}

// Stop trips the signal. Safe to call from any goroutine, any number of
// times.
func (s *StopSignal) Stop() {
	s.tripped.Store(true)
}

// Stopped reports whether Stop has been called.
func (s *StopSignal) Stopped() bool {
	return s.tripped.Load()
}

// Reset clears the signal so it can be reused for a subsequent job.
func (s *StopSignal) Reset() {
	s.tripped.Store(false)
}
