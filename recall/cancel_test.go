package recall

import "testing"

func TestStopSignal_StartsUntripped(t *testing.T) {
	s := NewStopSignal()
	if s.Stopped() {
		t.Fatalf("expected fresh signal to be untripped")
	}
}

func TestStopSignal_StopTripsAndResetClears(t *testing.T) {
	s := NewStopSignal()
	s.Stop()
	if !s.Stopped() {
		t.Fatalf("expected tripped after Stop")
	}
	s.Reset()
	if s.Stopped() {
		t.Fatalf("expected untripped after Reset")
	}
}
