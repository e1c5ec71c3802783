package clock

import "time"

// Clock stamps player connections and match results, and measures session
// lengths. Tests substitute mocks.MockClock.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// System reads the wall clock. Times are in UTC so stored records and the
// admin API agree regardless of the host's zone.
type System struct{}

var _ Clock = System{}

// New returns the system clock
func New() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the wall-clock time elapsed since t
func (System) Since(t time.Time) time.Duration {
	return time.Since(t)
}
