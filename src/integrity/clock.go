package integrity

import "time"

// Clock abstracts time reads so tests can pin timestamps and verify exact
// trail output.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystemClock returns a Clock backed by the wall clock.
func NewSystemClock() Clock { return systemClock{} }

// Timestamp renders t the way the state file and trail lines expect it:
// RFC 3339, UTC, second precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
