package clock

import "time"

// FakeClock freezes wall time so tests can pin the calendar month used
// for invoicing lookups.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time { return c.now }

// Set moves the clock to an absolute instant.
func (c *FakeClock) Set(t time.Time) { c.now = t.UTC() }

func (c *FakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
