package clock

import "time"

// Clock allows injecting time into services. All TTL and decay math is a
// pure function of the instant it returns.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock pinned to a single instant (for tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// StepClock is a test clock whose instant can be moved forward.
type StepClock struct {
	now time.Time
}

func NewStep(t time.Time) *StepClock {
	return &StepClock{now: t.UTC()}
}

func (c *StepClock) Now() time.Time {
	return c.now
}

func (c *StepClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
