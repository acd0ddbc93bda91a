package clock

import "time"

// Clock abstracts time for services that need to be tested with a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock { return systemClock{} }
