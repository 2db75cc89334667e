package clock

import "time"

// Clock lets tests pin the time used for report dates and file names
type Clock interface {
	Now() time.Time
}

// SystemClock is the default implementation backed by time.Now
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Fixed always returns the same instant
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
