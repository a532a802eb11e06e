package domain

import "time"

// Clock supplies "today" to the scheduler so runs are reproducible.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Today returns the current calendar day.
func (c SystemClock) Today() Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock always returns the same day.
type FixedClock struct {
	Date Date
}

// Today returns the frozen day.
func (c FixedClock) Today() Date { return c.Date }
