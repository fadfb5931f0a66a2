// Package clock pins answer timestamps to one civil timezone.
//
// Answers store their timestamps as zone-local strings, so every read and
// write must go through the same location for elapsed-time math to hold.
package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Layout is the storage format of answer timestamps (YYYY-MM-DD HH:mm:ss).
const Layout = "2006-01-02 15:04:05"

// Clock reads the current time in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the wall clock, mostly for tests.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) { c.now = fn }
}

// New loads zone (an IANA name such as "Asia/Manila") and returns a Clock.
func New(zone string, opts ...Option) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	c := &Clock{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location returns the zone every timestamp is expressed in.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Stamp formats Now for storage.
func (c *Clock) Stamp() string {
	return c.Format(c.Now())
}

// Format renders t in the clock's zone using Layout.
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// Parse reads a stored timestamp back as an instant in the clock's zone.
func (c *Clock) Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
