package task

import "time"

const (
	// layoutFractional is ISO-8601 with a required fractional-seconds part.
	layoutFractional = "2006-01-02T15:04:05.999999999Z07:00"

	// layoutWhole is ISO-8601 without fractional seconds.
	layoutWhole = "2006-01-02T15:04:05Z07:00"

	// layoutOut is used for timestamps written by this package.
	layoutOut = "2006-01-02T15:04:05.000Z07:00"
)

// ParseTimestamp parses an ISO-8601 timestamp, trying the fractional-seconds
// form first and then the plain form. ok is false if neither matches.
func ParseTimestamp(s string) (time.Time, bool) {
	if ts, err := time.Parse(layoutFractional, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(layoutWhole, s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// FormatTimestamp formats t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(layoutOut)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }
