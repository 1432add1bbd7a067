// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// DayISO formats t as a date-only ISO string in UTC
func DayISO(t time.Time) string { return t.UTC().Format("2006-01-02") }
