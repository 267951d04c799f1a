// Package timestamp implements the single human-readable timestamp format
// shared by the legacy blog and the destination platform's date picker.
// Extraction parses it and the replay session matches calendar day labels
// against it, so both sides must round-trip through the same layout.
package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the full date + clock layout, e.g. "June 5, 1987 3:00 PM".
const Layout = "January 2, 2006 3:04 PM"

// DateLayout is the date-only prefix of Layout, used for calendar day
// labels which carry no clock component.
const DateLayout = "January 2, 2006"

// Parse parses the concatenation of the source's date and time labels.
// The legacy site renders the AM/PM marker in lowercase sometimes, so
// the clock part is uppercased before parsing.
func Parse(date, clock string) (time.Time, error) {
	text := fmt.Sprintf(
		"%s %s",
		strings.TrimSpace(date),
		strings.ToUpper(strings.TrimSpace(clock)),
	)
	return time.Parse(Layout, text)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// ParseDayLabel parses a calendar day label from the destination's date
// picker. Labels usually omit the clock, so the date-only layout is
// tried after the full one.
func ParseDayLabel(label string) (time.Time, error) {
	label = strings.TrimSpace(label)
	t, err := time.Parse(Layout, label)
	if err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, label)
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring the clock.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
