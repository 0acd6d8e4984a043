// Package booking holds the pure reservation lifecycle rules: time-slot
// parsing and validation, pricing, credit adjustments and the status
// state machine.  Nothing in this package performs I/O; handlers feed it
// a single "now" snapshot taken at operation entry and persist whatever
// it decides.
package booking

import (
    "fmt"
    "regexp"
    "time"
)

// PastGrace is how far into the past a slot start may lie and still be
// accepted, absorbing clock skew between client and server.
const PastGrace = time.Minute

// startTimePattern accepts HH:mm with hour 00–23 and minute 00–59.
var startTimePattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Slot is a requested reservation time.  Clients send either a bare
// start ("14:00") or a compound range ("14:00-15:00"); when compound,
// the explicit end is kept for display only and economics are always
// recomputed from the duration.
type Slot struct {
    Start       string // slot start, HH:mm
    ExplicitEnd string // display end sent by the client, empty when absent
}

// ParseSlot splits a raw reservation time into start and optional
// explicit end.  It performs no validation beyond the split; call
// ValidStart on the result.
func ParseSlot(raw string) Slot {
    for i := 0; i < len(raw); i++ {
        if raw[i] == '-' {
            return Slot{Start: raw[:i], ExplicitEnd: raw[i+1:]}
        }
    }
    return Slot{Start: raw}
}

// ValidStart reports whether s is a well-formed HH:mm start time.
func ValidStart(s string) bool {
    return startTimePattern.MatchString(s)
}

// ComposeDateTime combines a calendar date (YYYY-MM-DD) and a start
// time (HH:mm) into an absolute UTC instant.
func ComposeDateTime(date, start string) (time.Time, error) {
    return time.ParseInLocation("2006-01-02 15:04", date+" "+start, time.UTC)
}

// InPast reports whether a slot start lies in the past relative to now,
// allowing the PastGrace window.
func InPast(slotStart, now time.Time) bool {
    return slotStart.Before(now.Add(-PastGrace))
}

// TimeRange builds the "start-end" display string for a slot.  The
// explicit end wins when the client sent one; otherwise the end is
// formatted from the computed usage-end instant.
func TimeRange(start, explicitEnd string, usageEnd time.Time) string {
    if explicitEnd != "" {
        return fmt.Sprintf("%s-%s", start, explicitEnd)
    }
    return fmt.Sprintf("%s-%02d:%02d", start, usageEnd.Hour(), usageEnd.Minute())
}
