package model

import (
	"fmt"
	"time"
)

// Origin identifies where in the scanned sources an event tag was found.
// The (Source, Line) pair is the sole identity of an Event within one
// extraction run.
type Origin struct {
	Source string // file path or other source identifier
	Line   int    // 1-based line number
}

// Event is the canonical record produced by the assembler from one matched
// tag occurrence. Events are immutable after construction.
type Event struct {
	// Start is the resolved start instant, or midnight of the start date for
	// all-day events. Nil when the record carries no temporal information.
	Start *time.Time

	// Duration is the resolved span; nil when unknown. For all-day events the
	// duration is always a whole number of days.
	Duration *time.Duration

	AllDay bool

	Title       string
	Description string

	// Tag is the dot-segmented marker tag that produced the record,
	// including the marker character (e.g. "#todo.home").
	Tag string

	Done bool
	// DoneAt is set when completion was recorded with a timestamp
	// (done=<date> metadata).
	DoneAt *time.Time

	Origin Origin

	// Extra preserves metadata keys and flags not consumed by assembly.
	// Values are strings for key=value pairs and bool true for flags.
	Extra map[string]any
}

// UID returns the stable identifier exposed to the calendar format.
// It is derived purely from the origin, so repeated runs over unchanged
// input produce the same UID.
func (e *Event) UID() string {
	return fmt.Sprintf("%s:%d", e.Origin.Source, e.Origin.Line)
}

// End returns start+duration when both are present, the start itself when
// only it is present, and nil for a dateless event.
func (e *Event) End() *time.Time {
	if e.Start == nil {
		return nil
	}
	if e.Duration == nil {
		return e.Start
	}
	t := e.Start.Add(*e.Duration)
	return &t
}
