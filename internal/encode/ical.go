package encode

import (
	"strings"
	"time"

	"notecal/internal/model"
)

const (
	// ProdID identifies this generator in the calendar container.
	ProdID = "-//notecal v0.1//NONSGML notecal//EN"

	icalTimestampLayout = "20060102T150405"
	icalDateLayout      = "20060102"
)

// CalendarOptions configures the calendar-exchange encoder.
type CalendarOptions struct {
	// Now stamps DTSTAMP/LAST-MODIFIED and dates dateless events.
	Now time.Time

	// DatelessToday, when true, dates events without a start on today's
	// calendar date instead of omitting them.
	DatelessToday bool

	// TitleTemplate / DescriptionTemplate render SUMMARY and DESCRIPTION
	// before escaping. Nil means the event's title/description verbatim.
	TitleTemplate       *Template
	DescriptionTemplate *Template
}

// EncodeCalendar renders events as one VCALENDAR container wrapping one
// VEVENT block per event. Events with no start are either dated today or
// omitted, per options. Lines are CRLF-separated.
func EncodeCalendar(events []model.Event, opts CalendarOptions) string {
	stamp := opts.Now.Format(icalTimestampLayout)
	today := opts.Now.Format(icalDateLayout)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}

	for i := range events {
		e := &events[i]
		if e.Start == nil && !opts.DatelessToday {
			continue
		}
		lines = append(lines, encodeVEvent(e, stamp, today, opts)...)
	}

	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func encodeVEvent(e *model.Event, stamp, today string, opts CalendarOptions) []string {
	var dtStart, dtEnd string
	switch {
	case e.Start == nil:
		dtStart = "DTSTART;VALUE=DATE:" + today
		dtEnd = "DTEND;VALUE=DATE:" + today
	case e.AllDay:
		dtStart = "DTSTART;VALUE=DATE:" + e.Start.Format(icalDateLayout)
		dtEnd = "DTEND;VALUE=DATE:" + e.End().Format(icalDateLayout)
	default:
		dtStart = "DTSTART:" + e.Start.Format(icalTimestampLayout)
		dtEnd = "DTEND:" + e.End().Format(icalTimestampLayout)
	}

	summary := e.Title
	if opts.TitleTemplate != nil {
		summary = opts.TitleTemplate.Render(*e)
	}
	description := e.Description
	if opts.DescriptionTemplate != nil {
		description = opts.DescriptionTemplate.Render(*e)
	}

	return []string{
		"BEGIN:VEVENT",
		"UID:" + e.UID(),
		"DTSTAMP:" + stamp,
		"LAST-MODIFIED:" + stamp,
		dtStart,
		dtEnd,
		"SUMMARY:" + EscapeText(summary),
		"DESCRIPTION:" + EscapeText(description),
		"SEQUENCE:0",
		"TRANSP:OPAQUE",
		"STATUS:CONFIRMED",
		"END:VEVENT",
	}
}
