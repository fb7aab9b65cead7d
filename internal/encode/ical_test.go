package encode

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/internal/model"
)

var encNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time        { return &t }
func durPtr(d time.Duration) *time.Duration { return &d }

func timedEvent() model.Event {
	return model.Event{
		Start:       timePtr(time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)),
		Duration:    durPtr(90 * time.Minute),
		Title:       "standup",
		Description: "weekly sync",
		Tag:         "#event",
		Origin:      model.Origin{Source: "notes/daily.md", Line: 7},
	}
}

func allDayEvent() model.Event {
	return model.Event{
		Start:       timePtr(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)),
		AllDay:      true,
		Title:       "holiday",
		Description: "(no description)",
		Tag:         "#event",
		Origin:      model.Origin{Source: "notes/daily.md", Line: 9},
	}
}

func datelessEvent() model.Event {
	return model.Event{
		Title:       "someday",
		Description: "(no description)",
		Tag:         "#todo",
		Origin:      model.Origin{Source: "notes/daily.md", Line: 11},
	}
}

func TestEncodeCalendarContainer(t *testing.T) {
	out := EncodeCalendar([]model.Event{timedEvent()}, CalendarOptions{Now: encNow})

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "VERSION:2.0\r\n")
	assert.Contains(t, out, "PRODID:"+ProdID+"\r\n")
	assert.Contains(t, out, "CALSCALE:GREGORIAN\r\n")
	assert.Contains(t, out, "METHOD:PUBLISH\r\n")
	assert.Contains(t, out, "END:VCALENDAR")
}

func TestEncodeCalendarTimedEvent(t *testing.T) {
	out := EncodeCalendar([]model.Event{timedEvent()}, CalendarOptions{Now: encNow})

	assert.Contains(t, out, "UID:notes/daily.md:7\r\n")
	assert.Contains(t, out, "DTSTAMP:20240315T143000\r\n")
	assert.Contains(t, out, "LAST-MODIFIED:20240315T143000\r\n")
	assert.Contains(t, out, "DTSTART:20240101T090000\r\n")
	assert.Contains(t, out, "DTEND:20240101T103000\r\n")
	assert.Contains(t, out, "SUMMARY:standup\r\n")
	assert.Contains(t, out, "DESCRIPTION:weekly sync\r\n")
	assert.Contains(t, out, "SEQUENCE:0\r\n")
	assert.Contains(t, out, "TRANSP:OPAQUE\r\n")
	assert.Contains(t, out, "STATUS:CONFIRMED\r\n")
}

func TestEncodeCalendarAllDayUsesDateValues(t *testing.T) {
	out := EncodeCalendar([]model.Event{allDayEvent()}, CalendarOptions{Now: encNow})

	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240506\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240506\r\n")
}

func TestEncodeCalendarDatelessEvents(t *testing.T) {
	// Omitted when dateless events are excluded.
	out := EncodeCalendar([]model.Event{datelessEvent()}, CalendarOptions{Now: encNow})
	assert.NotContains(t, out, "BEGIN:VEVENT")

	// Dated today when configured.
	out = EncodeCalendar([]model.Event{datelessEvent()}, CalendarOptions{Now: encNow, DatelessToday: true})
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240315\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240315\r\n")
}

func TestEncodeCalendarEscapesText(t *testing.T) {
	e := timedEvent()
	e.Title = "a,b;c\\d\ne"

	out := EncodeCalendar([]model.Event{e}, CalendarOptions{Now: encNow})

	require.Contains(t, out, `SUMMARY:a\,b\;c\\d\ne`)
	// No literal newline control character may survive inside the block.
	for _, line := range strings.Split(out, "\r\n") {
		assert.NotContains(t, line, "\n")
	}
}

func TestEncodeCalendarTemplates(t *testing.T) {
	title, err := NewTemplate("{tag} {title}")
	require.NoError(t, err)

	out := EncodeCalendar([]model.Event{timedEvent()}, CalendarOptions{
		Now:           encNow,
		TitleTemplate: title,
	})
	assert.Contains(t, out, "SUMMARY:#event standup\r\n")
}

func TestEncodeCalendarUIDStableAcrossRuns(t *testing.T) {
	a := EncodeCalendar([]model.Event{timedEvent()}, CalendarOptions{Now: encNow})
	b := EncodeCalendar([]model.Event{timedEvent()}, CalendarOptions{Now: encNow.Add(time.Hour)})

	uid := func(s string) string {
		for _, line := range strings.Split(s, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}
	assert.Equal(t, uid(a), uid(b))
	assert.NotEmpty(t, uid(a))
}
