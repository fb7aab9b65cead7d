package encode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecal/internal/model"
)

func TestDecodeCalendarRoundTrip(t *testing.T) {
	e := timedEvent()
	e.Title = "commas, and; friends\\here"
	e.Description = "line one\nline two"

	out := EncodeCalendar([]model.Event{e, allDayEvent()}, CalendarOptions{Now: encNow})

	decoded, err := DecodeCalendar([]byte(out))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	got := decoded[0]
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.Description, got.Description)
	assert.Equal(t, model.Origin{Source: "notes/daily.md", Line: 7}, got.Origin)
	assert.False(t, got.AllDay)
	require.NotNil(t, got.Start)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 90*time.Minute, *got.Duration)

	day := decoded[1]
	assert.True(t, day.AllDay)
	assert.Equal(t, model.Origin{Source: "notes/daily.md", Line: 9}, day.Origin)
}

func TestDecodeCalendarEmptyBody(t *testing.T) {
	_, err := DecodeCalendar(nil)
	assert.Error(t, err)
}

func TestOriginFromUID(t *testing.T) {
	assert.Equal(t, model.Origin{Source: "a/b.md", Line: 12}, originFromUID("a/b.md:12"))
	assert.Equal(t, model.Origin{Source: "foreign-uid@example.com"}, originFromUID("foreign-uid@example.com"))
	// A trailing non-numeric segment keeps the whole UID as source.
	assert.Equal(t, model.Origin{Source: "x:y"}, originFromUID("x:y"))
}
