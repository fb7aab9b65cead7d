package encode

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "notecal/internal/log"
	"notecal/internal/model"
)

// DecodeCalendar reads a previously published calendar feed back into Event
// records. Malformed VEVENT blocks are logged and skipped; the rest of the
// feed still loads.
//
// Origin is recovered from UIDs of the source:line shape this module emits;
// foreign UIDs land whole in Origin.Source with line 0.
func DecodeCalendar(body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty calendar body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		e, derr := decodeVEvent(ve)
		if derr != nil {
			appLog.Warn("skipping malformed calendar entry", "err", derr)
			continue
		}
		events = append(events, e)
	}

	appLog.Info("calendar feed loaded", "event_count", len(events))
	return events, nil
}

func decodeVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.Origin = originFromUID(uidProp.Value)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = UnescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = UnescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		out.Done = true
	}

	start, serr := ve.GetStartAt()
	end, eerr := ve.GetEndAt()
	if serr == nil && !start.IsZero() {
		out.Start = &start
		if eerr == nil && end.After(start) {
			d := end.Sub(start)
			out.Duration = &d
		}
	}

	// All-day: DTSTART carries VALUE=DATE or a value with no time part.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}
	if out.AllDay && out.Duration != nil && *out.Duration < 24*time.Hour {
		out.Duration = nil
	}

	return out, nil
}

func originFromUID(uid string) model.Origin {
	i := strings.LastIndex(uid, ":")
	if i < 0 {
		return model.Origin{Source: uid}
	}
	line, err := strconv.Atoi(uid[i+1:])
	if err != nil || line <= 0 {
		return model.Origin{Source: uid}
	}
	return model.Origin{Source: uid[:i], Line: line}
}
