package encode

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"notecal/internal/model"
)

// Record is the flat serialized form of one Event: every first-class field
// plus derived read-only fields. Decoding reconstructs the Event from the
// first-class fields alone, so encode-then-decode is the identity on them.
type Record struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Tag         string         `json:"tag,omitempty"`
	Done        bool           `json:"done"`
	DoneAt      string         `json:"done_at,omitempty"` // RFC 3339
	AllDay      bool           `json:"all_day"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Extra       map[string]any `json:"extra,omitempty"`

	// StartUnix/DurationSeconds are the authoritative temporal fields on
	// decode; the readable forms below are derived, write-only context.
	StartUnix       *int64 `json:"start_unix,omitempty"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`

	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	EndUnix  *int64 `json:"end_unix,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// NewRecord flattens an Event.
func NewRecord(e model.Event) Record {
	r := Record{
		Title:       e.Title,
		Description: e.Description,
		Tag:         e.Tag,
		Done:        e.Done,
		AllDay:      e.AllDay,
		File:        e.Origin.Source,
		Line:        e.Origin.Line,
		Extra:       e.Extra,
	}
	if e.DoneAt != nil {
		r.DoneAt = e.DoneAt.Format(time.RFC3339)
	}
	if e.Start != nil {
		su := e.Start.Unix()
		r.StartUnix = &su
		r.Start = e.Start.Format(time.RFC3339)

		end := e.End()
		eu := end.Unix()
		r.EndUnix = &eu
		r.End = end.Format(time.RFC3339)
	}
	if e.Duration != nil {
		ds := int64(*e.Duration / time.Second)
		r.DurationSeconds = &ds
		r.Duration = ClockDuration(*e.Duration)
	}
	return r
}

// Event reconstructs the record's Event. Timestamps are re-parsed from the
// numeric seconds and all_day from the stored flag.
func (r Record) Event() (model.Event, error) {
	e := model.Event{
		Title:       r.Title,
		Description: r.Description,
		Tag:         r.Tag,
		Done:        r.Done,
		AllDay:      r.AllDay,
		Origin:      model.Origin{Source: r.File, Line: r.Line},
		Extra:       r.Extra,
	}
	if r.DoneAt != "" {
		t, err := time.Parse(time.RFC3339, r.DoneAt)
		if err != nil {
			return model.Event{}, fmt.Errorf("record %s:%d: bad done_at: %w", r.File, r.Line, err)
		}
		e.DoneAt = &t
	}
	if r.StartUnix != nil {
		t := time.Unix(*r.StartUnix, 0)
		e.Start = &t
	}
	if r.DurationSeconds != nil {
		d := time.Duration(*r.DurationSeconds) * time.Second
		e.Duration = &d
	}
	return e, nil
}

// EncodeJSON renders events as one indented JSON array of records.
func EncodeJSON(events []model.Event) ([]byte, error) {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, NewRecord(e))
	}
	return json.MarshalIndent(records, "", "  ")
}

// DecodeJSON is the reversible load for EncodeJSON output.
func DecodeJSON(data []byte) ([]model.Event, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(records))
	for _, r := range records {
		e, err := r.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// EncodeNDJSON renders events as a newline-delimited JSON stream, one record
// per line.
func EncodeNDJSON(events []model.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(NewRecord(e)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeNDJSON is the reversible load for EncodeNDJSON output. Blank lines
// are ignored.
func DecodeNDJSON(data []byte) ([]model.Event, error) {
	var events []model.Event
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		e, err := r.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
