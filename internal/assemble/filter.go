package assemble

import (
	"notecal/internal/model"
	"notecal/internal/temporal"
)

// Filter drops every event for which any named predicate resolves to true,
// checking first-class fields and then the Extra mapping with the same
// tri-state boolean parse used for metadata. Missing or unparseable fields
// keep the event. Order-preserving.
func Filter(events []model.Event, predicates []string) []model.Event {
	if len(predicates) == 0 {
		return events
	}
	kept := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !excluded(e, predicates) {
			kept = append(kept, e)
		}
	}
	return kept
}

func excluded(e model.Event, predicates []string) bool {
	for _, name := range predicates {
		switch name {
		case "done":
			if e.Done {
				return true
			}
			continue
		case "allday", "all_day":
			if e.AllDay {
				return true
			}
			continue
		}
		switch v := e.Extra[name].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if b, err := temporal.ParseBool(v); err == nil && b {
				return true
			}
		}
	}
	return false
}
