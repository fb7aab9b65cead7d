package encode

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"notecal/internal/model"
)

// Template is a render template over a closed set of named placeholders
// resolved from the Event's serializable fields. Unknown names are rejected
// when the template is built, at configuration-load time, so rendering never
// fails per record.
type Template struct {
	raw string
}

// placeholders is the closed set a template may reference.
var placeholders = map[string]bool{
	"title":       true,
	"description": true,
	"tag":         true,
	"checkbox":    true,
	"time":        true,
	"file":        true,
	"line":        true,
	"uid":         true,
	"start":       true,
	"end":         true,
	"duration":    true,
	"extra":       true,
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// NewTemplate validates the placeholder names referenced by raw.
func NewTemplate(raw string) (*Template, error) {
	for _, g := range placeholderRe.FindAllStringSubmatch(raw, -1) {
		if !placeholders[g[1]] {
			return nil, fmt.Errorf("unknown template placeholder {%s}", g[1])
		}
	}
	return &Template{raw: raw}, nil
}

// Render substitutes every placeholder with the event's field value.
func (t *Template) Render(e model.Event) string {
	checkbox := " "
	if e.Done {
		checkbox = "x"
	}

	r := strings.NewReplacer(
		"{title}", e.Title,
		"{description}", e.Description,
		"{tag}", e.Tag,
		"{checkbox}", checkbox,
		"{time}", TimeRangeText(e),
		"{file}", e.Origin.Source,
		"{line}", strconv.Itoa(e.Origin.Line),
		"{uid}", e.UID(),
		"{start}", pointText(e, e.Start),
		"{end}", pointText(e, e.End()),
		"{duration}", durationText(e),
		"{extra}", extraText(e.Extra),
	)
	return r.Replace(t.raw)
}

func pointText(e model.Event, t *time.Time) string {
	if t == nil {
		return ""
	}
	if e.AllDay {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

func durationText(e model.Event) string {
	if e.Duration == nil {
		return ""
	}
	return ClockDuration(*e.Duration)
}

// ClockDuration renders a span rounded to the nearest minute as "H:MM".
func ClockDuration(d time.Duration) string {
	minutes := int((d + 30*time.Second) / time.Minute)
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// TimeRangeText is the human-readable time range: same-day ranges repeat
// only the clock time, cross-day ranges carry the full date on both ends,
// all-day events get the "(all day)" suffix and dateless events a fixed
// sentence.
func TimeRangeText(e model.Event) string {
	if e.Start == nil {
		return "no time specified"
	}
	if e.AllDay {
		return e.Start.Format("2006-01-02") + " (all day)"
	}

	end := *e.End()
	s := e.Start.Format("2006-01-02 15:04")
	if sameDay(*e.Start, end) {
		s += " to " + end.Format("15:04")
	} else {
		s += " to " + end.Format("2006-01-02 15:04")
	}
	if e.Duration != nil {
		s += " (duration: " + ClockDuration(*e.Duration) + ")"
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// extraText renders the preserved metadata deterministically, sorted by key.
func extraText(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, extra[k]))
	}
	return strings.Join(parts, " ")
}
