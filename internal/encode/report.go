package encode

import (
	"sort"
	"strings"
	"time"

	"notecal/internal/model"
)

// distantFuture sorts dateless events after every dated one.
var distantFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// ReportOptions configures the tabular report encoder.
type ReportOptions struct {
	// LineTemplate renders each event. Nil falls back to DefaultReportTemplate.
	LineTemplate *Template
}

// DefaultReportTemplate is the report line rendering used when the
// configuration does not override it.
const DefaultReportTemplate = "- [{checkbox}] [[{tag}]] **{title}**\n" +
	"  {description}\n" +
	"  *origin:* [[{file}]] (line {line})\n" +
	"  *time:* {time}\n"

// EncodeReport renders events grouped by tag, one section per distinct tag
// value in order of first appearance, each group sorted by start time
// ascending with dateless events last.
func EncodeReport(events []model.Event, opts ReportOptions) string {
	tmpl := opts.LineTemplate
	if tmpl == nil {
		tmpl, _ = NewTemplate(DefaultReportTemplate)
	}

	var order []string
	groups := make(map[string][]model.Event)
	for _, e := range events {
		if _, ok := groups[e.Tag]; !ok {
			order = append(order, e.Tag)
		}
		groups[e.Tag] = append(groups[e.Tag], e)
	}

	var b strings.Builder
	b.WriteString("# Events\n")
	for _, tag := range order {
		group := groups[tag]
		sort.SliceStable(group, func(i, j int) bool {
			return sortKey(group[i]).Before(sortKey(group[j]))
		})

		b.WriteString("\n## " + strings.TrimLeft(tag, "#") + "\n\n")
		for _, e := range group {
			b.WriteString(tmpl.Render(e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func sortKey(e model.Event) time.Time {
	if e.Start == nil {
		return distantFuture
	}
	return *e.Start
}
