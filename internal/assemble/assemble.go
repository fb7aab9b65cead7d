// Package assemble builds canonical Event records from raw tag matches,
// applying the temporal normalizer and the title/description/done precedence
// rules, and filters record sets by exclusion predicates.
package assemble

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"notecal/internal/model"
	"notecal/internal/tagparse"
	"notecal/internal/temporal"
)

// NoDescription is the placeholder used when a record's content carries no
// description part.
const NoDescription = "(no description)"

// NoTitle is the placeholder title for a record whose content is empty.
const NoTitle = "(untitled)"

// hardBreak joins continuation lines in a multi-line description.
const hardBreak = "  \n"

// ErrInconsistentTitleFields is returned when exactly one of the title /
// description metadata keys is present; they must come in pairs.
var ErrInconsistentTitleFields = errors.New("metadata must carry both title and description, or neither")

// Options configures assembly for one extraction run.
type Options struct {
	// Delimiter separates title from description in trailing content.
	// Zero means '|'.
	Delimiter rune

	// DefaultDuration is applied to timed "due" values (see temporal.Options).
	DefaultDuration time.Duration

	Now      time.Time
	Resolver temporal.Resolver
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return '|'
	}
	return o.Delimiter
}

// metadata names consumed by assembly; everything else lands in Extra.
var consumedFields = map[string]bool{
	"due":         true,
	"start":       true,
	"end":         true,
	"duration":    true,
	"allday":      true,
	"title":       true,
	"description": true,
	"done":        true,
}

// Assemble produces an Event from a raw match, its decoded metadata, the
// lines immediately following the matched line (for multi-line description
// continuation) and the match's origin.
func Assemble(m tagparse.Match, md tagparse.Metadata, following []string, origin model.Origin, opts Options) (model.Event, error) {
	res, err := temporal.Resolve(md.Values, temporal.Options{
		Now:             opts.Now,
		DefaultDuration: opts.DefaultDuration,
		Resolver:        opts.Resolver,
	})
	if err != nil {
		return model.Event{}, err
	}

	title, description, err := splitTitle(m.Content, md, following, opts.delimiter())
	if err != nil {
		return model.Event{}, err
	}

	done, doneAt := doneState(m, md, opts)

	ev := model.Event{
		Start:       res.Start,
		Duration:    res.Duration,
		AllDay:      res.AllDay,
		Title:       title,
		Description: description,
		Tag:         m.Tag,
		Done:        done,
		DoneAt:      doneAt,
		Origin:      origin,
		Extra:       extraFields(md),
	}
	return ev, nil
}

// splitTitle resolves the title/description pair. Explicit metadata wins
// when both keys are present; exactly one is an error. Otherwise the
// trailing content is split on the first delimiter occurrence, with a line
// ending in the delimiter pulling its description from the following lines.
func splitTitle(content string, md tagparse.Metadata, following []string, delim rune) (string, string, error) {
	title, hasTitle := md.Values["title"]
	description, hasDesc := md.Values["description"]

	switch {
	case hasTitle && hasDesc:
		// verbatim

	case hasTitle != hasDesc:
		return "", "", ErrInconsistentTitleFields

	default:
		trimmed := strings.TrimRight(content, " \t")
		if strings.HasSuffix(trimmed, string(delim)) {
			title = strings.TrimSuffix(trimmed, string(delim))
			description = continuationDescription(following)
		} else if i := strings.IndexRune(content, delim); i >= 0 {
			title = content[:i]
			description = content[i+utf8.RuneLen(delim):]
		} else {
			title = content
			description = NoDescription
		}
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		title = NoTitle
	}
	if description == "" {
		description = NoDescription
	}
	return title, description, nil
}

// continuationDescription consumes every line up to (not including) the
// first blank line, strips the common leading indentation shared by the
// consumed lines and re-joins them with a hard-break suffix.
func continuationDescription(following []string) string {
	var consumed []string
	for _, line := range following {
		if strings.TrimSpace(line) == "" {
			break
		}
		consumed = append(consumed, line)
	}
	if len(consumed) == 0 {
		return ""
	}

	indent := commonIndent(consumed)
	for i := range consumed {
		consumed[i] = strings.TrimPrefix(consumed[i], indent)
	}
	return strings.Join(consumed, hardBreak)
}

// commonIndent returns the longest run of leading whitespace shared by all
// lines.
func commonIndent(lines []string) string {
	indent := leadingWhitespace(lines[0])
	for _, line := range lines[1:] {
		for !strings.HasPrefix(line, indent) {
			indent = indent[:len(indent)-1]
		}
	}
	return indent
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// doneState applies the completion precedence: explicit done=<bool>, then
// done=<timestamp>, then a bare done flag, then the checkbox, then false.
func doneState(m tagparse.Match, md tagparse.Metadata, opts Options) (bool, *time.Time) {
	if raw, ok := md.Values["done"]; ok {
		if b, err := temporal.ParseBool(raw); err == nil {
			return b, nil
		}
		// Not a boolean: read it as "done as of this timestamp".
		t, _ := temporal.ParseDate(raw, opts.Now, opts.Resolver)
		return true, &t
	}
	if md.Flags["done"] {
		return true, nil
	}
	if m.Checkbox != tagparse.CheckboxAbsent {
		return m.Checkbox == tagparse.CheckboxChecked, nil
	}
	return false, nil
}

// extraFields collects every metadata key/flag not consumed above,
// preserved verbatim for round-trip serialization.
func extraFields(md tagparse.Metadata) map[string]any {
	extra := make(map[string]any)
	for k, v := range md.Values {
		if !consumedFields[k] {
			extra[k] = v
		}
	}
	for f := range md.Flags {
		if !consumedFields[f] {
			if _, ok := extra[f]; !ok {
				extra[f] = true
			}
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
