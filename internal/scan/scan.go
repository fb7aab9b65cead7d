// Package scan walks text documents for embedded event tags, feeding matched
// lines through the parser and assembler and recovering from per-line and
// per-file failures so one malformed document never aborts a batch.
package scan

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"notecal/internal/assemble"
	"notecal/internal/log"
	"notecal/internal/model"
	"notecal/internal/tagparse"
)

// Options configures one extraction run.
type Options struct {
	// EventTags are the marker names that trigger parsing (e.g. "#todo").
	EventTags []string

	// PathExcludes are glob patterns matched against candidate file paths
	// and their base names; matching files are skipped.
	PathExcludes []string

	// Marker is the tag marker character. Zero means '#'.
	Marker rune

	Assemble assemble.Options
}

func (o Options) marker() rune {
	if o.Marker == 0 {
		return '#'
	}
	return o.Marker
}

// ReadFile abstracts file access for Glob; swapped in tests.
type ReadFile func(path string) ([]byte, error)

// Glob resolves a file-system glob pattern and extracts events from every
// matching UTF-8 text document. Unreadable or non-UTF-8 files are skipped
// with a warning. A pattern that resolves to no files at all is the one
// fatal condition.
func Glob(pattern string, read ReadFile, opts Options) ([]model.Event, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}

	var events []model.Event
	for _, path := range paths {
		if excludedPath(path, opts.PathExcludes) {
			log.Debug("path excluded", "path", path)
			continue
		}
		data, rerr := read(path)
		if rerr != nil {
			log.Warn("skipping unreadable source", "path", path, "err", rerr)
			continue
		}
		if !utf8.Valid(data) {
			log.Warn("skipping source with invalid encoding", "path", path)
			continue
		}
		events = append(events, File(path, splitLines(string(data)), opts)...)
	}
	return events, nil
}

// File scans one document's lines. Line processing is strictly sequential:
// multi-line description continuation forward-reads the lines after the
// current one. A line that fails to parse or assemble is logged and skipped.
func File(source string, lines []string, opts Options) []model.Event {
	parser := tagparse.NewParser(opts.marker())

	var events []model.Event
	for i, line := range lines {
		if !tagparse.ContainsEventTag(line, opts.EventTags) {
			continue
		}

		origin := model.Origin{Source: source, Line: i + 1}

		m, err := matchEligible(parser, line, opts.EventTags)
		if err != nil {
			log.Warn("skipping malformed line", "source", source, "line", i+1, "err", err)
			continue
		}
		if m == nil {
			continue
		}

		md, err := tagparse.DecodeMetadata(m.Metadata)
		if err != nil {
			log.Warn("skipping malformed line", "source", source, "line", i+1, "err", err)
			continue
		}

		ev, err := assemble.Assemble(*m, md, lines[i+1:], origin, opts.Assemble)
		if err != nil {
			log.Warn("skipping malformed line", "source", source, "line", i+1, "err", err)
			continue
		}
		events = append(events, ev)
	}

	log.Debug("source scanned", "source", source, "event_count", len(events))
	return events
}

// matchEligible finds the leftmost tag occurrence whose name is one of the
// configured event tags, skipping past ineligible tags embedded earlier in
// the line.
func matchEligible(p *tagparse.Parser, line string, eventTags []string) (*tagparse.Match, error) {
	rest := line
	for {
		m, err := p.Parse(rest)
		if err != nil || m == nil {
			return m, err
		}
		if tagparse.Eligible(m.Tag, eventTags) {
			return m, nil
		}
		idx := strings.Index(rest, m.Tag)
		rest = rest[idx+len(m.Tag):]
	}
}

func excludedPath(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
