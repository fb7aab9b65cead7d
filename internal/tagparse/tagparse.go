// Package tagparse recognizes event markers embedded in free-form text lines
// and decodes their bracketed metadata blocks.
//
// The grammar, applied left to right with greedy optional groups:
//
//	<anything> <optional checkbox "[ ]" / "[x]"> <marker tag> <optional {metadata}> <content>
//
// A line like
//
//	- [x] #todo.home {.urgent due="next tuesday"} fix the gate | rusted hinge
//
// decomposes into checkbox=checked, tag "#todo.home", metadata block
// `.urgent due="next tuesday"` and content `fix the gate | rusted hinge`.
package tagparse

import (
	"fmt"
	"regexp"
	"strings"
)

// Checkbox is the tri-state completion indicator that may precede a tag.
type Checkbox int

const (
	CheckboxAbsent Checkbox = iota
	CheckboxUnchecked
	CheckboxChecked
)

// Match is the raw decomposition of one line around an event tag.
// It is consumed immediately by the assembler and never persisted.
type Match struct {
	Tag      string // includes the marker character, e.g. "#todo.home"
	Metadata string // bracket interior, "" when no block was present
	Content  string // trailing free text, possibly empty
	Checkbox Checkbox
}

// MetadataError reports a metadata block that cannot be decoded: a bare token
// that is neither a flag, a key=value pair, nor the continuation of an open
// quoted value.
type MetadataError struct {
	Token string
	Block string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("malformed metadata token %q in %q", e.Token, e.Block)
}

// Parser matches the tag grammar for one marker character.
type Parser struct {
	marker string
	re     *regexp.Regexp
}

// NewParser builds a parser for the given marker character ('#' by default
// elsewhere in the system). The tag itself is word characters with optional
// dot-separated segments.
func NewParser(marker rune) *Parser {
	m := regexp.QuoteMeta(string(marker))
	return &Parser{
		marker: string(marker),
		re:     regexp.MustCompile(`(?:\[([ xX])\][ \t]*)?(` + m + `\w+(?:\.\w+)*)[ \t]*(\{.*\})?[ \t]*(.*)$`),
	}
}

// Parse scans line for the leftmost embedded tag. A line with no tag returns
// (nil, nil): not matching is not an error. A *MetadataError is returned only
// when the tag matched but its metadata block is undecodable.
//
// Parse does not filter by tag name; eligibility against the configured
// event-tag set is the caller's concern.
func (p *Parser) Parse(line string) (*Match, error) {
	groups := p.re.FindStringSubmatch(line)
	if groups == nil {
		return nil, nil
	}

	m := &Match{
		Tag:     groups[2],
		Content: groups[4],
	}

	switch groups[1] {
	case "":
		m.Checkbox = CheckboxAbsent
	case " ":
		m.Checkbox = CheckboxUnchecked
	default: // "x" or "X"
		m.Checkbox = CheckboxChecked
	}

	if block := groups[3]; block != "" {
		m.Metadata = block[1 : len(block)-1] // strip the braces
	}

	return m, nil
}

// Eligible reports whether tag names one of the configured event tags,
// either exactly or as a dot-qualified form of one ("#todo.home" is
// eligible when "#todo" is configured).
func Eligible(tag string, eventTags []string) bool {
	for _, t := range eventTags {
		if tag == t || strings.HasPrefix(tag, t+".") {
			return true
		}
	}
	return false
}

// ContainsEventTag is the cheap pre-check applied to a line before the
// deeper grammar parse. Purely an optimization: the grammar itself does not
// filter by name.
func ContainsEventTag(line string, eventTags []string) bool {
	for _, t := range eventTags {
		if strings.Contains(line, t) {
			return true
		}
	}
	return false
}

// Metadata holds the decoded contents of one bracketed block: key/value
// pairs and flag classes. The two share one namespace; when a name appears
// as both, the key/value form wins and the flag entry is dropped.
type Metadata struct {
	Values map[string]string
	Flags  map[string]bool
}

// Has reports whether name is present as either a key or a flag.
func (m Metadata) Has(name string) bool {
	if _, ok := m.Values[name]; ok {
		return true
	}
	return m.Flags[name]
}

// DecodeMetadata splits a block interior on whitespace and classifies each
// token: ".name" is a flag, "key=value" is a pair (one layer of double
// quotes stripped from the value), and any other bare token is folded into
// the previous token only while that token holds an odd number of double
// quotes (an open quoted value spanning whitespace). Anything else is a
// *MetadataError.
//
// Duplicate keys keep the first occurrence.
func DecodeMetadata(block string) (Metadata, error) {
	md := Metadata{
		Values: make(map[string]string),
		Flags:  make(map[string]bool),
	}

	var tokens []string
	for _, item := range strings.Fields(block) {
		switch {
		case strings.HasPrefix(item, "."):
			tokens = append(tokens, item)
		case strings.Contains(item, "="):
			tokens = append(tokens, item)
		default:
			if len(tokens) > 0 && strings.Count(tokens[len(tokens)-1], `"`)%2 == 1 {
				tokens[len(tokens)-1] += " " + item
				continue
			}
			return Metadata{}, &MetadataError{Token: item, Block: block}
		}
	}

	for _, item := range tokens {
		if strings.HasPrefix(item, ".") {
			name := item[1:]
			if _, ok := md.Values[name]; !ok {
				md.Flags[name] = true
			}
			continue
		}
		key, value, _ := strings.Cut(item, "=")
		if _, ok := md.Values[key]; ok {
			continue // first occurrence wins
		}
		md.Values[key] = unquote(value)
		delete(md.Flags, key) // key/value form wins over a same-named flag
	}

	return md, nil
}

// unquote strips exactly one layer of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
