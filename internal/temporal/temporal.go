// Package temporal resolves human-entered date/time/duration metadata into a
// consistent start/duration/all-day model.
//
// Natural-language parsing itself is delegated to a Resolver; this package
// owns only the today/tomorrow synonyms and the reconciliation rules layered
// on top of the delegate.
package temporal

import (
	"fmt"
	"strings"
	"time"

	"notecal/internal/log"
)

// Resolver is the delegate natural-language date parser. A failed resolve is
// never fatal to a batch: callers substitute now and warn.
type Resolver interface {
	Resolve(expr string, now time.Time) (time.Time, error)
}

// Kind discriminates how a record's temporal fields were specified.
type Kind int

const (
	KindUnspecified Kind = iota
	KindDue
	KindRange
	KindStartDuration
)

// Resolution is the canonical start/duration/all-day triple derived from one
// record's metadata. When AllDay is true, Start carries no time-of-day
// component and Duration, if present, is a whole number of days.
type Resolution struct {
	Kind     Kind
	Start    *time.Time
	Duration *time.Duration
	AllDay   bool
}

// Options configures resolution.
type Options struct {
	Now time.Time

	// DefaultDuration is applied to a "due" value that carries a
	// time-of-day component. Zero means 30 minutes.
	DefaultDuration time.Duration

	Resolver Resolver
}

const fallbackDefaultDuration = 30 * time.Minute

// BooleanError reports a token that is not a recognized tri-state boolean.
type BooleanError struct {
	Token string
}

func (e *BooleanError) Error() string {
	return fmt.Sprintf("invalid boolean token %q", e.Token)
}

// ParseBool parses the tri-state boolean token set {true,1,y,yes} /
// {false,0,n,no}, case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "y", "yes":
		return true, nil
	case "false", "0", "n", "no":
		return false, nil
	}
	return false, &BooleanError{Token: s}
}

// Resolve derives the temporal triple from metadata values. Rules are tried
// in order and are mutually exclusive by field presence:
//
//  1. due            -> calendar date (all-day) or instant + default duration
//  2. start + end    -> range, duration = end - start
//  3. start+duration -> start + delta-from-now duration
//  4. none           -> unspecified
//
// An explicit "allday" field overrides the computed flag; forcing all-day
// downgrades an instant start to its calendar date and truncates the
// duration to whole days (a sub-day duration collapses to none).
//
// The only error is a *BooleanError from a malformed "allday" value; date
// resolution failures are recovered internally by substituting now.
func Resolve(values map[string]string, opts Options) (Resolution, error) {
	res := Resolution{Kind: KindUnspecified}

	due, hasDue := values["due"]
	start, hasStart := values["start"]
	end, hasEnd := values["end"]
	durExpr, hasDur := values["duration"]

	switch {
	case hasDue:
		res.Kind = KindDue
		t, dateOnly := ParseDate(due, opts.Now, opts.Resolver)
		res.Start = &t
		if dateOnly {
			res.AllDay = true
		} else {
			d := opts.DefaultDuration
			if d == 0 {
				d = fallbackDefaultDuration
			}
			res.Duration = &d
		}

	case hasStart && hasEnd:
		res.Kind = KindRange
		s, _ := ParseDate(start, opts.Now, opts.Resolver)
		e, _ := ParseDate(end, opts.Now, opts.Resolver)
		d := e.Sub(s)
		res.Start = &s
		res.Duration = &d

	case hasStart && hasDur:
		res.Kind = KindStartDuration
		s, _ := ParseDate(start, opts.Now, opts.Resolver)
		d := resolveDelta(durExpr, opts.Now, opts.Resolver)
		res.Start = &s
		res.Duration = &d
	}

	if raw, ok := values["allday"]; ok {
		forced, err := ParseBool(raw)
		if err != nil {
			return Resolution{}, err
		}
		res.AllDay = forced
	}

	if res.AllDay {
		if res.Start != nil {
			d := DateOf(*res.Start)
			res.Start = &d
		}
		if res.Duration != nil {
			days := *res.Duration / (24 * time.Hour) * (24 * time.Hour)
			if days == 0 {
				res.Duration = nil
			} else {
				res.Duration = &days
			}
		}
	}

	return res, nil
}

// ParseDate resolves a date expression to an instant and reports whether it
// is a calendar date (no time-of-day component). "today" and "tomorrow" and
// their shorthand synonyms are handled here, case-insensitively, before
// delegation; any value the delegate resolves to exact midnight is treated
// as date-only.
//
// A delegate failure substitutes now and emits a warning; it never aborts.
func ParseDate(expr string, now time.Time, r Resolver) (time.Time, bool) {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "today", "tod":
		return DateOf(now), true
	case "tomorrow", "tom", "tmro", "tmr":
		return DateOf(now).AddDate(0, 0, 1), true
	}

	t, err := r.Resolve(expr, now)
	if err != nil {
		log.Warn("date resolution failed, substituting current time", "expr", expr, "err", err)
		return now, false
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return DateOf(t), true
	}
	return t, false
}

// resolveDelta interprets a duration expression as the magnitude of time
// elapsed from now to the expression's resolved instant ("20 minutes" means
// now minus the instant twenty minutes ago). This delta-from-now reading is
// kept for compatibility with historical output even though the field name
// suggests a literal offset.
func resolveDelta(expr string, now time.Time, r Resolver) time.Duration {
	t, err := r.Resolve(expr, now)
	if err != nil {
		log.Warn("duration resolution failed, substituting zero", "expr", expr, "err", err)
		return 0
	}
	return now.Sub(t)
}

// DateOf truncates an instant to its calendar date (midnight, same location).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
