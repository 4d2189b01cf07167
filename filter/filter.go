// Package filter implements the reserved predicate plumbed through the
// stream core's drain loops (spec.md §4.5). Disabled filters match
// everything, so enabling one later requires no restructuring.
package filter

import (
	"regexp"
	"strings"
)

// Mode selects how Pattern is interpreted.
type Mode string

const (
	// ModeNone matches every message; the default, placeholder behaviour.
	ModeNone     Mode = ""
	ModeExact    Mode = "exact"
	ModeContains Mode = "contains"
	ModeRegexp   Mode = "regexp"
)

// Filter is a named predicate over a message's text body.
type Filter struct {
	Mode    Mode   `json:"mode,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	re *regexp.Regexp
}

// Compile prepares the filter for repeated use, pre-compiling a regexp
// pattern if the mode requires one. Compile is not required before Match —
// Match compiles lazily — but callers that want to surface a bad pattern
// as a configuration error at startup should call it explicitly.
func (f *Filter) Compile() error {
	if f.Mode != ModeRegexp || f.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return err
	}
	f.re = re
	return nil
}

// Match reports whether text passes the filter. A zero-value Filter (or
// one with ModeNone) matches everything.
func (f *Filter) Match(text string) bool {
	switch f.Mode {
	case ModeExact:
		return text == f.Pattern
	case ModeContains:
		return f.Pattern == "" || strings.Contains(text, f.Pattern)
	case ModeRegexp:
		if f.re == nil {
			if err := f.Compile(); err != nil {
				return true
			}
		}
		if f.re == nil {
			return true
		}
		return f.re.MatchString(text)
	default:
		return true
	}
}
