// Package filter decides which extracted tests run.
package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

// Filter is the predicate consulted once per test name.
type Filter interface {
	// ShouldSkip reports whether the named test must not run.
	ShouldSkip(name string) bool
}

// GlobPattern filters names against a glob. With Positive set, everything
// that does not match is skipped; otherwise matches are skipped.
type GlobPattern struct {
	matcher       glob.Glob
	positive      bool
	caseSensitive bool
}

// NewGlobPattern compiles pattern into a filter.
func NewGlobPattern(pattern string, caseSensitive, positive bool) (*GlobPattern, error) {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &GlobPattern{matcher: matcher, positive: positive, caseSensitive: caseSensitive}, nil
}

func (g *GlobPattern) ShouldSkip(name string) bool {
	if !g.caseSensitive {
		name = strings.ToLower(name)
	}
	matched := g.matcher.Match(name)
	if g.positive {
		return !matched
	}
	return matched
}

// StringMatch filters names by substring. A name matches when any of the
// configured substrings appears in it.
type StringMatch struct {
	Matchers      []string
	CaseSensitive bool
	Positive      bool
}

func (s *StringMatch) ShouldSkip(name string) bool {
	if !s.CaseSensitive {
		name = strings.ToLower(name)
	}
	matched := false
	for _, matcher := range s.Matchers {
		if !s.CaseSensitive {
			matcher = strings.ToLower(matcher)
		}
		if strings.Contains(name, matcher) {
			matched = true
			break
		}
	}
	if s.Positive {
		return !matched
	}
	return matched
}
