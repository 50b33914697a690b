// Package matcher selects parameter names with glob or regex patterns.
package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type from its metacharacters.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher reports whether a parameter name matches a pattern.
type Matcher interface {
	Match(name string) bool
	Pattern() string
	Type() PatternType
}

// Options configures the matcher behavior.
type Options struct {
	// CaseInsensitive makes matching case-insensitive.
	CaseInsensitive bool
}

type matcher struct {
	pattern         string
	patternType     PatternType
	glob            string
	compiled        *regexp.Regexp
	caseInsensitive bool
}

// New creates a Matcher for pattern.
func New(patternType PatternType, pattern string, opts ...Options) (Matcher, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	m := &matcher{pattern: pattern, patternType: patternType, caseInsensitive: o.CaseInsensitive}
	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}

	switch m.patternType {
	case Glob:
		m.glob = pattern
		if o.CaseInsensitive {
			m.glob = strings.ToLower(pattern)
		}
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	case Regex:
		expr := pattern
		if o.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		m.compiled = compiled
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", patternType)
	}
	return m, nil
}

// Match checks if name matches the pattern.
func (m *matcher) Match(name string) bool {
	if m.patternType == Regex {
		return m.compiled.MatchString(name)
	}
	if m.caseInsensitive {
		name = strings.ToLower(name)
	}
	ok, _ := filepath.Match(m.glob, name)
	return ok
}

func (m *matcher) Pattern() string { return m.pattern }

func (m *matcher) Type() PatternType { return m.patternType }

// Filter returns the items whose name matches, in their original order.
func Filter[T any](m Matcher, items []T, name func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if m.Match(name(item)) {
			out = append(out, item)
		}
	}
	return out
}

// detectPatternType treats a pattern as regex when it carries
// metacharacters glob never uses.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}
