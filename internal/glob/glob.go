// Package glob compiles the wildcard patterns used by reverse lookup filters.
//
// The grammar has a single metacharacter: '*' matches any run of characters,
// including the empty run. Every other character, regex metacharacters
// included, matches itself. A compiled pattern must cover the whole value.
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// Any is the pattern that matches every value.
const Any = "*"

// Pattern is a compiled glob.
type Pattern struct {
	source string
	re     *regexp.Regexp // nil for the Any fast path
}

// Compile turns a glob into a Pattern. The literal segments between '*'
// are quoted and joined with ".*", and the whole expression is anchored so
// "foo*bar" matches "foobar" but not "xfoobar" or "foobar2".
func Compile(pattern string) (*Pattern, error) {
	if pattern == Any {
		return &Pattern{source: pattern}, nil
	}

	segments := strings.Split(pattern, "*")
	for i, seg := range segments {
		segments[i] = regexp.QuoteMeta(seg)
	}

	re, err := regexp.Compile(`^(?s:` + strings.Join(segments, ".*") + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
	}
	return &Pattern{source: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether value matches the whole pattern.
func (p *Pattern) Match(value string) bool {
	if p.re == nil {
		return true
	}
	return p.re.MatchString(value)
}

// IsAny reports whether the pattern is the match-everything fast path.
func (p *Pattern) IsAny() bool {
	return p.re == nil
}

// String returns the source glob.
func (p *Pattern) String() string {
	return p.source
}

// Match compiles pattern and tests value against it.
func Match(pattern, value string) (bool, error) {
	p, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return p.Match(value), nil
}
