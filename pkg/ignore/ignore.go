// Package ignore implements gitignore-style exclude pattern matching for the
// Scanner. Patterns are matched against the full path relative to the sync
// root, not just the basename, unless the pattern itself is basename-only.
package ignore

import (
	"errors"
	"fmt"
	pathpkg "path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern represents a single parsed ignore pattern.
type pattern struct {
	// negated indicates whether this pattern re-includes a path otherwise
	// excluded by an earlier pattern.
	negated bool
	// directoryOnly indicates that this pattern only matches directories.
	directoryOnly bool
	// matchLeaf indicates that this pattern should also be matched against
	// a path's base name, for patterns with no slash and no leading slash.
	matchLeaf bool
	// raw is the pattern text used for matching.
	raw string
}

// newPattern validates and parses a single ignore specification.
func newPattern(spec string) (*pattern, error) {
	if spec == "" || spec == "!" {
		return nil, errors.New("empty pattern")
	} else if spec == "/" || spec == "!/" {
		return nil, errors.New("root pattern")
	} else if spec == "//" || spec == "!//" {
		return nil, errors.New("root directory pattern")
	}

	negated := false
	if spec[0] == '!' {
		negated = true
		spec = spec[1:]
	}

	absolute := false
	if spec[0] == '/' {
		absolute = true
		spec = spec[1:]
	}

	directoryOnly := false
	if spec[len(spec)-1] == '/' {
		directoryOnly = true
		spec = spec[:len(spec)-1]
	}

	containsSlash := strings.IndexByte(spec, '/') >= 0

	if _, err := doublestar.Match(spec, "a"); err != nil {
		return nil, fmt.Errorf("unable to validate pattern: %w", err)
	}

	return &pattern{
		negated:       negated,
		directoryOnly: directoryOnly,
		matchLeaf:     !absolute && !containsSlash,
		raw:           spec,
	}, nil
}

// matches reports whether the pattern matches path, and if so, whether the
// match is negated.
func (p *pattern) matches(path string, directory bool) (matched, negated bool) {
	if p.directoryOnly && !directory {
		return false, false
	}
	if match, _ := doublestar.Match(p.raw, path); match {
		return true, p.negated
	}
	if p.matchLeaf && path != "" {
		if match, _ := doublestar.Match(p.raw, pathpkg.Base(path)); match {
			return true, p.negated
		}
	}
	return false, false
}

// Valid reports whether spec is a syntactically valid ignore pattern.
func Valid(spec string) bool {
	_, err := newPattern(spec)
	return err == nil
}

// Matcher evaluates a path against an ordered list of ignore patterns. Later
// patterns take precedence, so a negated pattern can re-include a path an
// earlier pattern excluded.
type Matcher struct {
	patterns []*pattern
}

// New parses the given patterns into a Matcher. It fails fast on the first
// invalid pattern so that a bad configuration is caught at load time rather
// than silently matching nothing.
func New(specs []string) (*Matcher, error) {
	patterns := make([]*pattern, len(specs))
	for i, spec := range specs {
		p, err := newPattern(spec)
		if err != nil {
			return nil, fmt.Errorf("unable to parse pattern %q: %w", spec, err)
		}
		patterns[i] = p
	}
	return &Matcher{patterns: patterns}, nil
}

// Ignored reports whether path (relative to the sync root, using forward
// slashes) should be excluded from scanning.
func (m *Matcher) Ignored(path string, directory bool) bool {
	if m == nil {
		return false
	}
	ignored := false
	for _, p := range m.patterns {
		if matched, negated := p.matches(path, directory); matched {
			ignored = !negated
		}
	}
	return ignored
}
