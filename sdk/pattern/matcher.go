// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package pattern implements Ant-style path selection: "*" and "?" stay within
// one path segment, "**" spans any number of segments and a trailing "/"
// stands for "/**".
package pattern

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Split tokenizes a delimiter separated pattern list. Blank tokens are dropped.
func Split(s string, seps string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Normalize converts a pattern to the slash separated, root relative form the
// matcher works on.
func Normalize(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimLeft(p, "/")
	if strings.HasSuffix(p, "/") {
		p += "**"
	}
	return p
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.Trim(p, "/")
}

// MatchesAny reports whether the full path matches at least one pattern.
func MatchesAny(path string, patterns []string) bool {
	path = normalizePath(path)
	for _, p := range patterns {
		p = Normalize(p)
		if p == "" {
			continue
		}
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// PotentiallyMatches reports whether some path below the directory prefix could
// match one of the patterns. Only the segments seen so far are compared, so
// the answer is a necessary condition, never a final decision.
func PotentiallyMatches(prefix string, patterns []string) bool {
	prefix = normalizePath(prefix)
	if prefix == "" {
		return len(patterns) > 0
	}
	dir := strings.Split(prefix, "/")
	for _, p := range patterns {
		p = Normalize(p)
		if p == "" {
			continue
		}
		// brace alternatives may hide separators; segment-wise comparison is unsafe
		if strings.ContainsAny(p, "{}") {
			return true
		}
		if couldMatch(strings.Split(p, "/"), dir) {
			return true
		}
	}
	return false
}

func couldMatch(pat, dir []string) bool {
	for len(dir) > 0 {
		if len(pat) == 0 {
			return false
		}
		if pat[0] == "**" {
			return true
		}
		ok, err := doublestar.Match(pat[0], dir[0])
		if err != nil || !ok {
			return false
		}
		pat, dir = pat[1:], dir[1:]
	}
	return len(pat) > 0
}

// Matcher applies the include/exclude decision policy.
type Matcher struct {
	includes []string
	excludes []string
}

// New builds a matcher. With no include patterns everything is included.
func New(includes, excludes []string) *Matcher {
	m := &Matcher{}
	for _, p := range includes {
		if p = Normalize(p); p != "" {
			m.includes = append(m.includes, p)
		}
	}
	for _, p := range excludes {
		if p = Normalize(p); p != "" {
			m.excludes = append(m.excludes, p)
		}
	}
	if len(m.includes) == 0 {
		m.includes = []string{"**"}
	}
	return m
}

// Includes decides for a fully known object path: included and not excluded.
func (m *Matcher) Includes(path string) bool {
	return MatchesAny(path, m.includes) && !MatchesAny(path, m.excludes)
}

// Descend decides whether a directory-like prefix is worth listing. Exclusion
// is not evaluated here; it is deferred to the leaves.
func (m *Matcher) Descend(prefix string) bool {
	return PotentiallyMatches(prefix, m.includes)
}

func (m *Matcher) IncludePatterns() []string { return append([]string(nil), m.includes...) }

func (m *Matcher) ExcludePatterns() []string { return append([]string(nil), m.excludes...) }
