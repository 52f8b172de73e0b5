// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a/*.txt", "b/**::vp"}, Split(" a/*.txt ; ;b/**::vp;", ";"))
	assert.Equal(t, []string{"x", "y"}, Split("x,y", ","))
	assert.Empty(t, Split("  ", ","))
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{name: "double star any depth", path: "a/b/foo.txt", patterns: []string{"**/foo.txt"}, want: true},
		{name: "double star zero depth", path: "foo.txt", patterns: []string{"**/foo.txt"}, want: true},
		{name: "full path only", path: "a/b/foo.txt.bak", patterns: []string{"**/foo.txt"}, want: false},
		{name: "single star stays in segment", path: "a/b/c.txt", patterns: []string{"a/*"}, want: false},
		{name: "single star segment", path: "a/c.txt", patterns: []string{"a/*"}, want: true},
		{name: "question mark", path: "log1.txt", patterns: []string{"log?.txt"}, want: true},
		{name: "question mark one char", path: "log10.txt", patterns: []string{"log?.txt"}, want: false},
		{name: "trailing slash is double star", path: "out/x/y.bin", patterns: []string{"out/"}, want: true},
		{name: "backslashes", path: `dist\app.js`, patterns: []string{`dist\*.js`}, want: true},
		{name: "second pattern", path: "a.jar", patterns: []string{"*.war", "*.jar"}, want: true},
		{name: "no patterns", path: "a.jar", patterns: nil, want: false},
		{name: "bad pattern ignored", path: "a", patterns: []string{"[", "a"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesAny(tt.path, tt.patterns)
			assert.Equal(t, tt.want, got)
			// repeated evaluation gives the same answer
			assert.Equal(t, got, MatchesAny(tt.path, tt.patterns))
		})
	}
}

func TestPotentiallyMatches(t *testing.T) {
	tests := []struct {
		prefix   string
		patterns []string
		want     bool
	}{
		{"", []string{"a/b/*.txt"}, true},
		{"a", []string{"a/b/*.txt"}, true},
		{"a/b/", []string{"a/b/*.txt"}, true},
		{"a/c", []string{"a/b/*.txt"}, false},
		{"a/b/c", []string{"a/b/*.txt"}, false},
		{"x/y/z", []string{"x/**/*.log"}, true},
		{"src", []string{"*.txt"}, false},
		{"anything/deep", []string{"**/*.txt"}, true},
		{"r1", []string{"r?/out/*"}, true},
		{"a", []string{"{a,b}/c/*"}, true},
		{"a", []string{"a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, PotentiallyMatches(tt.prefix, tt.patterns))
		})
	}
}

func TestMatcherExcludeDominates(t *testing.T) {
	m := New([]string{"**/*.txt"}, []string{"**/secret*"})
	assert.True(t, m.Includes("docs/readme.txt"))
	assert.False(t, m.Includes("docs/secret.txt"))
	assert.False(t, m.Includes("docs/readme.md"))

	// exclusion is never applied while descending
	assert.True(t, m.Descend("secret-dir"))
}

func TestMatcherDefaultsToEverything(t *testing.T) {
	m := New(nil, []string{"*.tmp"})
	assert.True(t, m.Includes("a/b/c"))
	assert.False(t, m.Includes("x.tmp"))
	assert.True(t, m.Descend("a/b"))
	assert.Equal(t, []string{"**"}, m.IncludePatterns())
}
