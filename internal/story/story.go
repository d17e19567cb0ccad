// File: internal/story/story.go
//
// The story is the agent's only memory. It lives on screen inside the
// overlay, gets captured into the next screenshot, and is re-read by the
// oracle every iteration. This package folds each fresh story from the
// oracle into the previous one.
package story

import (
	"regexp"
	"strings"
)

// MinFreshLines is the threshold at which a fresh story fully replaces the
// old one. Below it the oracle is assumed to have under-reported and old
// context is preserved through a merge.
const MinFreshLines = 6

// MaxLines caps the merged story so the overlay never grows unbounded.
const MaxLines = 16

var sentenceBoundary = regexp.MustCompile(`(?:[.!?])\s+`)

// Lines splits a story into its trimmed, non-empty lines.
func Lines(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Merge folds a fresh story into the previous one. Fresh lines come first,
// then old lines, each appended only if not already present (exact,
// case-sensitive match), stopping at maxLines. An empty fresh story keeps
// the old story unchanged, so the on-screen memory never silently shrinks
// to nothing while prior content exists.
func Merge(old, fresh string, maxLines int) string {
	if fresh == "" && old != "" {
		return old
	}

	merged := make([]string, 0, maxLines)
	seen := make(map[string]struct{}, maxLines)
	for _, ln := range append(Lines(fresh), Lines(old)...) {
		if _, dup := seen[ln]; dup {
			continue
		}
		merged = append(merged, ln)
		seen[ln] = struct{}{}
		if len(merged) >= maxLines {
			break
		}
	}
	return strings.Join(merged, "\n")
}

// Advance applies the freshness policy: a fresh story with at least
// MinFreshLines lines dominates completely (old context is dropped unless
// restated); a shorter one is merged with the old story; an empty one
// leaves the old story untouched.
func Advance(old, fresh string, maxLines int) string {
	if len(Lines(fresh)) >= MinFreshLines {
		return Merge("", fresh, maxLines)
	}
	return Merge(old, fresh, maxLines)
}

// NormalizeMemory converts the oracle's memory field, which may arrive as a
// list of strings, a single string, or anything else stringable, into a
// newline-joined story.
func NormalizeMemory(mem any) string {
	switch v := mem.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(trimAll(v), "\n")
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				lines = append(lines, s)
			}
		}
		return strings.Join(trimAll(lines), "\n")
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

// SplitSentences turns a reasoning paragraph into short story lines. Used as
// a fallback for oracles that fill only the reasoning field.
func SplitSentences(reasoning string) []string {
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		return nil
	}
	var out []string
	rest := reasoning
	for {
		loc := sentenceBoundary.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if p := strings.TrimSpace(rest[:loc[0]+1]); p != "" {
			out = append(out, p)
		}
		rest = rest[loc[1]:]
	}
	if p := strings.TrimSpace(rest); p != "" {
		out = append(out, p)
	}
	return out
}

func trimAll(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
