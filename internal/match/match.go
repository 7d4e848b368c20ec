// Package match implements case-insensitive include/exclude key matching.
//
// A target (a set of tags, or a single identifier) matches a Rule when ANY
// of its tags equals a key in Keys and NONE equals a key in Forbidden.
// Forbidden keys always win over positive matches.
//
// When several rules are configured, FirstMatch scans them from the last
// declared to the first: later, more specific declarations take precedence
// over earlier generic ones by being checked first.
package match

import "github.com/roach88/unlevel/internal/record"

// Rule is one include/exclude key set. Keys are stored case-folded.
type Rule struct {
	keys      map[string]bool
	forbidden map[string]bool
}

// NewRule builds a Rule from raw keys. Empty strings are ignored.
func NewRule(keys, forbidden []string) Rule {
	return Rule{keys: foldSet(keys), forbidden: foldSet(forbidden)}
}

func foldSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, k := range in {
		if k == "" {
			continue
		}
		out[record.Fold(k)] = true
	}
	return out
}

// Empty reports whether the rule has no positive keys and can never match.
func (r Rule) Empty() bool {
	return len(r.keys) == 0
}

// Matches reports whether any target is a key and no target is forbidden.
func (r Rule) Matches(targets ...string) bool {
	hit := false
	for _, t := range targets {
		f := record.Fold(t)
		if r.forbidden[f] {
			return false
		}
		if r.keys[f] {
			hit = true
		}
	}
	return hit
}

// FirstMatch returns the index of the winning entry for targets, scanning
// entries from last to first. rule extracts each entry's Rule. The bool is
// false when no entry matches.
func FirstMatch[E any](entries []E, rule func(E) Rule, targets ...string) (int, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if rule(entries[i]).Matches(targets...) {
			return i, true
		}
	}
	return -1, false
}
