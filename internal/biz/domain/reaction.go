package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ReactionTally maps a reaction kind (usually an emoji) to how often it was added
type ReactionTally map[string]int

// Total returns the number of reactions across all kinds
func (t ReactionTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// Format renders the tally as "2×🎉, 1×👍", most frequent first
func (t ReactionTally) Format() string {
	if len(t) == 0 {
		return ""
	}

	kinds := make([]string, 0, len(t))
	for kind := range t {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if t[kinds[i]] != t[kinds[j]] {
			return t[kinds[i]] > t[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%d×%s", t[kind], kind))
	}
	return strings.Join(parts, ", ")
}
