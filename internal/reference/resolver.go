package reference

import (
	"sort"
	"strings"
)

// Resolve maps a raw parameter name from OCR text to a canonical key.
//
// Resolution is three-tiered and deliberately lossy-tolerant:
//  1. exact canonical key match after lowercasing and trimming,
//  2. exact alias table match,
//  3. containment scan: the first alias (in sorted order, so results
//     are deterministic) that appears at a word start in the input, or
//     vice versa. Word-start anchoring and a three-character minimum
//     keep codes like "k", "na", or "ast" from matching inside
//     unrelated names ("ast" in "fasting"); the exact tier already
//     covers the short codes.
//
// If nothing matches, the lowercased input is returned unchanged as an
// unknown key with no catalog entry. Resolve is idempotent for inputs
// that are already canonical keys.
func (c *Catalog) Resolve(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	if _, ok := c.entries[normalized]; ok {
		return normalized
	}

	if key, ok := c.aliases[normalized]; ok {
		return key
	}

	for _, alias := range c.sortedAliases() {
		if len(alias) < 3 {
			continue
		}
		if containsAtWordStart(normalized, alias) || containsAtWordStart(alias, normalized) {
			return c.aliases[alias]
		}
	}

	return normalized
}

// containsAtWordStart reports whether needle occurs in haystack starting
// at the beginning of a word.
func containsAtWordStart(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; ; {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		abs := from + idx
		if abs == 0 || haystack[abs-1] == ' ' {
			return true
		}
		from = abs + 1
	}
}

// ResolveEntry resolves a raw name and looks up its catalog entry in one
// step. ok is false for unknown keys.
func (c *Catalog) ResolveEntry(name string) (Entry, bool) {
	return c.Lookup(c.Resolve(name))
}

// sortedAliases returns alias keys in a stable order for the
// containment scan. The slice is rebuilt per call; the alias table is
// small and Resolve sits outside any hot loop.
func (c *Catalog) sortedAliases() []string {
	keys := make([]string, 0, len(c.aliases))
	for alias := range c.aliases {
		keys = append(keys, alias)
	}
	sort.Strings(keys)
	return keys
}
