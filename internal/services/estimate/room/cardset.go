package room

import "strings"

// CardSet is the ordered, distinct list of vote symbols of a room.
type CardSet []string

// DefaultCardSet is used when an observer creates a room without one.
var DefaultCardSet = CardSet{"1", "2", "3", "5", "8", "13", "21", "?"}

// NormalizeCardSet trims entries, drops blanks and later duplicates, and
// falls back to fallback (or DefaultCardSet) when nothing is left.
func NormalizeCardSet(entries []string, fallback CardSet) CardSet {
	seen := make(map[string]struct{}, len(entries))
	out := make(CardSet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	if len(out) > 0 {
		return out
	}
	if len(fallback) > 0 {
		return fallback.Clone()
	}
	return DefaultCardSet.Clone()
}

// ParseCardSet splits a comma separated list into a normalised card set.
func ParseCardSet(csv string) CardSet {
	return NormalizeCardSet(strings.Split(csv, ","), nil)
}

// Clone returns a copy safe to hand out.
func (c CardSet) Clone() CardSet {
	if c == nil {
		return nil
	}
	out := make(CardSet, len(c))
	copy(out, c)
	return out
}

// Index returns the position of symbol, or -1.
func (c CardSet) Index(symbol string) int {
	for i, candidate := range c {
		if candidate == symbol {
			return i
		}
	}
	return -1
}
