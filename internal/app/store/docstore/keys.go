// internal/app/store/docstore/keys.go
package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keys are composite strings: an entity tag followed by one or more parts,
// joined with Separator. Because the store has no secondary indexes, every
// attribute a caller will ever scan by must be embedded in the key; range
// scans over a key prefix are the only "index" there is.

// Separator joins the entity tag and key parts. No part may contain it;
// that precondition is the caller's to uphold.
const Separator = ":"

// sentinel sorts after every possible completion of a prefix, so
// [prefix, prefix+sentinel) covers exactly the keys that extend the prefix.
const sentinel = string(utf8.MaxRune)

// timePartWidth fixes the encoded width of millisecond timestamps so that
// lexicographic order equals chronological order.
const timePartWidth = 13

// Key builds a composite key from an entity tag and its parts.
// It panics if any part is empty or contains Separator; malformed parts are
// a programming error, not a runtime condition.
func Key(tag string, parts ...string) string {
	checkPart(tag)
	for _, p := range parts {
		checkPart(p)
	}
	return tag + Separator + strings.Join(parts, Separator)
}

// PrefixRange returns the [low, high) bounds of a range scan that matches
// every key beginning with the given tag and parts. The low bound ends in a
// trailing Separator so sibling prefixes that merely share leading text are
// excluded.
func PrefixRange(tag string, parts ...string) (low, high string) {
	checkPart(tag)
	low = tag + Separator
	for _, p := range parts {
		checkPart(p)
		low += p + Separator
	}
	return low, low + sentinel
}

// TimePart encodes milliseconds-since-epoch as a fixed-width, zero-padded
// decimal string suitable for use as a sortable key component.
func TimePart(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	return fmt.Sprintf("%0*d", timePartWidth, millis)
}

// ParseTimePart decodes a fixed-width millisecond component produced by
// TimePart.
func ParseTimePart(s string) (int64, error) {
	if len(s) != timePartWidth {
		return 0, fmt.Errorf("time part %q: want %d digits", s, timePartWidth)
	}
	millis, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("time part %q: %w", s, err)
	}
	return millis, nil
}

func checkPart(p string) {
	if p == "" {
		panic("docstore: empty key part")
	}
	if strings.Contains(p, Separator) {
		panic(fmt.Sprintf("docstore: key part %q contains separator %q", p, Separator))
	}
}
