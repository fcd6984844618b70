// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email normalizes an email address for storage and comparison:
// trimmed and case-folded. Lookups by email fold their input the same way.
func Email(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Username normalizes a username the same way as Email.
func Username(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
