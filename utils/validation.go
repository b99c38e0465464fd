// utils/validation.go
package utils

import "strings"

// Blank reports whether s is empty once surrounding whitespace is
// removed.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
