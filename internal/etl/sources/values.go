package sources

import (
	"strconv"
	"strings"
)

// inferValue parses a raw cell into a number where possible.
// Empty cells become nil so the Normalizer sees them as missing.
func inferValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
