// Package utils holds small helpers for request parameters.
package utils

import (
	"cmp"
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is blank or
// malformed. Surrounding whitespace is ignored.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Clamp bounds v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// QueryLimit reads a "limit" query value: def when absent or malformed,
// then bounded to [1, max].
func QueryLimit(s string, def, max int) int {
	return Clamp(AtoiDefault(s, def), 1, max)
}
