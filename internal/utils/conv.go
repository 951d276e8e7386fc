package utils

import (
	"strconv"
	"strings"
)

// OptionalInt parses s as an int. Blank input yields nil; malformed input an error.
func OptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// SplitList flattens repeated and comma-separated values, dropping blanks.
//
//	SplitList([]string{"Go,Rust", " Python "}) -> ["Go" "Rust" "Python"]
func SplitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
