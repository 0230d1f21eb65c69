package utils

import "strings"

// NormalizeTicker trims whitespace and uppercases a user-supplied ticker.
// It performs no other validation; callers reject the empty string.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SplitTickers parses a comma-separated ticker list, normalizing each entry
// and dropping blanks.
func SplitTickers(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if t := NormalizeTicker(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
