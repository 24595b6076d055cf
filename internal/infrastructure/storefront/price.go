package storefront

import (
	"regexp"
	"strconv"
	"strings"
)

var priceCharsPattern = regexp.MustCompile(`[^0-9,.]`)

// ParsePrice reads a price written with either separator convention.
// With both "." and "," present the dot groups thousands and the comma is
// decimal ("1.234,50" -> 1234.5); a lone comma is decimal ("45,90" -> 45.9).
// It returns nil when no number can be read.
func ParsePrice(text string) *float64 {
	s := priceCharsPattern.ReplaceAllString(text, "")
	if s == "" {
		return nil
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
