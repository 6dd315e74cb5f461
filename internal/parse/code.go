package parse

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// StationCode derives a station's unique code from its display name:
// uppercased, with every run of non-alphanumeric characters collapsed to "_".
func StationCode(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = nonAlnumRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
