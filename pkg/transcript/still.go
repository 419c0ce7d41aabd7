package transcript

import (
	"strconv"
	"strings"
)

const (
	cgStillPrefix   = "bg_a" // numbered backgrounds; 1..99 are full-screen stills
	cgSpecialPrefix = "bg_s" // always a still
)

// IsCGStill reports whether a background image name is a CG still rather
// than an ordinary background.
func IsCGStill(name string) bool {
	if strings.HasPrefix(name, cgSpecialPrefix) {
		return true
	}
	rest, ok := strings.CutPrefix(name, cgStillPrefix)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 99
}
