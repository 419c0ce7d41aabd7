package textfilter

import (
	"strings"

	"golang.org/x/text/width"
)

// reservedRunes are characters that cannot appear in filenames on at least one
// supported platform. They are swapped for their full-width forms so titles
// stay readable.
var reservedRunes = []rune{'*', ':', '/', '\\', '?'}

// filenameReplacer maps reserved characters to safe substitutes
var filenameReplacer = newFilenameReplacer()

func newFilenameReplacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(reservedRunes)+6)
	for _, r := range reservedRunes {
		pairs = append(pairs, string(r), width.Widen.String(string(r)))
	}
	pairs = append(pairs,
		`"`, "''",
		"\r\n", " ",
		"\n", " ",
	)
	return strings.NewReplacer(pairs...)
}

// ValidFilename makes a story title safe to use as a file or directory name.
func ValidFilename(name string) string {
	return filenameReplacer.Replace(strings.TrimSpace(name))
}

// lineReplacer collapses embedded line breaks
var lineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// OneLine collapses embedded line breaks into single spaces.
func OneLine(text string) string {
	return lineReplacer.Replace(text)
}
