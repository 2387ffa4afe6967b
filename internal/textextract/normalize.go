package textextract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize puts extracted text into NFC, unix line endings and no trailing
// whitespace per line. Runs of blank lines collapse to one; page breaks (\f) are kept.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
