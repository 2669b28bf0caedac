package ocr

import (
	"fmt"
	"regexp"
	"strings"
)

// Plate strings canonicalize to LLL-DDD-LL: a 3-letter prefix, 3 digits and a
// 2-letter suffix, uppercase, dash separated.
var embeddedPlate = regexp.MustCompile(`([A-Z]{3})([0-9]{3})([A-Z]{2})`)

// Positional confusion tables. The head and tail of an 8-character raw read
// are meant to be letters, the middle three characters digits; characters on
// the wrong side are assumed to be OCR lookalike misreads and swapped.
var (
	digitToLetter = strings.NewReplacer(
		"0", "O", "1", "I", "5", "S", "8", "B", "6", "G",
	)
	letterToDigit = strings.NewReplacer(
		"O", "0", "I", "1", "S", "5", "B", "8", "G", "6",
		"Z", "2", "T", "7", "L", "1",
	)
)

// NormalizePlate canonicalizes raw OCR text into an LLL-DDD-LL plate string.
// Non-alphanumerics are stripped and the text uppercased; an exact 8-character
// read gets positional confusion correction before the shape check, anything
// else falls back to searching for an embedded plate substring. Returns false
// when no plate can be recovered. Applying it to an already-canonical plate
// returns that plate unchanged.
func NormalizePlate(text string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	t := b.String()

	if len(t) == 8 {
		head := digitToLetter.Replace(t[:3])
		mid := letterToDigit.Replace(t[3:6])
		tail := digitToLetter.Replace(t[6:8])
		if isAlpha(head) && isDigits(mid) && isAlpha(tail) {
			return fmt.Sprintf("%s-%s-%s", head, mid, tail), true
		}
		t = head + mid + tail
	}

	if m := embeddedPlate.FindStringSubmatch(t); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), true
	}
	return "", false
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
