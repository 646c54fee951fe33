package domain

import "strings"

// regionalIndicatorOffset maps 'A'..'Z' onto the Unicode regional indicator
// symbols U+1F1E6..U+1F1FF. Two of them in sequence render as a flag.
const regionalIndicatorOffset = 127397

// ConvertToEmoji turns a two-letter ISO country code into its flag glyph,
// e.g. "FR" into the French flag. The mapping must be exact: a wrong offset
// produces garbage glyphs silently rather than an error.
func ConvertToEmoji(countryCode string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(countryCode) {
		b.WriteRune(r + regionalIndicatorOffset)
	}
	return b.String()
}
