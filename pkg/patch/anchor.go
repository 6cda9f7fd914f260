package patch

import (
	"strings"
	"unicode/utf8"
)

// Locate returns the rune span of the first verbatim occurrence of text in
// document.
func Locate(document, text string) (Span, bool) {
	if text == "" {
		return Span{}, false
	}
	byteIdx := strings.Index(document, text)
	if byteIdx < 0 {
		return Span{}, false
	}
	start := utf8.RuneCountInString(document[:byteIdx])
	return Span{Start: start, End: start + utf8.RuneCountInString(text)}, true
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
