// Package patch applies batches of text edits to a single document.
//
// Offsets are rune (code point) indexes into the document, half-open [Start, End).
package patch

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var ErrInvalidSpan = errors.New("invalid span")

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan rejects negative bounds and inverted ranges. Bounds against a
// concrete document are checked later with CheckBounds.
func NewSpan(start, end int) (Span, error) {
	s := Span{Start: start, End: end}
	if start < 0 || end < 0 || start > end {
		return Span{}, fmt.Errorf("%w: [%d,%d)", ErrInvalidSpan, start, end)
	}
	return s, nil
}

func (s Span) Len() int {
	return s.End - s.Start
}

// CheckBounds reports ErrInvalidSpan unless 0 <= Start <= End <= docLen.
func (s Span) CheckBounds(docLen int) error {
	if s.Start < 0 || s.End < 0 || s.Start > s.End || s.End > docLen {
		return fmt.Errorf("%w: [%d,%d) over length %d", ErrInvalidSpan, s.Start, s.End, docLen)
	}
	return nil
}

// Overlaps reports whether the two spans share at least one position, or
// whether an empty span sits strictly inside the other. Spans that only
// touch at a boundary do not overlap.
func (s Span) Overlaps(o Span) bool {
	return !(o.Start >= s.End || o.End <= s.Start)
}

func (s Span) clamp(docLen int) Span {
	if s.Start > docLen {
		s.Start = docLen
	}
	if s.End > docLen {
		s.End = docLen
	}
	if s.Start < 0 {
		s.Start = 0
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

// Edit replaces the text covered by Span with Replacement.
//
// When Anchor is set the edit is located by the first verbatim occurrence
// of Anchor in the document at the time it is applied, and Span is ignored.
type Edit struct {
	FindingID   string
	Span        Span
	Anchor      string
	Replacement string
}

// NewEdit builds an offset-anchored edit.
func NewEdit(findingID string, start, end int, replacement string) (Edit, error) {
	span, err := NewSpan(start, end)
	if err != nil {
		return Edit{}, err
	}
	return Edit{FindingID: findingID, Span: span, Replacement: replacement}, nil
}

// NewTextEdit builds an edit anchored by literal text.
func NewTextEdit(findingID, anchor, replacement string) Edit {
	return Edit{FindingID: findingID, Anchor: anchor, Replacement: replacement}
}

// LengthDelta is the change in document length the edit causes when
// applied over its current span.
func (e Edit) LengthDelta() int {
	return utf8.RuneCountInString(e.Replacement) - e.Span.Len()
}
