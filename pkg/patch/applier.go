package patch

import "unicode/utf8"

type Status string

const (
	StatusApplied  Status = "applied"
	StatusDegraded Status = "degraded"
	StatusRejected Status = "rejected"
)

// Rejection reasons.
const (
	ReasonInvalidSpan    = "invalid-span"
	ReasonAnchorNotFound = "anchor-not-found"
)

// Outcome records what happened to one edit of a batch. Span is the range
// the edit was applied over, in the coordinates of the document as it was
// right before this edit.
type Outcome struct {
	Index     int    `json:"index"`
	FindingID string `json:"findingId,omitempty"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Span      Span   `json:"span"`
	Delta     int    `json:"delta"`
}

type Result struct {
	Document string    `json:"text"`
	Outcomes []Outcome `json:"outcomes"`
}

// Counts returns how many edits ended in each status.
func (r Result) Counts() map[Status]int {
	counts := map[Status]int{StatusApplied: 0, StatusDegraded: 0, StatusRejected: 0}
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Apply applies edits to document strictly in slice order.
//
// Each edit is validated against the current document. Invalid spans and
// missing anchors reject that edit only; the batch always completes. After
// every application the remaining spans are propagated, so offsets given
// against the original document stay meaningful. An edit whose span was
// invalidated by an earlier edit is still applied, clamped to the document,
// and reported as degraded.
func Apply(document string, edits []Edit) Result {
	doc := []rune(document)

	pending := make([]Tracked, len(edits))
	for i, e := range edits {
		pending[i] = Tracked{Span: e.Span}
	}

	outcomes := make([]Outcome, 0, len(edits))
	for i, e := range edits {
		out := Outcome{Index: i, FindingID: e.FindingID}
		cur := pending[i]

		var span Span
		if e.Anchor != "" {
			idx := indexRunes(doc, []rune(e.Anchor))
			if idx < 0 {
				out.Status = StatusRejected
				out.Reason = ReasonAnchorNotFound
				outcomes = append(outcomes, out)
				continue
			}
			span = Span{Start: idx, End: idx + utf8.RuneCountInString(e.Anchor)}
			cur.Stale = false
		} else {
			span = cur.Span
			if cur.Stale {
				span = span.clamp(len(doc))
			}
			if err := span.CheckBounds(len(doc)); err != nil {
				out.Status = StatusRejected
				out.Reason = ReasonInvalidSpan
				out.Span = span
				outcomes = append(outcomes, out)
				continue
			}
		}

		replacement := []rune(e.Replacement)
		doc = splice(doc, span, replacement)
		delta := len(replacement) - span.Len()

		rest := Propagate(span, delta, pending[i+1:])
		copy(pending[i+1:], rest)

		out.Span = span
		out.Delta = delta
		out.Status = StatusApplied
		if cur.Stale {
			out.Status = StatusDegraded
		}
		outcomes = append(outcomes, out)
	}

	return Result{Document: string(doc), Outcomes: outcomes}
}

func splice(doc []rune, span Span, replacement []rune) []rune {
	next := make([]rune, 0, len(doc)-span.Len()+len(replacement))
	next = append(next, doc[:span.Start]...)
	next = append(next, replacement...)
	next = append(next, doc[span.End:]...)
	return next
}
