package patch

// Tracked is a pending span as it moves through a batch. Stale marks a span
// whose text was touched by an earlier edit, so its bounds can no longer be
// trusted.
type Tracked struct {
	Span  Span
	Stale bool
}

// Propagate returns the pending spans repositioned after an edit over
// applied changed the document length by delta. The input slice is not
// modified.
//
// Spans fully after applied shift by delta, spans fully before it stay put,
// and any overlap (partial or containment, either direction) keeps its
// bounds and is marked stale.
func Propagate(applied Span, delta int, pending []Tracked) []Tracked {
	out := make([]Tracked, len(pending))
	for i, p := range pending {
		out[i] = propagateOne(applied, delta, p)
	}
	return out
}

func propagateOne(applied Span, delta int, p Tracked) Tracked {
	switch {
	case applied.Overlaps(p.Span):
		lo, hi := p.Span.Start, p.Span.End
		if lo > hi {
			lo, hi = hi, lo
		}
		p.Span = Span{Start: lo, End: hi}
		p.Stale = true
	case p.Span.Start >= applied.End:
		p.Span.Start += delta
		p.Span.End += delta
	}
	return p
}
