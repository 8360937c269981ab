package tagger

import (
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/style"
)

// TaggedSpan is one derived highlight.
type TaggedSpan struct {
	Span position.Span
	Tag  style.Tag
}

// Cache holds the tags emitted for one view. It is owned by that view's
// tagger and is not safe for concurrent use.
//
// The cache only grows: re-tagging a range yields fresh spans and appends
// them, so tags of deleted text stay until the view goes away. Callers that
// need each tag once use Distinct.
type Cache struct {
	// LastParsed is the document length of the first full pass; zero means
	// the document was never fully parsed.
	LastParsed int

	spans []TaggedSpan
}

// Plan decides what to classify for a request. The first request covers the
// whole document and records its length; later requests cover the requested
// ranges only, from the start of the first to the end of the last.
func (c *Cache) Plan(docLen int, requested []position.Span) (span position.Span, full bool) {
	if c.LastParsed == 0 {
		c.LastParsed = docLen
		return position.Span{Start: 0, End: docLen}, true
	}
	return position.Cover(requested).Clamp(docLen), false
}

// Add stores ts and returns it, so emit sites read as "yield cache.Add(ts)".
func (c *Cache) Add(ts TaggedSpan) TaggedSpan {
	c.spans = append(c.spans, ts)
	return ts
}

// Spans returns every tag added so far, in insertion order.
func (c *Cache) Spans() []TaggedSpan {
	return c.spans
}

func (c *Cache) Len() int {
	return len(c.spans)
}

// Distinct returns the cached tags with duplicates of the same range and tag
// dropped, keeping the first occurrence.
func (c *Cache) Distinct() []TaggedSpan {
	seen := make(map[TaggedSpan]struct{}, len(c.spans))
	out := make([]TaggedSpan, 0, len(c.spans))
	for _, ts := range c.spans {
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		out = append(out, ts)
	}
	return out
}

// Within returns the cached tags overlapping span, in insertion order.
func (c *Cache) Within(span position.Span) []TaggedSpan {
	var out []TaggedSpan
	for _, ts := range c.spans {
		if ts.Span.Overlaps(span) {
			out = append(out, ts)
		}
	}
	return out
}
