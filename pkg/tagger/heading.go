package tagger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/style"
)

const maxHeadingLevel = 6

// HeadingTagger tags markdown headings line by line. It shares the cache and
// full-then-incremental plan of the classification pipeline but reads the text
// itself instead of a classifier.
type HeadingTagger struct {
	cache  *Cache
	styles *style.Registry
}

func NewHeadingTagger(cache *Cache, styles *style.Registry) *HeadingTagger {
	return &HeadingTagger{cache: cache, styles: styles}
}

func (h *HeadingTagger) Cache() *Cache {
	return h.cache
}

// Tags returns a tag for each heading line intersecting the planned span.
// The tag covers the heading text after the hashes and the blanks that follow.
func (h *HeadingTagger) Tags(ctx context.Context, snap host.Snapshot, requested []position.Span) []TaggedSpan {
	if len(requested) == 0 {
		return nil
	}
	span, full := h.cache.Plan(snap.Len(), requested)
	zerolog.Ctx(ctx).Debug().Bool("full", full).Stringer("span", span).Msg("markdown heading pass")

	var out []TaggedSpan
	for _, line := range position.LineSpans(snap.Text) {
		if line.End < span.Start {
			continue
		}
		if line.Start > span.End {
			break
		}
		if ts, ok := h.parseLine(snap.Text, line); ok {
			out = append(out, h.cache.Add(ts))
		}
	}
	return out
}

func (h *HeadingTagger) parseLine(text string, line position.Span) (TaggedSpan, bool) {
	t := line.Text(text)
	if len(t) < 1 || t[0] != '#' {
		return TaggedSpan{}, false
	}
	level, blanks := 1, 0
	for i := 1; i < len(t); i++ {
		switch t[i] {
		case '#':
			if blanks == 0 {
				level++
			}
			continue
		case ' ', '\t':
			blanks++
			continue
		}
		break
	}
	if level > maxHeadingLevel {
		return TaggedSpan{}, false
	}
	tag, ok := h.styles.Heading(level)
	if !ok {
		return TaggedSpan{}, false
	}
	skip := level + blanks
	return TaggedSpan{Span: position.Span{Start: line.Start + skip, End: line.End}, Tag: tag}, true
}
