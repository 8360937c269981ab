/*
Package tagger derives highlight tags from upstream classification spans.

	edit --> classifier --> ClassificationSpans(range)
	                              |
	                   +----------+-----------+------------+
	                   |          |           |            |
	              declaration  directive   modifier     comment
	              (pass)       (pass)      (abstraction) (labels.Match)
	                   |          |           |            |
	                   +----------+-----+-----+------------+
	                                    v
	                              Cache.Add --> caller

The first request after a view attaches classifies the whole document; every
later request classifies only the requested ranges.
*/
package tagger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/walteh/tagoverlay/pkg/config"
	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/labels"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/style"
)

var (
	directiveKeywords   = []string{"region", "pragma", "if", "else"}
	abstractionKeywords = []string{"abstract", "override", "virtual"}
)

// Tagger is the classification pipeline of one view.
type Tagger struct {
	id       string
	source   host.ClassificationSource
	cache    *Cache
	settings *config.Settings
	styles   *style.Registry
	code     labels.CodeType

	repaint     func()
	unsubscribe func()
}

// New attaches a tagger to a view. cache is the view's cache; passing the
// same cache to a re-created tagger keeps the view's first-load state.
func New(source host.ClassificationSource, cache *Cache, settings *config.Settings, styles *style.Registry, code labels.CodeType) *Tagger {
	t := &Tagger{
		id:       uuid.NewString(),
		source:   source,
		cache:    cache,
		settings: settings,
		styles:   styles,
		code:     code,
	}
	t.unsubscribe = source.OnBatchedChanges(t.batchedChanges)
	return t
}

// ID identifies the tagger in logs.
func (t *Tagger) ID() string {
	return t.id
}

func (t *Tagger) Cache() *Cache {
	return t.cache
}

// OnRepaint registers the callback asked to redraw after the classifier
// reports a batch of changes.
func (t *Tagger) OnRepaint(fn func()) {
	t.repaint = fn
}

func (t *Tagger) batchedChanges() {
	if t.repaint != nil {
		t.repaint()
	}
}

// Close detaches from the classifier.
func (t *Tagger) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// Tags returns the tags for the requested ranges of snap, in upstream order.
// Each returned tag has already been added to the cache.
func (t *Tagger) Tags(ctx context.Context, snap host.Snapshot, requested []position.Span) []TaggedSpan {
	if len(requested) == 0 {
		return nil
	}

	span, full := t.cache.Plan(snap.Len(), requested)
	logger := zerolog.Ctx(ctx).With().Str("tagger", t.id).Logger()
	if full {
		logger.Debug().Int("length", span.End).Msg("full parse")
	} else {
		logger.Debug().Int("start", span.Start).Int("end", span.End).Msg("incremental parse")
	}

	var out []TaggedSpan
	for _, cs := range t.source.ClassificationSpans(snap, span) {
		if ts, ok := t.tag(snap.Text, cs); ok {
			out = append(out, t.cache.Add(ts))
		}
	}
	return out
}

func (t *Tagger) tag(text string, cs host.ClassificationSpan) (TaggedSpan, bool) {
	if t.code == labels.CodeTypeCSharp {
		switch cs.Category {
		case host.CategoryClassName, host.CategoryInterfaceName, host.CategoryStructName, host.CategoryEnumName:
			if !t.settings.MarkDeclarations {
				return TaggedSpan{}, false
			}
			return TaggedSpan{Span: cs.Span, Tag: t.styles.PassThrough(string(cs.Category))}, true
		case host.CategoryPreprocessorKeyword:
			if !t.settings.MarkDirectives || !matchesAny(text, cs.Span, directiveKeywords, true) {
				return TaggedSpan{}, false
			}
			return TaggedSpan{Span: cs.Span, Tag: t.styles.PassThrough(string(cs.Category))}, true
		case host.CategoryKeyword:
			if !t.settings.MarkAbstractions || !matchesAny(text, cs.Span, abstractionKeywords, false) {
				return TaggedSpan{}, false
			}
			return TaggedSpan{Span: cs.Span, Tag: t.styles.Abstraction()}, true
		}
	}

	if !t.settings.MarkComments || !cs.Category.IsComment() {
		return TaggedSpan{}, false
	}
	return t.tagComment(text, cs.Span)
}

func (t *Tagger) tagComment(text string, span position.Span) (TaggedSpan, bool) {
	span = span.Clamp(len(text))
	m, ok := labels.Match(span.Text(text), t.code, t.settings.Labels)
	if !ok {
		return TaggedSpan{}, false
	}
	tag, ok := t.styles.Comment(m.Rule.Style)
	if !ok {
		return TaggedSpan{}, false
	}
	return TaggedSpan{Span: m.Span.Shift(span.Start), Tag: tag}, true
}

func matchesAny(text string, span position.Span, tokens []string, ignoreCase bool) bool {
	for _, tok := range tokens {
		if Matches(text, span, tok, ignoreCase) {
			return true
		}
	}
	return false
}

// Matches reports whether the span, with surrounding whitespace skipped, is
// exactly token.
func Matches(text string, span position.Span, token string, ignoreCase bool) bool {
	if span.Len() < len(token) {
		return false
	}
	trimmed := position.TrimSpace(text, span)
	if trimmed.Len() != len(token) {
		return false
	}
	if ignoreCase {
		return strings.EqualFold(trimmed.Text(text), token)
	}
	return trimmed.Text(text) == token
}
