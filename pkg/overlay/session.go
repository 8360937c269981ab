// Package overlay wires the parts of the overlay together for one open file:
// the hosted document, its tagger and its position tracker.
package overlay

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/config"
	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/host/csharp"
	"github.com/walteh/tagoverlay/pkg/labels"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/semantic"
	"github.com/walteh/tagoverlay/pkg/style"
	"github.com/walteh/tagoverlay/pkg/syntax"
	"github.com/walteh/tagoverlay/pkg/tagger"
)

var ErrUnsupportedFile = errors.Base("unsupported file type")

type tagSource interface {
	Tags(ctx context.Context, snap host.Snapshot, requested []position.Span) []tagger.TaggedSpan
	Cache() *tagger.Cache
}

// Session is one file opened in a view.
type Session struct {
	path string
	code labels.CodeType
	tags tagSource

	// C# files
	doc     *csharp.Document
	source  *csharp.Source
	view    *csharp.View
	tracker *semantic.Tracker
	closer  func()

	// markdown files
	snap host.Snapshot
}

// Open reads path from fs and attaches a tagger suited to its type. C# files
// join ws so relocation can reach sibling documents.
func Open(ctx context.Context, fs afero.Fs, ws *csharp.Workspace, path string, settings *config.Settings, styles *style.Registry) (*Session, error) {
	code := labels.CodeTypeForPath(path)
	s := &Session{path: path, code: code}

	switch code {
	case labels.CodeTypeMarkdown:
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", path, err)
		}
		if err := s.setMarkdown(string(data)); err != nil {
			return nil, err
		}
		s.tags = tagger.NewHeadingTagger(&tagger.Cache{}, styles)
	case labels.CodeTypeCSharp:
		doc, err := ws.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		s.doc = doc
		s.source = csharp.NewSource(doc)
		s.view = csharp.NewView(doc)
		s.tracker = semantic.New(s.view)
		tg := tagger.New(s.source, &tagger.Cache{}, settings.ForFile(ctx, path), styles, code)
		s.tags = tg
		s.closer = tg.Close
	default:
		return nil, errors.Errorf("opening %s: %w", path, ErrUnsupportedFile)
	}
	return s, nil
}

func (s *Session) setMarkdown(text string) error {
	version, err := csharp.Version(text)
	if err != nil {
		return err
	}
	s.snap = host.Snapshot{Version: version, Text: text}
	return nil
}

func (s *Session) Path() string {
	return s.path
}

func (s *Session) Snapshot() host.Snapshot {
	if s.doc != nil {
		return s.doc.Snapshot()
	}
	return s.snap
}

// Tracker is nil for files without a syntax tree.
func (s *Session) Tracker() *semantic.Tracker {
	return s.tracker
}

func (s *Session) Cache() *tagger.Cache {
	return s.tags.Cache()
}

// OnRepaint registers fn to run after edits to a C# document are reparsed.
func (s *Session) OnRepaint(fn func()) {
	if tg, ok := s.tags.(*tagger.Tagger); ok {
		tg.OnRepaint(fn)
	}
}

// Tags tags the requested ranges of the current text.
func (s *Session) Tags(ctx context.Context, requested ...position.Span) []tagger.TaggedSpan {
	return s.tags.Tags(ctx, s.Snapshot(), requested)
}

// Update replaces the text and returns the changed region, widened to whole
// lines, in the new text.
func (s *Session) Update(ctx context.Context, text string) (position.Span, error) {
	before := s.Snapshot().Text
	changed := lineBounds(text, csharp.ChangedSpan(before, text))
	if s.source != nil {
		if err := s.source.Update(ctx, text); err != nil {
			return position.Span{}, err
		}
		return changed, nil
	}
	return changed, s.setMarkdown(text)
}

func lineBounds(text string, span position.Span) position.Span {
	span = span.Clamp(len(text))
	start := strings.LastIndexByte(text[:span.Start], '\n') + 1
	end := len(text)
	if i := strings.IndexByte(text[span.End:], '\n'); i >= 0 {
		end = span.End + i
	}
	return position.Span{Start: start, End: end}
}

// Hold binds the tracker at offset and returns the member declaration around
// it with the symbol it declares.
func (s *Session) Hold(ctx context.Context, offset int) (*syntax.Node, host.Symbol, error) {
	if s.tracker == nil {
		return nil, nil, errors.Errorf("holding %s: %w", s.path, ErrUnsupportedFile)
	}
	if !s.tracker.UpdateTo(ctx, offset) {
		return nil, nil, errors.Errorf("no syntax at offset %d of %s", offset, s.path)
	}
	for n := s.tracker.Node(); n != nil; n = n.Parent {
		if stmt := n.DeclarationStatement(); stmt.Kind.IsMember() {
			return stmt, s.tracker.SymbolForNode(ctx, stmt), nil
		}
	}
	return nil, nil, errors.Errorf("no declaration at offset %d of %s", offset, s.path)
}

// Close detaches the tagger and tears the view down.
func (s *Session) Close() {
	if s.closer != nil {
		s.closer()
	}
	if s.view != nil {
		s.view.Close()
	}
}

// Format renders a tag as "line:col-line:col tag text".
func Format(text string, ts tagger.TaggedSpan) string {
	return fmt.Sprintf("%s %s %q", ts.Span.GetRange(text), ts.Tag, ts.Span.Text(text))
}

// Describe renders a declaration as "kind name at line:col-line:col".
func Describe(n *syntax.Node) string {
	if n == nil {
		return "<none>"
	}
	name := n.Name
	if name == "" {
		names := make([]string, 0, len(n.Variables()))
		for _, v := range n.Variables() {
			names = append(names, v.Name)
		}
		name = strings.Join(names, ",")
	}
	text := ""
	if n.Tree() != nil {
		text = n.Tree().Text
	}
	return fmt.Sprintf("%s %s at %s", n.Kind, name, n.Span.GetRange(text))
}
