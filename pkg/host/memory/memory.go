// Package memory is a deterministic in-memory host: documents whose trees are
// set directly by the caller, and a classifier that replays configured spans.
// It exists so the overlay can be driven without a real editor or parser.
package memory

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/symbols"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

var (
	_ host.Document             = (*Document)(nil)
	_ host.Workspace            = (*Workspace)(nil)
	_ host.View                 = (*View)(nil)
	_ host.ClassificationSource = (*Source)(nil)
)

// Workspace holds documents by path.
type Workspace struct {
	mu   sync.Mutex
	docs []*Document
}

func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Add creates a document at version 1 holding tree.
func (w *Workspace) Add(tree *syntax.Tree) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := &Document{path: tree.Path, tree: tree, version: 1, workspace: w}
	w.docs = append(w.docs, doc)
	return doc
}

// Remove drops a document; later lookups for its path fail.
func (w *Workspace) Remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, d := range w.docs {
		if syntax.SamePath(d.path, path) {
			d.close()
			w.docs = append(w.docs[:i], w.docs[i+1:]...)
			return
		}
	}
}

func (w *Workspace) FindDocument(path string) (host.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.docs {
		if syntax.SamePath(d.path, path) {
			return d, true
		}
	}
	return nil, false
}

// Document is a document whose current tree is replaced with SetTree.
type Document struct {
	mu        sync.Mutex
	path      string
	tree      *syntax.Tree
	model     *symbols.Index
	version   host.VersionStamp
	closed    bool
	workspace *Workspace

	// ModelLoads counts semantic model builds.
	ModelLoads int
}

// SetTree replaces the document content, as a reparse after an edit would, and
// bumps the version.
func (d *Document) SetTree(tree *syntax.Tree) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tree.Path = d.path
	d.tree = tree
	d.model = nil
	d.version++
}

func (d *Document) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Document) Path() string {
	return d.path
}

func (d *Document) Snapshot() host.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return host.Snapshot{Version: d.version, Text: d.tree.Text}
}

func (d *Document) Version(ctx context.Context) (host.VersionStamp, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return 0, err
	}
	return d.version, nil
}

func (d *Document) SyntaxTree(ctx context.Context) (*syntax.Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	return d.tree, nil
}

func (d *Document) SemanticModel(ctx context.Context) (host.Model, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	if d.model == nil {
		d.model = symbols.NewIndex(d.tree)
		d.ModelLoads++
	}
	return d.model, nil
}

func (d *Document) Workspace() host.Workspace {
	return d.workspace
}

func (d *Document) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Errorf("reading %s: %w", d.path, err)
	}
	if d.closed {
		return errors.Errorf("reading %s: %w", d.path, host.ErrDocumentClosed)
	}
	return nil
}

// View shows one document until closed.
type View struct {
	mu     sync.Mutex
	doc    *Document
	closed bool
}

func NewView(doc *Document) *View {
	return &View{doc: doc}
}

func (v *View) CurrentDocument(ctx context.Context) (host.Document, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.doc == nil {
		return nil, host.ErrDocumentClosed
	}
	return v.doc, nil
}

// Close tears the view down.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

// Source replays a fixed list of classification spans and records every request.
type Source struct {
	mu        sync.Mutex
	spans     []host.ClassificationSpan
	requests  []position.Span
	listeners map[int]func()
	nextID    int
}

func NewSource(spans ...host.ClassificationSpan) *Source {
	return &Source{spans: spans, listeners: map[int]func(){}}
}

// SetSpans replaces the replayed spans.
func (s *Source) SetSpans(spans ...host.ClassificationSpan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = spans
}

// Requests returns the spans asked for so far, oldest first.
func (s *Source) Requests() []position.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]position.Span(nil), s.requests...)
}

func (s *Source) ClassificationSpans(snap host.Snapshot, span position.Span) []host.ClassificationSpan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, span)
	var out []host.ClassificationSpan
	for _, cs := range s.spans {
		if cs.Span.End > snap.Len() {
			continue
		}
		if cs.Span.Overlaps(span) {
			out = append(out, cs)
		}
	}
	return out
}

func (s *Source) OnBatchedChanges(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Fire notifies listeners as the classifier would after re-running on an edit.
func (s *Source) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
