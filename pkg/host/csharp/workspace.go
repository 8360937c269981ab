package csharp

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
)

const (
	modelExpiration = 10 * time.Minute
	modelCleanup    = 30 * time.Minute

	// DefaultPattern selects the documents Load opens.
	DefaultPattern = "**/*.cs"
)

var (
	_ host.Workspace            = (*Workspace)(nil)
	_ host.View                 = (*View)(nil)
	_ host.ClassificationSource = (*Source)(nil)
)

// Workspace holds the C# documents read from a file system.
type Workspace struct {
	fs     afero.Fs
	models *gocache.Cache

	mu   sync.Mutex
	docs map[string]*Document
}

func NewWorkspace(fs afero.Fs) *Workspace {
	return &Workspace{
		fs:     fs,
		models: gocache.New(modelExpiration, modelCleanup),
		docs:   map[string]*Document{},
	}
}

func docKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// Open reads and parses path, replacing any document already open there.
func (w *Workspace) Open(ctx context.Context, path string) (*Document, error) {
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return w.Add(ctx, path, string(data))
}

// Add parses text as the document at path.
func (w *Workspace) Add(ctx context.Context, path, text string) (*Document, error) {
	doc := newDocument(w, path)
	if err := doc.SetText(ctx, text); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if old, ok := w.docs[docKey(path)]; ok {
		old.close()
	}
	w.docs[docKey(path)] = doc
	return doc, nil
}

// Load opens every file under root matching pattern concurrently. Files that
// fail to load are reported together; the others stay open.
func (w *Workspace) Load(ctx context.Context, root, pattern string) ([]*Document, error) {
	fsys := w.fs
	if root != "" && root != "." {
		fsys = afero.NewBasePathFs(w.fs, root)
	}
	matches, err := doublestar.Glob(afero.NewIOFS(fsys), pattern)
	if err != nil {
		return nil, errors.Errorf("matching %s under %s: %w", pattern, root, err)
	}
	zerolog.Ctx(ctx).Debug().Str("root", root).Int("files", len(matches)).Msg("loading workspace")

	docs := make([]*Document, len(matches))
	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range matches {
		i, m := i, m
		g.Go(func() error {
			doc, err := w.Open(gctx, filepath.Join(root, filepath.FromSlash(m)))
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loaded := docs[:0]
	for _, d := range docs {
		if d != nil {
			loaded = append(loaded, d)
		}
	}
	return loaded, errs
}

// Remove closes the document at path.
func (w *Workspace) Remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if doc, ok := w.docs[docKey(path)]; ok {
		doc.close()
		delete(w.docs, docKey(path))
	}
}

func (w *Workspace) FindDocument(path string) (host.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[docKey(path)]
	if !ok {
		return nil, false
	}
	return doc, true
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

func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

// Source classifies one document and announces edits applied through Update.
type Source struct {
	doc *Document

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func NewSource(doc *Document) *Source {
	return &Source{doc: doc, listeners: map[int]func(){}}
}

func (s *Source) ClassificationSpans(snap host.Snapshot, span position.Span) []host.ClassificationSpan {
	return Classify(s.doc.treeFor(snap), span)
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

// Update applies new text to the document and notifies listeners once the
// reparse is done.
func (s *Source) Update(ctx context.Context, text string) error {
	if err := s.doc.SetText(ctx, text); err != nil {
		return err
	}
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}
