package csharp

import (
	"context"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/symbols"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Version derives a version stamp from document text; equal text gets equal stamps.
func Version(text string) (host.VersionStamp, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, errors.Errorf("creating hash: %w", err)
	}
	if _, err := h.Write([]byte(text)); err != nil {
		return 0, errors.Errorf("hashing text: %w", err)
	}
	return host.VersionStamp(h.Sum64()), nil
}

var _ host.Document = (*Document)(nil)

// Document is a C# file kept parsed. Text changes are applied as
// tree-sitter edits so unchanged regions are reused by the parser.
type Document struct {
	mu        sync.Mutex
	path      string
	workspace *Workspace
	parser    *sitter.Parser
	ts        *sitter.Tree
	text      string
	tree      *syntax.Tree
	version   host.VersionStamp
	closed    bool
}

func newDocument(w *Workspace, path string) *Document {
	return &Document{path: path, workspace: w, parser: newParser()}
}

// SetText replaces the document text and reparses it.
func (d *Document) SetText(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.Errorf("updating %s: %w", d.path, host.ErrDocumentClosed)
	}
	if d.ts != nil && text == d.text {
		return nil
	}

	logger := zerolog.Ctx(ctx).With().Str("path", d.path).Logger()
	if d.ts != nil {
		edit := computeEdit(d.text, text)
		logger.Debug().Uint32("start", edit.StartIndex).Uint32("old_end", edit.OldEndIndex).Uint32("new_end", edit.NewEndIndex).Msg("incremental reparse")
		d.ts.Edit(edit)
	}

	src := []byte(text)
	ts, err := d.parser.ParseCtx(ctx, d.ts, src)
	if err != nil {
		return errors.Errorf("parsing %s: %w", d.path, err)
	}
	version, err := Version(text)
	if err != nil {
		return err
	}

	d.ts = ts
	d.text = text
	d.tree = Lower(d.path, src, ts.RootNode())
	d.version = version
	return nil
}

// computeEdit describes the change from before to after as one replaced
// region, bounded by the unchanged prefix and suffix.
func computeEdit(before, after string) sitter.EditInput {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)

	prefix, suffix := 0, 0
	if len(diffs) > 0 && diffs[0].Type == diffmatchpatch.DiffEqual {
		prefix = len(diffs[0].Text)
	}
	if n := len(diffs); n > 1 && diffs[n-1].Type == diffmatchpatch.DiffEqual {
		suffix = len(diffs[n-1].Text)
	}

	oldEnd := len(before) - suffix
	newEnd := len(after) - suffix
	return sitter.EditInput{
		StartIndex:  uint32(prefix),
		OldEndIndex: uint32(oldEnd),
		NewEndIndex: uint32(newEnd),
		StartPoint:  pointAt(before, prefix),
		OldEndPoint: pointAt(before, oldEnd),
		NewEndPoint: pointAt(after, newEnd),
	}
}

// ChangedSpan is the region of after that differs from before.
func ChangedSpan(before, after string) position.Span {
	edit := computeEdit(before, after)
	return position.Span{Start: int(edit.StartIndex), End: int(edit.NewEndIndex)}
}

func pointAt(text string, offset int) sitter.Point {
	var row, col uint32
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	return sitter.Point{Row: row, Column: col}
}

func (d *Document) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
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

func (d *Document) Path() string {
	return d.path
}

func (d *Document) Snapshot() host.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return host.Snapshot{Version: d.version, Text: d.text}
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

// SemanticModel returns the symbol index of the current tree, shared through
// the workspace model cache.
func (d *Document) SemanticModel(ctx context.Context) (host.Model, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	key := d.path + "@" + d.version.String()
	if cached, ok := d.workspace.models.Get(key); ok {
		// equal text parsed twice yields two trees; the index must match ours
		if idx, ok := cached.(*symbols.Index); ok && idx.Tree() == d.tree {
			return idx, nil
		}
	}
	idx := symbols.NewIndex(d.tree)
	d.workspace.models.SetDefault(key, idx)
	zerolog.Ctx(ctx).Debug().Str("key", key).Int("symbols", len(idx.Symbols())).Msg("semantic model built")
	return idx, nil
}

func (d *Document) Workspace() host.Workspace {
	return d.workspace
}

// treeFor returns the tree of snap, parsing it aside when the document moved on.
func (d *Document) treeFor(snap host.Snapshot) *syntax.Tree {
	d.mu.Lock()
	if snap.Version == d.version && snap.Text == d.text {
		tree := d.tree
		d.mu.Unlock()
		return tree
	}
	d.mu.Unlock()
	tree, err := Parse(context.Background(), d.path, snap.Text)
	if err != nil {
		return nil
	}
	return tree
}
