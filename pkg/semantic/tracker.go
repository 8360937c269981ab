// Package semantic tracks a text position in a document that keeps being
// reparsed, and finds held declarations again in newer trees.
package semantic

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

type State int

const (
	Uninitialized State = iota
	Bound
	Stale
)

func (s State) String() string {
	switch s {
	case Bound:
		return "bound"
	case Stale:
		return "stale"
	default:
		return "uninitialized"
	}
}

// Tracker holds a cursor into the current version of one view's document.
// It is owned by that view and is not safe for concurrent use.
//
// The cached token and nodes are valid only while the queried position stays
// inside the token and the document version is unchanged.
type Tracker struct {
	view  host.View
	state State

	doc     host.Document
	version host.VersionStamp
	tree    *syntax.Tree
	model   host.Model

	position       int
	token          *syntax.Node
	node           *syntax.Node
	nodeTrivia     *syntax.Node
	recomputations int
}

func New(view host.View) *Tracker {
	return &Tracker{view: view}
}

func (t *Tracker) State() State {
	return t.state
}

// Recomputations counts token and node lookups against the tree.
func (t *Tracker) Recomputations() int {
	return t.recomputations
}

func (t *Tracker) Document() host.Document {
	return t.doc
}

func (t *Tracker) Tree() *syntax.Tree {
	return t.tree
}

func (t *Tracker) Model() host.Model {
	return t.model
}

func (t *Tracker) Position() int {
	return t.position
}

// Invalidate marks a bound tracker stale so the next query reloads the
// document even if its version looks unchanged.
func (t *Tracker) Invalidate() {
	if t.state == Bound {
		t.state = Stale
	}
}

func (t *Tracker) reset() {
	t.state = Uninitialized
	t.doc = nil
	t.version = 0
	t.tree = nil
	t.model = nil
	t.resetCursor()
}

func (t *Tracker) resetCursor() {
	t.position = 0
	t.token = nil
	t.node = nil
	t.nodeTrivia = nil
}

// Update binds the tracker to the view's current document, reloading the tree
// and semantic model when the document or its version changed. A torn-down
// view or a cancelled context resets the tracker and reports false.
func (t *Tracker) Update(ctx context.Context) bool {
	logger := zerolog.Ctx(ctx)

	doc, err := t.view.CurrentDocument(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("no current document")
		t.reset()
		return false
	}
	version, err := doc.Version(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("path", doc.Path()).Msg("reading document version")
		t.reset()
		return false
	}

	if t.state == Bound && doc == t.doc && version == t.version {
		return true
	}
	if t.state == Bound {
		t.state = Stale
	}

	tree, err := doc.SyntaxTree(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("path", doc.Path()).Msg("reading syntax tree")
		t.reset()
		return false
	}
	model, err := doc.SemanticModel(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("path", doc.Path()).Msg("reading semantic model")
		t.reset()
		return false
	}

	logger.Debug().Str("path", doc.Path()).Stringer("version", version).Msg("tracker bound")
	t.doc, t.version, t.tree, t.model = doc, version, tree, model
	t.resetCursor()
	t.state = Bound
	return true
}

// UpdateTo binds the tracker and moves the cursor to pos. The token is looked
// up again only when the version changed or pos left the cached token.
func (t *Tracker) UpdateTo(ctx context.Context, pos int) bool {
	if !t.Update(ctx) {
		return false
	}
	if pos < 0 || pos > len(t.tree.Text) {
		t.resetCursor()
		return false
	}
	if t.token != nil && (pos == t.position || t.token.Span.Contains(pos)) {
		t.position = pos
		return true
	}

	t.position = pos
	t.token = t.tree.FindToken(pos)
	t.node = nil
	t.nodeTrivia = nil
	t.recomputations++
	return t.token != nil
}

// Token is the token at the cursor.
func (t *Tracker) Token() *syntax.Node {
	return t.token
}

// Trivia is the comment under the cursor, if the cursor is in one.
func (t *Tracker) Trivia() *syntax.Node {
	if t.token != nil && t.token.IsTrivia() && t.token.FullSpan.Contains(t.position) {
		return t.token
	}
	return nil
}

// Node is the smallest node enclosing the cursor. A position inside one of
// several variables declared by one statement yields the statement.
func (t *Tracker) Node() *syntax.Node {
	if t.node == nil && t.token != nil {
		t.node = t.findNode(false)
	}
	return t.node
}

// NodeIncludingTrivia is Node with surrounding trivia counted as part of each node.
func (t *Tracker) NodeIncludingTrivia() *syntax.Node {
	if t.nodeTrivia == nil && t.token != nil {
		t.nodeTrivia = t.findNode(true)
	}
	return t.nodeTrivia
}

func (t *Tracker) findNode(includeTrivia bool) *syntax.Node {
	t.recomputations++
	n := t.tree.FindNode(position.Span{Start: t.position, End: t.position}, includeTrivia)
	return statementLevel(n)
}

func statementLevel(n *syntax.Node) *syntax.Node {
	for n != nil {
		switch n.Kind {
		case syntax.KindVariableDeclarator:
			stmt := n.DeclarationStatement()
			if stmt == n {
				return n
			}
			n = stmt
		case syntax.KindVariableDeclaration:
			if n.Parent == nil || !n.Parent.Kind.DeclaresVariables() {
				return n
			}
			n = n.Parent
		default:
			return n
		}
	}
	return nil
}

// SymbolAt moves the cursor to pos and resolves the symbol there.
func (t *Tracker) SymbolAt(ctx context.Context, pos int) host.Symbol {
	if !t.UpdateTo(ctx, pos) {
		return nil
	}
	return t.Symbol(ctx)
}

// Symbol resolves the symbol at the cursor: the one referenced or declared by
// the token, else the one declared by the enclosing node.
func (t *Tracker) Symbol(ctx context.Context) host.Symbol {
	if t.state != Bound || t.token == nil {
		return nil
	}
	if sym, ok := t.model.SymbolAt(t.position); ok {
		return sym
	}
	if sym, ok := t.model.SymbolFor(t.Node()); ok {
		return sym
	}
	return nil
}

// SymbolForNode returns the symbol declared by node, relocating it into the
// current tree first when it comes from an older parse.
func (t *Tracker) SymbolForNode(ctx context.Context, node *syntax.Node) host.Symbol {
	if node == nil || !t.Update(ctx) {
		return nil
	}
	if node.Tree() != t.tree {
		relocated, ok := t.Relocate(ctx, node)
		if !ok || relocated.Tree() != t.tree {
			return nil
		}
		node = relocated
	}
	if sym, ok := t.model.SymbolFor(node); ok {
		return sym
	}
	return nil
}
