package semantic

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

// Relocate finds the counterpart of a declaration node taken from an older
// tree in the current tree of its document. It reports false when the
// declaration (or its document) is gone.
//
// Candidates share the node's kind and signature. Among several, a single
// one with the same full signature wins, then a single one with the same
// enclosing types and namespaces, and otherwise the first in document order.
func (t *Tracker) Relocate(ctx context.Context, node *syntax.Node) (*syntax.Node, bool) {
	logger := zerolog.Ctx(ctx)
	if node == nil || !t.Update(ctx) {
		return nil, false
	}
	if node.Tree() == t.tree {
		return node, true
	}

	node = node.DeclarationStatement()
	if !node.Kind.IsMember() {
		logger.Debug().Str("kind", string(node.Kind)).Msg("relocation of non-member node")
		return nil, false
	}

	tree, ok := t.originTree(ctx, node)
	if !ok {
		return nil, false
	}
	if node.Tree() == tree {
		return node, true
	}

	sig := syntax.Signature(node)
	candidates := findDeclarations(tree.Root, node.Kind, sig)
	switch len(candidates) {
	case 0:
		logger.Debug().Str("signature", sig).Msg("declaration not found")
		return nil, false
	case 1:
		return candidates[0], true
	}

	pick := disambiguate(node, candidates)
	logger.Debug().Str("signature", sig).Int("candidates", len(candidates)).Stringer("picked", pick.Span).Msg("ambiguous relocation")
	return pick, true
}

// originTree is the current tree of the document the node was parsed from.
func (t *Tracker) originTree(ctx context.Context, node *syntax.Node) (*syntax.Tree, bool) {
	origin := node.Tree()
	if origin == nil || syntax.SamePath(origin.Path, t.doc.Path()) {
		return t.tree, true
	}
	logger := zerolog.Ctx(ctx).With().Str("path", origin.Path).Logger()

	ws := t.doc.Workspace()
	if ws == nil {
		return nil, false
	}
	doc, ok := ws.FindDocument(origin.Path)
	if !ok {
		logger.Debug().Msg("origin document is gone")
		return nil, false
	}
	tree, err := doc.SyntaxTree(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("reading origin syntax tree")
		return nil, false
	}
	return tree, true
}

// findDeclarations walks the member tree depth first, descending into enum
// bodies only when looking for an enum member.
func findDeclarations(root *syntax.Node, kind syntax.Kind, sig string) []*syntax.Node {
	withEnumMembers := kind == syntax.KindEnumMember
	var out []*syntax.Node
	var walk func(n *syntax.Node)
	walk = func(n *syntax.Node) {
		for _, m := range n.Members(withEnumMembers) {
			if m.Kind == kind && syntax.Signature(m) == sig {
				out = append(out, m)
			}
			walk(m)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func disambiguate(node *syntax.Node, candidates []*syntax.Node) *syntax.Node {
	full := syntax.FullSignature(node)
	if same := filter(candidates, func(c *syntax.Node) bool { return syntax.FullSignature(c) == full }); len(same) == 1 {
		return same[0]
	}

	path := syntax.AncestorPath(node)
	if same := filter(candidates, func(c *syntax.Node) bool { return syntax.AncestorPath(c) == path }); len(same) == 1 {
		return same[0]
	}
	return candidates[0]
}

func filter(nodes []*syntax.Node, keep func(*syntax.Node) bool) []*syntax.Node {
	var out []*syntax.Node
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// RelocateSymbol maps a symbol from an older semantic model to the current
// one. External symbols need no relocation and come back unchanged, as does
// any symbol with no counterpart.
func (t *Tracker) RelocateSymbol(ctx context.Context, sym host.Symbol) host.Symbol {
	if sym == nil || sym.External() {
		return sym
	}
	if !t.Update(ctx) {
		return sym
	}

	model := t.model
	if decls := sym.Declarations(); len(decls) > 0 && !syntax.SamePath(decls[0].Path, t.doc.Path()) {
		m, ok := t.modelFor(ctx, decls[0].Path)
		if !ok {
			return sym
		}
		model = m
	}

	similar := model.FindSimilar(sym)
	if len(similar) == 0 {
		zerolog.Ctx(ctx).Debug().Str("symbol", sym.Key()).Msg("no similar symbol, keeping original")
		return sym
	}
	return similar[0]
}

func (t *Tracker) modelFor(ctx context.Context, path string) (host.Model, bool) {
	ws := t.doc.Workspace()
	if ws == nil {
		return nil, false
	}
	doc, ok := ws.FindDocument(path)
	if !ok {
		return nil, false
	}
	model, err := doc.SemanticModel(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("reading semantic model")
		return nil, false
	}
	return model, true
}
