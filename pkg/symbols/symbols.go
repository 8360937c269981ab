// Package symbols is a declaration-index semantic model: every member
// declaration of a tree is a symbol, and identifiers resolve to declarations
// by name. Names that resolve to nothing are treated as external symbols.
package symbols

import (
	"strings"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

var _ host.Model = (*Index)(nil)

// Symbol is a declared or referenced entity.
type Symbol struct {
	name     string
	kind     syntax.Kind
	key      string
	external bool
	decls    []host.Location
}

func (s *Symbol) Name() string                  { return s.name }
func (s *Symbol) Kind() syntax.Kind             { return s.kind }
func (s *Symbol) Key() string                   { return s.key }
func (s *Symbol) External() bool                { return s.external }
func (s *Symbol) Declarations() []host.Location { return s.decls }

func (s *Symbol) String() string {
	return s.key
}

// NewExternal builds a symbol that lives outside the source, e.g. a framework type.
func NewExternal(name string, kind syntax.Kind) *Symbol {
	return &Symbol{name: name, kind: kind, key: "extern:" + name, external: true}
}

// Index is the model of one tree.
type Index struct {
	tree    *syntax.Tree
	byKey   map[string]*Symbol
	byName  map[string][]*Symbol
	byNode  map[*syntax.Node]*Symbol
	ordered []*Symbol
}

// NewIndex indexes every member declaration and variable declarator of tree.
func NewIndex(tree *syntax.Tree) *Index {
	idx := &Index{
		tree:   tree,
		byKey:  map[string]*Symbol{},
		byName: map[string][]*Symbol{},
		byNode: map[*syntax.Node]*Symbol{},
	}
	if tree == nil || tree.Root == nil {
		return idx
	}
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		switch {
		case n.Kind.DeclaresVariables():
			for _, v := range n.Variables() {
				idx.add(v, n)
			}
		case n.Kind.IsMember() && n.Name != "":
			idx.add(n, n)
		}
		return true
	})
	return idx
}

func (idx *Index) add(named, decl *syntax.Node) {
	if _, seen := idx.byNode[named]; seen {
		return
	}
	key := Key(named, decl)
	sym, ok := idx.byKey[key]
	if !ok {
		sym = &Symbol{name: named.Name, kind: decl.Kind, key: key}
		idx.byKey[key] = sym
		idx.byName[named.Name] = append(idx.byName[named.Name], sym)
		idx.ordered = append(idx.ordered, sym)
	}
	// partial declarations contribute more than one location
	sym.decls = append(sym.decls, host.Location{Path: idx.tree.Path, Span: named.NameSpan})
	idx.byNode[named] = sym
}

// Key is the container-qualified identity of a declaration.
func Key(named, decl *syntax.Node) string {
	var b strings.Builder
	if path := syntax.AncestorPath(decl); path != "" {
		b.WriteString(path)
		b.WriteByte('.')
	}
	b.WriteString(named.Name)
	b.WriteByte('#')
	b.WriteString(string(decl.Kind))
	if decl.Decl != nil && decl.Decl.Parameters != nil {
		b.WriteByte('(')
		b.WriteString(strings.Join(decl.Decl.Parameters, ","))
		b.WriteByte(')')
	}
	return b.String()
}

func (idx *Index) Tree() *syntax.Tree {
	return idx.tree
}

// Symbols returns the declared symbols in document order.
func (idx *Index) Symbols() []*Symbol {
	return idx.ordered
}

// SymbolAt resolves the token at offset: a declaration name yields the
// declared symbol, an identifier yields the declaration it names, and an
// unknown identifier yields an external symbol.
func (idx *Index) SymbolAt(offset int) (host.Symbol, bool) {
	if idx.tree == nil {
		return nil, false
	}
	tok := idx.tree.FindToken(offset)
	if tok == nil || !tok.Span.Contains(offset) {
		return nil, false
	}
	return idx.symbolForToken(tok)
}

// SymbolFor returns the symbol a node declares, or the symbol its name refers to.
func (idx *Index) SymbolFor(node *syntax.Node) (host.Symbol, bool) {
	if node == nil {
		return nil, false
	}
	if sym, ok := idx.byNode[node]; ok {
		return sym, true
	}
	if node.Kind.DeclaresVariables() {
		for _, v := range node.Variables() {
			if sym, ok := idx.byNode[v]; ok {
				return sym, true
			}
		}
	}
	if node.IsToken() {
		return idx.symbolForToken(node)
	}
	return nil, false
}

func (idx *Index) symbolForToken(tok *syntax.Node) (host.Symbol, bool) {
	for n := tok.Parent; n != nil; n = n.Parent {
		if n.NameSpan == tok.Span {
			if sym, ok := idx.byNode[n]; ok {
				return sym, true
			}
		}
		if n.Kind.IsMember() {
			break
		}
	}
	if tok.Kind != syntax.KindIdentifier {
		return nil, false
	}
	name := tok.Text()
	if cands := idx.byName[name]; len(cands) > 0 {
		return idx.nearest(cands, tok.Span), true
	}
	return NewExternal(name, syntax.KindIdentifier), true
}

// nearest prefers the declaration closest before the reference.
func (idx *Index) nearest(cands []*Symbol, at position.Span) *Symbol {
	best := cands[0]
	for _, c := range cands[1:] {
		if len(c.decls) == 0 || len(best.decls) == 0 {
			continue
		}
		if c.decls[0].Span.Start <= at.Start && c.decls[0].Span.Start > best.decls[0].Span.Start {
			best = c
		}
	}
	return best
}

// FindSimilar matches by key first, then by name and kind.
func (idx *Index) FindSimilar(sym host.Symbol) []host.Symbol {
	if sym == nil {
		return nil
	}
	if s, ok := idx.byKey[sym.Key()]; ok {
		return []host.Symbol{s}
	}
	var out []host.Symbol
	for _, s := range idx.byName[sym.Name()] {
		if s.kind == sym.Kind() {
			out = append(out, s)
		}
	}
	return out
}
