package memory

import (
	"strings"

	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

// Decl describes a declaration for Build. Build writes C#-looking text for it
// and produces a tree whose spans point into that text.
type Decl struct {
	Kind       syntax.Kind
	Name       string
	Modifiers  []string
	Type       string
	TypeParams int
	// Parameters are parameter types; nil means the declaration takes no parameter list.
	Parameters []string
	// Variables are declarator names of field, event field and local declarations.
	Variables []string
	// Comment is written on its own line before the declaration.
	Comment string
	Members []Decl
}

// Build synthesizes a document from declarations.
//
//	Build("a.cs", Decl{Kind: syntax.KindNamespace, Name: "N", Members: []Decl{
//	    {Kind: syntax.KindClass, Name: "C"},
//	}})
//
// produces
//
//	namespace N {
//	  class C {
//	  }
//	}
func Build(path string, decls ...Decl) *syntax.Tree {
	w := &writer{}
	root := &syntax.Node{Kind: syntax.KindCompilationUnit}
	for _, d := range decls {
		root.Children = append(root.Children, w.decl(d, 0)...)
	}
	text := w.b.String()
	root.Span = position.Span{Start: 0, End: len(text)}
	root.FullSpan = root.Span
	return syntax.NewTree(path, text, root)
}

type writer struct {
	b strings.Builder
}

func (w *writer) pos() int {
	return w.b.Len()
}

func (w *writer) token(kind syntax.Kind, text string, anonymous bool) *syntax.Node {
	start := w.pos()
	w.b.WriteString(text)
	return &syntax.Node{Kind: kind, Span: position.Span{Start: start, End: w.pos()}, Anonymous: anonymous}
}

func (w *writer) space() {
	w.b.WriteByte(' ')
}

func (w *writer) indent(depth int) {
	w.b.WriteString(strings.Repeat("  ", depth))
}

// decl returns the comment token (if any) followed by the declaration node.
func (w *writer) decl(d Decl, depth int) []*syntax.Node {
	var out []*syntax.Node
	if d.Comment != "" {
		w.indent(depth)
		out = append(out, w.token(syntax.KindComment, d.Comment, false))
		w.b.WriteByte('\n')
	}

	lineStart := w.pos()
	w.indent(depth)
	n := &syntax.Node{Kind: d.Kind}
	start := w.pos()

	for _, m := range d.Modifiers {
		mod := w.token(syntax.KindModifier, m, false)
		mod.Children = []*syntax.Node{{Kind: syntax.Kind(m), Span: mod.Span, Anonymous: true}}
		n.Children = append(n.Children, mod)
		w.space()
	}

	if kw := keyword(d.Kind); kw != "" {
		n.Children = append(n.Children, w.token(syntax.Kind(kw), kw, true))
		w.space()
	}

	if d.Kind.DeclaresVariables() {
		w.variables(n, d)
	} else {
		if d.Type != "" {
			n.Children = append(n.Children, w.token(syntax.KindIdentifier, d.Type, false))
			w.space()
		}
		name := w.token(syntax.KindIdentifier, d.Name, false)
		n.Children = append(n.Children, name)
		n.Name = d.Name
		n.NameSpan = name.Span
		if d.TypeParams > 0 {
			n.Children = append(n.Children, w.token("type_parameter_list", "<"+strings.Repeat(",", d.TypeParams-1)+">", false))
		}
		if d.Parameters != nil {
			n.Children = append(n.Children, w.token("parameter_list", "("+strings.Join(d.Parameters, ", ")+")", false))
		}
	}

	n.Decl = &syntax.Declaration{
		Modifiers:  d.Modifiers,
		Type:       d.Type,
		TypeParams: d.TypeParams,
		Parameters: d.Parameters,
	}

	switch {
	case d.Kind.DeclaresVariables() || d.Kind == syntax.KindEnumMember:
		n.Children = append(n.Children, w.token(";", ";", true))
	case d.Kind.IsMember():
		w.space()
		body := &syntax.Node{Kind: bodyKind(d.Kind)}
		open := w.token("{", "{", true)
		body.Children = append(body.Children, open)
		w.b.WriteByte('\n')
		for _, m := range d.Members {
			body.Children = append(body.Children, w.decl(m, depth+1)...)
		}
		w.indent(depth)
		body.Children = append(body.Children, w.token("}", "}", true))
		body.Span = position.Span{Start: open.Span.Start, End: w.pos()}
		n.Children = append(n.Children, body)
	}

	n.Span = position.Span{Start: start, End: w.pos()}
	w.b.WriteByte('\n')
	n.FullSpan = position.Span{Start: lineStart, End: w.pos()}
	return append(out, n)
}

func (w *writer) variables(n *syntax.Node, d Decl) {
	decl := &syntax.Node{Kind: syntax.KindVariableDeclaration}
	start := w.pos()
	if d.Type != "" {
		decl.Children = append(decl.Children, w.token(syntax.KindIdentifier, d.Type, false))
		w.space()
	}
	for i, v := range d.Variables {
		if i > 0 {
			decl.Children = append(decl.Children, w.token(",", ",", true))
			w.space()
		}
		name := w.token(syntax.KindIdentifier, v, false)
		declarator := &syntax.Node{
			Kind:     syntax.KindVariableDeclarator,
			Name:     v,
			NameSpan: name.Span,
			Span:     name.Span,
			Children: []*syntax.Node{name},
		}
		decl.Children = append(decl.Children, declarator)
	}
	decl.Span = position.Span{Start: start, End: w.pos()}
	n.Children = append(n.Children, decl)
}

func keyword(kind syntax.Kind) string {
	switch kind {
	case syntax.KindNamespace:
		return "namespace"
	case syntax.KindClass:
		return "class"
	case syntax.KindStruct:
		return "struct"
	case syntax.KindInterface:
		return "interface"
	case syntax.KindRecord:
		return "record"
	case syntax.KindEnum:
		return "enum"
	case syntax.KindDelegate:
		return "delegate"
	case syntax.KindEvent, syntax.KindEventField:
		return "event"
	default:
		return ""
	}
}

func bodyKind(kind syntax.Kind) syntax.Kind {
	switch {
	case kind == syntax.KindEnum:
		return syntax.KindEnumMemberList
	case kind.IsNamespace(), kind.IsType():
		return syntax.KindDeclarationList
	default:
		return syntax.KindBlock
	}
}
