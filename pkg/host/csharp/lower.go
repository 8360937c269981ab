// Package csharp hosts the overlay on real C# source: documents are parsed
// with tree-sitter, lowered into syntax trees, and classified for the tagger.
package csharp

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

func newParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())
	return parser
}

// Parse parses text from scratch.
func Parse(ctx context.Context, path, text string) (*syntax.Tree, error) {
	src := []byte(text)
	ts, err := newParser().ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	return Lower(path, src, ts.RootNode()), nil
}

// Lower converts a tree-sitter tree into a syntax tree. Node kinds are the
// tree-sitter node types. The root always covers the whole text.
func Lower(path string, src []byte, root *sitter.Node) *syntax.Tree {
	if root == nil {
		return syntax.NewTree(path, string(src), nil)
	}
	r := lowerNode(root, src)
	r.Span = position.Span{Start: 0, End: len(src)}
	r.FullSpan = r.Span
	return syntax.NewTree(path, string(src), r)
}

func spanOf(n *sitter.Node) position.Span {
	return position.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func lowerNode(n *sitter.Node, src []byte) *syntax.Node {
	out := &syntax.Node{
		Kind:      syntax.Kind(n.Type()),
		Span:      spanOf(n),
		Anonymous: !n.IsNamed(),
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		out.Children = append(out.Children, lowerNode(c, src))
	}

	if out.Kind.IsMember() || out.Kind == syntax.KindVariableDeclarator {
		if !out.Kind.DeclaresVariables() {
			if name := nameNode(n); name != nil {
				out.Name = name.Content(src)
				out.NameSpan = spanOf(name)
			}
		}
		out.Decl = declaration(n, src)
	}
	if out.Kind.IsMember() {
		out.FullSpan = lineSpan(src, out.Span)
	}
	return out
}

func nameNode(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil {
		return name
	}
	return childOfType(n, "identifier")
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

func fieldOrType(n *sitter.Node, field, typ string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	return childOfType(n, typ)
}

func declaration(n *sitter.Node, src []byte) *syntax.Declaration {
	decl := &syntax.Declaration{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == "modifier" {
			decl.Modifiers = append(decl.Modifiers, c.Content(src))
		}
	}

	typed := n
	if vd := childOfType(n, string(syntax.KindVariableDeclaration)); vd != nil {
		typed = vd
	}
	for _, field := range []string{"type", "returns"} {
		if t := typed.ChildByFieldName(field); t != nil {
			decl.Type = t.Content(src)
			break
		}
	}

	if tps := fieldOrType(n, "type_parameters", "type_parameter_list"); tps != nil {
		for i := 0; i < int(tps.NamedChildCount()); i++ {
			if c := tps.NamedChild(i); c != nil && c.Type() == "type_parameter" {
				decl.TypeParams++
			}
		}
	}

	if params := fieldOrType(n, "parameters", "parameter_list"); params != nil {
		decl.Parameters = []string{}
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p == nil || p.Type() != "parameter" {
				continue
			}
			if t := p.ChildByFieldName("type"); t != nil {
				decl.Parameters = append(decl.Parameters, t.Content(src))
			} else {
				decl.Parameters = append(decl.Parameters, p.Content(src))
			}
		}
	}
	return decl
}

// lineSpan widens span over the indentation before it and the rest of its
// last line, including the line break.
func lineSpan(src []byte, span position.Span) position.Span {
	start := span.Start
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	end := span.End
	for end < len(src) && (src[end] == ' ' || src[end] == '\t' || src[end] == '\r') {
		end++
	}
	if end < len(src) && src[end] == '\n' {
		end++
	}
	return position.Span{Start: start, End: end}
}
