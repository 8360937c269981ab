/*
Package syntax is the language-neutral tree the overlay reasons about.

Host adapters lower their parser output into it:

	compilation_unit
	  └── namespace_declaration  (container)
	        └── class_declaration (container, member)
	              ├── field_declaration (member)
	              │     └── variable_declaration
	              │           ├── variable_declarator "a"
	              │           └── variable_declarator "b"
	              └── method_declaration (member)

Leaves are tokens. Comments are leaves too and count as trivia.
Kinds reuse the tree-sitter C# node type names so the real adapter can lower
without translation tables.
*/
package syntax

import (
	"strings"

	"github.com/walteh/tagoverlay/pkg/position"
)

// Kind is the node type.
type Kind string

const (
	KindCompilationUnit     Kind = "compilation_unit"
	KindNamespace           Kind = "namespace_declaration"
	KindFileScopedNamespace Kind = "file_scoped_namespace_declaration"
	KindClass               Kind = "class_declaration"
	KindStruct              Kind = "struct_declaration"
	KindInterface           Kind = "interface_declaration"
	KindRecord              Kind = "record_declaration"
	KindRecordStruct        Kind = "record_struct_declaration"
	KindEnum                Kind = "enum_declaration"
	KindEnumMember          Kind = "enum_member_declaration"
	KindDelegate            Kind = "delegate_declaration"
	KindMethod              Kind = "method_declaration"
	KindConstructor         Kind = "constructor_declaration"
	KindDestructor          Kind = "destructor_declaration"
	KindProperty            Kind = "property_declaration"
	KindIndexer             Kind = "indexer_declaration"
	KindEvent               Kind = "event_declaration"
	KindEventField          Kind = "event_field_declaration"
	KindField               Kind = "field_declaration"
	KindOperator            Kind = "operator_declaration"
	KindConversionOperator  Kind = "conversion_operator_declaration"
	KindVariableDeclaration Kind = "variable_declaration"
	KindVariableDeclarator  Kind = "variable_declarator"
	KindLocalDeclaration    Kind = "local_declaration_statement"
	KindComment             Kind = "comment"
	KindIdentifier          Kind = "identifier"
	KindModifier            Kind = "modifier"
	KindBlock               Kind = "block"
	KindDeclarationList     Kind = "declaration_list"
	KindEnumMemberList      Kind = "enum_member_declaration_list"
)

var memberKinds = map[Kind]bool{
	KindNamespace:           true,
	KindFileScopedNamespace: true,
	KindClass:               true,
	KindStruct:              true,
	KindInterface:           true,
	KindRecord:              true,
	KindRecordStruct:        true,
	KindEnum:                true,
	KindEnumMember:          true,
	KindDelegate:            true,
	KindMethod:              true,
	KindConstructor:         true,
	KindDestructor:          true,
	KindProperty:            true,
	KindIndexer:             true,
	KindEvent:               true,
	KindEventField:          true,
	KindField:               true,
	KindOperator:            true,
	KindConversionOperator:  true,
}

var typeKinds = map[Kind]bool{
	KindClass:        true,
	KindStruct:       true,
	KindInterface:    true,
	KindRecord:       true,
	KindRecordStruct: true,
}

// IsMember reports whether nodes of this kind are member-level declarations.
func (k Kind) IsMember() bool { return memberKinds[k] }

// IsType reports whether the kind declares a type with a member body.
func (k Kind) IsType() bool { return typeKinds[k] }

func (k Kind) IsNamespace() bool {
	return k == KindNamespace || k == KindFileScopedNamespace
}

// DeclaresVariables reports whether statements of this kind carry variable declarators.
func (k Kind) DeclaresVariables() bool {
	return k == KindField || k == KindEventField || k == KindLocalDeclaration || k == KindVariableDeclaration
}

// Declaration holds the parts of a declaration that make up its signature.
type Declaration struct {
	Modifiers  []string
	Type       string
	TypeParams int
	Parameters []string
}

// Node is one syntax node. Nodes are immutable once their tree is built.
type Node struct {
	Kind Kind
	// Span excludes surrounding trivia, FullSpan includes it.
	Span     position.Span
	FullSpan position.Span
	// Name and NameSpan are set for declarations and declarators.
	Name     string
	NameSpan position.Span
	Decl     *Declaration
	// Anonymous marks punctuation and keyword tokens.
	Anonymous bool

	Parent   *Node
	Children []*Node

	tree *Tree
}

// Tree is one parse of one version of a document.
type Tree struct {
	Path string
	Text string
	Root *Node
}

// NewTree links parents and tree back-pointers, and fills in missing full spans.
func NewTree(path, text string, root *Node) *Tree {
	t := &Tree{Path: path, Text: text, Root: root}
	var link func(n, parent *Node)
	link = func(n, parent *Node) {
		n.tree = t
		n.Parent = parent
		if n.FullSpan == (position.Span{}) && n.Span != (position.Span{}) {
			n.FullSpan = n.Span
		}
		for _, c := range n.Children {
			link(c, n)
		}
	}
	if root != nil {
		link(root, nil)
	}
	return t
}

func (n *Node) Tree() *Tree {
	return n.tree
}

func (n *Node) IsToken() bool {
	return len(n.Children) == 0
}

func (n *Node) IsTrivia() bool {
	return n.Kind == KindComment
}

func (n *Node) Text() string {
	if n.tree == nil {
		return ""
	}
	return n.Span.Text(n.tree.Text)
}

// Variables returns the variable declarators of a declarator-bearing statement.
func (n *Node) Variables() []*Node {
	var out []*Node
	for _, c := range n.Children {
		switch c.Kind {
		case KindVariableDeclarator:
			out = append(out, c)
		case KindVariableDeclaration:
			out = append(out, c.Variables()...)
		}
	}
	return out
}

// Ancestors walks from the parent up to the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// DeclarationStatement promotes a variable declarator to the statement that declares it.
// Other nodes are returned unchanged.
func (n *Node) DeclarationStatement() *Node {
	if n.Kind != KindVariableDeclarator {
		return n
	}
	p := n.Parent
	for p != nil && p.Kind == KindVariableDeclaration {
		p = p.Parent
	}
	if p == nil {
		return n
	}
	return p
}

// Members returns the member declarations directly inside n, looking through
// wrapper nodes such as declaration lists. Enum members are only included when
// withEnumMembers is set.
func (n *Node) Members(withEnumMembers bool) []*Node {
	if !n.isContainer(withEnumMembers) {
		return nil
	}
	var out []*Node
	var collect func(c *Node)
	collect = func(c *Node) {
		if c.Kind.IsMember() {
			out = append(out, c)
			return
		}
		// statements and expressions never hold members
		if c.Kind == KindBlock {
			return
		}
		for _, cc := range c.Children {
			collect(cc)
		}
	}
	for _, c := range n.Children {
		collect(c)
	}
	return out
}

func (n *Node) isContainer(withEnumMembers bool) bool {
	switch {
	case n.Kind == KindCompilationUnit, n.Kind.IsNamespace(), n.Kind.IsType():
		return true
	case n.Kind == KindEnum:
		return withEnumMembers
	default:
		return false
	}
}

// FindToken returns the innermost token whose full span contains offset.
// Comments are found too. An offset at the very end of the text resolves
// to the last token.
func (t *Tree) FindToken(offset int) *Node {
	if t.Root == nil || offset < 0 || offset > len(t.Text) {
		return nil
	}
	if offset == len(t.Text) && offset > 0 {
		offset--
	}
	n := t.Root
	for !n.IsToken() {
		next := childAt(n, offset)
		if next == nil {
			break
		}
		n = next
	}
	if !n.IsToken() {
		return nil
	}
	return n
}

// childAt picks the child holding offset. Offsets in the whitespace between
// children belong to the next child, like leading trivia, or to the last child
// at the end of the parent.
func childAt(n *Node, offset int) *Node {
	var trivia *Node
	for _, c := range n.Children {
		if c.Span.Contains(offset) {
			return c
		}
		if trivia == nil && c.FullSpan.Contains(offset) {
			trivia = c
		}
	}
	if trivia != nil {
		return trivia
	}
	for _, c := range n.Children {
		if c.Span.Start > offset {
			return c
		}
	}
	if len(n.Children) > 0 {
		return n.Children[len(n.Children)-1]
	}
	return nil
}

// FindNode returns the innermost non-token node whose span (or full span, with
// includeTrivia) contains span.
func (t *Tree) FindNode(span position.Span, includeTrivia bool) *Node {
	if t.Root == nil {
		return nil
	}
	bounds := func(n *Node) position.Span {
		if includeTrivia {
			return n.FullSpan
		}
		return n.Span
	}
	if !bounds(t.Root).ContainsSpan(span) {
		return nil
	}
	n := t.Root
	for {
		var next *Node
		for _, c := range n.Children {
			if !c.IsToken() && bounds(c).ContainsSpan(span) {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// Walk visits nodes depth-first in document order until fn returns false.
func Walk(n *Node, fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// SamePath compares document paths the way file systems on editor hosts do.
func SamePath(a, b string) bool {
	return strings.EqualFold(a, b)
}
