package syntax

import (
	"strconv"
	"strings"
)

// Signature is the relocation key of a declaration: kind, name and shape
// (type parameter and parameter counts). Overloads that differ only in
// parameter types share a signature.
func Signature(n *Node) string {
	var b strings.Builder
	b.WriteString(string(n.Kind))
	b.WriteByte('|')
	b.WriteString(declaredName(n))
	if n.Decl != nil {
		if n.Decl.TypeParams > 0 {
			b.WriteByte('`')
			b.WriteString(strconv.Itoa(n.Decl.TypeParams))
		}
		if n.Decl.Parameters != nil {
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(len(n.Decl.Parameters)))
		}
	}
	return b.String()
}

// FullSignature extends Signature with modifiers, the declared type and the
// parameter types.
func FullSignature(n *Node) string {
	var b strings.Builder
	b.WriteString(Signature(n))
	if n.Decl == nil {
		return b.String()
	}
	if len(n.Decl.Modifiers) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(n.Decl.Modifiers, " "))
		b.WriteByte(']')
	}
	if n.Decl.Type != "" {
		b.WriteString(" : ")
		b.WriteString(normalize(n.Decl.Type))
	}
	if n.Decl.Parameters != nil {
		params := make([]string, len(n.Decl.Parameters))
		for i, p := range n.Decl.Parameters {
			params[i] = normalize(p)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(params, ", "))
		b.WriteByte(')')
	}
	return b.String()
}

// AncestorPath names the enclosing namespaces and types, outermost first,
// e.g. "Acme.Tools.Outer".
func AncestorPath(n *Node) string {
	var names []string
	for _, a := range n.Ancestors() {
		if a.Kind.IsNamespace() || a.Kind.IsType() || a.Kind == KindEnum {
			names = append(names, a.Name)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

// declaredName is the name used in signatures. Field-like statements take the
// names of all their declarators, so "int a, b;" is keyed "a,b".
func declaredName(n *Node) string {
	if n.Name != "" || !n.Kind.DeclaresVariables() {
		return n.Name
	}
	vars := n.Variables()
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return strings.Join(names, ",")
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
