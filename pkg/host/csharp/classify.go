package csharp

import (
	"strings"

	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

var nameCategories = map[syntax.Kind]host.Category{
	syntax.KindClass:        host.CategoryClassName,
	syntax.KindRecord:       host.CategoryClassName,
	syntax.KindRecordStruct: host.CategoryStructName,
	syntax.KindStruct:       host.CategoryStructName,
	syntax.KindInterface:    host.CategoryInterfaceName,
	syntax.KindEnum:         host.CategoryEnumName,
}

// Classify produces classification spans overlapping span, in document order:
// comments, modifier keywords, preprocessor directive keywords and the names
// of type declarations.
func Classify(tree *syntax.Tree, span position.Span) []host.ClassificationSpan {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []host.ClassificationSpan
	emit := func(s position.Span, c host.Category) {
		if s.Overlaps(span) {
			out = append(out, host.ClassificationSpan{Span: s, Category: c})
		}
	}

	var visit func(n *syntax.Node)
	visit = func(n *syntax.Node) {
		if !n.Span.Overlaps(span) {
			return
		}
		switch {
		case n.Kind == syntax.KindComment:
			emit(n.Span, host.CategoryComment)
			return
		case n.Kind == syntax.KindModifier:
			emit(n.Span, host.CategoryKeyword)
			return
		case isDirective(n.Kind):
			if kw, ok := directiveKeyword(tree.Text, n.Span); ok {
				emit(kw, host.CategoryPreprocessorKeyword)
			}
		case n.IsToken() && n.Parent != nil && n.Parent.NameSpan == n.Span:
			if c, ok := nameCategories[n.Parent.Kind]; ok {
				emit(n.Span, c)
			}
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(tree.Root)
	return out
}

func isDirective(kind syntax.Kind) bool {
	k := string(kind)
	return strings.HasPrefix(k, "preproc_") || strings.HasSuffix(k, "_directive")
}

// directiveKeyword finds the word after '#' at the start of a directive.
func directiveKeyword(text string, span position.Span) (position.Span, bool) {
	span = span.Clamp(len(text))
	i := span.Start
	for i < span.End && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i >= span.End || text[i] != '#' {
		return position.Span{}, false
	}
	i++
	for i < span.End && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	start := i
	for i < span.End && isWordByte(text[i]) {
		i++
	}
	if i == start {
		return position.Span{}, false
	}
	return position.Span{Start: start, End: i}, true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
