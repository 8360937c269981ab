package symbols_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tagoverlay/pkg/host/memory"
	"github.com/walteh/tagoverlay/pkg/symbols"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

func build(runParam string, extra ...memory.Decl) *syntax.Tree {
	members := append(extra,
		memory.Decl{Kind: syntax.KindField, Type: "int", Variables: []string{"a", "b"}},
		memory.Decl{Kind: syntax.KindMethod, Name: "Run", Type: "void", Parameters: []string{runParam}, Comment: "// NOTE: go"},
	)
	return memory.Build("a.cs", memory.Decl{Kind: syntax.KindNamespace, Name: "N", Members: []memory.Decl{
		{Kind: syntax.KindClass, Name: "C", Members: members},
	}})
}

func keys(idx *symbols.Index) []string {
	var out []string
	for _, s := range idx.Symbols() {
		out = append(out, s.Key())
	}
	return out
}

func TestNewIndex(t *testing.T) {
	idx := symbols.NewIndex(build("int"))
	assert.Equal(t, []string{
		"N#namespace_declaration",
		"N.C#class_declaration",
		"N.C.a#field_declaration",
		"N.C.b#field_declaration",
		"N.C.Run#method_declaration(int)",
	}, keys(idx))

	empty := symbols.NewIndex(nil)
	assert.Empty(t, empty.Symbols())
	_, ok := empty.SymbolAt(0)
	assert.False(t, ok)
}

func TestSymbolAt(t *testing.T) {
	tree := build("int")
	idx := symbols.NewIndex(tree)

	tests := []struct {
		name     string
		at       string
		key      string
		external bool
		missing  bool
	}{
		{name: "method name", at: "Run", key: "N.C.Run#method_declaration(int)"},
		{name: "declarator", at: "b;", key: "N.C.b#field_declaration"},
		{name: "undeclared type", at: "int a", key: "extern:int", external: true},
		{name: "comment", at: "NOTE", missing: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, ok := idx.SymbolAt(strings.Index(tree.Text, tt.at))
			if tt.missing {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.key, sym.Key())
			assert.Equal(t, tt.external, sym.External())
		})
	}
}

func TestSymbolFor(t *testing.T) {
	tree := build("int")
	idx := symbols.NewIndex(tree)

	var field *syntax.Node
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		if n.Kind == syntax.KindField {
			field = n
			return false
		}
		return true
	})
	require.NotNil(t, field)

	sym, ok := idx.SymbolFor(field)
	require.True(t, ok)
	assert.Equal(t, "a", sym.Name())
	require.Len(t, sym.Declarations(), 1)
	assert.Equal(t, "a", sym.Declarations()[0].Span.Text(tree.Text))

	_, ok = idx.SymbolFor(nil)
	assert.False(t, ok)
}

func TestFindSimilar(t *testing.T) {
	before := symbols.NewIndex(build("int"))
	run := before.Symbols()[4]

	t.Run("same key after an edit", func(t *testing.T) {
		after := symbols.NewIndex(build("int", memory.Decl{Kind: syntax.KindProperty, Name: "Size", Type: "int"}))
		got := after.FindSimilar(run)
		require.Len(t, got, 1)
		assert.Equal(t, run.Key(), got[0].Key())
		assert.NotSame(t, run, got[0])
	})

	t.Run("name and kind when the key changed", func(t *testing.T) {
		after := symbols.NewIndex(build("string"))
		got := after.FindSimilar(run)
		require.Len(t, got, 1)
		assert.Equal(t, "N.C.Run#method_declaration(string)", got[0].Key())
	})

	t.Run("nothing similar", func(t *testing.T) {
		assert.Empty(t, before.FindSimilar(symbols.NewExternal("Missing", syntax.KindMethod)))
		assert.Nil(t, before.FindSimilar(nil))
	})
}
