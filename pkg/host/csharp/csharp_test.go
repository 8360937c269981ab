package csharp_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/tagoverlay/pkg/config"
	"github.com/walteh/tagoverlay/pkg/diff"
	"github.com/walteh/tagoverlay/pkg/host"
	"github.com/walteh/tagoverlay/pkg/host/csharp"
	"github.com/walteh/tagoverlay/pkg/labels"
	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/semantic"
	"github.com/walteh/tagoverlay/pkg/style"
	"github.com/walteh/tagoverlay/pkg/syntax"
	"github.com/walteh/tagoverlay/pkg/tagger"
)

const widgetSource = `namespace Acme.Tools
{
    #region Drawing
    public abstract class Widget<T>
    {
        // TODO: cache the brush
        private int width, height;

        public override string ToString() { return ""; }

        protected virtual void Draw(int x, string label) { }
    }
    #endregion

    public interface IShape { }

    public enum Color { Red, Blue }
}
`

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func find(tree *syntax.Tree, kind syntax.Kind, name string) *syntax.Node {
	var found *syntax.Node
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		if n.Kind == kind && n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestLower(t *testing.T) {
	tree, err := csharp.Parse(testContext(t), "widget.cs", widgetSource)
	require.NoError(t, err)
	assert.Equal(t, position.Span{Start: 0, End: len(widgetSource)}, tree.Root.Span)

	class := find(tree, syntax.KindClass, "Widget")
	require.NotNil(t, class)
	assert.Equal(t, "Widget", class.NameSpan.Text(widgetSource))
	assert.Equal(t, []string{"public", "abstract"}, class.Decl.Modifiers)
	assert.Equal(t, 1, class.Decl.TypeParams)

	draw := find(tree, syntax.KindMethod, "Draw")
	require.NotNil(t, draw)
	assert.Equal(t, []string{"int", "string"}, draw.Decl.Parameters)
	assert.Equal(t, "void", draw.Decl.Type)
	assert.Equal(t, "Acme.Tools.Widget", syntax.AncestorPath(draw))

	var field *syntax.Node
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		if n.Kind == syntax.KindField {
			field = n
			return false
		}
		return true
	})
	require.NotNil(t, field)
	assert.Equal(t, "int", field.Decl.Type)
	require.Len(t, field.Variables(), 2)
	assert.Equal(t, "height", field.Variables()[1].Name)
	assert.Equal(t, "field_declaration|width,height", syntax.Signature(field))

	red := find(tree, syntax.KindEnumMember, "Red")
	require.NotNil(t, red)
}

func classified(text string, spans []host.ClassificationSpan) map[string]host.Category {
	out := map[string]host.Category{}
	for _, cs := range spans {
		out[cs.Span.Text(text)] = cs.Category
	}
	return out
}

func TestClassify(t *testing.T) {
	tree, err := csharp.Parse(testContext(t), "widget.cs", widgetSource)
	require.NoError(t, err)

	spans := csharp.Classify(tree, position.Span{Start: 0, End: len(widgetSource)})
	got := classified(widgetSource, spans)

	assert.Equal(t, host.CategoryClassName, got["Widget"])
	assert.Equal(t, host.CategoryInterfaceName, got["IShape"])
	assert.Equal(t, host.CategoryEnumName, got["Color"])
	assert.Equal(t, host.CategoryKeyword, got["abstract"])
	assert.Equal(t, host.CategoryKeyword, got["override"])
	assert.Equal(t, host.CategoryPreprocessorKeyword, got["region"])
	assert.Equal(t, host.CategoryPreprocessorKeyword, got["endregion"])
	assert.Equal(t, host.CategoryComment, got["// TODO: cache the brush"])

	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].Span.Start, spans[i].Span.Start, "document order")
	}

	t.Run("restricted to a range", func(t *testing.T) {
		iface := strings.Index(widgetSource, "public interface")
		part := csharp.Classify(tree, position.Span{Start: iface, End: len(widgetSource)})
		got := classified(widgetSource, part)
		assert.NotContains(t, got, "Widget")
		assert.Contains(t, got, "IShape")
	})
}

func shape(tree *syntax.Tree) []string {
	var out []string
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		out = append(out, fmt.Sprintf("%s %s %q", n.Kind, n.Span, n.Name))
		return true
	})
	return out
}

func TestIncrementalReparseMatchesFreshParse(t *testing.T) {
	edits := []struct {
		name string
		from string
		to   string
	}{
		{name: "insert member", from: "        // TODO", to: "        public int Size;\n        // TODO"},
		{name: "rename type", from: "IShape", to: "IFigure"},
		{name: "delete method", from: "        public override string ToString() { return \"\"; }\n", to: ""},
		{name: "multibyte text", from: "cache the brush", to: "caché the brüsh"},
	}
	for _, tt := range edits {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			ws := csharp.NewWorkspace(afero.NewMemMapFs())
			doc, err := ws.Add(ctx, "widget.cs", widgetSource)
			require.NoError(t, err)
			before, err := doc.Version(ctx)
			require.NoError(t, err)

			edited := strings.Replace(widgetSource, tt.from, tt.to, 1)
			require.NoError(t, doc.SetText(ctx, edited))

			incremental, err := doc.SyntaxTree(ctx)
			require.NoError(t, err)
			fresh, err := csharp.Parse(ctx, "widget.cs", edited)
			require.NoError(t, err)
			if d := diff.Lines(shape(fresh), shape(incremental)); d != "" {
				t.Fatal(d)
			}

			after, err := doc.Version(ctx)
			require.NoError(t, err)
			assert.NotEqual(t, before, after)
		})
	}
}

func TestVersionIsContentDerived(t *testing.T) {
	a, err := csharp.Version("class A {}")
	require.NoError(t, err)
	b, err := csharp.Version("class A {}")
	require.NoError(t, err)
	c, err := csharp.Version("class B {}")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWorkspaceLoad(t *testing.T) {
	ctx := testContext(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/src/Widget.cs", []byte(widgetSource), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ws/src/deep/Shape.cs", []byte("class Shape {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ws/README.md", []byte("# nope\n"), 0o644))

	ws := csharp.NewWorkspace(fs)
	docs, err := ws.Load(ctx, "/ws", csharp.DefaultPattern)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	doc, ok := ws.FindDocument("/WS/SRC/widget.cs")
	require.True(t, ok)
	model, err := doc.SemanticModel(ctx)
	require.NoError(t, err)
	again, err := doc.SemanticModel(ctx)
	require.NoError(t, err)
	assert.Same(t, model, again)

	_, ok = ws.FindDocument("/ws/README.md")
	assert.False(t, ok)

	ws.Remove("/ws/src/Widget.cs")
	_, err = doc.SyntaxTree(ctx)
	assert.ErrorIs(t, err, host.ErrDocumentClosed)
}

func TestWorkspaceOpenMissing(t *testing.T) {
	ws := csharp.NewWorkspace(afero.NewMemMapFs())
	_, err := ws.Open(testContext(t), "/nowhere.cs")
	assert.Error(t, err)
}

func TestTaggingAndRelocationEndToEnd(t *testing.T) {
	ctx := testContext(t)
	ws := csharp.NewWorkspace(afero.NewMemMapFs())
	doc, err := ws.Add(ctx, "widget.cs", widgetSource)
	require.NoError(t, err)

	src := csharp.NewSource(doc)
	styles := style.NewRegistry()
	tg := tagger.New(src, &tagger.Cache{}, config.Default(), styles, labels.CodeTypeCSharp)
	defer tg.Close()
	repaints := 0
	tg.OnRepaint(func() { repaints++ })

	tags := tg.Tags(ctx, doc.Snapshot(), []position.Span{position.NewSpan(0, 1)})
	byText := map[string]string{}
	for _, ts := range tags {
		byText[ts.Span.Text(widgetSource)] = ts.Tag.Classification
	}
	todo, _ := styles.Comment(style.ToDo)
	assert.Equal(t, todo.Classification, byText["TODO: cache the brush"])
	assert.Equal(t, styles.Abstraction().Classification, byText["abstract"])
	assert.Equal(t, styles.Abstraction().Classification, byText["virtual"])
	assert.Equal(t, string(host.CategoryClassName), byText["Widget"])
	assert.Equal(t, string(host.CategoryPreprocessorKeyword), byText["region"])
	assert.NotContains(t, byText, "endregion")
	assert.NotContains(t, byText, "public")

	view := csharp.NewView(doc)
	tracker := semantic.New(view)
	require.True(t, tracker.UpdateTo(ctx, strings.Index(widgetSource, "Draw(")+1))
	draw := tracker.Node()
	require.NotNil(t, draw)
	require.Equal(t, syntax.KindMethod, draw.Kind)
	sym := tracker.Symbol(ctx)
	require.NotNil(t, sym)

	edited := strings.Replace(widgetSource, "        // TODO", "        public void Draw() { }\n        // TODO", 1)
	require.NoError(t, src.Update(ctx, edited))
	assert.Equal(t, 1, repaints)

	got, ok := tracker.Relocate(ctx, draw)
	require.True(t, ok)
	assert.Equal(t, []string{"int", "string"}, got.Decl.Parameters)
	assert.Greater(t, got.Span.Start, draw.Span.Start)

	relocated := tracker.RelocateSymbol(ctx, sym)
	require.NotNil(t, relocated)
	assert.Equal(t, sym.Key(), relocated.Key())
	assert.NotSame(t, sym, relocated)

	// later passes only ask for the edited range
	later := tg.Tags(ctx, doc.Snapshot(), []position.Span{position.NewSpan(0, 10)})
	assert.Empty(t, later)
}
