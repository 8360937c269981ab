package position_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/tagoverlay/pkg/position"
)

func TestGetLineAndColumn(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		offset   int
		wantLine int
		wantCol  int
	}{
		{
			name:     "empty text",
			text:     "",
			offset:   0,
			wantLine: 0,
			wantCol:  0,
		},
		{
			name:     "single line, middle position",
			text:     "Hello, World!",
			offset:   7,
			wantLine: 0,
			wantCol:  7,
		},
		{
			name:     "multiple lines, second line",
			text:     "Hello\nWorld\nTest zzz",
			offset:   8,
			wantLine: 1,
			wantCol:  2,
		},
		{
			name:     "offset past the end is clamped",
			text:     "ab\ncd",
			offset:   99,
			wantLine: 1,
			wantCol:  2,
		},
		{
			name:     "grapheme clusters count once",
			text:     "// é\nx",
			offset:   len("// é"),
			wantLine: 0,
			wantCol:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := position.GetLineAndColumn(tt.text, tt.offset)
			assert.Equal(t, tt.wantLine, line, "line")
			assert.Equal(t, tt.wantCol, col, "column")
		})
	}
}

func TestSpanContains(t *testing.T) {
	s := position.NewSpan(3, 4)
	assert.False(t, s.Contains(2))
	assert.True(t, s.Contains(3))
	assert.True(t, s.Contains(6))
	assert.False(t, s.Contains(7), "end is exclusive")
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b position.Span
		want bool
	}{
		{"disjoint", position.Span{Start: 0, End: 2}, position.Span{Start: 3, End: 5}, false},
		{"touching", position.Span{Start: 0, End: 3}, position.Span{Start: 3, End: 5}, false},
		{"overlapping", position.Span{Start: 0, End: 4}, position.Span{Start: 3, End: 5}, true},
		{"empty inside", position.Span{Start: 4, End: 4}, position.Span{Start: 3, End: 5}, true},
		{"empty at end", position.Span{Start: 3, End: 5}, position.Span{Start: 5, End: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestCover(t *testing.T) {
	assert.Equal(t, position.Span{}, position.Cover(nil))
	got := position.Cover([]position.Span{{Start: 4, End: 6}, {Start: 10, End: 12}, {Start: 20, End: 21}})
	assert.Equal(t, position.Span{Start: 4, End: 21}, got)
}

func TestTrimSpace(t *testing.T) {
	src := "  \tregion \n"
	got := position.TrimSpace(src, position.Span{Start: 0, End: len(src)})
	assert.Equal(t, "region", got.Text(src))

	blank := position.TrimSpace("    ", position.Span{Start: 0, End: 4})
	assert.True(t, blank.IsEmpty())
}

func TestLineSpans(t *testing.T) {
	src := "# a\r\n\n## b"
	lines := position.LineSpans(src)
	require.Len(t, lines, 3)
	assert.Equal(t, "# a", lines[0].Text(src))
	assert.Equal(t, "", lines[1].Text(src))
	assert.Equal(t, "## b", lines[2].Text(src))
}

func TestGetRange(t *testing.T) {
	src := "abc\ndef"
	r := position.Span{Start: 4, End: 6}.GetRange(src)
	assert.Equal(t, "2:1-2:3", r.String())
}
