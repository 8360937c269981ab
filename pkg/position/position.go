package position

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// Span is a half-open byte interval [Start, End) of a document's text.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, length int) Span {
	return Span{Start: start, End: start + length}
}

// Cover returns the span from the start of the first span to the end of the last.
// The spans are expected in document order, as an editor hands them out.
func Cover(spans []Span) Span {
	if len(spans) == 0 {
		return Span{}
	}
	return Span{Start: spans[0].Start, End: spans[len(spans)-1].End}
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether offset falls inside the span. The end is exclusive.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share at least one offset. An empty span
// overlaps a span that contains (or ends at) its offset.
func (s Span) Overlaps(other Span) bool {
	if s.IsEmpty() {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.IsEmpty() {
		return other.Start >= s.Start && other.Start <= s.End
	}
	return other.Start < s.End && other.End > s.Start
}

func (s Span) Union(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Clamp limits the span to [0, length).
func (s Span) Clamp(length int) Span {
	start := max(0, min(s.Start, length))
	end := max(start, min(s.End, length))
	return Span{Start: start, End: end}
}

// Shift moves the span by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) Text(src string) string {
	c := s.Clamp(len(src))
	return src[c.Start:c.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d..%d)", s.Start, s.End)
}

// TrimSpace narrows span by skipping whitespace forward from its start and
// backward from its end.
func TrimSpace(src string, span Span) Span {
	span = span.Clamp(len(src))
	start, end := span.Start, span.End
	for start < end {
		r, size := utf8.DecodeRuneInString(src[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(src[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return Span{Start: start, End: end}
}

// GetLineAndColumn calculates the zero-based line and the zero-based column of offset.
// Columns count grapheme clusters, so a combined emoji is one column.
func GetLineAndColumn(text string, offset int) (line, col int) {
	offset = max(0, min(offset, len(text)))
	lineStart := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	n, err := textseg.TokenCount([]byte(text[lineStart:offset]), textseg.ScanGraphemeClusters)
	if err != nil {
		return line, offset - lineStart
	}
	return line, n
}

// GetRange converts the span to one-based line/character places.
func (s Span) GetRange(text string) Range {
	startLine, startCol := GetLineAndColumn(text, s.Start)
	endLine, endCol := GetLineAndColumn(text, s.End)
	return Range{
		Start: Place{Line: startLine + 1, Character: startCol + 1},
		End:   Place{Line: endLine + 1, Character: endCol + 1},
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// LineSpans splits text into line spans, excluding the line terminators.
func LineSpans(text string) []Span {
	var lines []Span
	start := 0
	for {
		idx := strings.IndexByte(text[start:], '\n')
		if idx < 0 {
			lines = append(lines, Span{Start: start, End: len(text)})
			return lines
		}
		end := start + idx
		if end > start && text[end-1] == '\r' {
			lines = append(lines, Span{Start: start, End: end - 1})
		} else {
			lines = append(lines, Span{Start: start, End: end})
		}
		start += idx + 1
	}
}
