// Package labels recognizes marker labels such as "TODO" or "NOTE" at the start
// of comment text and works out which part of the comment to highlight.
package labels

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/style"
)

// CodeType is the flavor of the document a comment comes from.
type CodeType int

const (
	CodeTypeNone CodeType = iota
	CodeTypeCSharp
	CodeTypeMarkup
	CodeTypeMarkdown
)

func (c CodeType) String() string {
	switch c {
	case CodeTypeCSharp:
		return "csharp"
	case CodeTypeMarkup:
		return "markup"
	case CodeTypeMarkdown:
		return "markdown"
	default:
		return "none"
	}
}

// CodeTypeForPath guesses the code type from a file extension.
func CodeTypeForPath(path string) CodeType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cs", ".csx":
		return CodeTypeCSharp
	case ".html", ".htm", ".xaml", ".xml", ".cshtml", ".razor":
		return CodeTypeMarkup
	case ".md", ".markdown":
		return CodeTypeMarkdown
	default:
		return CodeTypeNone
	}
}

// Application selects the part of a matched comment that gets the style.
type Application int

const (
	// WholeSpan styles everything from the label to the end of the comment content.
	WholeSpan Application = iota
	// TagOnly styles the label itself.
	TagOnly
	// ContentOnly styles the trimmed text after the label and its delimiter.
	ContentOnly
)

func (a Application) String() string {
	switch a {
	case TagOnly:
		return "tag"
	case ContentOnly:
		return "content"
	default:
		return "whole"
	}
}

// Rule is one configured comment label. Rules are tried in order and the first
// one that matches wins, so overlapping labels ("!" and "!!") must be ordered
// by the caller.
type Rule struct {
	Label                     string
	IgnoreCase                bool
	Style                     style.ID
	Application               Application
	AllowPunctuationDelimiter bool
}

// Result is a successful match. Span is relative to the matched text.
type Result struct {
	Rule *Rule
	Span position.Span
}

var (
	csharpOpeners = []string{"//", "/*"}
	commonOpeners = []string{"//", "/*", "'", "#", "<!--"}
)

const (
	blockOpener  = "/*"
	blockCloser  = "*/"
	markupOpener = "<!--"
	markupCloser = "-->"
)

// Match finds the first rule whose label starts the comment text and returns the
// range to highlight. It never fails loudly: any unmet precondition is a miss.
func Match(text string, code CodeType, rules []Rule) (Result, bool) {
	openers := commonOpeners
	if code == CodeTypeCSharp {
		openers = csharpOpeners
	}

	// markup classifiers may hand over the comment body without its opener
	opener := ""
	for _, o := range openers {
		if len(text) >= len(o) && strings.EqualFold(text[:len(o)], o) {
			opener = o
			break
		}
	}
	if opener == "" && code != CodeTypeMarkup {
		return Result{}, false
	}

	tl := len(text)
	commentStart := skipSpace(text, len(opener), tl)

	endOfContent := tl
	switch {
	case opener == markupOpener, code == CodeTypeMarkup:
		// markup comments must be closed, with or without the opener
		if !strings.HasSuffix(text, markupCloser) {
			return Result{}, false
		}
		endOfContent -= len(markupCloser)
	case opener == blockOpener && strings.HasSuffix(text, blockCloser) && tl >= len(blockOpener)+len(blockCloser):
		endOfContent -= len(blockCloser)
	}
	if endOfContent < commentStart {
		return Result{}, false
	}

	var (
		matched        *Rule
		startOfContent int
	)
	for i := range rules {
		rule := &rules[i]
		if rule.Label == "" {
			continue
		}
		labelEnd := commentStart + len(rule.Label)
		// the label must be followed by at least one character
		if labelEnd >= tl || !labelAt(text, commentStart, rule) {
			continue
		}

		following, size := utf8.DecodeRuneInString(text[labelEnd:])
		content := labelEnd
		if rule.AllowPunctuationDelimiter && unicode.IsPunct(following) {
			content += size
		} else if !unicode.IsSpace(following) {
			continue
		}

		matched = rule
		startOfContent = content
		break
	}
	if matched == nil {
		return Result{}, false
	}

	trimmed := position.TrimSpace(text, position.Span{Start: min(startOfContent, endOfContent), End: endOfContent})

	var span position.Span
	switch matched.Application {
	case TagOnly:
		span = position.NewSpan(commentStart, len(matched.Label))
	case ContentOnly:
		span = trimmed
	default:
		span = position.Span{Start: commentStart, End: endOfContent}
	}
	return Result{Rule: matched, Span: span}, true
}

func labelAt(text string, at int, rule *Rule) bool {
	candidate := text[at : at+len(rule.Label)]
	if rule.IgnoreCase {
		return strings.EqualFold(candidate, rule.Label)
	}
	return candidate == rule.Label
}

func skipSpace(text string, from, to int) int {
	for from < to {
		r, size := utf8.DecodeRuneInString(text[from:to])
		if !unicode.IsSpace(r) {
			break
		}
		from += size
	}
	return from
}
