// Package host declares what the overlay needs from the editor hosting it: a
// classifier producing categorized spans, and documents that can be reparsed
// into syntax trees and semantic models.
package host

import (
	"context"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/position"
	"github.com/walteh/tagoverlay/pkg/syntax"
)

// ErrDocumentClosed is returned when the view or document was torn down.
var ErrDocumentClosed = errors.Base("document closed")

// Category is the classification name the upstream classifier assigned.
type Category string

const (
	CategoryClassName           Category = "class name"
	CategoryInterfaceName       Category = "interface name"
	CategoryStructName          Category = "struct name"
	CategoryEnumName            Category = "enum name"
	CategoryPreprocessorKeyword Category = "preprocessor keyword"
	CategoryKeyword             Category = "keyword"
	CategoryComment             Category = "comment"
	CategoryXMLDocComment       Category = "xml doc comment - text"
	CategoryString              Category = "string"
	CategoryIdentifier          Category = "identifier"
)

// IsComment reports whether the category is any flavor of comment.
func (c Category) IsComment() bool {
	return strings.Contains(strings.ToLower(string(c)), "comment")
}

// ClassificationSpan is one span of upstream classifier output.
type ClassificationSpan struct {
	Span     position.Span
	Category Category
}

// VersionStamp identifies one version of a document's text.
type VersionStamp uint64

func (v VersionStamp) String() string {
	return strconv.FormatUint(uint64(v), 16)
}

// Snapshot is an immutable view of a document's text at one version.
type Snapshot struct {
	Version VersionStamp
	Text    string
}

func (s Snapshot) Len() int {
	return len(s.Text)
}

// ClassificationSource is the upstream classifier.
type ClassificationSource interface {
	// ClassificationSpans returns the spans of snap overlapping span, in document order.
	ClassificationSpans(snap Snapshot, span position.Span) []ClassificationSpan
	// OnBatchedChanges registers fn to be called after the classifier re-ran
	// on changed text. The returned function unregisters it.
	OnBatchedChanges(fn func()) (unsubscribe func())
}

// Document is one logical source document. Every accessor reflects the
// document's current text.
type Document interface {
	Path() string
	Version(ctx context.Context) (VersionStamp, error)
	SyntaxTree(ctx context.Context) (*syntax.Tree, error)
	SemanticModel(ctx context.Context) (Model, error)
	Workspace() Workspace
}

// Workspace finds sibling documents.
type Workspace interface {
	// FindDocument matches paths case-insensitively.
	FindDocument(path string) (Document, bool)
}

// View is an open editor on a document.
type View interface {
	// CurrentDocument returns the document with pending edits applied, or
	// ErrDocumentClosed once the view is gone.
	CurrentDocument(ctx context.Context) (Document, error)
}

// Model answers symbol questions about one syntax tree.
type Model interface {
	Tree() *syntax.Tree
	SymbolAt(offset int) (Symbol, bool)
	SymbolFor(node *syntax.Node) (Symbol, bool)
	// FindSimilar returns symbols of this model that correspond to sym,
	// which may come from another model of the same document.
	FindSimilar(sym Symbol) []Symbol
}

// Location is where a symbol is declared.
type Location struct {
	Path string
	Span position.Span
}

// Symbol is a named program entity.
type Symbol interface {
	Name() string
	Kind() syntax.Kind
	// Key identifies the symbol across reparses, e.g. "Acme.Widget.Draw/1".
	Key() string
	// External symbols come from compiled references, not from source.
	External() bool
	Declarations() []Location
}
