/*
Package style names the highlight tags the overlay emits.

Tags are looked up through a Registry that is built once at startup and handed
to every tagger, instead of being resolved from process-wide tables:

	config label rule --(style.ID)--> Registry --> Tag{Classification}
	upstream category ----------------> Registry --> Tag (pass-through)
*/
package style

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ID identifies a comment label style.
type ID int

const (
	Emphasis ID = iota
	Exclamation
	Question
	ToDo
	Note
	Hack
	Undone
	Heading1
	Heading2
	Heading3
	Task1
	Task2
	Task3
)

var idNames = map[ID]string{
	Emphasis:    "emphasis",
	Exclamation: "exclamation",
	Question:    "question",
	ToDo:        "todo",
	Note:        "note",
	Hack:        "hack",
	Undone:      "undone",
	Heading1:    "heading1",
	Heading2:    "heading2",
	Heading3:    "heading3",
	Task1:       "task1",
	Task2:       "task2",
	Task3:       "task3",
}

// String returns the configuration name of the style
func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return "unknown"
}

// ParseID resolves a configuration name such as "todo" to its ID.
func ParseID(name string) (ID, error) {
	for id, n := range idNames {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return 0, errors.Errorf("unknown comment style %q", name)
}

// Tag is the classification a tagged span is drawn with.
type Tag struct {
	Classification string
}

func (t Tag) String() string {
	return t.Classification
}

const (
	abstractionClassification = "overlay: abstraction keyword"
	commentPrefix             = "overlay: comment "
	markdownHeadingPrefix     = "overlay: markdown heading "
)

// Registry maps style identifiers to tags. It is read-only once built.
type Registry struct {
	comments    map[ID]Tag
	headings    [7]Tag
	abstraction Tag
}

// NewRegistry builds the registry with one tag per comment style and markdown heading level.
func NewRegistry() *Registry {
	r := &Registry{
		comments:    make(map[ID]Tag, len(idNames)),
		abstraction: Tag{Classification: abstractionClassification},
	}
	for id, name := range idNames {
		r.comments[id] = Tag{Classification: commentPrefix + name}
	}
	for level := 1; level < len(r.headings); level++ {
		r.headings[level] = Tag{Classification: markdownHeadingPrefix + string(rune('0'+level))}
	}
	return r
}

func (r *Registry) Comment(id ID) (Tag, bool) {
	t, ok := r.comments[id]
	return t, ok
}

func (r *Registry) Abstraction() Tag {
	return r.abstraction
}

// Heading returns the tag of a markdown heading level (1-6).
func (r *Registry) Heading(level int) (Tag, bool) {
	if level < 1 || level >= len(r.headings) {
		return Tag{}, false
	}
	return r.headings[level], true
}

// PassThrough decorates a span with the upstream classification itself.
func (r *Registry) PassThrough(classification string) Tag {
	return Tag{Classification: classification}
}
