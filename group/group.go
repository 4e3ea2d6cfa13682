// Package group defines the named, ordered buckets attributes are shown in.
package group

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/st-keller/inspection/attribute"
)

// Key identifies a group within one inspection session.
type Key string

const (
	Preview    Key = "preview"
	General    Key = "general"
	States     Key = "states"
	Appearance Key = "appearance"
	Layout     Key = "layout"
)

type builtin struct {
	title    string
	expanded bool
	rank     int
}

var builtins = map[Key]builtin{
	Preview:    {title: "Preview", expanded: true, rank: 0},
	General:    {title: "General", expanded: true, rank: 1},
	States:     {title: "States", expanded: false, rank: 2},
	Appearance: {title: "Appearance", expanded: false, rank: 3},
	Layout:     {title: "Layout", expanded: false, rank: 4},
}

var titleCaser = cases.Title(language.English)

// Builtins returns the predefined keys in display order.
func Builtins() []Key {
	return []Key{Preview, General, States, Appearance, Layout}
}

// IsBuiltin reports whether k is one of the predefined keys.
func (k Key) IsBuiltin() bool {
	_, ok := builtins[k]
	return ok
}

// Title returns the presentation label for k.
func (k Key) Title() string {
	if b, ok := builtins[k]; ok {
		return b.title
	}
	return titleCaser.String(strings.ReplaceAll(string(k), "_", " "))
}

// DefaultExpanded returns whether a group starts expanded when no
// preference has been stored. Custom groups start expanded.
func (k Key) DefaultExpanded() bool {
	if b, ok := builtins[k]; ok {
		return b.expanded
	}
	return true
}

// Rank orders built-in groups before custom ones.
func (k Key) Rank() int {
	if b, ok := builtins[k]; ok {
		return b.rank
	}
	return len(builtins)
}

// Group is an ordered sequence of attributes.
type Group struct {
	Key               Key
	Title             string
	ExpandedByDefault bool

	attributes []attribute.Attribute
}

// New creates an empty group with the key's title and default expansion.
func New(key Key) *Group {
	return &Group{
		Key:               key,
		Title:             key.Title(),
		ExpandedByDefault: key.DefaultExpanded(),
	}
}

// Append adds attributes at the end, preserving their order.
func (g *Group) Append(attrs ...attribute.Attribute) {
	g.attributes = append(g.attributes, attrs...)
}

// Prepend inserts a at index 0.
func (g *Group) Prepend(a attribute.Attribute) {
	g.attributes = append([]attribute.Attribute{a}, g.attributes...)
}

// Attributes returns a copy of the ordered attributes.
func (g *Group) Attributes() []attribute.Attribute {
	out := make([]attribute.Attribute, len(g.attributes))
	copy(out, g.attributes)
	return out
}

// At returns the attribute at index i.
func (g *Group) At(i int) (attribute.Attribute, bool) {
	if i < 0 || i >= len(g.attributes) {
		return nil, false
	}
	return g.attributes[i], true
}

// Len returns the number of attributes.
func (g *Group) Len() int { return len(g.attributes) }

func (g *Group) String() string {
	var b strings.Builder
	b.WriteString(g.Title)
	for _, a := range g.attributes {
		b.WriteString("\n  - ")
		if s, ok := a.(interface{ String() string }); ok {
			b.WriteString(s.String())
		} else {
			b.WriteString(a.Title())
		}
	}
	return b.String()
}
