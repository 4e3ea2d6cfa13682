// Package coordinator accumulates the attributes contributed for one
// inspected object into ordered groups.
//
// A Coordinator belongs to a single inspection session and is not safe for
// concurrent use. It holds a non-owning reference to the target; the host
// application keeps the target alive for the session.
package coordinator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/group"
)

// ExpansionSource reports a stored expanded/collapsed preference by group
// title.
type ExpansionSource interface {
	Expanded(title string) (bool, bool)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExpansion resolves ExpandedByDefault from src when a group is created.
func WithExpansion(src ExpansionSource) Option {
	return func(c *Coordinator) { c.expansion = src }
}

// WithLogger sets the logger used for tracing contributions.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = logger }
}

// Coordinator maps group keys to ordered attributes.
type Coordinator struct {
	target    any
	groups    map[group.Key]*group.Group
	created   []group.Key // first-use order
	expansion ExpansionSource
	log       zerolog.Logger
}

// New creates a coordinator bound to target.
func New(target any, opts ...Option) *Coordinator {
	c := &Coordinator{
		target: target,
		groups: make(map[group.Key]*group.Group),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the inspected object.
func (c *Coordinator) Target() any { return c.target }

// AppendStatic appends a value captured now.
func (c *Coordinator) AppendStatic(path, title, detail string, value attribute.Value, in group.Key) *Coordinator {
	c.groupFor(in).Append(attribute.NewStatic(path, title, detail, value))
	return c
}

// Append appends pre-built attributes, such as writable statics.
func (c *Coordinator) Append(in group.Key, attrs ...attribute.Attribute) *Coordinator {
	if len(attrs) == 0 {
		return c
	}
	c.groupFor(in).Append(attrs...)
	return c
}

// AppendDynamic appends one live attribute per property. Titles come from
// the property, or from its path when it has none.
func (c *Coordinator) AppendDynamic(in group.Key, props ...attribute.Property) *Coordinator {
	return c.AppendTransformed(in, nil, props...)
}

// AppendDynamicNamed is AppendDynamic with titles supplied by path.
func (c *Coordinator) AppendDynamicNamed(in group.Key, titles map[string]string, props ...attribute.Property) *Coordinator {
	named := make([]attribute.Property, len(props))
	for i, p := range props {
		if t, ok := titles[p.Path]; ok {
			p = p.Titled(t)
		}
		named[i] = p
	}
	return c.AppendTransformed(in, nil, named...)
}

// AppendTransformed appends live attributes whose displayed value passes
// through transform. A nil transform behaves like AppendDynamic.
func (c *Coordinator) AppendTransformed(in group.Key, transform attribute.Transformer, props ...attribute.Property) *Coordinator {
	if len(props) == 0 {
		return c
	}
	g := c.groupFor(in)
	for _, p := range props {
		g.Append(attribute.NewDynamic(p, "", transform))
	}
	return c
}

// AppendEnum appends live attributes whose raw integer is described by
// table.
func (c *Coordinator) AppendEnum(in group.Key, table attribute.EnumTable, props ...attribute.Property) *Coordinator {
	if len(props) == 0 {
		return c
	}
	g := c.groupFor(in)
	for _, p := range props {
		g.Append(attribute.NewEnum(p, "", table))
	}
	return c
}

// AppendPreview inserts img at the front of the preview group.
func (c *Coordinator) AppendPreview(img attribute.Image) *Coordinator {
	return c.AppendPreviewTo(group.Preview, img)
}

// AppendPreviewTo inserts img at the front of group in. Degenerate images
// are ignored.
func (c *Coordinator) AppendPreviewTo(in group.Key, img attribute.Image) *Coordinator {
	if img.IsDegenerate() {
		c.log.Trace().Int("width", img.Width).Int("height", img.Height).Msg("Skipping degenerate preview")
		return c
	}
	c.groupFor(in).Prepend(attribute.NewPreview(img))
	return c
}

// Group returns the group for key, if any attribute was appended to it.
func (c *Coordinator) Group(key group.Key) (*group.Group, bool) {
	g, ok := c.groups[key]
	return g, ok
}

// Groups returns the populated groups: built-ins in display order, then
// custom groups in the order they were first used.
func (c *Coordinator) Groups() []*group.Group {
	keys := make([]group.Key, len(c.created))
	copy(keys, c.created)
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Rank() < keys[j].Rank()
	})

	out := make([]*group.Group, len(keys))
	for i, k := range keys {
		out[i] = c.groups[k]
	}
	return out
}

// Len returns the number of groups.
func (c *Coordinator) Len() int { return len(c.groups) }

func (c *Coordinator) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coordinator(%T)", c.target)
	for _, g := range c.Groups() {
		b.WriteString("\n> ")
		b.WriteString(g.String())
	}
	return b.String()
}

func (c *Coordinator) groupFor(key group.Key) *group.Group {
	if g, ok := c.groups[key]; ok {
		return g
	}

	g := group.New(key)
	if c.expansion != nil {
		if expanded, ok := c.expansion.Expanded(g.Title); ok {
			g.ExpandedByDefault = expanded
		}
	}
	c.groups[key] = g
	c.created = append(c.created, key)

	c.log.Trace().Str("group", string(key)).Bool("expanded", g.ExpandedByDefault).Msg("Group created")
	return g
}
