package attribute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/st-keller/inspection/errors"
)

// Variant identifies an attribute variant.
type Variant string

const (
	VariantStatic  Variant = "static"
	VariantDynamic Variant = "dynamic"
	VariantEnum    Variant = "enum"
	VariantPreview Variant = "preview"
)

// Attribute is one displayable fact about an inspected object.
type Attribute interface {
	Title() string
	Detail() string
	Path() string
	Variant() Variant
	// Value resolves the value to display. Resolution never writes to the
	// model; false means the value could not be resolved.
	Value() (Value, bool)
	// Editable reports whether Apply can write back to the model.
	Editable() bool
	// Apply writes v back to the model through the property's setter.
	Apply(v Value) error
}

// Static holds a value captured at registration time.
type Static struct {
	path   string
	title  string
	detail string
	value  Value
	set    Setter
}

// NewStatic creates a static attribute. path is only used to route edits
// and, when title is empty, to derive the title.
func NewStatic(path, title, detail string, value Value) *Static {
	if title == "" {
		title = TitleFromPath(path)
	}
	return &Static{path: path, title: title, detail: detail, value: value}
}

// WithSetter makes the attribute editable.
func (s *Static) WithSetter(set Setter) *Static {
	s.set = set
	return s
}

func (s *Static) Title() string        { return s.title }
func (s *Static) Detail() string       { return s.detail }
func (s *Static) Path() string         { return s.path }
func (s *Static) Variant() Variant     { return VariantStatic }
func (s *Static) Editable() bool       { return s.set != nil }
func (s *Static) Value() (Value, bool) { return s.value, !s.value.IsAbsent() }

// Apply writes v through the setter and, on success, replaces the captured
// value so the row shows the edit.
func (s *Static) Apply(v Value) error {
	if err := write(s.path, s.set, v); err != nil {
		return err
	}
	s.value = v
	return nil
}

func (s *Static) String() string { return describe(s) }

// Dynamic resolves its value from the live object on every read.
type Dynamic struct {
	prop      Property
	title     string
	detail    string
	transform Transformer
}

// NewDynamic creates a dynamic attribute. transform may be nil.
func NewDynamic(prop Property, detail string, transform Transformer) *Dynamic {
	return &Dynamic{prop: prop, title: prop.DisplayTitle(), detail: detail, transform: transform}
}

func (d *Dynamic) Title() string    { return d.title }
func (d *Dynamic) Detail() string   { return d.detail }
func (d *Dynamic) Path() string     { return d.prop.Path }
func (d *Dynamic) Variant() Variant { return VariantDynamic }
func (d *Dynamic) Editable() bool   { return d.prop.Set != nil }

// Raw resolves the untransformed value.
func (d *Dynamic) Raw() (Value, bool) {
	return d.prop.resolve()
}

func (d *Dynamic) Value() (Value, bool) {
	v, ok := d.prop.resolve()
	if !ok {
		return Absent(), false
	}
	if d.transform == nil {
		return v, true
	}
	return d.transformed(v)
}

// transformed applies the transformer, treating a panic as unresolvable.
func (d *Dynamic) transformed(v Value) (out Value, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = Absent(), false
		}
	}()
	out, ok = d.transform(v)
	if !ok {
		return Absent(), false
	}
	return out, true
}

func (d *Dynamic) Apply(v Value) error { return write(d.prop.Path, d.prop.Set, v) }

func (d *Dynamic) String() string { return describe(d) }

// Enum resolves a raw integer and maps it through a description table.
type Enum struct {
	prop   Property
	title  string
	detail string
	table  EnumTable
}

// NewEnum creates an enum attribute over table.
func NewEnum(prop Property, detail string, table EnumTable) *Enum {
	return &Enum{prop: prop, title: prop.DisplayTitle(), detail: detail, table: table}
}

func (e *Enum) Title() string    { return e.title }
func (e *Enum) Detail() string   { return e.detail }
func (e *Enum) Path() string     { return e.prop.Path }
func (e *Enum) Variant() Variant { return VariantEnum }
func (e *Enum) Editable() bool   { return e.prop.Set != nil }
func (e *Enum) Table() EnumTable { return e.table }

// Value returns the mapped description, or the raw value when the table has
// no entry for it.
func (e *Enum) Value() (Value, bool) {
	raw, ok := e.prop.resolve()
	if !ok {
		return Absent(), false
	}
	n, isInt := raw.AsInt()
	if !isInt {
		return raw, true
	}
	if desc, found := e.table.Describe(int(n)); found {
		return String(desc), true
	}
	return raw, true
}

// Apply accepts either the raw integer or one of the table's descriptions.
func (e *Enum) Apply(v Value) error {
	if s, ok := v.AsString(); ok {
		s = strings.TrimSpace(s)
		raw, found := e.table.Lookup(s)
		if !found {
			raw, found = parseRaw(s)
		}
		if !found {
			return errors.Newf(errors.ErrCoercion, "%q is not a %s value", s, e.title).
				WithDetail("path", e.prop.Path)
		}
		v = Int(int64(raw))
	}
	return write(e.prop.Path, e.prop.Set, v)
}

func (e *Enum) String() string { return describe(e) }

// Preview wraps an image for thumbnail display.
type Preview struct {
	image Image
}

// NewPreview creates a preview attribute.
func NewPreview(img Image) *Preview {
	return &Preview{image: img}
}

func (p *Preview) Title() string        { return "Preview" }
func (p *Preview) Detail() string       { return "" }
func (p *Preview) Path() string         { return "" }
func (p *Preview) Variant() Variant     { return VariantPreview }
func (p *Preview) Editable() bool       { return false }
func (p *Preview) Image() Image         { return p.image }
func (p *Preview) Value() (Value, bool) { return ImageValue(p.image), true }

func (p *Preview) Apply(Value) error {
	return errors.New(errors.ErrNotWritable, "previews are read-only")
}

func (p *Preview) String() string { return describe(p) }

func parseRaw(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func write(path string, set Setter, v Value) error {
	if set == nil {
		return errors.Newf(errors.ErrNotWritable, "property %q is read-only", path)
	}
	if err := set(v); err != nil {
		return errors.Wrapf(err, errors.ErrWrite, "writing %q", path)
	}
	return nil
}

func describe(a Attribute) string {
	v, ok := a.Value()
	if !ok {
		return fmt.Sprintf("%s(%s)", a.Variant(), a.Title())
	}
	return fmt.Sprintf("%s(%s: %s)", a.Variant(), a.Title(), v)
}
