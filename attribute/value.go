// Package attribute defines the facts an inspection session displays about
// a live object: a small tagged Value type, accessor-based properties and the
// static, dynamic, enum and preview attribute variants.
package attribute

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindColor
	KindImage
	KindTime
)

// String returns string representation.
func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindColor:
		return "color"
	case KindImage:
		return "image"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("Invalid(%d)", int(k))
	}
}

// Value is a displayable attribute value. The zero Value is absent.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	c    Color
	img  Image
	t    time.Time
}

func Absent() Value            { return Value{} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func ColorValue(c Color) Value { return Value{kind: KindColor, c: c} }
func ImageValue(i Image) Value { return Value{kind: KindImage, img: i} }
func TimeValue(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v holds nothing.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsColor() (Color, bool)   { return v.c, v.kind == KindColor }
func (v Value) AsImage() (Image, bool)   { return v.img, v.kind == KindImage }
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// String formats v for display. Absent values format as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindColor:
		return v.c.Hex()
	case KindImage:
		return fmt.Sprintf("%dx%d %s", v.img.Width, v.img.Height, v.img.Format)
	case KindTime:
		return v.t.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and content.
// Image payloads compare by dimensions and format only.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindImage:
		return v.img.Width == o.img.Width && v.img.Height == o.img.Height && v.img.Format == o.img.Format
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return v.s == o.s && v.i == o.i && v.f == o.f && v.b == o.b && v.c == o.c
	}
}

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Hex formats c as #RRGGBB, or #RRGGBBAA when not fully opaque.
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA (leading # optional).
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// Image is an encoded image artifact used for previews.
type Image struct {
	Width  int
	Height int
	Format string // "png", "jpeg", ...
	Data   []byte
}

// IsDegenerate reports a zero (or negative) width or height.
func (i Image) IsDegenerate() bool {
	return i.Width <= 0 || i.Height <= 0
}
