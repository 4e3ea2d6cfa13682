package attribute

import "time"

// Getter resolves the current value of a property on the live object.
// It returns false when the value cannot be resolved.
type Getter func() (Value, bool)

// Setter writes a value back to the live object.
type Setter func(Value) error

// Property is an accessor pair captured at registration time. Path names the
// property for display and edit routing; it is never evaluated.
type Property struct {
	Path  string
	Title string
	Get   Getter
	Set   Setter
}

// Prop creates a read-only property.
func Prop(path string, get Getter) Property {
	return Property{Path: path, Get: get}
}

// Titled returns a copy of p with an explicit display title.
func (p Property) Titled(title string) Property {
	p.Title = title
	return p
}

// Writable returns a copy of p with a setter.
func (p Property) Writable(set Setter) Property {
	p.Set = set
	return p
}

// DisplayTitle returns the explicit title or one derived from the path.
func (p Property) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return TitleFromPath(p.Path)
}

// resolve calls the getter, treating a nil getter or panic as unresolvable.
func (p Property) resolve() (v Value, ok bool) {
	if p.Get == nil {
		return Absent(), false
	}
	defer func() {
		if recover() != nil {
			v, ok = Absent(), false
		}
	}()
	return p.Get()
}

func StringOf(fn func() string) Getter {
	return func() (Value, bool) { return String(fn()), true }
}

func IntOf[T ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](fn func() T) Getter {
	return func() (Value, bool) { return Int(int64(fn())), true }
}

func FloatOf[T ~float32 | ~float64](fn func() T) Getter {
	return func() (Value, bool) { return Float(float64(fn())), true }
}

func BoolOf(fn func() bool) Getter {
	return func() (Value, bool) { return Bool(fn()), true }
}

func TimeOf(fn func() time.Time) Getter {
	return func() (Value, bool) { return TimeValue(fn()), true }
}

// Fallible adapts a getter that reports its own failure.
func Fallible[T any](fn func() (T, error), wrap func(T) Value) Getter {
	return func() (Value, bool) {
		v, err := fn()
		if err != nil {
			return Absent(), false
		}
		return wrap(v), true
	}
}
