package attribute_test

import (
	stderrors "errors"
	"testing"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type battery struct {
	level float64
	state int
}

var batteryStates = attribute.EnumTable{
	0: "Unknown",
	1: "Unplugged",
	2: "Charging",
	3: "Full",
}

func TestDynamicResolvesLiveValue(t *testing.T) {
	b := &battery{level: 0.5}
	attr := attribute.NewDynamic(attribute.Prop("batteryLevel", attribute.FloatOf(func() float64 { return b.level })), "", nil)

	first, ok := attr.Value()
	require.True(t, ok)

	b.level = 0.25
	second, ok := attr.Value()
	require.True(t, ok)

	assert.False(t, first.Equal(second))
	got, _ := second.AsFloat()
	assert.Equal(t, 0.25, got)
	assert.Equal(t, "Battery Level", attr.Title())
}

func TestDynamicTransform(t *testing.T) {
	mem := int64(2 << 30)
	attr := attribute.NewDynamic(attribute.Prop("totalMemory", attribute.IntOf(func() int64 { return mem })), "", attribute.MemoryBytes)

	v, ok := attr.Value()
	require.True(t, ok)
	assert.Equal(t, "2.0 GiB", v.String())

	raw, ok := attr.Raw()
	require.True(t, ok)
	n, _ := raw.AsInt()
	assert.Equal(t, mem, n)
}

func TestDynamicUnresolvable(t *testing.T) {
	tests := []struct {
		name string
		prop attribute.Property
		tf   attribute.Transformer
	}{
		{"nil getter", attribute.Property{Path: "missing"}, nil},
		{"getter reports failure", attribute.Prop("x", func() (attribute.Value, bool) { return attribute.Absent(), false }), nil},
		{"getter panics", attribute.Prop("x", func() (attribute.Value, bool) {
			var b *battery
			return attribute.Float(b.level), true
		}), nil},
		{"transform rejects kind", attribute.Prop("x", attribute.StringOf(func() string { return "n/a" })), attribute.FileBytes},
		{"transform panics", attribute.Prop("x", attribute.IntOf(func() int { return 3 })), func(attribute.Value) (attribute.Value, bool) {
			panic("boom")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := attribute.NewDynamic(tt.prop, "", tt.tf).Value()
			assert.False(t, ok)
			assert.True(t, v.IsAbsent())
		})
	}
}

func TestEnumMapping(t *testing.T) {
	b := &battery{state: 2}
	prop := attribute.Prop("batteryState", attribute.IntOf(func() int { return b.state })).
		Writable(func(v attribute.Value) error {
			n, _ := v.AsInt()
			b.state = int(n)
			return nil
		})
	attr := attribute.NewEnum(prop, "", batteryStates)

	v, ok := attr.Value()
	require.True(t, ok)
	assert.Equal(t, "Charging", v.String())

	b.state = 42
	v, ok = attr.Value()
	require.True(t, ok)
	n, isInt := v.AsInt()
	assert.True(t, isInt)
	assert.Equal(t, int64(42), n)

	require.NoError(t, attr.Apply(attribute.String("full")))
	assert.Equal(t, 3, b.state)

	require.NoError(t, attr.Apply(attribute.String("1")))
	assert.Equal(t, 1, b.state)

	require.NoError(t, attr.Apply(attribute.String("  Charging ")))
	assert.Equal(t, 2, b.state)

	err := attr.Apply(attribute.String("exploded"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrCoercion))
}

func TestStaticApply(t *testing.T) {
	name := "phone"
	attr := attribute.NewStatic("name", "Name", "device name", attribute.String(name)).
		WithSetter(func(v attribute.Value) error {
			name, _ = v.AsString()
			return nil
		})

	require.True(t, attr.Editable())
	require.NoError(t, attr.Apply(attribute.String("tablet")))
	assert.Equal(t, "tablet", name)

	v, _ := attr.Value()
	assert.Equal(t, "tablet", v.String())
}

func TestStaticTitleFromPath(t *testing.T) {
	tests := []struct {
		path, title, want string
	}{
		{"binaryPath", "", "Binary Path"},
		{"startTime", "", "Start Time"},
		{"pid", "PID", "PID"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			attr := attribute.NewStatic(tt.path, tt.title, "", attribute.String("x"))
			assert.Equal(t, tt.want, attr.Title())
		})
	}
}

func TestApplyFailures(t *testing.T) {
	readOnly := attribute.NewStatic("name", "Name", "", attribute.String("x"))
	err := readOnly.Apply(attribute.String("y"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotWritable))

	boom := stderrors.New("boom")
	failing := attribute.NewDynamic(attribute.Prop("alpha", attribute.FloatOf(func() float64 { return 1 })).
		Writable(func(attribute.Value) error { return boom }), "", nil)
	err = failing.Apply(attribute.Float(0.5))
	assert.True(t, errors.IsErrorCode(err, errors.ErrWrite))
	assert.ErrorIs(t, err, boom)

	err = attribute.NewPreview(attribute.Image{Width: 1, Height: 1}).Apply(attribute.String(""))
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotWritable))
}

func TestExplicitTitleWins(t *testing.T) {
	attr := attribute.NewDynamic(attribute.Prop("sysVer", attribute.StringOf(func() string { return "1" })).Titled("System Version"), "", nil)
	assert.Equal(t, "System Version", attr.Title())
	assert.Equal(t, "sysVer", attr.Path())
}
