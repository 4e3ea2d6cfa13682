package attribute

import (
	"testing"
	"time"

	"github.com/st-keller/inspection/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value Value
		want  string
	}{
		{Absent(), ""},
		{String("hello"), "hello"},
		{Int(-7), "-7"},
		{Float(0.75), "0.75"},
		{Bool(true), "true"},
		{ColorValue(Color{R: 255, G: 128, B: 0, A: 255}), "#FF8000"},
		{ColorValue(Color{R: 0, G: 0, B: 0, A: 0x80}), "#00000080"},
		{ImageValue(Image{Width: 320, Height: 150, Format: "png"}), "320x150 png"},
		{TimeValue(ts), "2024-03-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.value.Kind().String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#f80")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xff, G: 0x88, B: 0x00, A: 0xff}, c)

	c, err = ParseColor("11223344")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x11, G: 0x22, B: 0x33, A: 0x44}, c)

	_, err = ParseColor("#12345")
	assert.Error(t, err)
}

func TestTitleFromPath(t *testing.T) {
	tests := map[string]string{
		"batteryLevel":             "Battery Level",
		"device.systemVersion":     "System Version",
		"name":                     "Name",
		"totalCPUCount":            "Total CPU Count",
		"proximity_monitoring":     "Proximity Monitoring",
		"isUserInteractionEnabled": "Is User Interaction Enabled",
	}
	for path, want := range tests {
		assert.Equal(t, want, TitleFromPath(path), path)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		input string
		like  Value
		want  Value
	}{
		{"string", "abc", String("x"), String("abc")},
		{"absent", "abc", Absent(), String("abc")},
		{"int", " 42 ", Int(1), Int(42)},
		{"int falls back to name", "Charging", Int(1), String("Charging")},
		{"float", "0.5", Float(1), Float(0.5)},
		{"bool", "yes", Bool(false), Bool(true)},
		{"bool off", "off", Bool(true), Bool(false)},
		{"color", "#000000", ColorValue(Color{A: 255}), ColorValue(Color{A: 255})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.input, tt.like)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := Coerce("maybe", Bool(true))
	assert.True(t, errors.IsErrorCode(err, errors.ErrCoercion))

	_, err = Coerce("x", ImageValue(Image{Width: 1, Height: 1}))
	assert.True(t, errors.IsErrorCode(err, errors.ErrCoercion))
}

func TestByteTransformers(t *testing.T) {
	v, ok := FileBytes(Int(1_500_000))
	require.True(t, ok)
	assert.Equal(t, "1.5 MB", v.String())

	_, ok = MemoryBytes(Int(-1))
	assert.False(t, ok)

	v, ok = Percent(Float(0.5))
	require.True(t, ok)
	assert.Equal(t, "50%", v.String())
}

func TestImageDegenerate(t *testing.T) {
	assert.True(t, Image{Width: 0, Height: 10}.IsDegenerate())
	assert.True(t, Image{Width: 10}.IsDegenerate())
	assert.False(t, Image{Width: 1, Height: 1}.IsDegenerate())
}
