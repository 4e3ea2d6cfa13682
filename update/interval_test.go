package update

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]Interval{"fast": Fast, " Medium ": Medium, "SLOW": Slow} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := Parse("hourly")
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Fast.Duration())
	assert.Equal(t, 23*time.Second, Slow.Duration())
	assert.Panics(t, func() { Interval(7).Duration() })
	assert.Equal(t, "Invalid(7)", Interval(7).String())
	assert.Equal(t, "Medium(5s)", Medium.String())
}
