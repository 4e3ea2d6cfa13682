package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, LevelFor(0))
	assert.Equal(t, zerolog.InfoLevel, LevelFor(1))
	assert.Equal(t, zerolog.DebugLevel, LevelFor(2))
	assert.Equal(t, zerolog.TraceLevel, LevelFor(7))
}

func TestGetLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupLogger(1, &buf)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	logger := GetLogger("registry")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "registry")
}
