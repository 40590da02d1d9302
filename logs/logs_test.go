package logs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkflow/chunkflow/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("node", "join").Msg("stalled")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"node":"join"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{}, &buf)
	require.NoError(t, err)

	logger.Info().Int("pass", 3).Msg("run finished")
	assert.Contains(t, buf.String(), "run finished")
	assert.Contains(t, buf.String(), "pass=3")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
