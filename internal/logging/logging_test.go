package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("branch", "denied").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "denied", line["branch"])
	assert.Equal(t, "orchestrator", line["app"])
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", "console")
	require.NoError(t, err)

	logger.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "info", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}
