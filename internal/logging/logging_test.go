package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "json", &buf)
	log.Info().Msg("dropped")
	log.Warn().Str("k", "v").Msg("kept")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "v", line["k"])
	assert.Contains(t, line, "time")
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", "console", &buf)
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
