package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	l.Debug().Str("k", "v").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New("loud", "json", &buf)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}
