package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewWithWriter("info", &buf, false)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("item completed", zap.String("item", "i1"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "item completed")
	assert.Contains(t, out, `"item": "i1"`)
}

func TestNewWithWriterRejectsUnknownLevel(t *testing.T) {
	_, err := NewWithWriter("verbose", &bytes.Buffer{}, false)
	assert.ErrorContains(t, err, "parsing log level")
}
