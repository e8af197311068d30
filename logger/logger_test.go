package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	New("production", &buf).Info("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
}

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := New("development", &buf)
	logger.Debug("debug line")

	assert.Contains(t, buf.String(), "debug line")
	assert.False(t, json.Valid(buf.Bytes()))
}
