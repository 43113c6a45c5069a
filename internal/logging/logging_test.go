package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "gateway", "info")

	require.NoError(t, level.Info(logger).Log("msg", "hello", "tier", "lowCost"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "gateway", line["component"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "lowCost", line["tier"])
	assert.Contains(t, line, "ts")
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "gateway", "warn")

	_ = level.Info(logger).Log("msg", "dropped")
	assert.Zero(t, buf.Len())

	_ = level.Warn(logger).Log("msg", "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	assert.NoError(t, OrNop(nil).Log("msg", "x"))
}
