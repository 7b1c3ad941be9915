package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProdIsJSONAndSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("prod", &buf)

	log.Debug("hidden")
	log.Info("optimization done", "steps", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "optimization done", rec["msg"])
	assert.Equal(t, "alumtrack", rec["service"])
	assert.Equal(t, 2.0, rec["steps"])
}

func TestDevLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter("dev", &buf).Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
