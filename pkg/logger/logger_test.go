package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_ProductionWritesJSON(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetupWriter(&buf, "production", "info")
	Info("audit entry appended", "entity_id", "CUST-001")
	Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "audit entry appended", line["msg"])
	assert.Equal(t, "CUST-001", line["entity_id"])
	assert.Equal(t, "trust-api", line["service"])
}

func TestSetupWriter_Level(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	SetupWriter(&buf, "development", "warn")
	Info("skipped")
	Warn("kept")

	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "kept")
}
