package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AddsInstanceField(t *testing.T) {
	log := New("debug", "node-1")
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	log.WithField("method", "test").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "node-1", entry["instance"])
	assert.Equal(t, "test", entry["method"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("loud", "")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
