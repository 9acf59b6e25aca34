package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, &buf, "warn", "production")

	l.Info("hidden")
	l.WithField("week_id", "2025-01-06").Warn("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "2025-01-06", entry["week_id"])
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, &buf, "chatty", "development")

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}
