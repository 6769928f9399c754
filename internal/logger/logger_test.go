package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_Release Тест на JSON формат в продакшн окружении.
func TestNew_Release(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	l := New(&buf)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l.WithField("orderID", 7).Info("order created")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order created", entry["message"])
	assert.InDelta(t, 7, entry["orderID"], 0)
}

// TestNew_Level Тест на переопределение уровня логирования.
func TestNew_Level(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, logrus.WarnLevel, New(&bytes.Buffer{}).GetLevel())

	t.Setenv("LOG_LEVEL", "loud")
	assert.Equal(t, logrus.DebugLevel, New(&bytes.Buffer{}).GetLevel())
}
