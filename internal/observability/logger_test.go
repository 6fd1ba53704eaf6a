package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("component", "test").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "test", line["component"])
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", "text")
	assert.Error(t, err)
}

func TestMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ChecksTotal.WithLabelValues("notified").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ChecksTotal.WithLabelValues("notified")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ChecksTotal.WithLabelValues("notified")))
}
