package cloud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
recognizer:
  numPoints: 64
  variant: quantized
  lutSize: 8
library: /data/gestures.json.zst
mqtt:
  broker: tcp://localhost:1883
  subscribeTopic: pen/recognize
  publishPrefix: pen
  maxPerSecond: 20
minScore: 0.8
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 64, config.Recognizer.NumPoints)
	assert.Equal(t, VariantQuantized, config.Recognizer.Variant)
	assert.Equal(t, 8, config.Recognizer.LUTSize)
	assert.Equal(t, "/data/gestures.json.zst", config.Library)
	assert.Equal(t, "tcp://localhost:1883", config.MQTT.Broker)
	assert.Equal(t, "pen/recognize", config.MQTT.SubscribeTopic)
	assert.Equal(t, "pen", config.MQTT.PublishPrefix)
	assert.Equal(t, 20.0, config.MQTT.MaxPerSecond)
	assert.Equal(t, 0.8, config.MinScore)

	// untouched fields keep their defaults
	assert.Equal(t, "tudogesture", config.MQTT.ClientID)
	assert.Equal(t, "tudogesture/learn", config.MQTT.LearnTopic)
	assert.Equal(t, DefaultMaxIntCoord, config.Recognizer.MaxIntCoord)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "minScore: 0.5\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.MinScore = 0.5
	assert.Equal(t, want, config)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "recognizer: [", "parsing config YAML"},
		{"too few points", "recognizer:\n  numPoints: 2\n", "recognizer.numPoints"},
		{"unknown variant", "recognizer:\n  variant: rubine\n", "recognizer.variant"},
		{"negative lut", "recognizer:\n  lutSize: -4\n", "recognizer.lutSize"},
		{"min score above one", "minScore: 1.5\n", "minScore"},
		{"negative rate", "mqtt:\n  maxPerSecond: -1\n", "mqtt.maxPerSecond"},
		{"broker without topic", "mqtt:\n  broker: tcp://x:1883\n  subscribeTopic: \"\"\n", "mqtt.subscribeTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()
	config.Recognizer.Variant = VariantQuantized
	config.MQTT.Broker = "tcp://broker:1883"

	require.NoError(t, SaveConfig(path, config))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}
