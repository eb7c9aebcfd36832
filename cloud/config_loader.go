package cloud

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Recognizer: DefaultOptions(),
		Library:    "gestures.json",
		MQTT: MQTTConfig{
			ClientID:       "tudogesture",
			SubscribeTopic: "tudogesture/recognize",
			LearnTopic:     "tudogesture/learn",
			PublishPrefix:  "tudogesture",
		},
	}
}

// LoadConfig loads the configuration from a YAML file. Omitted fields keep
// the values from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the fields a recognizer or service cannot run without.
func (c *Config) Validate() error {
	r := c.Recognizer
	if r.NumPoints < 3 {
		return fmt.Errorf("recognizer.numPoints must be at least 3, got %d", r.NumPoints)
	}
	if r.Variant != "" && !r.Variant.Valid() {
		return fmt.Errorf("recognizer.variant must be %q or %q, got %q", VariantAngle, VariantQuantized, r.Variant)
	}
	if r.LUTSize < 0 {
		return fmt.Errorf("recognizer.lutSize must not be negative")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("minScore must be between 0 and 1, got %.2f", c.MinScore)
	}
	if c.MQTT.MaxPerSecond < 0 {
		return fmt.Errorf("mqtt.maxPerSecond must not be negative")
	}
	if c.MQTT.Broker != "" && c.MQTT.SubscribeTopic == "" {
		return fmt.Errorf("mqtt.subscribeTopic is required when mqtt.broker is set")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
