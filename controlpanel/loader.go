package controlpanel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/constructs-go/constructs/v10"
	"gopkg.in/yaml.v3"
)

// LoadConfigFromFile loads a StackConfig from a JSON or YAML file. The format
// is chosen by extension; anything other than .json is parsed as YAML.
func LoadConfigFromFile(path string) (StackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StackConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadConfigFromJSON(data)
	default:
		return LoadConfigFromYAML(data)
	}
}

// LoadConfigFromJSON parses and validates a StackConfig from JSON data.
func LoadConfigFromJSON(data []byte) (StackConfig, error) {
	var config StackConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return StackConfig{}, fmt.Errorf("parsing JSON config: %w", err)
	}
	return finishLoad(config)
}

// LoadConfigFromYAML parses and validates a StackConfig from YAML data.
func LoadConfigFromYAML(data []byte) (StackConfig, error) {
	var config StackConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return StackConfig{}, fmt.Errorf("parsing YAML config: %w", err)
	}
	return finishLoad(config)
}

func finishLoad(config StackConfig) (StackConfig, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return StackConfig{}, fmt.Errorf("invalid stack configuration: %w", err)
	}
	return config, nil
}

// NewStackFromFile creates a ControlPanelStack from a JSON or YAML config file.
func NewStackFromFile(scope constructs.Construct, path string, opts ...Option) (*ControlPanelStack, error) {
	config, err := LoadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	return NewControlPanelStack(scope, config, opts...)
}

// MustNewStackFromFile is like NewStackFromFile but panics on error.
func MustNewStackFromFile(scope constructs.Construct, path string, opts ...Option) *ControlPanelStack {
	stack, err := NewStackFromFile(scope, path, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create stack from %s: %v", path, err))
	}
	return stack
}
