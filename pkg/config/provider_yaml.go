package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file, fills in
// defaults and validates it
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := Parse(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// Parse decodes YAML configuration data, applies defaults and validates
// the result
func Parse(data []byte) (*ConfigData, error) {
	config := &ConfigData{}
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
