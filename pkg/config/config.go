package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceMetadata is the name/labels block every document carries,
// unused beyond identification but kept for parity with the YAML
// envelope the rest of this module's documents share.
type ResourceMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// EngineConfig is the sizing knobs a deployment tunes: registry/
// instance/observation capacities and the default CoAP block size.
// Fields left zero fall back to the defaults DefaultEngineConfig
// returns.
type EngineConfig struct {
	RegistryCapacity             int `yaml:"registryCapacity"`
	DefaultInstanceCapacity      int `yaml:"defaultInstanceCapacity"`
	DefaultMultiResourceCapacity int `yaml:"defaultMultiResourceCapacity"`
	ObservationCapacity          int `yaml:"observationCapacity"`
	DefaultBlockSize             int `yaml:"defaultBlockSize"`
}

// engineConfigDocument is the on-disk envelope:
//
//	apiVersion: sdm/v1
//	kind: EngineConfig
//	metadata:
//	  name: default
//	spec:
//	  registryCapacity: 16
//	  ...
type engineConfigDocument struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       EngineConfig     `yaml:"spec"`
}

// DefaultEngineConfig returns the sizing this module uses when no
// config file is given.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RegistryCapacity:             16,
		DefaultInstanceCapacity:      4,
		DefaultMultiResourceCapacity: 8,
		ObservationCapacity:          32,
		DefaultBlockSize:             1024,
	}
}

// LoadEngineConfig reads an EngineConfig document from path. Any spec
// field left at its zero value is filled from DefaultEngineConfig.
func LoadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc engineConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc.Kind != "" && doc.Kind != "EngineConfig" {
		return EngineConfig{}, fmt.Errorf("unsupported config kind: %s", doc.Kind)
	}

	cfg := doc.Spec
	def := DefaultEngineConfig()
	if cfg.RegistryCapacity == 0 {
		cfg.RegistryCapacity = def.RegistryCapacity
	}
	if cfg.DefaultInstanceCapacity == 0 {
		cfg.DefaultInstanceCapacity = def.DefaultInstanceCapacity
	}
	if cfg.DefaultMultiResourceCapacity == 0 {
		cfg.DefaultMultiResourceCapacity = def.DefaultMultiResourceCapacity
	}
	if cfg.ObservationCapacity == 0 {
		cfg.ObservationCapacity = def.ObservationCapacity
	}
	if cfg.DefaultBlockSize == 0 {
		cfg.DefaultBlockSize = def.DefaultBlockSize
	}
	return cfg, nil
}
