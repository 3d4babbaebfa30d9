package resources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vajain-rhods/openvino-model-server/pipeline/refengine"
)

// NodeConfig describes one node instance's resource bundle in the registry
// config file. Real deployments would point this at a real engine's
// connection details; this module only ships the reference engine, so the
// fields configure refengine.New directly.
type NodeConfig struct {
	Name          string `yaml:"name"`
	MaxConcurrent int64  `yaml:"max_concurrent"`
	Reply         string `yaml:"reply"`
}

// Config is the top-level resource registry document, grounded in
// theawakener0-OpenEye's internal/config package style of a flat YAML
// struct loaded once at startup.
type Config struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

// LoadConfig reads and parses a resource registry file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("resources: reading config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("resources: parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// Build instantiates the reference engine for each configured node and
// returns a populated Map, ready to be handed to calculators at Open.
func Build(cfg Config) *Map {
	m := NewMap()
	for _, n := range cfg.Nodes {
		maxConcurrent := n.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 8
		}
		engine := refengine.New(maxConcurrent, n.Reply)
		m.Set(n.Name, Bundle{
			Pipeline: engine,
			Notifier: func() {},
		})
	}
	return m
}
