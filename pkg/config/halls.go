package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HallConfig describes one bookable hall.
type HallConfig struct {
	Name     string `yaml:"name" json:"name"`
	Capacity int    `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	IsActive bool   `yaml:"is_active" json:"is_active"`
}

// HallsConfig is the root of halls.yaml.
type HallsConfig struct {
	Halls []HallConfig `yaml:"halls"`
}

// DefaultHalls is the catalogue used when no halls file is present.
func DefaultHalls() *HallsConfig {
	return &HallsConfig{Halls: []HallConfig{
		{Name: "Hall 1", IsActive: true},
		{Name: "Hall 2", IsActive: true},
		{Name: "Hall 3", IsActive: true},
	}}
}

// LoadHalls loads and validates the hall catalogue from a YAML file.
func LoadHalls(path string) (*HallsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read halls config: %w", err)
	}

	var cfg HallsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse halls config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate halls config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the catalogue for empty or duplicate names.
func (c *HallsConfig) Validate() error {
	if len(c.Halls) == 0 {
		return fmt.Errorf("no halls configured")
	}
	seen := make(map[string]bool, len(c.Halls))
	for i, h := range c.Halls {
		name := strings.TrimSpace(h.Name)
		if name == "" {
			return fmt.Errorf("hall %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("hall %q: duplicate name", name)
		}
		seen[name] = true
		c.Halls[i].Name = name
	}
	return nil
}

// Names returns the names of active halls in file order.
func (c *HallsConfig) Names() []string {
	names := make([]string, 0, len(c.Halls))
	for _, h := range c.Halls {
		if h.IsActive {
			names = append(names, h.Name)
		}
	}
	return names
}
