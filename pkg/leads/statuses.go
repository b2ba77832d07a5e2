package leads

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusConfig is the operator-facing workflow allow-list. The storage layer
// keeps status as free text; only status updates through the service are
// checked against this set.
type StatusConfig struct {
	Statuses []string `yaml:"statuses" json:"statuses"`
}

func LoadStatusConfig(path string) (StatusConfig, error) {
	if path == "" {
		return DefaultStatuses(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultStatuses(), err
	}

	var cfg StatusConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return StatusConfig{}, err
	}

	if len(cfg.Statuses) == 0 {
		return StatusConfig{}, errors.New("no lead statuses configured")
	}

	return cfg, nil
}

func DefaultStatuses() StatusConfig {
	return StatusConfig{Statuses: []string{"new", "contacted", "qualified", "converted", "closed"}}
}

func (c StatusConfig) Allowed(status string) bool {
	needle := strings.TrimSpace(strings.ToLower(status))
	for _, s := range c.Statuses {
		if strings.EqualFold(strings.TrimSpace(s), needle) {
			return true
		}
	}
	return false
}
