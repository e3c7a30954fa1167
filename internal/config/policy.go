package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rshade/tripcarbon/internal/carbon"
)

// LoadPolicy reads a YAML policy file. Fields missing from the file keep
// their default values. An empty path returns the default policy.
//
// Example:
//
//	passenger_surcharge_rate: 0.15
//	price_per_ton_brl: 45
//	minimum_compensation_brl: 9.84
func LoadPolicy(path string) (carbon.Policy, error) {
	policy := carbon.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return carbon.Policy{}, fmt.Errorf("reading policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return carbon.Policy{}, fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return carbon.Policy{}, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}
