package cashcow

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios_seed.yaml
var seedScenariosYAML []byte

type seedFile struct {
	Scenarios []seedScenario `yaml:"scenarios"`
}

type seedScenario struct {
	Name            string             `yaml:"name"`
	Description     string             `yaml:"description"`
	Assumptions     map[string]any     `yaml:"assumptions"`
	EntityFilters   seedEntityFilters  `yaml:"entity_filters"`
	EntityOverrides []seedOverrideRule `yaml:"entity_overrides"`
}

type seedEntityFilters struct {
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	IncludeTags     []string `yaml:"include_tags"`
	ExcludeTags     []string `yaml:"exclude_tags"`
}

type seedOverrideRule struct {
	EntityType  string   `yaml:"entity_type"`
	NamePattern string   `yaml:"name_pattern"`
	Entity      string   `yaml:"entity"`
	Field       string   `yaml:"field"`
	Value       any      `yaml:"value"`
	Multiplier  *float64 `yaml:"multiplier"`
}

// SeedScenarios decodes the four built-in scenarios (baseline, optimistic,
// conservative, cash_preservation — spec §4.6) from embedded YAML, the same
// "seed data, not hard-coded behavior" discipline finance-forecast uses for
// its account configuration.
func SeedScenarios() ([]Scenario, error) {
	var file seedFile
	if err := yaml.Unmarshal(seedScenariosYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed scenarios: %w", err)
	}

	scenarios := make([]Scenario, 0, len(file.Scenarios))
	for _, s := range file.Scenarios {
		scenarios = append(scenarios, Scenario{
			Name:        s.Name,
			Description: s.Description,
			Assumptions: s.Assumptions,
			EntityFilters: EntityFilters{
				IncludePatterns: s.EntityFilters.IncludePatterns,
				ExcludePatterns: s.EntityFilters.ExcludePatterns,
				IncludeTags:     s.EntityFilters.IncludeTags,
				ExcludeTags:     s.EntityFilters.ExcludeTags,
			},
			EntityOverrides: seedOverrideRules(s.EntityOverrides),
		})
	}
	return scenarios, nil
}

func seedOverrideRules(raw []seedOverrideRule) []OverrideRule {
	rules := make([]OverrideRule, len(raw))
	for i, r := range raw {
		rules[i] = OverrideRule{
			EntityType:  EntityType(r.EntityType),
			NamePattern: r.NamePattern,
			Entity:      r.Entity,
			Field:       r.Field,
			Value:       r.Value,
			Multiplier:  r.Multiplier,
		}
	}
	return rules
}

// RegisterSeedScenarios loads and registers the built-in scenarios into a
// ScenarioManager. Callers that want custom scenarios alongside the seed
// set call this first, then Register their own on top.
func RegisterSeedScenarios(m *ScenarioManager) error {
	scenarios, err := SeedScenarios()
	if err != nil {
		return err
	}
	for _, s := range scenarios {
		m.Register(s)
	}
	return nil
}
