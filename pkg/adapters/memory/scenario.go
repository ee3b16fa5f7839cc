package memory

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scenario is the YAML shape consumed by `waygate run --scenario`: a whole
// simulated host (geometry, subject, loadable contexts, prices) in one
// file.
type Scenario struct {
	Geometry []Box              `yaml:"geometry"`
	Nav      []NavPatch         `yaml:"nav"`
	Subject  SubjectSpec        `yaml:"subject"`
	Contexts []ContextSpec      `yaml:"contexts"`
	Prices   map[string]float64 `yaml:"prices"`
}

// ParseScenario decodes a scenario document and materializes the world and
// loader it describes.
func ParseScenario(data []byte) (*World, *Loader, Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, nil, sc, fmt.Errorf("invalid scenario: %w", err)
	}
	if len(sc.Contexts) == 0 {
		return nil, nil, sc, fmt.Errorf("invalid scenario: no contexts defined")
	}

	world := NewWorld()
	for _, b := range sc.Geometry {
		world.AddBox(b)
	}
	for _, p := range sc.Nav {
		world.AddNavPatch(p)
	}
	if sc.Subject.Name == "" && sc.Subject.Tag == "" {
		sc.Subject = SubjectSpec{Tag: "Player", Name: "Subject", HasController: true}
	}
	world.PlaceSubject(sc.Subject)

	loader := NewLoader(world)
	for _, c := range sc.Contexts {
		if c.ID == "" {
			return nil, nil, sc, fmt.Errorf("invalid scenario: context without id")
		}
		loader.AddContext(c)
	}
	return world, loader, sc, nil
}
