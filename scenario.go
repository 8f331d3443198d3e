package cashcow

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// EntityStore is the read-only collaborator the scenario manager resolves
// entities through (spec §6.2). Persistence, indexing, and file layout are
// the store's concern, not this package's.
type EntityStore interface {
	LoadAll() ([]*Entity, error)
	LoadByType(t EntityType) ([]*Entity, error)
	Invalidate()
}

// EntityFilters narrows a scenario's working entity set by name glob and
// tag membership (spec §4.6).
type EntityFilters struct {
	IncludePatterns []string
	ExcludePatterns []string
	IncludeTags     []string
	ExcludeTags     []string
}

// OverrideRule rewrites one field on every entity it selects. Exactly one
// of Value or Multiplier should be set: Value performs a "set", Multiplier
// performs a "scale" (new = old * Multiplier).
type OverrideRule struct {
	EntityType  EntityType // empty = no type filter
	NamePattern string     // glob against entity.Name; ignored when Entity is set
	Entity      string     // exact entity name; takes precedence over NamePattern

	Field      string
	Value      any
	Multiplier *float64
}

// matches reports whether this rule applies to e. Entity (exact name) is
// the more specific selector: when a rule carries both Entity and
// NamePattern, Entity alone decides the match and NamePattern is ignored.
func (r OverrideRule) matches(e *Entity) bool {
	if r.EntityType != "" && r.EntityType != e.Type {
		return false
	}
	if r.Entity != "" {
		return r.Entity == e.Name
	}
	if r.NamePattern != "" {
		ok, err := filepath.Match(r.NamePattern, e.Name)
		return err == nil && ok
	}
	return true
}

// apply rewrites the selected field on e in place. e is always a clone by
// the time overrides run (see ScenarioManager.Resolve), so this never
// touches the source entity set.
func (r OverrideRule) apply(e *Entity) {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	if r.Multiplier != nil {
		current, _ := toFloat(e.Fields[r.Field])
		e.Fields[r.Field] = current * *r.Multiplier
		return
	}
	e.Fields[r.Field] = r.Value
}

// Scenario is a named, declarative rewrite of the base entity set plus a
// bag of calculation assumptions (spec §4.6).
type Scenario struct {
	Name            string
	Description     string
	Assumptions     map[string]any
	EntityFilters   EntityFilters
	EntityOverrides []OverrideRule
}

// ScenarioManager resolves a scenario name into a derived entity set,
// applying filters then override rules in order, without ever mutating the
// entities the store handed it (spec invariant: scenario non-mutation).
type ScenarioManager struct {
	store EntityStore
	log   *zap.Logger

	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewScenarioManager wires a scenario manager over an entity store. Callers
// typically follow this with RegisterSeedScenarios to load the built-in set.
func NewScenarioManager(store EntityStore, log *zap.Logger) *ScenarioManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScenarioManager{
		store:     store,
		log:       log,
		scenarios: make(map[string]Scenario),
	}
}

// Register adds or replaces a scenario definition.
func (m *ScenarioManager) Register(s Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.Name] = s
}

// Get looks up a scenario definition by name.
func (m *ScenarioManager) Get(name string) (Scenario, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[name]
	return s, ok
}

// Resolve returns the derived entity set for a scenario: the store's
// entities, filtered, cloned, and rewritten by the scenario's override
// rules in declaration order.
func (m *ScenarioManager) Resolve(name string) ([]*Entity, error) {
	scenario, ok := m.Get(name)
	if !ok {
		return nil, &ScenarioNotFoundError{Name: name}
	}

	all, err := m.store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("scenario %q: failed to load entities: %w", name, err)
	}

	filtered := applyEntityFilters(all, scenario.EntityFilters)

	derived := make([]*Entity, len(filtered))
	for i, e := range filtered {
		derived[i] = e.Clone()
	}

	for _, rule := range scenario.EntityOverrides {
		for _, e := range derived {
			if rule.matches(e) {
				rule.apply(e)
			}
		}
	}

	return derived, nil
}

func applyEntityFilters(entities []*Entity, f EntityFilters) []*Entity {
	out := make([]*Entity, 0, len(entities))
	for _, e := range entities {
		if !passesNameFilters(e.Name, f.IncludePatterns, f.ExcludePatterns) {
			continue
		}
		if !passesTagFilters(e, f.IncludeTags, f.ExcludeTags) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func passesNameFilters(name string, include, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func passesTagFilters(e *Entity, include, exclude []string) bool {
	for _, tag := range exclude {
		if e.HasTag(tag) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, tag := range include {
		if e.HasTag(tag) {
			return true
		}
	}
	return false
}
