package cashcow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustLoad(t *testing.T, doc Document) *Entity {
	t.Helper()
	e, err := LoadEntity(doc)
	require.NoError(t, err)
	return e
}

// scenario non-mutation invariant: resolving a scenario must never change
// the entities the store hands back on a later LoadAll.
func TestScenarioResolveNeverMutatesSource(t *testing.T) {
	source := mustLoad(t, Document{
		"type": "employee", "name": "engineer", "start_date": "2026-01-01", "salary": 100_000.0,
	})
	store := NewMemoryEntityStore([]*Entity{source})
	mgr := NewScenarioManager(store, zap.NewNop())
	mgr.Register(Scenario{
		Name: "boosted",
		EntityOverrides: []OverrideRule{
			{EntityType: Employee, Entity: "engineer", Field: "salary", Value: 999_999.0},
		},
	})

	derived, err := mgr.Resolve("boosted")
	require.NoError(t, err)
	assert.Equal(t, 999_999.0, derived[0].GetFloat("salary", 0))

	reloaded, err := store.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, reloaded[0].GetFloat("salary", 0))
}

// Entity (exact name) must win over NamePattern when a rule sets both.
func TestOverrideRuleEntityTakesPrecedenceOverNamePattern(t *testing.T) {
	rule := OverrideRule{
		Entity:      "alice",
		NamePattern: "bob*",
		Field:       "salary",
		Value:       1.0,
	}
	alice := mustLoad(t, Document{"type": "employee", "name": "alice", "start_date": "2026-01-01", "salary": 1.0})
	bobby := mustLoad(t, Document{"type": "employee", "name": "bobby", "start_date": "2026-01-01", "salary": 1.0})

	assert.True(t, rule.matches(alice))
	// bobby matches the glob but not the exact name, and Entity being set
	// means NamePattern is never consulted for this rule.
	assert.False(t, rule.matches(bobby))
}

func TestScenarioNotFoundError(t *testing.T) {
	store := NewMemoryEntityStore(nil)
	mgr := NewScenarioManager(store, zap.NewNop())
	_, err := mgr.Resolve("nonexistent")
	require.Error(t, err)
	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestEntityFiltersExcludeTagWinsOverIncludePattern(t *testing.T) {
	discretionary := mustLoad(t, Document{
		"type": "software", "name": "nice_to_have", "start_date": "2026-01-01",
		"monthly_cost": 50.0, "tags": []any{"discretionary"},
	})
	essential := mustLoad(t, Document{
		"type": "software", "name": "core_platform", "start_date": "2026-01-01", "monthly_cost": 500.0,
	})
	store := NewMemoryEntityStore([]*Entity{discretionary, essential})
	mgr := NewScenarioManager(store, zap.NewNop())
	mgr.Register(Scenario{
		Name: "lean",
		EntityFilters: EntityFilters{
			IncludePatterns: []string{"*"},
			ExcludeTags:     []string{"discretionary"},
		},
	})

	derived, err := mgr.Resolve("lean")
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "core_platform", derived[0].Name)
}

func TestEntityFiltersIncludePattern(t *testing.T) {
	a := mustLoad(t, Document{"type": "service", "name": "support_a", "start_date": "2026-01-01", "monthly_amount": 1.0})
	b := mustLoad(t, Document{"type": "service", "name": "other_b", "start_date": "2026-01-01", "monthly_amount": 1.0})
	store := NewMemoryEntityStore([]*Entity{a, b})
	mgr := NewScenarioManager(store, zap.NewNop())
	mgr.Register(Scenario{
		Name:          "support_only",
		EntityFilters: EntityFilters{IncludePatterns: []string{"support_*"}},
	})

	derived, err := mgr.Resolve("support_only")
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "support_a", derived[0].Name)
}

func TestOverrideRuleMultiplierScalesExistingValue(t *testing.T) {
	e := mustLoad(t, Document{"type": "service", "name": "retainer", "start_date": "2026-01-01", "monthly_amount": 1_000.0})
	rule := OverrideRule{Field: "monthly_amount", Multiplier: ptr(1.5)}
	rule.apply(e)
	assert.Equal(t, 1_500.0, e.GetFloat("monthly_amount", 0))
}
