package cashcow

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// CalculatorFunc is a pure function of one entity and a context, producing
// one monthly value. Returning nil signals "not applicable" (spec §9);
// actual faults should be returned as the final (*float64, error) pair's
// error and are caught at the registry/engine boundary, never panicked.
type CalculatorFunc func(e *Entity, ctx CalculationContext) (*float64, error)

// Calculator is a single registered entry: a name, its function, its
// declared logical dependencies within the same entity type, and a
// human-readable description.
type Calculator struct {
	EntityType   EntityType
	Name         string
	Fn           CalculatorFunc
	Dependencies []string
	Description  string

	// Internal marks a calculator whose output is either a component already
	// folded into a sibling "total" calculator (employee's salary/overhead/
	// allowances/signing_bonus feeding total_cost_calc) or a non-cash
	// quantity (employee's equity_vesting_calc, a vesting fraction, not a
	// dollar amount). Internal calculators still run and are addressable
	// via Calculate/CalculateAll; the engine's per-period bucket sum
	// (spec §4.4 step 3b) skips them to avoid double-counting or mixing
	// units.
	Internal bool
}

type calcKey struct {
	entityType EntityType
	name       string
}

// Registry is the process-wide, read-only-after-init table of calculators
// (spec §4.2). It is safe to share across goroutines once registration is
// complete; registration takes the same lock but is expected to
// happen from init() functions at program startup, mirroring the teacher's
// NewAccountingEngine wiring every service exactly once.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[calcKey]*Calculator
	ordered map[EntityType][]*Calculator // topologically sorted, cached
	log     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		byKey:   make(map[calcKey]*Calculator),
		ordered: make(map[EntityType][]*Calculator),
		log:     log,
	}
}

// DefaultRegistry is the shared registry populated by this package's
// built-in calculators at init() time.
var DefaultRegistry = NewRegistry(nil)

// Register adds or replaces a calculator under (entityType, name).
// Re-registration is allowed (and idempotent by key) only to support
// package init(); callers should not call it after the registry starts
// serving Calculate/CalculateAll traffic concurrently.
func (r *Registry) Register(c Calculator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := calcKey{c.EntityType, c.Name}
	r.byKey[key] = &c
	delete(r.ordered, c.EntityType) // invalidate cached order

	if err := r.checkCycles(c.EntityType); err != nil {
		delete(r.byKey, key)
		return err
	}
	return nil
}

// Get looks up a single calculator.
func (r *Registry) Get(entityType EntityType, name string) (*Calculator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[calcKey{entityType, name}]
	return c, ok
}

// CalculatorsFor enumerates all calculators registered for an entity type,
// in topological order of their declared dependencies. The order is
// computed once per registration generation and cached.
func (r *Registry) CalculatorsFor(entityType EntityType) []*Calculator {
	r.mu.RLock()
	if cached, ok := r.ordered[entityType]; ok {
		defer r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.ordered[entityType]; ok {
		return cached
	}
	order, err := r.topoSort(entityType)
	if err != nil {
		// Cycles are rejected at Register time; reaching here means a
		// caller is inspecting a type that never passed that gate.
		r.log.Error("calculator dependency order unavailable", zap.String("entity_type", string(entityType)), zap.Error(err))
		return nil
	}
	r.ordered[entityType] = order
	return order
}

// topoSort must be called with r.mu held.
func (r *Registry) topoSort(entityType EntityType) ([]*Calculator, error) {
	byName := make(map[string]*Calculator)
	for key, c := range r.byKey {
		if key.entityType == entityType {
			byName[c.Name] = c
		}
	}

	var order []*Calculator
	state := make(map[string]int) // 0=unvisited 1=visiting 2=done
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case 2:
			return nil
		case 1:
			return &CyclicDependencyError{EntityType: entityType, Cycle: append(append([]string(nil), path...), name)}
		}
		c, ok := byName[name]
		if !ok {
			r.log.Warn("calculator dependency missing", zap.String("entity_type", string(entityType)), zap.String("dependency", name))
			state[name] = 2
			return nil
		}
		state[name] = 1
		path = append(path, name)
		for _, dep := range c.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = 2
		order = append(order, c)
		return nil
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic iteration order
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (r *Registry) checkCycles(entityType EntityType) error {
	_, err := r.topoSort(entityType)
	return err
}

// Calculate runs a single named calculator for one entity. It returns nil
// (no error) if the entity is inactive at ctx.AsOfDate or the calculator is
// inapplicable; it returns UnknownCalculatorError if the key is unregistered.
func (r *Registry) Calculate(e *Entity, calcName string, ctx CalculationContext) (result *float64, err error) {
	c, ok := r.Get(e.Type, calcName)
	if !ok {
		return nil, &UnknownCalculatorError{EntityType: e.Type, Name: calcName}
	}
	if !e.IsActive(ctx.AsOfDate) {
		return nil, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("calculator panicked",
				zap.String("entity", e.Name), zap.String("calculator", calcName),
				zap.Time("period", ctx.AsOfDate), zap.Any("recover", rec))
			result, err = nil, fmt.Errorf("calculator %s panicked: %v", calcName, rec)
		}
	}()

	return c.Fn(e, ctx)
}

// CalculateAll runs every calculator registered for the entity's type and
// returns name -> value. A failing calculator is logged and omitted from
// the map; it never aborts its siblings (spec §4.2).
func (r *Registry) CalculateAll(e *Entity, ctx CalculationContext) map[string]float64 {
	out, _ := r.CalculateAllVerbose(e, ctx)
	return out
}

// CalculateAllVerbose is CalculateAll plus the names of calculators that
// failed this period, for callers that want to surface a diagnostic trail
// (the engine folds these into ForecastRow.Notes) without re-running
// anything.
func (r *Registry) CalculateAllVerbose(e *Entity, ctx CalculationContext) (map[string]float64, []string) {
	out := make(map[string]float64)
	var failed []string
	for _, c := range r.CalculatorsFor(e.Type) {
		v, err := r.Calculate(e, c.Name, ctx)
		if err != nil {
			r.log.Warn("calculator failed",
				zap.String("entity", e.Name), zap.String("calculator", c.Name),
				zap.Time("period", ctx.AsOfDate), zap.Error(err))
			failed = append(failed, c.Name)
			continue
		}
		if v == nil {
			continue
		}
		out[c.Name] = *v
	}
	return out, failed
}

// BucketTotal sums the non-Internal calculator outputs for one entity — the
// figure the engine folds into the period's revenue/expense bucket (spec
// §4.4 step 3b). Internal calculators (components already folded into a
// sibling total, or non-cash quantities like equity vesting) are excluded
// so a total_cost_calc and the salary/overhead/allowances/bonus calcs that
// feed it are never both counted.
func (r *Registry) BucketTotal(e *Entity, ctx CalculationContext) (float64, []string) {
	breakdown, failed := r.CalculateAllVerbose(e, ctx)
	total := 0.0
	for _, c := range r.CalculatorsFor(e.Type) {
		if c.Internal {
			continue
		}
		if v, ok := breakdown[c.Name]; ok {
			total += v
		}
	}
	return total, failed
}

func ptr(f float64) *float64 { return &f }
