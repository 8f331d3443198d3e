package cashcow

import "time"

// CalculationContext is the immutable bundle passed to every calculator
// invocation (spec §3.2). Scenario assumptions flow in through Params, not
// through hidden globals or thread-locals (spec §9).
type CalculationContext struct {
	AsOfDate           time.Time
	Scenario           string
	IncludeProjections bool
	Params             map[string]any
}

// Param reads a scenario assumption by name with a default, the same
// generic-accessor discipline as Entity.GetField.
func (c CalculationContext) Param(name string, def any) any {
	if c.Params == nil {
		return def
	}
	v, ok := c.Params[name]
	if !ok {
		return def
	}
	return v
}

// ParamFloat reads a numeric scenario assumption.
func (c CalculationContext) ParamFloat(name string, def float64) float64 {
	v := c.Param(name, nil)
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

// withAsOf returns a copy of the context pinned to a different period —
// used internally when the engine steps through months; the context
// itself never mutates in place.
func (c CalculationContext) withAsOf(d time.Time) CalculationContext {
	c.AsOfDate = d
	return c
}
