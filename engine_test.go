package cashcow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, entities []*Entity) *Engine {
	t.Helper()
	store := NewMemoryEntityStore(entities)
	scenarios := NewScenarioManager(store, zap.NewNop())
	scenarios.Register(Scenario{Name: "baseline"})
	return NewEngine(DefaultRegistry, scenarios, nil, zap.NewNop())
}

func simpleEntitySet(t *testing.T) []*Entity {
	t.Helper()
	emp, err := LoadEntity(Document{
		"type": "employee", "name": "engineer", "start_date": "2026-01-01",
		"salary": 120_000.0, "overhead_multiplier": 1.3,
	})
	require.NoError(t, err)
	svc, err := LoadEntity(Document{
		"type": "service", "name": "retainer", "start_date": "2026-01-01", "monthly_amount": 5_000.0,
	})
	require.NoError(t, err)
	return []*Entity{emp, svc}
}

// spec invariant #1: identical inputs produce byte-identical output.
func TestEngineCalculateIsDeterministic(t *testing.T) {
	entities := simpleEntitySet(t)
	start, end := date("2026-01-01"), date("2026-06-01")

	e1 := newTestEngine(t, entities)
	t1, err := e1.Calculate(context.Background(), start, end, "baseline", Sequential, true, 50_000)
	require.NoError(t, err)

	e2 := newTestEngine(t, entities)
	t2, err := e2.Calculate(context.Background(), start, end, "baseline", Sequential, true, 50_000)
	require.NoError(t, err)

	assert.Equal(t, t1.Rows, t2.Rows)
}

// spec invariant #2: all three execution modes agree within tight tolerance.
func TestEngineExecutionModesAgree(t *testing.T) {
	entities := simpleEntitySet(t)
	start, end := date("2026-01-01"), date("2026-12-01")

	var results []*ForecastTable
	for _, mode := range []ExecutionMode{Sequential, Cooperative, Parallel} {
		eng := newTestEngine(t, entities)
		table, err := eng.Calculate(context.Background(), start, end, "baseline", mode, true, 50_000)
		require.NoError(t, err, "mode %s", mode)
		results = append(results, table)
	}

	for i := 1; i < len(results); i++ {
		require.Equal(t, len(results[0].Rows), len(results[i].Rows))
		for r := range results[0].Rows {
			assert.InDelta(t, results[0].Rows[r].NetCashFlow, results[i].Rows[r].NetCashFlow, 1e-9)
			assert.InDelta(t, results[0].Rows[r].CashBalance, results[i].Rows[r].CashBalance, 1e-9)
			assert.Equal(t, results[0].Rows[r].Period, results[i].Rows[r].Period)
		}
	}
}

// spec invariant #3: an entity outside its active window contributes 0.
func TestEngineGatesInactiveEntities(t *testing.T) {
	end := date("2026-03-01")
	svc, err := LoadEntity(Document{
		"type": "service", "name": "short_contract", "start_date": "2026-01-01",
		"end_date": "2026-03-01", "monthly_amount": 1_000.0,
	})
	require.NoError(t, err)
	svc.EndDate = &end

	eng := newTestEngine(t, []*Entity{svc})
	table, err := eng.Calculate(context.Background(), date("2026-01-01"), date("2026-06-01"), "baseline", Sequential, true, 0)
	require.NoError(t, err)

	assert.Equal(t, 1_000.0, table.Rows[0].TotalRevenue)
	assert.Equal(t, 0.0, table.Rows[len(table.Rows)-1].TotalRevenue)
}

// spec invariant #4 / the Internal-calculator design decision: an employee's
// bucket contribution equals total_cost_calc alone, never a double-counted
// sum of every registered calculator.
func TestEngineEmployeeBucketMatchesTotalCostOnly(t *testing.T) {
	emp, err := LoadEntity(Document{
		"type": "employee", "name": "engineer", "start_date": "2026-01-01",
		"salary": 120_000.0, "overhead_multiplier": 1.3,
	})
	require.NoError(t, err)

	eng := newTestEngine(t, []*Entity{emp})
	table, err := eng.Calculate(context.Background(), date("2026-01-01"), date("2026-01-01"), "baseline", Sequential, true, 0)
	require.NoError(t, err)

	want, err := DefaultRegistry.Calculate(emp, "total_cost_calc", ctxAt(date("2026-01-01")))
	require.NoError(t, err)
	assert.InDelta(t, *want, table.Rows[0].EmployeeCosts, 1e-9)
	assert.InDelta(t, 13_000.0, table.Rows[0].EmployeeCosts, 1e-9) // spec E1
}

func TestEngineRespectsCancellation(t *testing.T) {
	eng := newTestEngine(t, simpleEntitySet(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Calculate(ctx, date("2026-01-01"), date("2026-12-01"), "baseline", Sequential, true, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestEngineRespectsDeadline(t *testing.T) {
	eng := newTestEngine(t, simpleEntitySet(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := eng.Calculate(ctx, date("2026-01-01"), date("2026-12-01"), "baseline", Sequential, true, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}

func TestEngineTableCacheReturnsSameTableForSameKey(t *testing.T) {
	eng := newTestEngine(t, simpleEntitySet(t))
	start, end := date("2026-01-01"), date("2026-03-01")

	t1, err := eng.Calculate(context.Background(), start, end, "baseline", Sequential, true, 1_000)
	require.NoError(t, err)
	t2, err := eng.Calculate(context.Background(), start, end, "baseline", Sequential, true, 1_000)
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	eng.InvalidateEntities()
	t3, err := eng.Calculate(context.Background(), start, end, "baseline", Sequential, true, 1_000)
	require.NoError(t, err)
	assert.NotSame(t, t1, t3)
}

func TestSummarizeComparison(t *testing.T) {
	eng := newTestEngine(t, simpleEntitySet(t))
	eng.scenarios.Register(Scenario{Name: "aggressive", EntityOverrides: []OverrideRule{
		{EntityType: Service, Field: "monthly_amount", Multiplier: ptr(2.0)},
	}})

	names := []string{"baseline", "aggressive"}
	tables, err := eng.Compare(context.Background(), names, date("2026-01-01"), date("2026-03-01"), Sequential, true, 10_000)
	require.NoError(t, err)

	summaries := SummarizeComparison(tables, names)
	require.Len(t, summaries, 2)
	assert.Greater(t, summaries[1].TotalRevenue, summaries[0].TotalRevenue)
}
