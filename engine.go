package cashcow

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExecutionMode selects how the engine schedules work across periods (spec
// §4.4). All three modes share the same single-period kernel and are
// required to return identical tables.
type ExecutionMode int

const (
	Sequential ExecutionMode = iota
	Cooperative
	Parallel
)

func (m ExecutionMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Cooperative:
		return "cooperative"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Engine is the cash-flow calculation facade: it resolves a scenario's
// entity set, runs the per-period kernel across the requested window, and
// assembles the result into a ForecastTable (spec §4.4), mirroring the
// way the ledger's AccountingEngine wires registry + cache + resolver
// behind one entry point.
type Engine struct {
	registry    *Registry
	scenarios   *ScenarioManager
	entityCache *EntitySetCache
	tableCache  TableCache
	log         *zap.Logger

	mu               sync.Mutex
	entitySetVersion int
}

// NewEngine wires a registry, scenario manager, and table cache into a
// ready-to-use Engine. A nil tableCache falls back to a fresh
// MemoryTableCache; a nil logger falls back to a no-op logger.
func NewEngine(registry *Registry, scenarios *ScenarioManager, tableCache TableCache, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if tableCache == nil {
		tableCache = NewMemoryTableCache()
	}
	return &Engine{
		registry:    registry,
		scenarios:   scenarios,
		entityCache: NewEntitySetCache(),
		tableCache:  tableCache,
		log:         log,
	}
}

// InvalidateEntities bumps the entity-set version and clears the cached
// entity sets, forcing the next Calculate to re-resolve every scenario.
// Callers that mutate the underlying document store are responsible for
// calling this (spec §4.5).
func (e *Engine) InvalidateEntities() {
	e.mu.Lock()
	e.entitySetVersion++
	e.mu.Unlock()
	e.entityCache.Clear()
}

// ClearTableCache drops every cached forecast table without touching
// resolved entity sets.
func (e *Engine) ClearTableCache() error {
	return e.tableCache.Clear()
}

// Calculate runs the engine over [start, end] under the named scenario and
// returns the resulting ForecastTable (spec §6.3). ctx governs cancellation
// and deadline: cancelling ctx, or letting its deadline lapse, aborts the
// in-flight calculation once the current entity/period finishes and returns
// ErrCancelled or ErrDeadlineExceeded with no partial table. includeProjections
// controls whether forward-looking (not-yet-committed) milestones are folded
// into the forecast, or only committed values (spec §3.2 "params").
func (e *Engine) Calculate(ctx context.Context, start, end time.Time, scenario string, mode ExecutionMode, includeProjections bool, startingCash float64) (*ForecastTable, error) {
	entities, version, err := e.resolveEntities(scenario)
	if err != nil {
		return nil, err
	}

	// includeProjections changes the table, so it is folded into the key.
	key := tableCacheKey(fmt.Sprintf("%s|projections=%t", scenario, includeProjections), start, end, version, startingCash)
	if cached, ok := e.tableCache.Get(key); ok {
		return cached, nil
	}

	periods := monthlyPeriods(start, end)
	base := CalculationContext{Scenario: scenario, IncludeProjections: includeProjections}
	if def, ok := e.scenarios.Get(scenario); ok {
		base.Params = def.Assumptions
	}

	var rows []ForecastRow
	switch mode {
	case Sequential:
		rows, err = e.runSequential(ctx, entities, periods, base)
	case Cooperative:
		rows, err = e.runCooperative(ctx, entities, periods, base)
	case Parallel:
		rows, err = e.runParallel(ctx, entities, periods, base)
	default:
		rows, err = e.runSequential(ctx, entities, periods, base)
	}
	if err != nil {
		return nil, err
	}

	finalizeRows(rows, startingCash)
	table := &ForecastTable{Rows: rows, StartingCash: startingCash, Scenario: scenario}
	e.tableCache.Put(key, table)
	return table, nil
}

// Compare runs Calculate once per named scenario over the same window and
// starting cash, returning every resulting table keyed by scenario name
// (spec §4.6 "Comparison", §6.3 "scenarios.compare"). The first failure
// aborts the whole comparison — a comparison with a missing scenario or a
// cancelled calculation never returns a partial result set.
func (e *Engine) Compare(ctx context.Context, names []string, start, end time.Time, mode ExecutionMode, includeProjections bool, startingCash float64) (map[string]*ForecastTable, error) {
	out := make(map[string]*ForecastTable, len(names))
	for _, name := range names {
		table, err := e.Calculate(ctx, start, end, name, mode, includeProjections, startingCash)
		if err != nil {
			return nil, fmt.Errorf("compare: scenario %q: %w", name, err)
		}
		out[name] = table
	}
	return out, nil
}

// ComparisonSummary is one side-by-side row folding several scenarios'
// ForecastTables down to the figures a reader actually compares: final
// cash position and total flow over the window. It supplements the raw
// per-scenario tables Compare returns, rather than replacing them.
type ComparisonSummary struct {
	Scenario         string
	FinalCashBalance float64
	TotalRevenue     float64
	TotalExpenses    float64
	TotalNetCashFlow float64
}

// SummarizeComparison reduces the output of Compare into one
// ComparisonSummary per scenario, ordered to match names.
func SummarizeComparison(tables map[string]*ForecastTable, names []string) []ComparisonSummary {
	summaries := make([]ComparisonSummary, 0, len(names))
	for _, name := range names {
		table, ok := tables[name]
		if !ok || len(table.Rows) == 0 {
			summaries = append(summaries, ComparisonSummary{Scenario: name})
			continue
		}
		var s ComparisonSummary
		s.Scenario = name
		for _, row := range table.Rows {
			s.TotalRevenue += row.TotalRevenue
			s.TotalExpenses += row.TotalExpenses
			s.TotalNetCashFlow += row.NetCashFlow
		}
		s.FinalCashBalance = table.Rows[len(table.Rows)-1].CashBalance
		summaries = append(summaries, s)
	}
	return summaries
}

func (e *Engine) resolveEntities(scenario string) ([]*Entity, int, error) {
	e.mu.Lock()
	version := e.entitySetVersion
	e.mu.Unlock()

	if cached, ok := e.entityCache.Get(scenario); ok {
		return cached, version, nil
	}
	entities, err := e.scenarios.Resolve(scenario)
	if err != nil {
		return nil, 0, err
	}
	e.entityCache.Put(scenario, entities)
	return entities, version, nil
}

// checkDeadline translates ctx's cancellation/deadline state into the
// spec's typed sentinels (spec §6.5), at a period boundary.
func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrDeadlineExceeded
		}
		return ErrCancelled
	default:
		return nil
	}
}

// runSequential computes one period at a time in the caller's goroutine.
func (e *Engine) runSequential(ctx context.Context, entities []*Entity, periods []time.Time, base CalculationContext) ([]ForecastRow, error) {
	rows := make([]ForecastRow, 0, len(periods))
	for _, p := range periods {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		row, err := e.computePeriod(entities, p, base)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// runCooperative interleaves periods as suspendable steps on a single
// goroutine: the per-period computation runs to completion once started
// (spec §5 "computation runs to completion for that period's tasks"), and
// the only suspension point is the deadline/cancellation check between
// periods — there is no second goroutine and no shared mutable state to
// race on.
func (e *Engine) runCooperative(ctx context.Context, entities []*Entity, periods []time.Time, base CalculationContext) ([]ForecastRow, error) {
	type task func() (ForecastRow, error)
	tasks := make([]task, len(periods))
	for i, p := range periods {
		p := p
		tasks[i] = func() (ForecastRow, error) { return e.computePeriod(entities, p, base) }
	}

	rows := make([]ForecastRow, 0, len(periods))
	for _, t := range tasks {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		row, err := t()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// runParallel dispatches period tasks to a bounded worker pool sized to
// min(CPU count, number of periods); each worker owns its own accumulator
// (the ForecastRow it builds) so no locking is needed inside a period.
// Results are collected back into period order once all workers finish
// (spec §4.4 "ordering by period is restored deterministically").
func (e *Engine) runParallel(ctx context.Context, entities []*Entity, periods []time.Time, base CalculationContext) ([]ForecastRow, error) {
	workers := runtime.NumCPU()
	if workers > len(periods) {
		workers = len(periods)
	}
	if workers < 1 {
		workers = 1
	}

	type indexed struct {
		idx int
		row ForecastRow
		err error
	}

	jobs := make(chan int)
	results := make(chan indexed, len(periods))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := checkDeadline(ctx); err != nil {
					results <- indexed{idx: idx, err: err}
					continue
				}
				row, err := e.computePeriod(entities, periods[idx], base)
				results <- indexed{idx: idx, row: row, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range periods {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	rows := make([]ForecastRow, len(periods))
	var firstErr error
	seen := 0
	for r := range results {
		seen++
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			continue
		}
		rows[r.idx] = r.row
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if seen != len(periods) {
		// The dispatcher goroutine exited early on ctx.Done() before handing
		// out every index; the worker pool never produced a full set.
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("engine: parallel execution produced %d of %d periods", seen, len(periods))
	}
	return rows, nil
}

// computePeriod is the single-period kernel every execution mode shares: a
// pure function of (entities, period, base context) that produces one
// ForecastRow. A failing calculator is logged and its value treated as 0
// (spec §4.4 "Failure"); the entity's other calculators still contribute.
// The kernel only returns an error for structural faults it cannot recover
// from.
func (e *Engine) computePeriod(entities []*Entity, period time.Time, base CalculationContext) (row ForecastRow, err error) {
	entityName := ""
	defer func() {
		if rec := recover(); rec != nil {
			err = &EngineError{Period: period, Entity: entityName, Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	row = ForecastRow{Period: period}
	periodCtx := base.withAsOf(period)

	for _, ent := range entities {
		entityName = ent.Name
		if !ent.IsActive(period) {
			continue
		}

		total, failed := e.registry.BucketTotal(ent, periodCtx)
		for _, calcName := range failed {
			row.Notes = append(row.Notes, fmt.Sprintf("%s (%s): %s failed, treated as 0", ent.Name, ent.ID, calcName))
		}

		if add, ok := revenueBuckets[ent.Type]; ok {
			add(&row, total)
		}
		if add, ok := expenseBuckets[ent.Type]; ok {
			add(&row, total)
		}

		switch ent.Type {
		case Employee:
			row.ActiveEmployees++
		case Project:
			row.ActiveProjects++
		}
	}

	return row, nil
}
