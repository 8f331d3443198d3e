package cashcow

import "time"

// ForecastRow is one month of a ForecastTable (spec §3.3).
type ForecastRow struct {
	Period time.Time

	GrantRevenue      float64
	InvestmentRevenue float64
	SalesRevenue      float64
	ServiceRevenue    float64
	TotalRevenue      float64

	EmployeeCosts  float64
	FacilityCosts  float64
	SoftwareCosts  float64
	EquipmentCosts float64
	ProjectCosts   float64
	TotalExpenses  float64

	NetCashFlow        float64
	CumulativeCashFlow float64
	CashBalance        float64
	RevenueGrowthRate  float64
	ExpenseGrowthRate  float64

	ActiveEmployees int
	ActiveProjects  int

	RevenuePerEmployee float64
	CostPerEmployee    float64

	// Notes carries per-period diagnostics (one entry per calculator that
	// failed for an entity in this period) surfaced for debugging without
	// affecting the numeric columns above.
	Notes []string
}

// ForecastTable is the ordered, deterministic output of the cash-flow
// engine (spec §3.3). Rows are strictly ordered by Period.
type ForecastTable struct {
	Rows         []ForecastRow
	StartingCash float64
	Scenario     string
}

// revenueBuckets maps an entity type to the ForecastRow revenue field it
// contributes to; entity types absent here never add to revenue.
var revenueBuckets = map[EntityType]func(*ForecastRow, float64){
	Grant:      func(r *ForecastRow, v float64) { r.GrantRevenue += v },
	Investment: func(r *ForecastRow, v float64) { r.InvestmentRevenue += v },
	Sale:       func(r *ForecastRow, v float64) { r.SalesRevenue += v },
	Service:    func(r *ForecastRow, v float64) { r.ServiceRevenue += v },
}

// expenseBuckets maps an entity type to the ForecastRow expense field it
// contributes to.
var expenseBuckets = map[EntityType]func(*ForecastRow, float64){
	Employee:  func(r *ForecastRow, v float64) { r.EmployeeCosts += v },
	Facility:  func(r *ForecastRow, v float64) { r.FacilityCosts += v },
	Software:  func(r *ForecastRow, v float64) { r.SoftwareCosts += v },
	Equipment: func(r *ForecastRow, v float64) { r.EquipmentCosts += v },
	Project:   func(r *ForecastRow, v float64) { r.ProjectCosts += v },
}

// finalizeRows computes the derived columns (total_*, net_*, cumulative_*,
// cash_balance, growth rates, per-employee ratios) in a single left-to-right
// pass, per spec §4.4 step 4: later rows may use prior rows' cumulative
// values, but nothing here re-touches the per-bucket sums the kernel wrote.
func finalizeRows(rows []ForecastRow, startingCash float64) {
	cumulative := 0.0
	var prevRevenue, prevExpense float64
	for i := range rows {
		r := &rows[i]
		r.TotalRevenue = r.GrantRevenue + r.InvestmentRevenue + r.SalesRevenue + r.ServiceRevenue
		r.TotalExpenses = r.EmployeeCosts + r.FacilityCosts + r.SoftwareCosts + r.EquipmentCosts + r.ProjectCosts
		r.NetCashFlow = r.TotalRevenue - r.TotalExpenses

		cumulative += r.NetCashFlow
		r.CumulativeCashFlow = cumulative
		r.CashBalance = startingCash + cumulative

		if i == 0 {
			r.RevenueGrowthRate = 0
			r.ExpenseGrowthRate = 0
		} else {
			r.RevenueGrowthRate = growthRate(prevRevenue, r.TotalRevenue)
			r.ExpenseGrowthRate = growthRate(prevExpense, r.TotalExpenses)
		}
		prevRevenue, prevExpense = r.TotalRevenue, r.TotalExpenses

		if r.ActiveEmployees > 0 {
			r.RevenuePerEmployee = r.TotalRevenue / float64(r.ActiveEmployees)
			r.CostPerEmployee = r.TotalExpenses / float64(r.ActiveEmployees)
		}
	}
}

// growthRate is month-over-month percentage change. A zero or undefined
// previous value yields 0 rather than NaN/Inf (spec §4.3 "division by zero
// yields null ... never NaN, never Infinity").
func growthRate(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}
