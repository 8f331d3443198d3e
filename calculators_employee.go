package cashcow

// Employee calculators implement spec §4.3 "Employee": salary, overhead,
// allowances, equity vesting (cliff + linear), signing bonus, and the total
// cash-impacting cost for the month.

func employeeSalaryCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	salary := e.GetFloat("salary", 0)
	return ptr(salary / 12), nil
}

func employeeOverheadCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	salaryMonthly := e.GetFloat("salary", 0) / 12
	multiplier := e.GetFloat("overhead_multiplier", 1.0)
	return ptr(salaryMonthly * (multiplier - 1)), nil
}

func employeeAllowancesCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	total := 0.0
	total += e.GetFloat("monthly_allowance", 0)
	total += e.GetFloat("transport_allowance", 0)
	total += e.GetFloat("housing_allowance", 0)
	total += e.GetFloat("annual_training_budget", 0) / 12
	total += e.GetFloat("annual_travel_budget", 0) / 12
	return ptr(total), nil
}

// employeeEquityVestingCalc returns the fraction of equity_shares vesting
// THIS month under a cliff + linear schedule: 0 before the cliff, then
// 1/vest_months per month until fully vested. It is a non-cash quantity and
// is deliberately excluded from employeeTotalCostCalc.
func employeeEquityVestingCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	vestMonths := int(e.GetFloat("vest_months", 0))
	if vestMonths <= 0 {
		return ptr(0), nil
	}
	cliffMonths := int(e.GetFloat("cliff_months", 0))
	elapsed := monthsBetween(monthStart(e.StartDate), ctx.AsOfDate)
	if elapsed < cliffMonths || elapsed >= vestMonths {
		return ptr(0), nil
	}
	return ptr(1.0 / float64(vestMonths)), nil
}

func employeeSigningBonusCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	if !sameMonth(ctx.AsOfDate, monthStart(e.StartDate)) {
		return ptr(0), nil
	}
	return ptr(e.GetFloat("signing_bonus", 0)), nil
}

func employeeTotalCostCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	salary, err := employeeSalaryCalc(e, ctx)
	if err != nil {
		return nil, err
	}
	overhead, err := employeeOverheadCalc(e, ctx)
	if err != nil {
		return nil, err
	}
	allowances, err := employeeAllowancesCalc(e, ctx)
	if err != nil {
		return nil, err
	}
	bonus, err := employeeSigningBonusCalc(e, ctx)
	if err != nil {
		return nil, err
	}
	return ptr(*salary + *overhead + *allowances + *bonus), nil
}

func init() {
	reg := DefaultRegistry
	must(reg.Register(Calculator{EntityType: Employee, Name: "salary_calc", Fn: employeeSalaryCalc, Internal: true, Description: "base salary amortized monthly"}))
	must(reg.Register(Calculator{EntityType: Employee, Name: "overhead_calc", Fn: employeeOverheadCalc, Dependencies: []string{"salary_calc"}, Internal: true, Description: "overhead load on top of salary"}))
	must(reg.Register(Calculator{EntityType: Employee, Name: "allowances_calc", Fn: employeeAllowancesCalc, Internal: true, Description: "monthly allowances and amortized annual budgets"}))
	must(reg.Register(Calculator{EntityType: Employee, Name: "equity_vesting_calc", Fn: employeeEquityVestingCalc, Internal: true, Description: "fraction of equity vesting this month (non-cash)"}))
	must(reg.Register(Calculator{EntityType: Employee, Name: "signing_bonus_calc", Fn: employeeSigningBonusCalc, Internal: true, Description: "one-time signing bonus in the start month"}))
	must(reg.Register(Calculator{EntityType: Employee, Name: "total_cost_calc", Fn: employeeTotalCostCalc, Dependencies: []string{"salary_calc", "overhead_calc", "allowances_calc", "signing_bonus_calc"}, Description: "sum of cash-impacting employee costs"}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
