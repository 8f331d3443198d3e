package cashcow

import "math"

// Equipment calculators implement spec §4.3 "Equipment": the one-time
// purchase outlay, monthly depreciation over the equipment's useful life
// under one of three methods, and ongoing maintenance.

func equipmentOneTimeCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	purchase := e.GetDate("purchase_date", nil)
	if purchase == nil || !sameMonth(ctx.AsOfDate, monthStart(*purchase)) {
		return ptr(0), nil
	}
	return ptr(e.GetFloat("cost", 0)), nil
}

func equipmentDepreciationCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	purchase := e.GetDate("purchase_date", nil)
	years := e.GetFloat("depreciation_years", 0)
	if purchase == nil || years <= 0 {
		return ptr(0), nil
	}
	n := int(years)
	months := n * 12
	elapsed := monthsBetween(monthStart(*purchase), ctx.AsOfDate)
	if elapsed < 0 || elapsed >= months {
		return ptr(0), nil
	}

	cost := e.GetFloat("cost", 0)
	residual := e.GetFloat("residual_value", 0)
	depreciable := cost - residual
	if depreciable <= 0 {
		return ptr(0), nil
	}

	switch e.GetString("depreciation_method", "straight_line") {
	case "declining_balance":
		rate := e.GetFloat("depreciation_rate", 0)
		if rate <= 0 {
			rate = 2.0 / years // double-declining default
		}
		monthlyRate := rate / 12
		bookValue := cost * math.Pow(1-monthlyRate, float64(elapsed))
		expense := bookValue * monthlyRate
		if bookValue-expense < residual {
			expense = bookValue - residual
		}
		if expense < 0 {
			expense = 0
		}
		return ptr(expense), nil

	case "sum_of_years":
		sumDigits := float64(n*(n+1)) / 2
		year := elapsed/12 + 1
		weight := float64(n-year+1) / sumDigits
		return ptr(depreciable * weight / 12), nil

	default: // straight_line
		return ptr(depreciable / years / 12), nil
	}
}

func equipmentMaintenanceCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	if annual := e.GetFloat("maintenance_cost_annual", 0); annual > 0 {
		return ptr(annual / 12), nil
	}
	pct := e.GetFloat("maintenance_percentage", 0)
	cost := e.GetFloat("cost", 0)
	return ptr(cost * pct / 12), nil
}

func init() {
	reg := DefaultRegistry
	must(reg.Register(Calculator{EntityType: Equipment, Name: "one_time_calc", Fn: equipmentOneTimeCalc, Description: "purchase outlay in the purchase month"}))
	must(reg.Register(Calculator{EntityType: Equipment, Name: "depreciation_calc", Fn: equipmentDepreciationCalc, Description: "monthly depreciation under the selected method"}))
	must(reg.Register(Calculator{EntityType: Equipment, Name: "maintenance_calc", Fn: equipmentMaintenanceCalc, Description: "amortized annual maintenance or a percentage of cost"}))
}
