package cashcow

// Software calculators implement spec §4.3 "Software": license cost
// (annual preferred over monthly) plus an amortized maintenance percentage
// of the license value.

func softwareRecurringCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	var base float64
	if annual := e.GetFloat("annual_cost", 0); annual > 0 {
		base = annual / 12
	} else {
		base = e.GetFloat("monthly_cost", 0)
	}

	pct := e.GetFloat("maintenance_percentage", 0)
	licenseCost := e.GetFloat("license_cost", 0)
	base += pct * licenseCost / 12

	return ptr(base), nil
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Software,
		Name:        "recurring_calc",
		Fn:          softwareRecurringCalc,
		Description: "annual or monthly license cost plus amortized maintenance",
	}))
}
