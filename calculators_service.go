package cashcow

// Service calculators implement spec §4.3 "Service": a flat recurring
// amount for every active month.

func serviceRecurringCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	return ptr(e.GetFloat("monthly_amount", 0)), nil
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Service,
		Name:        "recurring_calc",
		Fn:          serviceRecurringCalc,
		Description: "flat monthly service revenue or cost",
	}))
}
