package cashcow

// Facility calculators implement spec §4.3 "Facility": base rent plus
// itemized utilities, amortized insurance/property tax, amortized
// maintenance, and one-time certification renewal costs.

func facilityRecurringCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	total := e.GetFloat("monthly_cost", 0)
	total += e.GetFloat("utilities_monthly", 0)
	total += e.GetFloat("internet_monthly", 0)
	total += e.GetFloat("security_monthly", 0)
	total += e.GetFloat("cleaning_monthly", 0)

	total += e.GetFloat("insurance_annual", 0) / 12
	total += e.GetFloat("property_tax_annual", 0) / 12

	total += e.GetFloat("maintenance_monthly", 0)
	total += e.GetFloat("maintenance_quarterly", 0) / 3
	total += e.GetFloat("maintenance_annual", 0) / 12

	total += facilityCertificationRenewals(e, ctx)

	return ptr(total), nil
}

// facilityCertificationRenewals sums the cost of any certification whose
// renewal_date falls in the current month. Certifications are independent
// schedule items, the same loose shape as payment_schedule/milestones
// (spec §3.1), just keyed on renewal_date rather than date.
func facilityCertificationRenewals(e *Entity, ctx CalculationContext) float64 {
	total := 0.0
	for _, raw := range e.GetList("certifications") {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		dateStr, _ := c["renewal_date"].(string)
		if dateStr == "" {
			continue
		}
		d, err := parseDate(dateStr)
		if err != nil || !sameMonth(d, ctx.AsOfDate) {
			continue
		}
		amount, ok := toFloat(c["cost"])
		if !ok {
			amount, _ = toFloat(c["amount"])
		}
		total += amount
	}
	return total
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Facility,
		Name:        "recurring_calc",
		Fn:          facilityRecurringCalc,
		Description: "rent, utilities, amortized insurance/tax/maintenance, certification renewals",
	}))
}
