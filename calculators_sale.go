package cashcow

// Sale calculators implement spec §4.3 "Sale": scheduled payments, or the
// full amount recognized in the delivery month (falling back to the start
// month when no delivery_date is given).

func saleRevenueCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	if schedule := e.GetList("payment_schedule"); len(schedule) > 0 {
		total := 0.0
		for _, item := range scheduleItems(schedule) {
			if sameMonth(item.Date, ctx.AsOfDate) {
				total += item.Amount
			}
		}
		return ptr(total), nil
	}

	recognize := monthStart(e.StartDate)
	if d := e.GetDate("delivery_date", nil); d != nil {
		recognize = monthStart(*d)
	}
	if !sameMonth(ctx.AsOfDate, recognize) {
		return ptr(0), nil
	}
	return ptr(e.GetFloat("amount", 0)), nil
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Sale,
		Name:        "revenue_calc",
		Fn:          saleRevenueCalc,
		Description: "scheduled payments, or full amount at delivery",
	}))
}
