package cashcow

// Investment calculators implement spec §4.3 "Investment": scheduled
// disbursement tranches, or a lump sum in the start month when no schedule
// is given.

func investmentDisbursementCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	if schedule := e.GetList("disbursement_schedule"); len(schedule) > 0 {
		total := 0.0
		for _, item := range scheduleItems(schedule) {
			if sameMonth(item.Date, ctx.AsOfDate) {
				total += item.Amount
			}
		}
		return ptr(total), nil
	}

	if !sameMonth(ctx.AsOfDate, monthStart(e.StartDate)) {
		return ptr(0), nil
	}
	return ptr(e.GetFloat("amount", 0)), nil
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Investment,
		Name:        "disbursement_calc",
		Fn:          investmentDisbursementCalc,
		Description: "scheduled tranches, or a lump sum at start_date",
	}))
}
