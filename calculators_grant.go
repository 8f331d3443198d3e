package cashcow

// Grant calculators implement spec §4.3 "Grant": scheduled or even-split
// disbursement, plus milestone-triggered amounts. Milestones take
// precedence over the even-split fallback whenever a grant carries both
// (spec E2).

func grantDisbursementCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	if schedule := e.GetList("payment_schedule"); len(schedule) > 0 {
		total := 0.0
		for _, item := range scheduleItems(schedule) {
			if sameMonth(item.Date, ctx.AsOfDate) {
				total += item.Amount
			}
		}
		return ptr(total), nil
	}

	if milestones := e.GetList("milestones"); len(milestones) > 0 {
		// Milestones present: the even-split fallback does not apply, even
		// though `amount` may also be set (spec E2).
		return ptr(0), nil
	}

	amount := e.GetFloat("amount", 0)
	if amount <= 0 {
		return ptr(0), nil
	}
	end := e.EndDate
	if end == nil {
		if !sameMonth(ctx.AsOfDate, monthStart(e.StartDate)) {
			return ptr(0), nil
		}
		return ptr(amount), nil
	}
	months := monthsBetween(monthStart(e.StartDate), monthStart(*end)) + 1
	if months <= 0 {
		return ptr(0), nil
	}
	start := monthStart(e.StartDate)
	last := monthStart(*end)
	if ctx.AsOfDate.Before(start) || ctx.AsOfDate.After(last) {
		return ptr(0), nil
	}
	return ptr(amount / float64(months)), nil
}

func grantMilestoneCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	total := 0.0
	for _, raw := range e.GetList("milestones") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		status, _ := m["status"].(string)
		if status != "completed" && (status != "planned" || !ctx.IncludeProjections) {
			continue
		}
		dateStr, _ := m["date"].(string)
		if dateStr == "" {
			continue
		}
		d, err := parseDate(dateStr)
		if err != nil || !sameMonth(d, ctx.AsOfDate) {
			continue
		}
		amount, _ := toFloat(m["amount"])
		total += amount
	}
	return ptr(total), nil
}

func init() {
	reg := DefaultRegistry
	must(reg.Register(Calculator{EntityType: Grant, Name: "disbursement_calc", Fn: grantDisbursementCalc, Description: "scheduled or even-split grant disbursement"}))
	must(reg.Register(Calculator{EntityType: Grant, Name: "milestone_calc", Fn: grantMilestoneCalc, Description: "milestone-triggered grant amounts"}))
}
