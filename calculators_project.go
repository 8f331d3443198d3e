package cashcow

import (
	"sort"
	"time"
)

// Project calculators implement spec §4.3 "Project": milestone-uniform
// budget allocation when milestones are given, otherwise an even spread of
// total_budget across the project's planned window.

type projectMilestone struct {
	date   time.Time
	budget float64
}

func projectBurnCalc(e *Entity, ctx CalculationContext) (*float64, error) {
	raw := e.GetList("milestones")
	if len(raw) == 0 {
		return projectEvenBurn(e, ctx)
	}

	milestones := make([]projectMilestone, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		dateStr, _ := m["date"].(string)
		if dateStr == "" {
			continue
		}
		d, err := parseDate(dateStr)
		if err != nil {
			continue
		}
		budget, ok := toFloat(m["budget"])
		if !ok {
			budget, _ = toFloat(m["amount"])
		}
		milestones = append(milestones, projectMilestone{date: d, budget: budget})
	}
	if len(milestones) == 0 {
		return projectEvenBurn(e, ctx)
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].date.Before(milestones[j].date) })

	segmentStart := monthStart(e.StartDate)
	total := 0.0
	for _, m := range milestones {
		segmentEnd := monthStart(m.date)
		months := monthsBetween(segmentStart, segmentEnd) + 1
		if months <= 0 {
			months = 1
		}
		if !ctx.AsOfDate.Before(segmentStart) && !ctx.AsOfDate.After(segmentEnd) {
			total += m.budget / float64(months)
		}
		segmentStart = addMonths(segmentEnd, 1)
	}
	return ptr(total), nil
}

func projectEvenBurn(e *Entity, ctx CalculationContext) (*float64, error) {
	budget := e.GetFloat("total_budget", 0)
	if budget <= 0 {
		return ptr(0), nil
	}
	end := e.GetDate("planned_end_date", e.EndDate)
	if end == nil {
		if !sameMonth(ctx.AsOfDate, monthStart(e.StartDate)) {
			return ptr(0), nil
		}
		return ptr(budget), nil
	}
	start := monthStart(e.StartDate)
	last := monthStart(*end)
	months := monthsBetween(start, last) + 1
	if months <= 0 || ctx.AsOfDate.Before(start) || ctx.AsOfDate.After(last) {
		return ptr(0), nil
	}
	return ptr(budget / float64(months)), nil
}

func init() {
	must(DefaultRegistry.Register(Calculator{
		EntityType:  Project,
		Name:        "burn_calc",
		Fn:          projectBurnCalc,
		Description: "milestone-uniform allocation, or an even spread across the planned window",
	}))
}
