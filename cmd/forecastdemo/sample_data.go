package main

import (
	"time"

	"cashcow"
)

// sampleEntities is a small hand-built entity set exercising every built-in
// calculator, anchored to the window's start date so the demo always shows
// activity regardless of which --start the caller passes.
func sampleEntities(start time.Time) []*cashcow.Entity {
	doc := func(fields cashcow.Document) *cashcow.Entity {
		e, err := cashcow.LoadEntity(fields)
		if err != nil {
			panic(err)
		}
		return e
	}

	startStr := start.Format("2006-01-02")
	endStr := start.AddDate(2, 0, 0).Format("2006-01-02")

	return []*cashcow.Entity{
		doc(cashcow.Document{
			"type": "employee", "name": "founding_engineer", "start_date": startStr,
			"salary": 150_000.0, "overhead_multiplier": 1.3, "signing_bonus": 10_000.0,
		}),
		doc(cashcow.Document{
			"type": "grant", "name": "seed_grant", "start_date": startStr, "end_date": endStr,
			"amount": 300_000.0,
		}),
		doc(cashcow.Document{
			"type": "investment", "name": "seed_round", "start_date": startStr,
			"amount": 500_000.0,
		}),
		doc(cashcow.Document{
			"type": "sale", "name": "enterprise_deal", "start_date": startStr,
			"amount": 250_000.0, "delivery_date": start.AddDate(0, 5, 0).Format("2006-01-02"),
		}),
		doc(cashcow.Document{
			"type": "service", "name": "support_retainer", "start_date": startStr,
			"monthly_amount": 8_000.0,
		}),
		doc(cashcow.Document{
			"type": "facility", "name": "hq_lease", "start_date": startStr,
			"monthly_cost": 6_000.0, "utilities_monthly": 400.0, "insurance_annual": 3_600.0,
		}),
		doc(cashcow.Document{
			"type": "software", "name": "cloud_platform", "start_date": startStr,
			"annual_cost": 36_000.0,
		}),
		doc(cashcow.Document{
			"type": "equipment", "name": "build_servers", "start_date": startStr,
			"cost": 40_000.0, "purchase_date": startStr, "depreciation_years": 4.0, "residual_value": 4_000.0,
		}),
		doc(cashcow.Document{
			"type": "project", "name": "platform_v2", "start_date": startStr,
			"total_budget": 180_000.0, "planned_end_date": start.AddDate(1, 0, 0).Format("2006-01-02"),
		}),
	}
}
