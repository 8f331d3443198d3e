package cashcow

import "fmt"

// ValidationResult accumulates every problem found across a set of
// entities. Validation never stops at the first error (spec §4.1 "Failure
// policy").
type ValidationResult struct {
	Errors   []error
	Warnings []error
}

// OK reports whether the entity set passed validation with no fatal errors
// (warnings do not fail validation).
func (r *ValidationResult) OK() bool { return len(r.Errors) == 0 }

// ValidateOptions controls optional checks.
type ValidateOptions struct {
	// CheckReferences enables cross-reference validation (spec §4.1): when
	// disabled (the default), dangling references produce warnings only.
	// When enabled, a dangling reference is a fatal ReferenceError.
	CheckReferences bool
}

var enumFields = map[string][]string{
	"status":              {"planned", "active", "completed", "cancelled", "on_hold"},
	"priority":            {"critical", "high", "medium", "low"},
	"risk_level":          {"low", "medium", "high"},
	"pay_frequency":       {"monthly", "biweekly", "weekly", "annual"},
	"depreciation_method": {"straight_line", "declining_balance", "sum_of_years"},
}

var percentageFields = []string{
	"maintenance_percentage", "depreciation_rate",
}

// Validate runs schema, business-rule, and (optionally) cross-reference
// checks over a whole entity set and returns every violation found.
func Validate(entities []*Entity, opts ValidateOptions) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]bool, len(entities))
	for _, e := range entities {
		names[e.Name] = true
	}

	for _, e := range entities {
		result.Errors = append(result.Errors, requiredFieldErrors(e)...)
		result.Errors = append(result.Errors, businessRuleErrors(e)...)

		refErrs := referenceErrors(e, names)
		if opts.CheckReferences {
			result.Errors = append(result.Errors, refErrs...)
		} else {
			result.Warnings = append(result.Warnings, refErrs...)
		}
	}
	return result
}

func requiredFieldErrors(e *Entity) []error {
	var errs []error
	must := func(field string, present bool) {
		if !present {
			errs = append(errs, &MissingFieldError{EntityType: string(e.Type), EntityName: e.Name, Field: field})
		}
	}

	switch e.Type {
	case Employee:
		must("salary", e.GetFloat("salary", 0) > 0)
	case Grant:
		must("amount", e.GetFloat("amount", 0) > 0)
	case Investment:
		must("amount", e.GetFloat("amount", 0) > 0)
	case Sale:
		must("amount", e.GetFloat("amount", 0) > 0)
	case Service:
		must("monthly_amount", e.GetFloat("monthly_amount", 0) > 0)
	case Facility:
		must("monthly_cost", e.GetFloat("monthly_cost", 0) > 0)
	case Software:
		hasMonthly := e.GetFloat("monthly_cost", 0) > 0
		hasAnnual := e.GetFloat("annual_cost", 0) > 0
		must("monthly_cost or annual_cost", hasMonthly || hasAnnual)
	case Equipment:
		must("cost", e.GetFloat("cost", 0) > 0)
		must("purchase_date", e.GetDate("purchase_date", nil) != nil)
	case Project:
		must("total_budget", e.GetFloat("total_budget", 0) > 0)
	}
	return errs
}

func businessRuleErrors(e *Entity) []error {
	var errs []error

	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		errs = append(errs, &InvalidRuleError{
			EntityType: string(e.Type), EntityName: e.Name,
			Rule: "end_date", Detail: "end_date must be >= start_date",
		})
	}

	if e.Type == Employee {
		if v, ok := e.Fields["overhead_multiplier"]; ok {
			m, _ := toFloat(v)
			if m < 1.0 || m > 3.0 {
				errs = append(errs, &InvalidRuleError{
					EntityType: string(e.Type), EntityName: e.Name,
					Rule: "overhead_multiplier", Detail: fmt.Sprintf("must be in [1.0, 3.0], got %v", m),
				})
			}
		}
	}

	for _, field := range percentageFields {
		if v, ok := e.Fields[field]; ok {
			f, _ := toFloat(v)
			if f < 0 || f > 1 {
				errs = append(errs, &InvalidRuleError{
					EntityType: string(e.Type), EntityName: e.Name,
					Rule: field, Detail: fmt.Sprintf("must be in [0,1], got %v", f),
				})
			}
		}
	}

	for field, allowed := range enumFields {
		v, ok := e.Fields[field]
		if !ok {
			continue
		}
		s, _ := v.(string)
		found := false
		for _, a := range allowed {
			if s == a {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, &InvalidRuleError{
				EntityType: string(e.Type), EntityName: e.Name,
				Rule: field, Detail: fmt.Sprintf("%q is not one of %v", s, allowed),
			})
		}
	}

	return errs
}

// referenceErrors checks entity-to-entity name references (project team
// members, milestone owners) against the known entity-name set.
func referenceErrors(e *Entity, known map[string]bool) []error {
	var errs []error
	checkNameList := func(field string) {
		for _, name := range toStringSlice(e.GetField(field, nil)) {
			if !known[name] {
				errs = append(errs, &ReferenceError{
					EntityType: string(e.Type), EntityName: e.Name, Field: field, Target: name,
				})
			}
		}
	}
	checkNameList("team_members")

	for _, raw := range e.GetList("milestones") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		owner, _ := m["owner"].(string)
		if owner != "" && !known[owner] {
			errs = append(errs, &ReferenceError{
				EntityType: string(e.Type), EntityName: e.Name, Field: "milestones.owner", Target: owner,
			})
		}
	}
	return errs
}
