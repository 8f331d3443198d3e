package cashcow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is the loose, tagged mapping the on-disk loader hands the core —
// one entity per document, keys as described in spec §6.1. Parsing a
// Document into an Entity is the core's job; reading it off disk is not.
type Document map[string]any

var headerKeys = map[string]bool{
	"id": true, "type": true, "name": true, "start_date": true, "end_date": true,
	"tags": true, "notes": true,
}

// LoadEntity converts a Document into an Entity, or a *MissingFieldError if
// the header itself is incomplete. Per-type required-field and business-rule
// checks happen later, in Validate — LoadEntity only establishes shape.
func LoadEntity(doc Document) (*Entity, error) {
	typ, _ := doc["type"].(string)
	if typ == "" {
		return nil, &MissingFieldError{EntityType: "unknown", EntityName: "", Field: "type"}
	}
	if !EntityType(typ).valid() {
		return nil, &InvalidRuleError{EntityType: typ, EntityName: "", Rule: "type", Detail: fmt.Sprintf("unknown entity type %q", typ)}
	}

	name, _ := doc["name"].(string)
	if name == "" {
		return nil, &MissingFieldError{EntityType: typ, EntityName: "", Field: "name"}
	}

	startStr, _ := doc["start_date"].(string)
	if startStr == "" {
		return nil, &MissingFieldError{EntityType: typ, EntityName: name, Field: "start_date"}
	}
	start, err := parseDate(startStr)
	if err != nil {
		return nil, &InvalidRuleError{EntityType: typ, EntityName: name, Rule: "start_date", Detail: err.Error()}
	}

	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}

	e := &Entity{
		ID:        id,
		Type:      EntityType(typ),
		Name:      name,
		StartDate: start,
		Fields:    map[string]any{},
	}

	if endStr, ok := doc["end_date"].(string); ok && endStr != "" {
		end, err := parseDate(endStr)
		if err != nil {
			return nil, &InvalidRuleError{EntityType: typ, EntityName: name, Rule: "end_date", Detail: err.Error()}
		}
		e.EndDate = &end
	}

	if rawTags, ok := doc["tags"]; ok {
		e.Tags = toStringSlice(rawTags)
	}
	if notes, ok := doc["notes"].(string); ok {
		e.Notes = notes
	}

	for k, v := range doc {
		if headerKeys[k] {
			continue
		}
		e.Fields[k] = deepCopyValue(v)
	}

	return e, nil
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ScheduleItem is a single dated event inside a payment/disbursement
// schedule or a milestone list — spec §3.1's "nested lists of schedule
// items", normalized for calculator consumption.
type ScheduleItem struct {
	Date   time.Time
	Amount float64
	Status string
	Name   string
}

// scheduleItems parses a raw []any schedule field (as decoded from a
// Document) into typed items. Each item must carry a date and either an
// amount or a budget; malformed items are skipped rather than failing the
// whole calculation (calculators never panic on bad data, spec §7).
func scheduleItems(raw []any) []ScheduleItem {
	items := make([]ScheduleItem, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
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
		amount, ok := toFloat(m["amount"])
		if !ok {
			amount, ok = toFloat(m["budget"])
			if !ok {
				continue
			}
		}
		status, _ := m["status"].(string)
		name, _ := m["name"].(string)
		items = append(items, ScheduleItem{Date: d, Amount: amount, Status: status, Name: name})
	}
	return items
}
