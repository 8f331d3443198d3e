package cashcow

import (
	"fmt"
	"time"
)

// EntityType enumerates the kinds of record CashCow forecasts over.
type EntityType string

const (
	Employee   EntityType = "employee"
	Grant      EntityType = "grant"
	Investment EntityType = "investment"
	Sale       EntityType = "sale"
	Service    EntityType = "service"
	Facility   EntityType = "facility"
	Software   EntityType = "software"
	Equipment  EntityType = "equipment"
	Project    EntityType = "project"
)

// KnownEntityTypes lists every variant accepted by the loader, in a stable order.
var KnownEntityTypes = []EntityType{
	Employee, Grant, Investment, Sale, Service, Facility, Software, Equipment, Project,
}

func (t EntityType) valid() bool {
	for _, k := range KnownEntityTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Entity is a single domain record. The header fields (Type, Name, StartDate,
// EndDate, Tags, Notes) are immutable after creation. Per-type required
// fields and every other field the source document carried live in Fields,
// an open bag read by field name — never by struct offset — so
// round-tripping and generic calculator access share one representation.
type Entity struct {
	ID        string
	Type      EntityType
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	Tags      []string
	Notes     string
	Fields    map[string]any
}

// IsActive reports whether the entity is in force on day d.
func (e *Entity) IsActive(d time.Time) bool {
	if d.Before(e.StartDate) {
		return false
	}
	if e.EndDate != nil && d.After(*e.EndDate) {
		return false
	}
	return true
}

// HasTag reports whether the entity carries the given tag.
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// GetField reads the entity's open field bag by name, with an explicit
// default; every calculator — not just the ones dealing with unknown
// extras — goes through this or its typed accessors. Validation and
// override rules index Fields directly where they need to tell an absent
// key apart.
func (e *Entity) GetField(name string, def any) any {
	if e.Fields == nil {
		return def
	}
	v, ok := e.Fields[name]
	if !ok || v == nil {
		return def
	}
	return v
}

// GetFloat reads a numeric field, tolerating the int/float64/string shapes a
// loosely-typed document loader may hand back.
func (e *Entity) GetFloat(name string, def float64) float64 {
	v := e.GetField(name, nil)
	f, ok := toFloat(v)
	if !ok {
		return def
	}
	return f
}

// GetString reads a string field.
func (e *Entity) GetString(name string, def string) string {
	v := e.GetField(name, nil)
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// GetBool reads a boolean field.
func (e *Entity) GetBool(name string, def bool) bool {
	v := e.GetField(name, nil)
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// GetDate reads a date field, accepting a time.Time or a "YYYY-MM-DD" string.
func (e *Entity) GetDate(name string, def *time.Time) *time.Time {
	v := e.GetField(name, nil)
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		if parsed, err := parseDate(t); err == nil {
			return &parsed
		}
	}
	return def
}

// GetList reads a list-shaped field ([]any), e.g. payment_schedule, milestones.
func (e *Entity) GetList(name string) []any {
	v := e.GetField(name, nil)
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

// Clone produces a deep-enough copy for the scenario manager to rewrite
// without ever mutating the source entity (spec invariant: scenario
// non-mutation).
func (e *Entity) Clone() *Entity {
	clone := &Entity{
		ID:        e.ID,
		Type:      e.Type,
		Name:      e.Name,
		StartDate: e.StartDate,
		Notes:     e.Notes,
	}
	if e.EndDate != nil {
		d := *e.EndDate
		clone.EndDate = &d
	}
	clone.Tags = append([]string(nil), e.Tags...)
	clone.Fields = deepCopyFields(e.Fields)
	return clone
}

func deepCopyFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyFields(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

// ToDocument renders the entity back into the loose map shape documents use
// on disk, preserving every extra field byte-equivalent (round-trip fidelity).
func (e *Entity) ToDocument() Document {
	doc := Document{
		"id":         e.ID,
		"type":       string(e.Type),
		"name":       e.Name,
		"start_date": formatDate(e.StartDate),
	}
	if e.EndDate != nil {
		doc["end_date"] = formatDate(*e.EndDate)
	}
	if len(e.Tags) > 0 {
		doc["tags"] = append([]string(nil), e.Tags...)
	}
	if e.Notes != "" {
		doc["notes"] = e.Notes
	}
	for k, v := range e.Fields {
		doc[k] = deepCopyValue(v)
	}
	return doc
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
