package service

import (
	"strconv"
	"strings"

	"github.com/hbox/claimtrack/common/models"
)

// Change records one field whose value an update actually altered. Old and
// new values are stringified; nil means the side was NULL.
type Change struct {
	FieldName string  `json:"field_name"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
}

// ComputeDiff compares a claim row against validated field updates and
// returns the fields whose normalized value changed, in update order. Pure
// function: nil, empty, and whitespace-only values all normalize to the
// empty string and compare equal.
func ComputeDiff(old *models.Claim, updates []models.FieldUpdate) []Change {
	changes := make([]Change, 0, len(updates))
	for _, u := range updates {
		oldVal := u.Field.Value(old)
		if normalizeValue(oldVal) == normalizeValue(u.Value) {
			continue
		}
		changes = append(changes, Change{
			FieldName: u.Field.Name,
			OldValue:  stringifyValue(oldVal),
			NewValue:  stringifyValue(u.Value),
		})
	}
	return changes
}

// normalizeValue produces the comparison form: stringified and trimmed,
// with NULL indistinguishable from empty.
func normalizeValue(v any) string {
	s := stringifyValue(v)
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// stringifyValue produces the stored form: the value as text, or nil for
// NULL. Floats render without trailing zeros so numeric diffs read the way
// Postgres reports them.
func stringifyValue(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return &val
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		return &s
	case int:
		s := strconv.Itoa(val)
		return &s
	default:
		return nil
	}
}
