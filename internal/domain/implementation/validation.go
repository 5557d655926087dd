package implementation

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FieldProblem describes one rejected field value.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError aggregates every field problem found in one request, so a
// caller sees all problems at once rather than one per attempt.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldNames returns the rejected field names in report order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		names[i] = p.Field
	}
	return names
}

// CheckPicklist verifies value against the valid list, exact and
// case-sensitive.
func CheckPicklist(field, value string, valid []string) *FieldProblem {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return &FieldProblem{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q; valid values: %s", value, strings.Join(valid, ", ")),
	}
}

// CheckMultiPicklist splits value on the multi-value separator and verifies
// each trimmed member.
func CheckMultiPicklist(field, value string, valid []string) *FieldProblem {
	var invalid []string
	for _, part := range strings.Split(value, MultiValueSeparator) {
		part = strings.TrimSpace(part)
		if p := CheckPicklist(field, part, valid); p != nil {
			invalid = append(invalid, part)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return &FieldProblem{
		Field:   field,
		Message: fmt.Sprintf("invalid value(s) %q; valid values: %s", strings.Join(invalid, ", "), strings.Join(valid, ", ")),
	}
}

// CheckedUpdate is the outcome of validating an update payload: the fields
// that will be sent and any warnings about fields that were stripped or
// passed through unvalidated.
type CheckedUpdate struct {
	Fields   map[string]any
	Warnings []string
}

// ValidateUpdate checks an update payload against the field model.
// Remote-computed fields are stripped with a warning. Unknown fields pass
// through with a warning so new CRM fields keep working without a release.
// Known fields with bad values are collected into one ValidationError.
func ValidateUpdate(updates map[string]any) (*CheckedUpdate, error) {
	checked := &CheckedUpdate{Fields: make(map[string]any, len(updates))}
	var problems []FieldProblem

	for field, value := range updates {
		if _, ok := computedFields[field]; ok {
			checked.Warnings = append(checked.Warnings,
				fmt.Sprintf("%s is computed by Salesforce and was not sent", field))
			continue
		}

		kind, known := updatableFields[field]
		if !known {
			checked.Warnings = append(checked.Warnings,
				fmt.Sprintf("%s is not a known updatable field; sent as-is", field))
			checked.Fields[field] = value
			continue
		}

		if p := checkFieldValue(field, kind, value); p != nil {
			problems = append(problems, *p)
			continue
		}
		checked.Fields[field] = value
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return checked, nil
}

func checkFieldValue(field string, kind fieldKind, value any) *FieldProblem {
	switch kind {
	case kindDouble:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return nil
		}
		return &FieldProblem{Field: field, Message: fmt.Sprintf("expected a number, got %T", value)}

	case kindBoolean:
		if _, ok := value.(bool); !ok {
			return &FieldProblem{Field: field, Message: fmt.Sprintf("expected a boolean, got %T", value)}
		}
		return nil

	case kindDate:
		s, ok := value.(string)
		if !ok {
			return &FieldProblem{Field: field, Message: fmt.Sprintf("expected a YYYY-MM-DD date string, got %T", value)}
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return &FieldProblem{Field: field, Message: fmt.Sprintf("invalid date %q; expected YYYY-MM-DD", s)}
		}
		return nil

	default:
		s, ok := value.(string)
		if !ok {
			return &FieldProblem{Field: field, Message: fmt.Sprintf("expected a string, got %T", value)}
		}
		if valid, isPicklist := picklistFields[field]; isPicklist {
			return CheckPicklist(field, s, valid)
		}
		if valid, isMulti := multiPicklistFields[field]; isMulti {
			return CheckMultiPicklist(field, s, valid)
		}
		return nil
	}
}
