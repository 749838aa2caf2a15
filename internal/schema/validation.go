package schema

// validation.go checks text input against a table's field specifications
// and turns it into ordered, typed column values.
//
// Unknown fields are rejected before anything reaches the statement builder,
// so a request can never name a column outside the specs.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/carbot/internal/core"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found in one input.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ParseFields validates input against specs and returns the parsed values
// in spec order. With requireAll set, Required specs must be present and
// non-empty; otherwise empty values are skipped.
func ParseFields(input map[string]string, specs []FieldSpec, requireAll bool) ([]core.Field, error) {
	var errs ValidationErrors

	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[string(spec.Name)] = true
	}
	var unknown []string
	for k := range input {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		errs = append(errs, ValidationError{Field: k, Message: "unknown field"})
	}

	fields := make([]core.Field, 0, len(input))
	for _, spec := range specs {
		raw := CleanValue(input[string(spec.Name)])
		if raw == "" {
			if requireAll && spec.Required {
				errs = append(errs, ValidationError{
					Field:   string(spec.Name),
					Message: "required field is empty",
				})
			}
			continue
		}

		// Apply normalizer if present
		if spec.Normalizer != nil {
			raw = spec.Normalizer(raw)
		}

		value, err := ParseValue(raw, spec)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   string(spec.Name),
				Value:   raw,
				Message: err.Error(),
			})
			continue
		}
		fields = append(fields, core.F(spec.Name, value))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return fields, nil
}

// ParseValue converts a single non-empty value according to spec.
func ParseValue(value string, spec FieldSpec) (any, error) {
	switch spec.Type {
	case FieldInt:
		if i, ok := ParseInt(value); ok {
			return i, nil
		}
	case FieldNumeric:
		if f, ok := ParseNumeric(value); ok {
			return f, nil
		}
	case FieldBool:
		if b, ok := ParseBool(value); ok {
			return b, nil
		}
		return nil, fmt.Errorf("must be yes/no, true/false, or 1/0")
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, value) {
				return ev, nil
			}
		}
		return nil, fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
	default:
		return value, nil
	}
	return nil, fmt.Errorf("invalid %s format", fieldTypeName(spec.Type))
}
