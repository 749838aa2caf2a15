package schema

import "github.com/JonMunkholm/carbot/internal/core"

// FieldType describes how a text input for a column is parsed.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumeric
	FieldBool
	FieldEnum
)

// FieldSpec describes one writable column and how to accept text for it.
type FieldSpec struct {
	Name       core.Column
	Type       FieldType
	Required   bool                // Must be present and non-empty on insert
	EnumValues []string            // For FieldEnum; matched case-insensitively
	Normalizer func(string) string // Applied to non-empty text before parsing
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldText:
		return "text"
	case FieldInt:
		return "integer"
	case FieldNumeric:
		return "number"
	case FieldBool:
		return "bool"
	case FieldEnum:
		return "enum"
	default:
		return "value"
	}
}
