package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RootField names the document itself when the failure is not tied to a field
const RootField = "(root)"

// ValidationError is returned when a candidate invoice does not satisfy the schema
type ValidationError struct {
	// Field is the dotted path of the offending field, e.g. "items[0].quantity"
	Field string

	// Reason describes what was wrong with the field
	Reason string
}

// Error returns a string representation of the error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s: %s", e.Field, e.Reason)
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "field required"}
}

func typeMismatch(field, want string, got any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("expected %s, got %s", want, describe(got)),
	}
}

// describe names the JSON type family of a decoded value
func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// pointerToField converts a JSON pointer ("/items/0/description") to the
// dotted form used in ValidationError ("items[0].description")
func pointerToField(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return RootField
	}

	var b strings.Builder
	for i, token := range strings.Split(pointer, "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		if isIndex(token) {
			b.WriteString("[" + token + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(token)
	}
	return b.String()
}

func isIndex(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
