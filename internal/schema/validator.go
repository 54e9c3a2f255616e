package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator checks candidate values against the invoice schema and coerces
// them into a domain.Invoice.
//
// The default contract is presence and type family only. Strict mode adds the
// constraints of StrictInvoiceJSONSchema on top, including the rule that item
// descriptions and party names are non-blank after trimming whitespace. The
// default validator accepts blank strings for those fields.
type Validator struct {
	strict *jsonschema.Schema
}

var defaultValidator = &Validator{}

// NewValidator creates a validator; strict enables the optional strict mode
func NewValidator(strict bool) (*Validator, error) {
	if !strict {
		return &Validator{}, nil
	}

	compiled, err := compileSchema(StrictInvoiceJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("compile strict invoice schema: %w", err)
	}
	return &Validator{strict: compiled}, nil
}

// Validate checks raw against the default (non-strict) contract
func Validate(raw any) (*domain.Invoice, error) {
	return defaultValidator.Validate(raw)
}

// ValidateJSON decodes data and checks it against the default contract
func ValidateJSON(data []byte) (*domain.Invoice, error) {
	return defaultValidator.ValidateJSON(data)
}

// Strict reports whether strict mode is enabled
func (v *Validator) Strict() bool {
	return v.strict != nil
}

// ValidateJSON decodes a JSON document, preserving number precision, and validates it
func (v *Validator) ValidateJSON(data []byte) (*domain.Invoice, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Field: RootField, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Field: RootField, Reason: "unexpected data after JSON document"}
	}

	return v.Validate(raw)
}

// Validate checks an arbitrary decoded value (e.g. parsed JSON) against the schema.
// Missing or mistyped required fields fail with a *ValidationError naming the field.
// Optional fields default to absent and items defaults to an empty list.
func (v *Validator) Validate(raw any) (*domain.Invoice, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, typeMismatch(RootField, "object", raw)
	}

	invoice, err := decodeInvoice(obj)
	if err != nil {
		return nil, err
	}

	if v.strict != nil {
		if err := v.validateStrict(invoice); err != nil {
			return nil, err
		}
	}

	return invoice, nil
}

func decodeInvoice(obj map[string]any) (*domain.Invoice, error) {
	invoice := domain.NewInvoice()

	var err error
	if invoice.BilledFrom, err = requiredString(obj, "", FieldBilledFrom); err != nil {
		return nil, err
	}
	if invoice.BilledTo, err = requiredString(obj, "", FieldBilledTo); err != nil {
		return nil, err
	}
	if invoice.InvoiceNumber, err = requiredString(obj, "", FieldInvoiceNumber); err != nil {
		return nil, err
	}
	if invoice.Date, err = requiredString(obj, "", FieldDate); err != nil {
		return nil, err
	}

	items, err := decodeItems(obj[FieldItems])
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		invoice.AddItem(item)
	}

	if invoice.PaymentMethod, err = optionalString(obj, "", FieldPaymentMethod); err != nil {
		return nil, err
	}
	if invoice.Total, err = requiredFloat(obj, "", FieldTotal); err != nil {
		return nil, err
	}
	if invoice.Notes, err = optionalString(obj, "", FieldNotes); err != nil {
		return nil, err
	}

	return invoice, nil
}

// decodeItems treats a missing or null list as empty
func decodeItems(value any) ([]domain.InvoiceItem, error) {
	if value == nil {
		return nil, nil
	}

	list, ok := value.([]any)
	if !ok {
		return nil, typeMismatch(FieldItems, "array", value)
	}

	items := make([]domain.InvoiceItem, 0, len(list))
	for i, entry := range list {
		path := fmt.Sprintf("%s[%d]", FieldItems, i)

		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, typeMismatch(path, "object", entry)
		}

		var (
			item domain.InvoiceItem
			err  error
		)
		if item.Description, err = requiredString(obj, path, FieldDescription); err != nil {
			return nil, err
		}
		if item.Quantity, err = requiredInt(obj, path, FieldQuantity); err != nil {
			return nil, err
		}
		if item.Price, err = requiredFloat(obj, path, FieldPrice); err != nil {
			return nil, err
		}
		if item.Amount, err = requiredFloat(obj, path, FieldAmount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func requiredString(obj map[string]any, parent, key string) (string, error) {
	value, ok := obj[key]
	if !ok || value == nil {
		return "", missingField(joinPath(parent, key))
	}
	s, ok := value.(string)
	if !ok {
		return "", typeMismatch(joinPath(parent, key), "string", value)
	}
	return s, nil
}

func optionalString(obj map[string]any, parent, key string) (*string, error) {
	value, ok := obj[key]
	if !ok || value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, typeMismatch(joinPath(parent, key), "string", value)
	}
	return &s, nil
}

func requiredInt(obj map[string]any, parent, key string) (int, error) {
	value, ok := obj[key]
	if !ok || value == nil {
		return 0, missingField(joinPath(parent, key))
	}
	n, ok := toInt(value)
	if !ok {
		return 0, typeMismatch(joinPath(parent, key), "integer", value)
	}
	return n, nil
}

func requiredFloat(obj map[string]any, parent, key string) (float64, error) {
	value, ok := obj[key]
	if !ok || value == nil {
		return 0, missingField(joinPath(parent, key))
	}
	f, ok := toFloat(value)
	if !ok {
		return 0, typeMismatch(joinPath(parent, key), "number", value)
	}
	return f, nil
}

// toInt accepts integral numbers and numeric strings holding an integral value
func toInt(value any) (int, bool) {
	switch n := value.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case float64:
		return integral(n)
	case float32:
		return integral(float64(n))
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return integral(f)
	default:
		return 0, false
	}
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// toFloat accepts any finite number or numeric string
func toFloat(value any) (float64, bool) {
	var f float64
	switch n := value.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// validateStrict runs the compiled strict schema over the normalized invoice
func (v *Validator) validateStrict(invoice *domain.Invoice) error {
	b, err := json.Marshal(invoice)
	if err != nil {
		return &ValidationError{Field: RootField, Reason: fmt.Sprintf("marshal invoice: %v", err)}
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return &ValidationError{Field: RootField, Reason: fmt.Sprintf("unmarshal invoice: %v", err)}
	}

	if err := v.strict.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			leaf := verr
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return &ValidationError{Field: pointerToField(leaf.InstanceLocation), Reason: leaf.Message}
		}
		return &ValidationError{Field: RootField, Reason: err.Error()}
	}
	return nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("invoice.json")
}
