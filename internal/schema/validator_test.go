package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoice-extraction-service/internal/domain"
)

const sampleInvoiceJSON = `{
	"billed_from": "Acme, 1 Main St",
	"billed_to": "Bob, 2 Oak Ave",
	"invoice_number": "INV-001",
	"date": "2024-01-01",
	"items": [{"description": "Widget", "quantity": 2, "price": 5.0, "amount": 10.0}],
	"total": 10.0
}`

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestValidateJSON_ValidInvoice(t *testing.T) {
	invoice, err := ValidateJSON([]byte(sampleInvoiceJSON))
	require.NoError(t, err)

	expected := &domain.Invoice{
		BilledFrom:    "Acme, 1 Main St",
		BilledTo:      "Bob, 2 Oak Ave",
		InvoiceNumber: "INV-001",
		Date:          "2024-01-01",
		Items: []domain.InvoiceItem{
			{Description: "Widget", Quantity: 2, Price: 5.0, Amount: 10.0},
		},
		Total: 10.0,
	}
	assert.Equal(t, expected, invoice)
	assert.Nil(t, invoice.PaymentMethod)
	assert.Nil(t, invoice.Notes)
}

func TestValidate_DefaultsOptionalFields(t *testing.T) {
	raw := decode(t, `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "today", "total": 0}`)

	invoice, err := Validate(raw)
	require.NoError(t, err)

	assert.NotNil(t, invoice.Items)
	assert.Empty(t, invoice.Items)
	assert.Nil(t, invoice.PaymentMethod)
	assert.Nil(t, invoice.Notes)

	// items must serialize as an empty list, never null
	b, err := json.Marshal(invoice)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items":[]`)
}

func TestValidate_NullOptionalsAreAbsent(t *testing.T) {
	raw := decode(t, `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d",
		"total": 1, "items": null, "payment_method": null, "notes": null}`)

	invoice, err := Validate(raw)
	require.NoError(t, err)
	assert.Empty(t, invoice.Items)
	assert.Nil(t, invoice.PaymentMethod)
	assert.Nil(t, invoice.Notes)
}

func TestValidate_KeepsOptionalFields(t *testing.T) {
	raw := decode(t, `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d",
		"total": 1, "payment_method": "Cash", "notes": "Thanks"}`)

	invoice, err := Validate(raw)
	require.NoError(t, err)
	require.NotNil(t, invoice.PaymentMethod)
	require.NotNil(t, invoice.Notes)
	assert.Equal(t, "Cash", *invoice.PaymentMethod)
	assert.Equal(t, "Thanks", *invoice.Notes)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	for _, field := range []string{FieldBilledFrom, FieldBilledTo, FieldInvoiceNumber, FieldDate, FieldTotal} {
		t.Run(field, func(t *testing.T) {
			raw := decode(t, sampleInvoiceJSON)
			delete(raw, field)

			invoice, err := Validate(raw)
			assert.Nil(t, invoice)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Equal(t, field, verr.Field)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestValidate_MissingItemField(t *testing.T) {
	for _, field := range []string{FieldDescription, FieldQuantity, FieldPrice, FieldAmount} {
		t.Run(field, func(t *testing.T) {
			raw := decode(t, sampleInvoiceJSON)
			item := raw[FieldItems].([]any)[0].(map[string]any)
			delete(item, field)

			_, err := Validate(raw)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "items[0]."+field, verr.Field)
		})
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "number for string",
			doc:   `{"billed_from": 12, "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1}`,
			field: FieldBilledFrom,
		},
		{
			name:  "string total",
			doc:   `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": "ten"}`,
			field: FieldTotal,
		},
		{
			name:  "items not a list",
			doc:   `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1, "items": {}}`,
			field: FieldItems,
		},
		{
			name:  "item not an object",
			doc:   `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1, "items": ["x"]}`,
			field: "items[0]",
		},
		{
			name: "fractional quantity",
			doc: `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1,
				"items": [{"description": "x", "quantity": 1.5, "price": 1, "amount": 1}]}`,
			field: "items[0].quantity",
		},
		{
			name: "boolean quantity",
			doc: `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1,
				"items": [{"description": "x", "quantity": true, "price": 1, "amount": 1}]}`,
			field: "items[0].quantity",
		},
		{
			name:  "numeric notes",
			doc:   `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1, "notes": 5}`,
			field: FieldNotes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJSON([]byte(tt.doc))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidate_CoercesNumericValues(t *testing.T) {
	doc := `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": "12.50",
		"items": [{"description": "x", "quantity": "3", "price": 4, "amount": 2.0},
		          {"description": "y", "quantity": 2.0, "price": "1.25", "amount": -2.5},
		          {"description": "z", "quantity": -1, "price": 1, "amount": 1}]}`

	invoice, err := ValidateJSON([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 12.5, invoice.Total)
	require.Len(t, invoice.Items, 3)
	assert.Equal(t, 3, invoice.Items[0].Quantity)
	assert.Equal(t, 4.0, invoice.Items[0].Price)
	assert.Equal(t, 2, invoice.Items[1].Quantity)
	assert.Equal(t, 1.25, invoice.Items[1].Price)
	assert.Equal(t, -2.5, invoice.Items[1].Amount)
	// negative quantities are preserved, not clamped
	assert.Equal(t, -1, invoice.Items[2].Quantity)
}

func TestValidate_NoBusinessRules(t *testing.T) {
	// total does not match the item sum and amount is not quantity*price
	doc := `{"billed_from": "", "billed_to": "", "invoice_number": "", "date": "not a date", "total": 999,
		"items": [{"description": "", "quantity": 2, "price": 5, "amount": 1}]}`

	invoice, err := ValidateJSON([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 999.0, invoice.Total)
	assert.Equal(t, 1.0, invoice.Items[0].Amount)
	assert.Equal(t, "not a date", invoice.Date)
}

func TestValidateJSON_Malformed(t *testing.T) {
	for _, doc := range []string{``, `{`, `[]`, `"text"`, `{"a":1} {"b":2}`} {
		_, err := ValidateJSON([]byte(doc))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "doc %q", doc)
		assert.Equal(t, RootField, verr.Field)
	}
}

func TestValidator_StrictMode(t *testing.T) {
	strict, err := NewValidator(true)
	require.NoError(t, err)
	assert.True(t, strict.Strict())

	_, err = strict.ValidateJSON([]byte(sampleInvoiceJSON))
	require.NoError(t, err)

	t.Run("blank item description", func(t *testing.T) {
		doc := `{"billed_from": "A", "billed_to": "B", "invoice_number": "1", "date": "d", "total": 1,
			"items": [{"description": "   ", "quantity": 1, "price": 1, "amount": 1}]}`

		_, err := strict.ValidateJSON([]byte(doc))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
		assert.Equal(t, "items[0].description", verr.Field)
	})

	t.Run("blank billed_to", func(t *testing.T) {
		doc := `{"billed_from": "A", "billed_to": "", "invoice_number": "1", "date": "d", "total": 1}`

		_, err := strict.ValidateJSON([]byte(doc))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, FieldBilledTo, verr.Field)
	})

	t.Run("lax validator accepts blanks", func(t *testing.T) {
		lax, err := NewValidator(false)
		require.NoError(t, err)
		assert.False(t, lax.Strict())

		doc := `{"billed_from": "A", "billed_to": "", "invoice_number": "1", "date": "d", "total": 1}`
		_, err = lax.ValidateJSON([]byte(doc))
		assert.NoError(t, err)
	})
}

func TestPointerToField(t *testing.T) {
	assert.Equal(t, RootField, pointerToField(""))
	assert.Equal(t, "billed_to", pointerToField("/billed_to"))
	assert.Equal(t, "items[3].description", pointerToField("/items/3/description"))
}
