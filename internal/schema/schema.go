package schema

// Field names of the invoice document
const (
	FieldBilledFrom    = "billed_from"
	FieldBilledTo      = "billed_to"
	FieldInvoiceNumber = "invoice_number"
	FieldDate          = "date"
	FieldItems         = "items"
	FieldPaymentMethod = "payment_method"
	FieldTotal         = "total"
	FieldNotes         = "notes"

	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldPrice       = "price"
	FieldAmount      = "amount"
)

// nonBlank matches any string with at least one non-whitespace character
const nonBlank = `\S`

// InvoiceJSONSchema returns the JSON Schema of an invoice as a generic map.
// It is sent to the model as the structured-output constraint.
func InvoiceJSONSchema() map[string]any {
	return buildInvoiceSchema(false)
}

// StrictInvoiceJSONSchema returns InvoiceJSONSchema with the optional strict
// constraints added: free-text required fields must not be blank.
func StrictInvoiceJSONSchema() map[string]any {
	return buildInvoiceSchema(true)
}

func buildInvoiceSchema(strict bool) map[string]any {
	text := func(description string) map[string]any {
		p := map[string]any{"type": "string", "description": description}
		if strict {
			p["pattern"] = nonBlank
		}
		return p
	}

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			FieldDescription: text("Description of the item"),
			FieldQuantity:    map[string]any{"type": "integer", "description": "Quantity of the item"},
			FieldPrice:       map[string]any{"type": "number", "description": "Price of the item"},
			FieldAmount:      map[string]any{"type": "number", "description": "Total amount for the item"},
		},
		"required": []string{FieldDescription, FieldQuantity, FieldPrice, FieldAmount},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			FieldBilledFrom:    text("Sender's name and address as one field"),
			FieldBilledTo:      text("Recipient's name and address as one field"),
			FieldInvoiceNumber: text("Invoice number"),
			FieldDate:          text("Invoice date"),
			FieldItems: map[string]any{
				"type":        "array",
				"description": "List of items in the invoice",
				"items":       item,
			},
			FieldPaymentMethod: map[string]any{"type": "string", "description": "Payment method used for the transaction"},
			FieldTotal:         map[string]any{"type": "number", "description": "Total amount of the invoice"},
			FieldNotes:         map[string]any{"type": "string", "description": "Additional notes about the invoice"},
		},
		"required": []string{FieldBilledFrom, FieldBilledTo, FieldInvoiceNumber, FieldDate, FieldTotal},
	}
}
