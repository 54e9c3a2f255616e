package domain

// InvoiceItem represents a single line item on an invoice
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"` // Negative quantities are kept as reported
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"` // Trusted verbatim, never recomputed from quantity * price
}

// Invoice represents the structured data extracted from an invoice image
type Invoice struct {
	BilledFrom    string        `json:"billed_from"` // Sender name and address in one field
	BilledTo      string        `json:"billed_to"`   // Recipient name and address in one field
	InvoiceNumber string        `json:"invoice_number"`
	Date          string        `json:"date"` // Stored exactly as the model returns it
	Items         []InvoiceItem `json:"items"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	Total         float64       `json:"total"`
	Notes         *string       `json:"notes,omitempty"`
}

// NewInvoice creates a new invoice with an empty item list
func NewInvoice() *Invoice {
	return &Invoice{
		Items: make([]InvoiceItem, 0),
	}
}

// AddItem appends a line item, preserving the order it was reported in
func (i *Invoice) AddItem(item InvoiceItem) {
	i.Items = append(i.Items, item)
}

// StoredInvoiceRecord is the persisted wrapper around an accepted invoice
type StoredInvoiceRecord struct {
	ImageURL string  `json:"image_url"`
	Data     Invoice `json:"data"`
	// Edited is always false at creation. Nothing in the service flips it yet;
	// the field is kept so the stored document shape stays stable.
	Edited bool `json:"edited"`
}

// NewStoredInvoiceRecord wraps an invoice for persistence
func NewStoredInvoiceRecord(imageURL string, invoice Invoice) *StoredInvoiceRecord {
	if invoice.Items == nil {
		invoice.Items = make([]InvoiceItem, 0)
	}
	return &StoredInvoiceRecord{
		ImageURL: imageURL,
		Data:     invoice,
		Edited:   false,
	}
}
