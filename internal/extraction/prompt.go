package extraction

// invoicePrompt is the fixed instruction sent with every image
const invoicePrompt = `Extract the invoice details from this image.
- "billed_from": the sender's name and address combined into a single field.
- "billed_to": the recipient's name and address combined into a single field.
- "invoice_number": the invoice number.
- "date": the invoice date as written on the invoice.
- "items": every line item in order, each with "description", "quantity" (integer), "price" and "amount".
- "payment_method": the payment method, if shown.
- "total": the invoice total.
- "notes": any additional notes, if present.
Respond in JSON format only.`

// jsonOnlySuffix is appended in free-text mode so the reply can be parsed locally
const jsonOnlySuffix = `
Return only a single JSON object with these keys. Do not include any other text in your response.`

// schemaSuffix introduces the schema when a backend cannot enforce it natively
const schemaSuffix = `
The JSON object must conform to this JSON schema:
`

func buildPrompt(mode ResponseMode) string {
	if mode == ModeJSON {
		return invoicePrompt + jsonOnlySuffix
	}
	return invoicePrompt
}
