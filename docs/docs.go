// Package docs registers the OpenAPI document served under /api-docs.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/extract-invoice/": {
            "post": {
                "description": "Store an uploaded invoice image and extract a draft invoice with the vision model. The draft is not saved.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Extract an invoice",
                "parameters": [
                    {"type": "file", "description": "Invoice image file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Draft invoice, or an error object in extracted_text", "schema": {"$ref": "#/definitions/model.ExtractInvoiceResponse"}},
                    "400": {"description": "Missing or oversized file", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/submit-invoice/": {
            "post": {
                "description": "Validate the (possibly edited) invoice JSON and store it with its image reference. Stored records start with edited=false.",
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "Submit a reviewed invoice",
                "parameters": [
                    {"type": "string", "description": "Image URL returned by /extract-invoice/", "name": "image_url", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON-encoded invoice", "name": "extracted_text", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Invoice stored, or an error object", "schema": {"$ref": "#/definitions/model.MessageResponse"}},
                    "400": {"description": "Missing form field", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/get-data/": {
            "get": {
                "description": "Return every stored invoice record. Internal identifiers are not included.",
                "produces": ["application/json"],
                "tags": ["invoices"],
                "summary": "List stored invoices",
                "responses": {
                    "200": {"description": "Stored records, or an error object", "schema": {"$ref": "#/definitions/model.InvoiceListResponse"}}
                }
            }
        },
        "/export-data/": {
            "get": {
                "description": "Download every stored invoice as an XLSX workbook with Invoices and Items sheets",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["invoices"],
                "summary": "Export stored invoices",
                "responses": {
                    "200": {"description": "XLSX workbook", "schema": {"type": "file"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Invoice": {
            "type": "object",
            "properties": {
                "billed_from": {"type": "string"},
                "billed_to": {"type": "string"},
                "invoice_number": {"type": "string"},
                "date": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.InvoiceItem"}},
                "payment_method": {"type": "string"},
                "total": {"type": "number"},
                "notes": {"type": "string"}
            }
        },
        "domain.InvoiceItem": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "quantity": {"type": "integer"},
                "price": {"type": "number"},
                "amount": {"type": "number"}
            }
        },
        "domain.StoredInvoiceRecord": {
            "type": "object",
            "properties": {
                "image_url": {"type": "string"},
                "data": {"$ref": "#/definitions/domain.Invoice"},
                "edited": {"type": "boolean"}
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "model.ExtractInvoiceResponse": {
            "type": "object",
            "properties": {
                "image_url": {"type": "string"},
                "extracted_text": {"type": "object"}
            }
        },
        "model.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "model.InvoiceListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.StoredInvoiceRecord"}}
            }
        },
        "model.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Invoice Extraction API",
	Description:      "Upload invoice images, review the extracted data and store it.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
