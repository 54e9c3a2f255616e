package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ridwanfathin/invoice-extraction-service/internal/repository"
)

const (
	invoicesSheet = "Invoices"
	itemsSheet    = "Items"
)

// Service produces XLSX workbooks of the stored invoice records
type Service struct {
	repo   repository.InvoiceRepository
	logger *slog.Logger
}

// NewService creates a new export service
func NewService(repo repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// InvoicesXLSX returns a workbook with one row per stored invoice on the
// Invoices sheet and one row per line item on the Items sheet. Rows are
// numbered by their position in the record list.
func (s *Service) InvoicesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet so the invoice list opens first
	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	if index, _ := f.GetSheetIndex(itemsSheet); index == -1 {
		if _, err := f.NewSheet(itemsSheet); err != nil {
			return nil, fmt.Errorf("xlsx new sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(invoicesSheet)
	f.SetActiveSheet(activeIndex)

	if err := writeRow(f, invoicesSheet, 1, []any{
		"#", "Invoice Number", "Date", "Billed From", "Billed To",
		"Payment Method", "Total", "Items", "Notes", "Image URL", "Edited",
	}); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, []any{
		"#", "Invoice Number", "Description", "Quantity", "Price", "Amount",
	}); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, record := range records {
		invoice := record.Data
		if err := writeRow(f, invoicesSheet, i+2, []any{
			i + 1,
			invoice.InvoiceNumber,
			invoice.Date,
			invoice.BilledFrom,
			invoice.BilledTo,
			deref(invoice.PaymentMethod),
			invoice.Total,
			len(invoice.Items),
			deref(invoice.Notes),
			record.ImageURL,
			record.Edited,
		}); err != nil {
			return nil, err
		}

		for _, item := range invoice.Items {
			if err := writeRow(f, itemsSheet, itemRow, []any{
				i + 1,
				invoice.InvoiceNumber,
				item.Description,
				item.Quantity,
				item.Price,
				item.Amount,
			}); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	// Widen the free-text columns
	for _, w := range columnWidths {
		if err := f.SetColWidth(w.sheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("xlsx column width %s!%s:%s: %w", w.sheet, w.from, w.to, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

var columnWidths = []struct {
	sheet    string
	from, to string
	width    float64
}{
	{invoicesSheet, "B", "C", 16},
	{invoicesSheet, "D", "E", 40},
	{invoicesSheet, "F", "F", 18},
	{invoicesSheet, "I", "J", 48},
	{itemsSheet, "B", "B", 16},
	{itemsSheet, "C", "C", 48},
}

// writeRow fills one row starting at column A
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("xlsx set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
