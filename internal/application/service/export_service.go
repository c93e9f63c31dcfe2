package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dlemaitre/billingcore/internal/application/port"
	"github.com/dlemaitre/billingcore/internal/domain/document"
)

const exportDateFormat = "2006-01-02"

var exportHeader = []string{"Number", "Client", "Status", "Issue Date", "Due Date", "Subtotal", "Tax", "Total", "Paid Amount", "Paid Date"}

// ExportService renders the invoice register as a spreadsheet or CSV
type ExportService interface {
	InvoiceRegisterXLSX(ctx context.Context) ([]byte, error)
	InvoiceRegisterCSV(ctx context.Context) ([]byte, error)
}

type exportServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(invoiceRepo port.InvoiceRepository, logger Logger) ExportService {
	return &exportServiceImpl{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// InvoiceRegisterXLSX renders every invoice as one row of an XLSX workbook
func (s *exportServiceImpl) InvoiceRegisterXLSX(ctx context.Context) ([]byte, error) {
	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load invoices for export", "error", err)
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, title := range exportHeader {
		cell, cellErr := excelize.CoordinatesToCellName(col+1, 1)
		if cellErr != nil {
			return nil, fmt.Errorf("header cell: %w", cellErr)
		}
		if setErr := f.SetCellValue(sheet, cell, title); setErr != nil {
			return nil, fmt.Errorf("set header cell: %w", setErr)
		}
	}

	for row, inv := range invoices {
		for col, value := range invoiceRow(inv) {
			cell, cellErr := excelize.CoordinatesToCellName(col+1, row+2)
			if cellErr != nil {
				return nil, fmt.Errorf("data cell: %w", cellErr)
			}
			if setErr := f.SetCellValue(sheet, cell, value); setErr != nil {
				return nil, fmt.Errorf("set data cell: %w", setErr)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Invoice register exported", "format", "xlsx", "rows", len(invoices))
	return buf.Bytes(), nil
}

// InvoiceRegisterCSV renders every invoice as one CSV record
func (s *exportServiceImpl) InvoiceRegisterCSV(ctx context.Context) ([]byte, error) {
	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load invoices for export", "error", err)
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, inv := range invoices {
		if err := w.Write(invoiceRow(inv)); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("Invoice register exported", "format", "csv", "rows", len(invoices))
	return buf.Bytes(), nil
}

func invoiceRow(inv *document.Invoice) []string {
	return []string{
		inv.Number,
		inv.ClientName,
		inv.Status.String(),
		inv.IssueDate.Format(exportDateFormat),
		formatDate(inv.DueDate),
		formatAmount(inv.Subtotal),
		formatAmount(inv.TaxAmount),
		formatAmount(inv.Total),
		formatOptionalAmount(inv.PaidAmount),
		formatDate(inv.PaidDate),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateFormat)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptionalAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return formatAmount(*v)
}
