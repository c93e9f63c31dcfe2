package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dlemaitre/billingcore/internal/domain/document"
)

func exportFixtures() []*document.Invoice {
	paid := 120.0
	paidDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	return []*document.Invoice{
		{
			Number:     "INV-2024-001",
			ClientName: "Acme Corp",
			Status:     document.InvoiceStatusPaid,
			IssueDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			DueDate:    &due,
			Subtotal:   100,
			TaxAmount:  20,
			Total:      120,
			PaidAmount: &paid,
			PaidDate:   &paidDate,
		},
		{
			Number:     "INV-2024-002",
			ClientName: "Globex",
			Status:     document.InvoiceStatusDraft,
			IssueDate:  time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Subtotal:   500,
			TaxAmount:  0,
			Total:      500,
		},
	}
}

func newExportService(invoices []*document.Invoice) ExportService {
	repo := &mockInvoiceRepo{
		listAllFn: func(ctx context.Context) ([]*document.Invoice, error) {
			return invoices, nil
		},
	}
	return NewExportService(repo, mockLogger{})
}

func TestExportService_InvoiceRegisterCSV(t *testing.T) {
	svc := newExportService(exportFixtures())

	data, err := svc.InvoiceRegisterCSV(context.Background())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{
		"INV-2024-001", "Acme Corp", "PAID", "2024-01-15", "2024-02-15",
		"100.00", "20.00", "120.00", "120.00", "2024-03-01",
	}, records[1])
	assert.Equal(t, []string{
		"INV-2024-002", "Globex", "DRAFT", "2024-01-20", "",
		"500.00", "0.00", "500.00", "", "",
	}, records[2])
}

func TestExportService_InvoiceRegisterCSV_Empty(t *testing.T) {
	svc := newExportService(nil)

	data, err := svc.InvoiceRegisterCSV(context.Background())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "empty register still carries the header")
	assert.Equal(t, exportHeader, records[0])
}

func TestExportService_InvoiceRegisterXLSX(t *testing.T) {
	svc := newExportService(exportFixtures())

	data, err := svc.InvoiceRegisterXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "INV-2024-001", rows[1][0])
	assert.Equal(t, "Acme Corp", rows[1][1])
	assert.Equal(t, "PAID", rows[1][2])
	assert.Equal(t, "INV-2024-002", rows[2][0])
}
