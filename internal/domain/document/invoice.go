package document

import "time"

// Invoice represents a billable document with a sequential number and a
// status lifecycle. Totals are computed from line items at creation time and
// are not recomputed afterwards; line items are immutable once created.
type Invoice struct {
	ID         int64         `json:"id"`
	Number     string        `json:"number"`
	ClientName string        `json:"client_name"`
	Status     InvoiceStatus `json:"status"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   *time.Time `json:"due_date,omitempty"`

	Subtotal  float64 `json:"subtotal"`
	TaxRate   float64 `json:"tax_rate"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`

	PaidAmount *float64   `json:"paid_amount,omitempty"`
	SentDate   *time.Time `json:"sent_date,omitempty"`
	ViewedDate *time.Time `json:"viewed_date,omitempty"`
	PaidDate   *time.Time `json:"paid_date,omitempty"`

	LineItems []*InvoiceLineItem `json:"line_items,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceLineItem is a single billable position on an invoice
type InvoiceLineItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Position    int     `json:"position"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}

// ComputeTotals calculates subtotal, tax amount and total from the line items
// and the invoice's tax rate, and stores them on the invoice.
func (i *Invoice) ComputeTotals() {
	var subtotal float64
	for _, item := range i.LineItems {
		item.Amount = item.Quantity * item.UnitPrice
		subtotal += item.Amount
	}
	i.Subtotal = subtotal
	i.TaxAmount = subtotal * i.TaxRate
	i.Total = subtotal + i.TaxAmount
}
