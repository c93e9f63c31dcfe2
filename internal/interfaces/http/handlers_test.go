package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlemaitre/billingcore/internal/application/service"
	"github.com/dlemaitre/billingcore/internal/domain/document"
)

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// stubInvoiceService implements service.InvoiceService with func fields
type stubInvoiceService struct {
	createFn func(ctx context.Context, in service.CreateInvoiceInput) (*document.Invoice, error)
	getFn    func(ctx context.Context, id int64) (*document.Invoice, error)
	payFn    func(ctx context.Context, id int64, paidAmount float64) (*document.Invoice, error)
	transFn  func(ctx context.Context, id int64) (*document.Invoice, error)
}

func (s *stubInvoiceService) Create(ctx context.Context, in service.CreateInvoiceInput) (*document.Invoice, error) {
	return s.createFn(ctx, in)
}

func (s *stubInvoiceService) Get(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.getFn(ctx, id)
}

func (s *stubInvoiceService) List(ctx context.Context, limit, offset int) ([]*document.Invoice, error) {
	return nil, nil
}

func (s *stubInvoiceService) MarkSent(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.transFn(ctx, id)
}

func (s *stubInvoiceService) MarkViewed(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.transFn(ctx, id)
}

func (s *stubInvoiceService) MarkPaid(ctx context.Context, id int64, paidAmount float64) (*document.Invoice, error) {
	return s.payFn(ctx, id, paidAmount)
}

func (s *stubInvoiceService) MarkOverdue(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.transFn(ctx, id)
}

func (s *stubInvoiceService) Cancel(ctx context.Context, id int64) (*document.Invoice, error) {
	return s.transFn(ctx, id)
}

// stubContractService implements service.ContractService with func fields
type stubContractService struct {
	signFn func(ctx context.Context, contractID, signatureID int64, in service.SignSignatureInput) (*document.Signature, error)
}

func (s *stubContractService) Create(ctx context.Context, in service.CreateContractInput) (*document.Contract, error) {
	return nil, nil
}

func (s *stubContractService) Get(ctx context.Context, id int64) (*document.Contract, error) {
	return nil, fmt.Errorf("contract %d: %w", id, document.ErrNotFound)
}

func (s *stubContractService) List(ctx context.Context, limit, offset int) ([]*document.Contract, error) {
	return nil, nil
}

func (s *stubContractService) SendForSignature(ctx context.Context, id int64) (*document.Contract, error) {
	return nil, nil
}

func (s *stubContractService) SignSignature(ctx context.Context, contractID, signatureID int64, in service.SignSignatureInput) (*document.Signature, error) {
	return s.signFn(ctx, contractID, signatureID, in)
}

func (s *stubContractService) Activate(ctx context.Context, id int64) (*document.Contract, error) {
	return nil, nil
}

func (s *stubContractService) MarkExpired(ctx context.Context, id int64) (*document.Contract, error) {
	return nil, nil
}

func (s *stubContractService) Cancel(ctx context.Context, id int64) (*document.Contract, error) {
	return nil, nil
}

// stubExportService implements service.ExportService
type stubExportService struct{}

func (stubExportService) InvoiceRegisterXLSX(ctx context.Context) ([]byte, error) {
	return []byte("xlsx-bytes"), nil
}

func (stubExportService) InvoiceRegisterCSV(ctx context.Context) ([]byte, error) {
	return []byte("Number,Client\n"), nil
}

func newTestServer(inv service.InvoiceService, con service.ContractService) *Server {
	if inv == nil {
		inv = &stubInvoiceService{}
	}
	if con == nil {
		con = &stubContractService{}
	}
	return NewServer(DefaultServerConfig(), inv, con, stubExportService{}, noopLogger{})
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return resp
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(nil, nil)

	w := doRequest(s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	resp := decodeResponse(t, w)
	if !resp.Success {
		t.Error("health response should be successful")
	}
}

func TestCreateInvoice(t *testing.T) {
	inv := &stubInvoiceService{
		createFn: func(ctx context.Context, in service.CreateInvoiceInput) (*document.Invoice, error) {
			return &document.Invoice{ID: 1, Number: "INV-2024-001", ClientName: in.ClientName, Status: document.InvoiceStatusDraft}, nil
		},
	}
	s := newTestServer(inv, nil)

	body := []byte(`{"client_name":"Acme Corp","tax_rate":0.2,"line_items":[{"description":"Consulting","quantity":2,"unit_price":100}]}`)
	w := doRequest(s, http.MethodPost, "/api/invoices", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if !resp.Success {
		t.Errorf("Success = false, error %q", resp.Error)
	}
}

func TestCreateInvoice_InvalidBody(t *testing.T) {
	s := newTestServer(nil, nil)

	w := doRequest(s, http.MethodPost, "/api/invoices", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Success {
		t.Error("Success should be false for invalid body")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("invoice 7: %w", document.ErrNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("bad input: %w", document.ErrValidation), http.StatusBadRequest},
		{"precondition", fmt.Errorf("cannot pay: %w", document.ErrPrecondition), http.StatusConflict},
		{"conflict", fmt.Errorf("number taken: %w", document.ErrConflict), http.StatusConflict},
		{"unauthorized", fmt.Errorf("not yours: %w", document.ErrUnauthorized), http.StatusForbidden},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &stubInvoiceService{
				getFn: func(ctx context.Context, id int64) (*document.Invoice, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(inv, nil)

			w := doRequest(s, http.MethodGet, "/api/invoices/7", nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeResponse(t, w)
			if resp.Success {
				t.Error("Success should be false")
			}
			if tt.wantStatus == http.StatusInternalServerError && resp.Error != "internal error" {
				t.Errorf("internal errors must be opaque, got %q", resp.Error)
			}
		})
	}
}

func TestGetInvoice_InvalidID(t *testing.T) {
	s := newTestServer(nil, nil)

	w := doRequest(s, http.MethodGet, "/api/invoices/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPayInvoice(t *testing.T) {
	var gotAmount float64
	inv := &stubInvoiceService{
		payFn: func(ctx context.Context, id int64, paidAmount float64) (*document.Invoice, error) {
			gotAmount = paidAmount
			return &document.Invoice{ID: id, Status: document.InvoiceStatusPaid}, nil
		},
	}
	s := newTestServer(inv, nil)

	w := doRequest(s, http.MethodPost, "/api/invoices/3/pay", []byte(`{"paid_amount":120.5}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotAmount != 120.5 {
		t.Errorf("paid amount = %v, want 120.5", gotAmount)
	}
}

func TestExportInvoices(t *testing.T) {
	s := newTestServer(nil, nil)

	w := doRequest(s, http.MethodGet, "/api/invoices/export?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	w = doRequest(s, http.MethodGet, "/api/invoices/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for default format", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q, want xlsx mime type", ct)
	}

	w = doRequest(s, http.MethodGet, "/api/invoices/export?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unsupported format", w.Code)
	}
}

func TestSignSignature_RouteParsesBothIDs(t *testing.T) {
	var gotContract, gotSignature int64
	con := &stubContractService{
		signFn: func(ctx context.Context, contractID, signatureID int64, in service.SignSignatureInput) (*document.Signature, error) {
			gotContract = contractID
			gotSignature = signatureID
			return &document.Signature{ID: signatureID, ContractID: contractID}, nil
		},
	}
	s := newTestServer(nil, con)

	w := doRequest(s, http.MethodPost, "/api/contracts/5/signatures/9/sign", []byte(`{}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotContract != 5 || gotSignature != 9 {
		t.Errorf("parsed ids = (%d, %d), want (5, 9)", gotContract, gotSignature)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(nil, nil)

	w := doRequest(s, http.MethodGet, "/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want the incoming header echoed", got)
	}
}
