package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verdata/tabular/internal/formats"
)

const ordersDefinition = `
name: orders
description: Incoming order files
columns:
  - name: order_id
    label: Order Id
    datatype: string
    unique: true
  - name: quantity
    label: Quantity
    datatype: integer
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "orders.yml"), []byte(ordersDefinition), 0o644); err != nil {
		t.Fatal(err)
	}
	store := formats.NewStore(dir, 8, time.Minute)
	return NewServer(store, nil, Options{})
}

func doRequest(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListFormats(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var doc struct {
		Formats []string `json:"formats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Formats) != 1 || doc.Formats[0] != "orders" {
		t.Errorf("formats = %v", doc.Formats)
	}
}

func TestGetFormat(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/formats/orders", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var doc formatSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Name != "orders" || len(doc.Columns) != 2 {
		t.Errorf("summary = %+v", doc)
	}
	if doc.Columns[0].Label != "Order Id" || !doc.Columns[0].Unique {
		t.Errorf("first column = %+v", doc.Columns[0])
	}
}

func TestGetFormatUnknown(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/formats/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestValidateRawBody(t *testing.T) {
	s := newTestServer(t)

	var events []ReportEvent
	s.ReportDone.Connect(func(e ReportEvent) { events = append(events, e) })

	body := strings.NewReader("Order Id,Quantity\nA1,1\nA2,x\n")
	req := httptest.NewRequest(http.MethodPost, "/api/formats/orders/validate?filename=orders.csv", body)
	rec := doRequest(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Report-ID") == "" {
		t.Error("missing X-Report-ID header")
	}

	var doc struct {
		Status    string `json:"status"`
		Filename  string `json:"filename"`
		TotalRows int    `json:"total_rows"`
		Errors    []struct {
			Level   string `json:"error_level"`
			Code    string `json:"error_code"`
			Message string `json:"error_message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Status != "ACCEPTED" || doc.Filename != "orders.csv" || doc.TotalRows != 2 {
		t.Errorf("report = %+v", doc)
	}
	if len(doc.Errors) != 1 || doc.Errors[0].Code != "invalid-value" {
		t.Errorf("errors = %+v", doc.Errors)
	}
	if doc.Errors[0].Message != "Invalid integer: 'x'" {
		t.Errorf("error_message = %q", doc.Errors[0].Message)
	}

	if len(events) != 1 || events[0].Format != "orders" {
		t.Errorf("events = %+v", events)
	}
	if events[0].ReportID != rec.Header().Get("X-Report-ID") {
		t.Error("event report id does not match response header")
	}
}

func TestValidateMultipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "batch.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("Order Id,Quantity\nA1,1\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/formats/orders/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var doc struct {
		Status   string `json:"status"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Status != "ACCEPTED" || doc.Filename != "batch.csv" {
		t.Errorf("report = %+v", doc)
	}
}

func TestValidateRejectedFileStillResponds200(t *testing.T) {
	s := newTestServer(t)

	// A structurally broken file is a valid request with a REJECTED report.
	body := strings.NewReader("Order Id,Quantity,Bonus\nA1,1,x\n")
	req := httptest.NewRequest(http.MethodPost, "/api/formats/orders/validate", body)
	rec := doRequest(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var doc struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Status != "REJECTED" {
		t.Errorf("status = %q, want REJECTED", doc.Status)
	}
}

func TestValidateUnknownFormat(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/formats/nope/validate", strings.NewReader("a,b\n"))
	rec := doRequest(t, s, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDBRoutesWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/db/tables", "/api/db/tables/users/columns", "/api/db/enums"} {
		rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", path, rec.Code)
		}
	}
}
