package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sheetsync/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Google Sheets source tests — served from a local test server
// via the endpoint config override.
// ─────────────────────────────────────────────────────────────

const valuesPayload = `{
	"range": "Sheet1!A1:F4",
	"majorDimension": "ROWS",
	"values": [
		["id", "quantity", "product_name", "total_amount", "payment_method", "customer_type"],
		["A1", "3", "Widget", "9.5", "cash", "retail"],
		["A2", "bad", "", "2", "card", "b2b"],
		["A3", "1"]
	]
}`

func sheetsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/sheet-1/values/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sheetsCfg(endpoint string) etl.SourceConfig {
	return etl.SourceConfig{
		"spreadsheetId": "sheet-1",
		"range":         "Sheet1",
		"endpoint":      endpoint,
	}
}

func readAll(t *testing.T, s etl.Source, cfg etl.SourceConfig) []etl.Record {
	t.Helper()
	recCh, errCh := s.Read(context.Background(), cfg)
	var records []etl.Record
	for rec := range recCh {
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("read: %v", err)
	}
	return records
}

func TestSheetsSource_Discover(t *testing.T) {
	srv := sheetsServer(t, http.StatusOK, valuesPayload)

	s, err := etl.GetSource("google_sheets")
	if err != nil {
		t.Fatalf("source not registered: %v", err)
	}

	schema, err := s.Discover(context.Background(), sheetsCfg(srv.URL))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	want := []string{"id", "quantity", "product_name", "total_amount", "payment_method", "customer_type"}
	got := schema.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSheetsSource_Read(t *testing.T) {
	srv := sheetsServer(t, http.StatusOK, valuesPayload)

	s, _ := etl.GetSource("google_sheets")
	records := readAll(t, s, sheetsCfg(srv.URL))

	if len(records) != 3 {
		t.Fatalf("expected 3 data rows, got %d", len(records))
	}

	first := records[0].Data
	if first["id"] != "A1" {
		t.Errorf("id: got %v", first["id"])
	}
	if first["quantity"] != 3.0 {
		t.Errorf("numeric cells must be inferred, got %T %v", first["quantity"], first["quantity"])
	}
	if first["product_name"] != "Widget" {
		t.Errorf("product_name: got %v", first["product_name"])
	}

	if records[1].Data["quantity"] != "bad" {
		t.Errorf("non-numeric cell must stay a string, got %v", records[1].Data["quantity"])
	}
	if records[1].Data["product_name"] != nil {
		t.Errorf("empty cell must be nil, got %v", records[1].Data["product_name"])
	}

	// Short rows: missing trailing cells come through as nil.
	short := records[2].Data
	if short["product_name"] != nil || short["customer_type"] != nil {
		t.Errorf("short row cells must be nil, got %v", short)
	}
}

func TestSheetsSource_EmptyRange(t *testing.T) {
	srv := sheetsServer(t, http.StatusOK, `{"range":"Sheet1","values":[]}`)

	s, _ := etl.GetSource("google_sheets")
	if _, err := s.Discover(context.Background(), sheetsCfg(srv.URL)); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestSheetsSource_HTTPError(t *testing.T) {
	srv := sheetsServer(t, http.StatusForbidden, `{"error":{"status":"PERMISSION_DENIED"}}`)

	s, _ := etl.GetSource("google_sheets")
	_, err := s.Discover(context.Background(), sheetsCfg(srv.URL))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSheetsSource_MissingSpreadsheetID(t *testing.T) {
	s, _ := etl.GetSource("google_sheets")
	if _, err := s.Discover(context.Background(), etl.SourceConfig{}); err == nil {
		t.Fatal("expected error without spreadsheetId")
	}
}
