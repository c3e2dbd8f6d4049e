package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sheetsync/internal/etl"
)

// ── Google Sheets Source ────────────────────────────────────
// Reads a sheet through the Sheets v4 values endpoint. Authenticates
// with either an API key (public/link-readable sheets) or an OAuth
// bearer token. The first row of the range is treated as the header.

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

type sheetsSource struct{}

func init() { etl.RegisterSource(&sheetsSource{}) }

func (s *sheetsSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{Type: "google_sheets", Label: "Google Sheets"}
}

func (s *sheetsSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	headers, _, err := fetchSheet(ctx, cfg)
	if err != nil {
		return nil, err
	}

	schema := &etl.Schema{Fields: make([]etl.Field, len(headers))}
	for i, h := range headers {
		schema.Fields[i] = etl.Field{Name: h, Type: "text"}
	}
	return schema, nil
}

func (s *sheetsSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		headers, rows, err := fetchSheet(ctx, cfg)
		if err != nil {
			errCh <- err
			return
		}

		for _, row := range rows {
			data := make(map[string]any, len(headers))
			for j, h := range headers {
				if j < len(row) {
					data[h] = cellValue(row[j])
				} else {
					data[h] = nil // short row: trailing cells are empty
				}
			}
			select {
			case out <- etl.Record{Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// valuesResponse is the Sheets v4 values.get payload.
type valuesResponse struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

func fetchSheet(ctx context.Context, cfg etl.SourceConfig) ([]string, [][]any, error) {
	spreadsheetID, _ := cfg["spreadsheetId"].(string)
	if spreadsheetID == "" {
		return nil, nil, fmt.Errorf("spreadsheetId is required")
	}

	sheetRange, _ := cfg["range"].(string)
	if sheetRange == "" {
		sheetRange = "Sheet1"
	}

	base, _ := cfg["endpoint"].(string)
	if base == "" {
		base = sheetsAPIBase
	}

	reqURL := fmt.Sprintf("%s/%s/values/%s",
		base, url.PathEscape(spreadsheetID), url.PathEscape(sheetRange))
	if apiKey, _ := cfg["apiKey"].(string); apiKey != "" {
		reqURL += "?key=" + url.QueryEscape(apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if token, _ := cfg["accessToken"].(string); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("sheets api returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload valuesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("parse response: %w", err)
	}
	if len(payload.Values) == 0 {
		return nil, nil, fmt.Errorf("sheet range %q is empty", sheetRange)
	}

	headerRow := payload.Values[0]
	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = fmt.Sprint(h)
	}
	return headers, payload.Values[1:], nil
}

// cellValue normalizes a JSON cell. Formatted sheets return strings,
// unformatted ones return numbers directly.
func cellValue(v any) any {
	switch c := v.(type) {
	case string:
		return inferValue(c)
	default:
		return c
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
