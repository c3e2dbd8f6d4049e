package etl

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// ── Normalizer ─────────────────────────────────────────────
// Validates and cleans raw records into CanonicalRecords.
// Pure apart from logging data-quality counts.

// RequiredColumns is the column set every input dataset must carry.
// Extra columns are dropped silently.
var RequiredColumns = []string{
	"id",
	"quantity",
	"product_name",
	"total_amount",
	"payment_method",
	"customer_type",
}

// unknownValue replaces string fields that end up empty after trimming.
const unknownValue = "Unknown"

// Normalizer turns raw records into canonical ones.
type Normalizer struct {
	log *slog.Logger
}

// NewNormalizer creates a Normalizer with an injected logger.
func NewNormalizer(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize validates the dataset shape and cleans every row.
//
// Steps, in order (later steps depend on earlier ones):
//  1. verify all required columns exist (SchemaError otherwise)
//  2. drop rows whose id is nil or trims to the empty string
//  3. trim id to string
//  4. coerce quantity and total_amount to numbers, invalid → 0
//  5. trim the remaining string fields, empty → "Unknown"
//
// Output preserves the input order minus dropped rows. Rows are not
// deduplicated by id: duplicate surviving ids flow through to the
// loaders, which resolve them per store.
func (n *Normalizer) Normalize(schema *Schema, rows []Record) ([]CanonicalRecord, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if !schema.HasField(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	out := make([]CanonicalRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		id := strings.TrimSpace(stringify(row.Data["id"]))
		if id == "" {
			dropped++
			continue
		}
		out = append(out, CanonicalRecord{
			ID:            id,
			Quantity:      coerceNumeric(row.Data["quantity"]),
			ProductName:   cleanString(row.Data["product_name"]),
			TotalAmount:   coerceNumeric(row.Data["total_amount"]),
			PaymentMethod: cleanString(row.Data["payment_method"]),
			CustomerType:  cleanString(row.Data["customer_type"]),
		})
	}

	if dropped > 0 {
		n.log.Warn("removed rows with null or empty ids", "count", dropped)
	}
	n.log.Info("transformation complete", "rows", len(out))
	return out, nil
}

// stringify converts a raw cell value to its string form.
// nil (missing cell) becomes the empty string, not "nil".
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// coerceNumeric converts a raw cell value to a float64.
// Anything that does not parse as a finite number becomes 0:
// "NaN" and "Inf" parse, but no store column may carry them.
func coerceNumeric(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finiteOrZero(n)
	case float32:
		return finiteOrZero(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return finiteOrZero(f)
	default:
		return 0
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// cleanString stringifies, trims, and defaults empty values.
func cleanString(v any) string {
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return unknownValue
	}
	return s
}
