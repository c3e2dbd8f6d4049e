package etl

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// The source emits Records, the Normalizer turns them into
// CanonicalRecords, both loaders consume CanonicalRecords.

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number"
}

// Schema describes the shape of records coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// HasField reports whether the schema contains a field with the given name.
func (s *Schema) HasField(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Record is a single raw row of data flowing out of a source.
// Values are loosely typed: string, float64, bool or nil.
type Record struct {
	Data map[string]any `json:"data"`
}

// CanonicalRecord is the validated, coerced, defaulted row shape
// shared by both load targets. It is immutable once produced by
// the Normalizer.
type CanonicalRecord struct {
	ID            string  `json:"id"`
	Quantity      float64 `json:"quantity"`
	ProductName   string  `json:"product_name"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	CustomerType  string  `json:"customer_type"`
}
