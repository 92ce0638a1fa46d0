// Package schema declares the column layouts of the files the importer reads
// and the CLI generates.
package schema

// FieldType represents the expected data type of a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
)

// FieldSpec describes a single column of an import or export file.
type FieldSpec struct {
	Name       string    // Column header name
	Type       FieldType // Expected data type
	Required   bool      // Column must exist in the header
	AllowEmpty bool      // Empty values are allowed even when Required
}

// Names returns the header names of specs in declaration order.
func Names(specs []FieldSpec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}
