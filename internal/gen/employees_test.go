package gen

import (
	"bytes"
	"encoding/csv"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/crudimport/internal/schema"
)

func TestWriteEmployees(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	n, err := WriteEmployees(&buf, Options{Rows: 200, Seed: 7, Now: now})
	if err != nil {
		t.Fatalf("WriteEmployees() error = %v", err)
	}
	if n != 200 {
		t.Fatalf("rows = %d, want 200", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 201 {
		t.Fatalf("got %d records, want header + 200", len(records))
	}

	header := "id,nombre,apellido,departamento,edad,salario,fecha_ingreso"
	if got := strings.Join(records[0], ","); got != header {
		t.Errorf("header = %q, want %q", got, header)
	}

	earliest := now.AddDate(-schema.EmployeeMaxTenureYears, 0, -1)
	for i, rec := range records[1:] {
		if rec[0] != strconv.Itoa(i+1) {
			t.Errorf("row %d: id = %s", i+1, rec[0])
		}
		if rec[1] == "" || rec[2] == "" {
			t.Errorf("row %d: empty name %v", i+1, rec)
		}
		if !slices.Contains(schema.Departments, rec[3]) {
			t.Errorf("row %d: departamento = %q", i+1, rec[3])
		}
		checkRange(t, i+1, "edad", rec[4], schema.EmployeeMinAge, schema.EmployeeMaxAge)
		checkRange(t, i+1, "salario", rec[5], schema.EmployeeMinSalary, schema.EmployeeMaxSalary)

		d, err := time.Parse(schema.EmployeeDateLayout, rec[6])
		if err != nil {
			t.Errorf("row %d: fecha_ingreso %q: %v", i+1, rec[6], err)
			continue
		}
		if d.Before(earliest) || d.After(now) {
			t.Errorf("row %d: fecha_ingreso %s outside window", i+1, rec[6])
		}
	}
}

func TestWriteEmployees_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var a, b bytes.Buffer

	WriteEmployees(&a, Options{Rows: 20, Seed: 42, Now: now})
	WriteEmployees(&b, Options{Rows: 20, Seed: 42, Now: now})

	if a.String() != b.String() {
		t.Error("same seed produced different output")
	}
}

func TestWriteEmployees_DefaultRows(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteEmployees(&buf, Options{Seed: 1})
	if err != nil || n != DefaultRows {
		t.Errorf("WriteEmployees() = %d, %v; want %d rows", n, err, DefaultRows)
	}
}

func checkRange(t *testing.T, row int, col, v string, lo, hi int) {
	t.Helper()
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		t.Errorf("row %d: %s = %q, want %d..%d", row, col, v, lo, hi)
	}
}
