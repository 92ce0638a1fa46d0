// Package gen writes synthetic employee CSV files for exercising the
// importer with realistic data.
package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/JonMunkholm/crudimport/internal/schema"
)

// DefaultRows is the number of employees written when Options.Rows is zero.
const DefaultRows = 1500

// Options controls WriteEmployees.
type Options struct {
	Rows int
	// Seed makes the output reproducible. Zero picks a random seed.
	Seed uint64
	// Now anchors the fecha_ingreso window. Zero means time.Now().
	Now time.Time
}

// WriteEmployees writes a header and opts.Rows employees to w.
// Ids are sequential from 1.
func WriteEmployees(w io.Writer, opts Options) (int, error) {
	rows := opts.Rows
	if rows <= 0 {
		rows = DefaultRows
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	since := now.AddDate(-schema.EmployeeMaxTenureYears, 0, 0)

	faker := gofakeit.New(opts.Seed)
	cw := csv.NewWriter(w)

	if err := cw.Write(schema.Names(schema.EmployeeFieldSpecs)); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i := 1; i <= rows; i++ {
		record := []string{
			strconv.Itoa(i),
			faker.FirstName(),
			faker.LastName(),
			faker.RandomString(schema.Departments),
			strconv.Itoa(faker.IntRange(schema.EmployeeMinAge, schema.EmployeeMaxAge)),
			strconv.Itoa(faker.IntRange(schema.EmployeeMinSalary, schema.EmployeeMaxSalary)),
			faker.DateRange(since, now).Format(schema.EmployeeDateLayout),
		}
		if err := cw.Write(record); err != nil {
			return i - 1, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush: %w", err)
	}
	return rows, nil
}
