package schema

// EmployeeFieldSpecs defines the columns of the generated employees file.
var EmployeeFieldSpecs = []FieldSpec{
	{Name: "id", Type: FieldNumeric, Required: true},
	{Name: "nombre", Type: FieldText, Required: true},
	{Name: "apellido", Type: FieldText, Required: true},
	{Name: "departamento", Type: FieldText, Required: true},
	{Name: "edad", Type: FieldNumeric, Required: true},
	{Name: "salario", Type: FieldNumeric, Required: true},
	{Name: "fecha_ingreso", Type: FieldDate, Required: true},
}

// Departments are the values the generator picks from for "departamento".
var Departments = []string{"Ventas", "TI", "RRHH", "Finanzas", "Marketing"}

// Value ranges for generated employees.
const (
	EmployeeMinAge    = 20
	EmployeeMaxAge    = 65
	EmployeeMinSalary = 1200
	EmployeeMaxSalary = 6000

	// EmployeeMaxTenureYears bounds how far back fecha_ingreso may go.
	EmployeeMaxTenureYears = 15

	// EmployeeDateLayout is the fecha_ingreso format.
	EmployeeDateLayout = "2006-01-02"
)
