package schema

// UserNameAliases lists the source columns accepted as the user name,
// highest priority first. The first non-empty match wins.
var UserNameAliases = []string{"username", "user", "name", "nombre"}

const (
	// UserRoleColumn is the optional source column carrying the role.
	UserRoleColumn = "role"

	// DefaultUserRole is stored when the source has no usable role.
	DefaultUserRole = "member"

	// PlainTextColumn is the key given to each line of a plain-text upload.
	PlainTextColumn = "username"
)

// UserFieldSpecs documents the columns a user import file may carry.
// None is individually required; at least one name alias must hold a value
// for a row to be imported.
var UserFieldSpecs = []FieldSpec{
	{Name: "username", Type: FieldText, AllowEmpty: true},
	{Name: "user", Type: FieldText, AllowEmpty: true},
	{Name: "name", Type: FieldText, AllowEmpty: true},
	{Name: "nombre", Type: FieldText, AllowEmpty: true},
	{Name: UserRoleColumn, Type: FieldText, AllowEmpty: true},
}
