package core

import (
	"context"
	"time"
)

// Format identifies how an uploaded file is parsed.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatPlainText Format = "plain-text"
)

// Field is one column-name/value pair of a RawRecord.
type Field struct {
	Name  string
	Value string
}

// RawRecord is an ordered mapping of column name to value for one input line.
// It is immutable once emitted by the parser.
type RawRecord struct {
	line   int
	fields []Field
}

// NewRawRecord builds a record from fields in column order.
// The fields are copied.
func NewRawRecord(line int, fields ...Field) RawRecord {
	return RawRecord{line: line, fields: append([]Field(nil), fields...)}
}

// Line returns the 1-based input line the record came from.
func (r RawRecord) Line() int { return r.line }

// Len returns the number of fields present.
func (r RawRecord) Len() int { return len(r.fields) }

// Get returns the value for name. When a header repeats a column name the
// first occurrence wins.
func (r RawRecord) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the record's fields in column order.
func (r RawRecord) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// NormalizedRecord is the canonical shape written to the users store.
// Name is never empty or whitespace-only.
type NormalizedRecord struct {
	Name string
	Role string
}

// BatchResult summarizes one completed upload.
type BatchResult struct {
	UploadID string        `json:"upload_id"`
	FileName string        `json:"file_name"`
	Format   Format        `json:"format"`
	Inserted int64         `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// UploadPhase represents the current stage of an upload.
type UploadPhase string

const (
	PhaseReceived    UploadPhase = "received"
	PhaseParsing     UploadPhase = "parsing"
	PhaseNormalizing UploadPhase = "normalizing"
	PhaseWriting     UploadPhase = "writing"
	PhaseCompleted   UploadPhase = "completed"
	PhaseFailed      UploadPhase = "failed"
)

// User is a stored user row or document.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput is the payload for creating one user.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,max=255"`
	Role     string `json:"role" validate:"max=50"`
}

// UserPatch is a partial user update. Nil fields keep their stored value.
type UserPatch struct {
	Username *string `json:"username" validate:"omitnil,min=1,max=255"`
	Role     *string `json:"role" validate:"omitnil,min=1,max=50"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Role == nil
}

// Product is a stored row of the productos table.
type Product struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Precio    float64   `json:"precio"`
	Categoria string    `json:"categoria"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProductInput is the payload for creating one product.
type CreateProductInput struct {
	Nombre    string  `json:"nombre" validate:"required,max=255"`
	Precio    float64 `json:"precio" validate:"gte=0"`
	Categoria string  `json:"categoria" validate:"required,max=100"`
	Stock     int     `json:"stock" validate:"gte=0"`
}

// ProductPatch is a partial product update. Nil fields keep their stored value.
type ProductPatch struct {
	Nombre    *string  `json:"nombre" validate:"omitnil,min=1,max=255"`
	Precio    *float64 `json:"precio" validate:"omitnil,gte=0"`
	Categoria *string  `json:"categoria" validate:"omitnil,min=1,max=100"`
	Stock     *int     `json:"stock" validate:"omitnil,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Nombre == nil && p.Precio == nil && p.Categoria == nil && p.Stock == nil
}

// BatchInserter is the single collaborator the bulk writer needs: insert many
// records into one table or collection and report how many were stored.
type BatchInserter interface {
	InsertUsers(ctx context.Context, records []NormalizedRecord) (int64, error)
}

// UserStore is a users table or collection. Implementations return
// ErrInvalidID for ids they cannot parse and ErrNotFound for missing rows.
type UserStore interface {
	BatchInserter
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, username, role string) (User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) (User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProductStore is a productos table or collection. Backends that have no
// products implement only UserStore.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, in CreateProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id string) (Product, error)
}
