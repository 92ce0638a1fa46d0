package core

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/logging"
	"github.com/JonMunkholm/crudimport/internal/schema"
)

// Service provides the user and product use cases on top of an injected store.
// The caller owns the store: it opens it before NewService and closes it
// after the last request.
type Service struct {
	users    UserStore
	products ProductStore // nil when the backend has no products

	ingestor      *Ingestor
	uploadLimiter *UploadLimiter
	uploadTimeout time.Duration
	validate      *validator.Validate
}

// NewService creates a Service over users. Products are enabled when users
// also implements ProductStore.
func NewService(users UserStore, cfg *config.Config) *Service {
	s := &Service{
		users:         users,
		ingestor:      NewIngestor(users, Normalizer{OnNameless: SkipNameless}, cfg.Upload.TempDir),
		uploadLimiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		uploadTimeout: cfg.Upload.Timeout,
		validate:      newValidator(),
	}
	if ps, ok := users.(ProductStore); ok {
		s.products = ps
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts failures to *ValidationError.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// trimPtr returns a trimmed copy of *p, or nil.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

// SupportsProducts reports whether the configured store has a products table.
func (s *Service) SupportsProducts() bool {
	return s.products != nil
}

// ----------------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------------

// ListUsers returns all users ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.ListUsers(ctx)
}

// CreateUser validates and stores one user. A blank role becomes the default role.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = schema.DefaultUserRole
	}
	if err := s.validateStruct(in); err != nil {
		return User{}, err
	}

	u, err := s.users.CreateUser(ctx, in.Username, in.Role)
	if err != nil {
		return User{}, err
	}
	logging.FromContext(ctx).Info("user created", "id", u.ID)
	return u, nil
}

// UpdateUser applies a partial update. Fields left nil keep their value.
func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrInvalidID
	}
	if patch.Empty() {
		return User{}, ErrNothingToUpdate
	}
	patch.Username = trimPtr(patch.Username)
	patch.Role = trimPtr(patch.Role)
	if err := s.validateStruct(patch); err != nil {
		return User{}, err
	}

	u, err := s.users.UpdateUser(ctx, id, patch)
	if err != nil {
		return User{}, err
	}
	logging.FromContext(ctx).Info("user updated", "id", u.ID)
	return u, nil
}

// DeleteUser removes a user and returns the deleted row.
func (s *Service) DeleteUser(ctx context.Context, id string) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, ErrInvalidID
	}

	u, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	logging.FromContext(ctx).Info("user deleted", "id", u.ID)
	return u, nil
}

// ----------------------------------------------------------------------------
// Bulk import
// ----------------------------------------------------------------------------

// ImportUsers runs one upload through the import pipeline.
//
// It waits for an upload slot first and returns ErrTooManyUploads if none
// frees up in time. The pipeline runs on the caller's goroutine, bounded by
// the configured upload timeout.
func (s *Service) ImportUsers(ctx context.Context, up Upload) (BatchResult, error) {
	if _, err := FormatForFile(up.FileName); err != nil {
		logging.FromContext(ctx).Warn("upload rejected", "file", up.FileName, "error", err)
		UploadsTotal.WithLabelValues(FailureKind(err)).Inc()
		return BatchResult{FileName: up.FileName}, err
	}

	if err := s.uploadLimiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyUploads) {
			UploadsTotal.WithLabelValues(FailureKind(err)).Inc()
		}
		return BatchResult{FileName: up.FileName}, err
	}
	defer s.uploadLimiter.Release()

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	return s.ingestor.Ingest(ctx, up)
}

// UploadStatus returns the upload limiter state.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.uploadLimiter.Status()
}

// WaitForUploads blocks until running uploads finish or ctx is done.
// Used during graceful shutdown.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.uploadLimiter.WaitForDrain(ctx)
}

// ----------------------------------------------------------------------------
// Products
// ----------------------------------------------------------------------------

// ListProducts returns all products ordered by id.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	if s.products == nil {
		return nil, ErrProductsUnsupported
	}
	return s.products.ListProducts(ctx)
}

// CreateProduct validates and stores one product.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (Product, error) {
	if s.products == nil {
		return Product{}, ErrProductsUnsupported
	}
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Categoria = strings.TrimSpace(in.Categoria)
	if err := s.validateStruct(in); err != nil {
		return Product{}, err
	}

	p, err := s.products.CreateProduct(ctx, in)
	if err != nil {
		return Product{}, err
	}
	logging.FromContext(ctx).Info("product created", "id", p.ID)
	return p, nil
}

// UpdateProduct applies a partial update. Fields left nil keep their value.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if s.products == nil {
		return Product{}, ErrProductsUnsupported
	}
	if strings.TrimSpace(id) == "" {
		return Product{}, ErrInvalidID
	}
	if patch.Empty() {
		return Product{}, ErrNothingToUpdate
	}
	patch.Nombre = trimPtr(patch.Nombre)
	patch.Categoria = trimPtr(patch.Categoria)
	if err := s.validateStruct(patch); err != nil {
		return Product{}, err
	}

	return s.products.UpdateProduct(ctx, id, patch)
}

// DeleteProduct removes a product and returns the deleted row.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Product, error) {
	if s.products == nil {
		return Product{}, ErrProductsUnsupported
	}
	if strings.TrimSpace(id) == "" {
		return Product{}, ErrInvalidID
	}
	return s.products.DeleteProduct(ctx, id)
}
