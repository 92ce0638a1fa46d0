package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/crudimport/internal/core"
)

const productColumns = "id, nombre, precio, categoria, stock, created_at, updated_at"

func scanProduct(row pgx.Row) (core.Product, error) {
	var (
		id               int64
		p                core.Product
		created, updated pgtype.Timestamptz
	)
	if err := row.Scan(&id, &p.Nombre, &p.Precio, &p.Categoria, &p.Stock, &created, &updated); err != nil {
		return core.Product{}, err
	}
	p.ID = strconv.FormatInt(id, 10)
	p.CreatedAt = created.Time
	p.UpdatedAt = updated.Time
	return p, nil
}

// ListProducts returns all products ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY id", productColumns, s.productsTable.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CreateProduct inserts one product and returns the stored row.
func (s *Store) CreateProduct(ctx context.Context, in core.CreateProductInput) (core.Product, error) {
	row := s.db.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (nombre, precio, categoria, stock) VALUES ($1, $2, $3, $4) RETURNING %s",
			s.productsTable.Sanitize(), productColumns),
		in.Nombre, in.Precio, in.Categoria, in.Stock)

	p, err := scanProduct(row)
	if err != nil {
		return core.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct applies patch; nil fields keep their stored value.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch core.ProductPatch) (core.Product, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Product{}, err
	}

	row := s.db.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET nombre = COALESCE($2, nombre), precio = COALESCE($3, precio),
categoria = COALESCE($4, categoria), stock = COALESCE($5, stock), updated_at = NOW()
WHERE id = $1 RETURNING %s`, s.productsTable.Sanitize(), productColumns),
		n, patch.Nombre, patch.Precio, patch.Categoria, patch.Stock)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Product{}, core.ErrNotFound
	}
	if err != nil {
		return core.Product{}, fmt.Errorf("update product %d: %w", n, err)
	}
	return p, nil
}

// DeleteProduct removes a product and returns the deleted row.
func (s *Store) DeleteProduct(ctx context.Context, id string) (core.Product, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Product{}, err
	}

	row := s.db.QueryRow(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING %s", s.productsTable.Sanitize(), productColumns), n)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Product{}, core.ErrNotFound
	}
	if err != nil {
		return core.Product{}, fmt.Errorf("delete product %d: %w", n, err)
	}
	return p, nil
}
