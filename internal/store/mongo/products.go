package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/crudimport/internal/core"
)

type productDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Nombre    string             `bson:"nombre"`
	Precio    float64            `bson:"precio"`
	Categoria string             `bson:"categoria"`
	Stock     int                `bson:"stock"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d productDoc) toProduct() core.Product {
	return core.Product{
		ID:        d.ID.Hex(),
		Nombre:    d.Nombre,
		Precio:    d.Precio,
		Categoria: d.Categoria,
		Stock:     d.Stock,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func productUpdate(patch core.ProductPatch, at time.Time) bson.M {
	set := bson.M{"updated_at": at}
	if patch.Nombre != nil {
		set["nombre"] = *patch.Nombre
	}
	if patch.Precio != nil {
		set["precio"] = *patch.Precio
	}
	if patch.Categoria != nil {
		set["categoria"] = *patch.Categoria
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	return bson.M{"$set": set}
}

// ListProducts returns all products in insertion order.
func (s *Store) ListProducts(ctx context.Context) ([]core.Product, error) {
	cur, err := s.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]core.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toProduct()
	}
	return products, nil
}

// CreateProduct inserts one product.
func (s *Store) CreateProduct(ctx context.Context, in core.CreateProductInput) (core.Product, error) {
	ts := now()
	doc := productDoc{
		Nombre:    in.Nombre,
		Precio:    in.Precio,
		Categoria: in.Categoria,
		Stock:     in.Stock,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	res, err := s.products.InsertOne(ctx, doc)
	if err != nil {
		return core.Product{}, fmt.Errorf("create product: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toProduct(), nil
}

// UpdateProduct applies patch and returns the updated document.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch core.ProductPatch) (core.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Product{}, err
	}

	var doc productDoc
	err = s.products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, productUpdate(patch, now()), afterUpdate()).Decode(&doc)
	if err != nil {
		return core.Product{}, notFound(err)
	}
	return doc.toProduct(), nil
}

// DeleteProduct removes a product and returns the deleted document.
func (s *Store) DeleteProduct(ctx context.Context, id string) (core.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.Product{}, err
	}

	var doc productDoc
	if err := s.products.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return core.Product{}, notFound(err)
	}
	return doc.toProduct(), nil
}
