package core

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// fakeStore is an in-memory UserStore that records bulk insert calls.
type fakeStore struct {
	mu          sync.Mutex
	users       []User
	nextID      int
	insertCalls int
	inserted    [][]NormalizedRecord
	insertErr   error
}

func (f *fakeStore) InsertUsers(_ context.Context, records []NormalizedRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, append([]NormalizedRecord(nil), records...))
	for _, r := range records {
		f.add(r.Name, r.Role)
	}
	return int64(len(records)), nil
}

func (f *fakeStore) add(username, role string) User {
	f.nextID++
	now := time.Now()
	u := User{ID: strconv.Itoa(f.nextID), Username: username, Role: role, CreatedAt: now, UpdatedAt: now}
	f.users = append(f.users, u)
	return u
}

func (f *fakeStore) ListUsers(context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]User(nil), f.users...), nil
}

func (f *fakeStore) CreateUser(_ context.Context, username, role string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(username, role), nil
}

func (f *fakeStore) find(id string) (int, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return 0, ErrInvalidID
	}
	for i, u := range f.users {
		if u.ID == id {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

func (f *fakeStore) UpdateUser(_ context.Context, id string, patch UserPatch) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.find(id)
	if err != nil {
		return User{}, err
	}
	if patch.Username != nil {
		f.users[i].Username = *patch.Username
	}
	if patch.Role != nil {
		f.users[i].Role = *patch.Role
	}
	return f.users[i], nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, err := f.find(id)
	if err != nil {
		return User{}, err
	}
	u := f.users[i]
	f.users = append(f.users[:i], f.users[i+1:]...)
	return u, nil
}

func (f *fakeStore) Ping(context.Context) error  { return nil }
func (f *fakeStore) Close(context.Context) error { return nil }

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertCalls
}

// fakeProductStore adds an in-memory products table to fakeStore.
type fakeProductStore struct {
	fakeStore
	products []Product
}

func (f *fakeProductStore) ListProducts(context.Context) ([]Product, error) {
	return append([]Product(nil), f.products...), nil
}

func (f *fakeProductStore) CreateProduct(_ context.Context, in CreateProductInput) (Product, error) {
	p := Product{
		ID:        strconv.Itoa(len(f.products) + 1),
		Nombre:    in.Nombre,
		Precio:    in.Precio,
		Categoria: in.Categoria,
		Stock:     in.Stock,
	}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, id string, patch ProductPatch) (Product, error) {
	for i := range f.products {
		if f.products[i].ID != id {
			continue
		}
		if patch.Nombre != nil {
			f.products[i].Nombre = *patch.Nombre
		}
		if patch.Precio != nil {
			f.products[i].Precio = *patch.Precio
		}
		if patch.Categoria != nil {
			f.products[i].Categoria = *patch.Categoria
		}
		if patch.Stock != nil {
			f.products[i].Stock = *patch.Stock
		}
		return f.products[i], nil
	}
	return Product{}, ErrNotFound
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id string) (Product, error) {
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

var errStoreDown = errors.New("connection refused")
