package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
)

// memStore is an in-memory users store.
type memStore struct {
	mu        sync.Mutex
	users     []core.User
	nextID    int
	insertErr error
	pingErr   error
}

func (m *memStore) InsertUsers(_ context.Context, records []core.NormalizedRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, r := range records {
		m.add(r.Name, r.Role)
	}
	return int64(len(records)), nil
}

func (m *memStore) add(username, role string) core.User {
	m.nextID++
	u := core.User{ID: strconv.Itoa(m.nextID), Username: username, Role: role, CreatedAt: time.Now()}
	m.users = append(m.users, u)
	return u
}

func (m *memStore) ListUsers(context.Context) ([]core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.User{}, m.users...), nil
}

func (m *memStore) CreateUser(_ context.Context, username, role string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(username, role), nil
}

func (m *memStore) index(id string) (int, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return 0, core.ErrInvalidID
	}
	for i, u := range m.users {
		if u.ID == id {
			return i, nil
		}
	}
	return 0, core.ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, id string, patch core.UserPatch) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return core.User{}, err
	}
	if patch.Username != nil {
		m.users[i].Username = *patch.Username
	}
	if patch.Role != nil {
		m.users[i].Role = *patch.Role
	}
	return m.users[i], nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.index(id)
	if err != nil {
		return core.User{}, err
	}
	u := m.users[i]
	m.users = append(m.users[:i], m.users[i+1:]...)
	return u, nil
}

func (m *memStore) Ping(context.Context) error  { return m.pingErr }
func (m *memStore) Close(context.Context) error { return nil }

// productStore adds a products table to memStore.
type productStore struct {
	memStore
	products []core.Product
}

func (p *productStore) ListProducts(context.Context) ([]core.Product, error) {
	return append([]core.Product{}, p.products...), nil
}

func (p *productStore) CreateProduct(_ context.Context, in core.CreateProductInput) (core.Product, error) {
	prod := core.Product{ID: strconv.Itoa(len(p.products) + 1), Nombre: in.Nombre, Precio: in.Precio, Categoria: in.Categoria, Stock: in.Stock}
	p.products = append(p.products, prod)
	return prod, nil
}

func (p *productStore) UpdateProduct(context.Context, string, core.ProductPatch) (core.Product, error) {
	return core.Product{}, core.ErrNotFound
}

func (p *productStore) DeleteProduct(context.Context, string) (core.Product, error) {
	return core.Product{}, core.ErrNotFound
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       time.Minute,
			TempDir:       t.TempDir(),
		},
		Security: config.SecurityConfig{
			EnableCSP:      true,
			AllowedOrigins: []string{"*"},
		},
	}
}

func newTestServer(t *testing.T, store core.UserStore) (*Server, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	srv := NewServer(core.NewService(store, cfg), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, cfg
}

func do(t *testing.T, srv *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(t, srv, method, path, r, "application/json")
}

// multipartBody builds a form with one part named field.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(part, content)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return er
}

func TestUploadUsers_CSV(t *testing.T) {
	store := &memStore{}
	srv, cfg := newTestServer(t, store)

	body, ct := multipartBody(t, "file", "users.csv", "id,username,role\n1,alice,admin\n2,,member\n3,bob,\n")
	rec := do(t, srv, http.MethodPost, "/users/upload", body, ct)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "2 users created successfully." {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Inserted != 2 || resp.UploadID == "" {
		t.Errorf("resp = %+v", resp)
	}

	users, _ := store.ListUsers(context.Background())
	got := fmt.Sprint(users[0].Username, users[0].Role, users[1].Username, users[1].Role)
	if got != "aliceadminbobmember" {
		t.Errorf("stored users = %+v", users)
	}

	entries, _ := os.ReadDir(cfg.Upload.TempDir)
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned: %d entries", len(entries))
	}
}

func TestUploadUsers_OutlivesRequestTimeout(t *testing.T) {
	store := &memStore{}
	cfg := testConfig(t)
	cfg.Server.RequestTimeout = time.Nanosecond
	srv := NewServer(core.NewService(store, cfg), cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	body, ct := multipartBody(t, "file", "users.txt", "alice\nbob\n")
	rec := do(t, srv, http.MethodPost, "/users/upload", body, ct)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if users, _ := store.ListUsers(context.Background()); len(users) != 2 {
		t.Errorf("stored %d users, want 2", len(users))
	}
}

func TestUploadUsers_PlainText(t *testing.T) {
	store := &memStore{}
	srv, _ := newTestServer(t, store)

	body, ct := multipartBody(t, "file", "NAMES.TXT", "  carol \r\n\r\ndave\r\n")
	rec := do(t, srv, http.MethodPost, "/users/upload", body, ct)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(store.users) != 2 || store.users[0].Username != "carol" || store.users[1].Role != "member" {
		t.Errorf("stored users = %+v", store.users)
	}
}

func TestUploadUsers_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		insertErr  error
		wantStatus int
		wantCode   string
	}{
		{"unsupported format", "file", "users.json", `[{"username":"a"}]`, nil, http.StatusBadRequest, "FILE006"},
		{"header only", "file", "users.csv", "username,role\n", nil, http.StatusBadRequest, "FILE005"},
		{"no names", "file", "users.csv", "username,role\n,admin\n", nil, http.StatusBadRequest, "FILE005"},
		{"missing file part", "document", "users.csv", "username\nalice\n", nil, http.StatusBadRequest, "FILE004"},
		{"store failure", "file", "users.csv", "username\nalice\n", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, "DB000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{insertErr: tt.insertErr}
			srv, _ := newTestServer(t, store)

			body, ct := multipartBody(t, tt.field, tt.filename, tt.content)
			rec := do(t, srv, http.MethodPost, "/users/upload", body, ct)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			er := decodeError(t, rec)
			if er.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", er.Code, tt.wantCode)
			}
			if tt.insertErr != nil && strings.Contains(er.Error, "relation") {
				t.Errorf("store error leaked to client: %q", er.Error)
			}
		})
	}
}

func TestUploadUsers_NotMultipart(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	rec := doJSON(t, srv, http.MethodPost, "/users/upload", `{"file":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUsersCRUD(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	rec := doJSON(t, srv, http.MethodPost, "/users", `{"username":"  alice "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var u core.User
	json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Username != "alice" || u.Role != "member" {
		t.Errorf("created = %+v", u)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/users/"+u.ID, `{"role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Role != "admin" {
		t.Errorf("updated role = %q", u.Role)
	}

	rec = doJSON(t, srv, http.MethodGet, "/users", "")
	var list []core.User
	json.Unmarshal(rec.Body.Bytes(), &list)
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("list status = %d, users = %+v", rec.Code, list)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/users/"+u.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/users/"+u.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUsersCRUD_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"blank username", http.MethodPost, "/users", `{"username":"   "}`, http.StatusBadRequest, "VAL001"},
		{"bad json", http.MethodPost, "/users", `{"username":`, http.StatusBadRequest, "VAL002"},
		{"unknown field", http.MethodPost, "/users", `{"name":"a"}`, http.StatusBadRequest, "VAL002"},
		{"empty patch", http.MethodPatch, "/users/1", `{}`, http.StatusBadRequest, "USR003"},
		{"missing user", http.MethodPatch, "/users/42", `{"role":"x"}`, http.StatusNotFound, "USR001"},
		{"invalid id", http.MethodDelete, "/users/abc", "", http.StatusBadRequest, "USR002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &memStore{})

			rec := doJSON(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if er := decodeError(t, rec); er.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", er.Code, tt.wantCode)
			}
		})
	}
}

func TestProducts(t *testing.T) {
	t.Run("unsupported backend", func(t *testing.T) {
		srv, _ := newTestServer(t, &memStore{})

		rec := doJSON(t, srv, http.MethodGet, "/productos", "")
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("create and list", func(t *testing.T) {
		srv, _ := newTestServer(t, &productStore{})

		rec := doJSON(t, srv, http.MethodPost, "/productos", `{"nombre":"Mouse","precio":12.5,"categoria":"perifericos","stock":4}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, srv, http.MethodGet, "/productos", "")
		var list []core.Product
		json.Unmarshal(rec.Body.Bytes(), &list)
		if len(list) != 1 || list[0].Nombre != "Mouse" {
			t.Errorf("list = %+v", list)
		}
	})

	t.Run("negative price", func(t *testing.T) {
		srv, _ := newTestServer(t, &productStore{})

		rec := doJSON(t, srv, http.MethodPost, "/productos", `{"nombre":"Mouse","precio":-1,"categoria":"perifericos"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})
	rec := doJSON(t, srv, http.MethodGet, "/health", "")

	var hr HealthResponse
	json.Unmarshal(rec.Body.Bytes(), &hr)
	if rec.Code != http.StatusOK || !hr.OK || hr.Timestamp.IsZero() {
		t.Errorf("status = %d, body = %+v", rec.Code, hr)
	}

	down, _ := newTestServer(t, &memStore{pingErr: errors.New("connection refused")})
	rec = doJSON(t, down, http.MethodGet, "/health", "")
	json.Unmarshal(rec.Body.Bytes(), &hr)
	if rec.Code != http.StatusServiceUnavailable || hr.OK {
		t.Errorf("status = %d, body = %+v", rec.Code, hr)
	}
}

func TestUsersPage(t *testing.T) {
	store := &memStore{}
	store.add("<b>mallory</b>", "member")
	srv, _ := newTestServer(t, store)

	rec := do(t, srv, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "&lt;b&gt;mallory&lt;/b&gt;") {
		t.Error("username not escaped")
	}
	if strings.Contains(body, "<b>mallory") {
		t.Error("raw username rendered")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}
}

func TestUsersPage_Render(t *testing.T) {
	tests := []struct {
		name  string
		users []core.User
		want  []string
	}{
		{
			name: "empty",
			want: []string{"<!doctype html>", "No users yet."},
		},
		{
			name:  "rows",
			users: []core.User{{ID: "7", Username: `a"b`, Role: "admin"}},
			want:  []string{`<tr data-id="7">`, `value="a&#34;b"`, `value="admin"`, "function saveUser"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := usersPage(tt.users).Render(context.Background(), &buf); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("page missing %q", w)
				}
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})

	doJSON(t, srv, http.MethodGet, "/users", "")
	rec := do(t, srv, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("http_requests_total not exported")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{core.ErrUnsupportedFormat, http.StatusBadRequest},
		{fmt.Errorf("ingest: %w", core.ErrEmptyBatch), http.StatusBadRequest},
		{core.ErrCorruptInput, http.StatusBadRequest},
		{&core.ValidationError{}, http.StatusBadRequest},
		{&core.NamelessRecordError{Line: 3}, http.StatusBadRequest},
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrTooManyUploads, http.StatusTooManyRequests},
		{core.ErrProductsUnsupported, http.StatusNotImplemented},
		{&core.WriteFailure{Cause: core.ErrNotFound}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	srv, _ := newTestServer(t, &memStore{})
	rl := srv.newRateLimiter(2, time.Minute)

	if !rl.allow("1.1.1.1") || !rl.allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.1.1.1") {
		t.Error("third request should be limited")
	}
	if !rl.allow("2.2.2.2") {
		t.Error("other clients are independent")
	}
}
