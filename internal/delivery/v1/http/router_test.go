package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const validToken = "valid-token"

type fakeProductUC struct {
	created   *usecase.CreateProductReq
	updated   *usecase.UpdateProductReq
	listReq   *usecase.ListProductsReq
	getErr    error
	createErr error
}

func (f *fakeProductUC) ListProducts(_ context.Context, req *usecase.ListProductsReq) (*usecase.ListProductsRes, error) {
	f.listReq = req
	return usecase.NewListProductsRes(
		[]usecase.ProductInfo{{ID: 1, Name: "Widget", Stock: 2}},
		usecase.NewPagination(1, 10, 1),
	), nil
}

func (f *fakeProductUC) SearchProducts(_ context.Context, name string) ([]usecase.ProductInfo, error) {
	if name == "" {
		return nil, e.Wrap("search", e.ErrSearchNameRequired)
	}
	return []usecase.ProductInfo{{ID: 1, Name: name}}, nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*usecase.ProductInfo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &usecase.ProductInfo{ID: id, Name: "Widget"}, nil
}

func (f *fakeProductUC) GetProductHistory(_ context.Context, id int64) ([]usecase.HistoryEntryInfo, error) {
	return []usecase.HistoryEntryInfo{{ID: 1, ProductID: id, OldQuantity: 10, NewQuantity: 7, ChangedBy: "admin"}}, nil
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.CreateProductReq) (*usecase.ProductInfo, error) {
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &usecase.ProductInfo{ID: 5, Name: req.Name, Stock: req.Stock}, nil
}

func (f *fakeProductUC) UpdateProduct(_ context.Context, req *usecase.UpdateProductReq) (*usecase.ProductInfo, error) {
	f.updated = req
	return &usecase.ProductInfo{ID: req.ID, Name: req.Name, Stock: req.Stock}, nil
}

func (f *fakeProductUC) DeleteProduct(_ context.Context, id int64) error {
	if id == 404 {
		return e.Wrap("delete", e.ErrProductNotFound)
	}
	return nil
}

type fakeImportUC struct {
	fileName string
	body     string
}

func (f *fakeImportUC) ImportProducts(_ context.Context, req *usecase.ImportProductsReq) (*usecase.ImportProductsRes, error) {
	data, err := io.ReadAll(req.File)
	if err != nil {
		return nil, err
	}
	f.fileName, f.body = req.FileName, string(data)

	return &usecase.ImportProductsRes{
		Added:      1,
		Skipped:    1,
		Duplicates: []usecase.Duplicate{{Name: "Widget", ExistingID: 3}},
	}, nil
}

func (f *fakeImportUC) ExportProducts(context.Context) (*usecase.ExportProductsRes, error) {
	return &usecase.ExportProductsRes{
		FileName:    usecase.ExportFileName,
		ContentType: usecase.ExportContentType,
		Data:        []byte("id,name\n1,Widget\n"),
	}, nil
}

type fakeAuthUC struct{}

func (fakeAuthUC) Register(_ context.Context, req *usecase.RegisterReq) (*usecase.AuthRes, error) {
	if req.Username == "" {
		return nil, e.NewValidationError(e.FieldError{Field: "username", Message: "Username is required"})
	}
	return &usecase.AuthRes{Token: validToken, User: usecase.UserInfo{ID: 1, Username: req.Username, Email: req.Email}}, nil
}

func (fakeAuthUC) Login(_ context.Context, req *usecase.LoginReq) (*usecase.AuthRes, error) {
	if req.Password != "secret1" {
		return nil, e.Wrap("login", e.ErrInvalidCredentials)
	}
	return &usecase.AuthRes{Token: validToken, User: usecase.UserInfo{ID: 1, Email: req.Email}}, nil
}

func (fakeAuthUC) Authenticate(_ context.Context, token string) (*usecase.Claims, error) {
	if token != validToken {
		return nil, e.Wrap("auth", e.ErrInvalidToken)
	}
	return &usecase.Claims{UserID: 1, Username: "bob"}, nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type testAPI struct {
	handler  http.Handler
	products *fakeProductUC
	imports  *fakeImportUC
}

func newTestAPI(store Pinger) *testAPI {
	api := &testAPI{products: &fakeProductUC{}, imports: &fakeImportUC{}}

	mux := chi.NewRouter()
	NewRouter(mux, logger.NewDiscard()).Init(Deps{
		ProductUC:   api.products,
		ImportUC:    api.imports,
		AuthUC:      fakeAuthUC{},
		Store:       store,
		MaxFileSize: 1 << 10,
		CORSOrigins: []string{"*"},
	})
	api.handler = mux

	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

func authorized(extra map[string]string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + validToken}
	for k, v := range extra {
		h[k] = v
	}

	return h
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}

	return v
}

func TestProductRoutesRequireToken(t *testing.T) {
	api := newTestAPI(fakePinger{})

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "wrong scheme", headers: map[string]string{"Authorization": "Basic abc"}, want: http.StatusUnauthorized},
		{name: "invalid token", headers: map[string]string{"Authorization": "Bearer nope"}, want: http.StatusForbidden},
		{name: "valid token", headers: authorized(nil), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/products", nil, tt.headers)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListProductsPassesQuery(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodGet, "/api/products?category=tools&name=wid&page=2&limit=abc&sort=stock&order=asc", nil, authorized(nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req := api.products.listReq
	if req.Category != "tools" || req.Name != "wid" || req.Page != 2 || req.PageSize != 0 || req.Sort != "stock" || req.Order != "asc" {
		t.Fatalf("unexpected list request: %+v", req)
	}

	body := decodeBody[ListProductsResponse](t, rec)
	if len(body.Products) != 1 || body.Pagination.TotalItems != 1 || body.Pagination.ItemsPerPage != 10 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCreateProductAcceptsStockAsString(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Widget","stock":"12","unknown":true}`),
		authorized(map[string]string{"Content-Type": "application/json"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.products.created.Stock != 12 {
		t.Fatalf("expected stock 12, got %d", api.products.created.Stock)
	}
}

func TestCreateProductErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		createErr error
		wantCode  int
		wantField string
	}{
		{
			name:      "stock not a number",
			body:      `{"name":"Widget","stock":"many"}`,
			wantCode:  http.StatusBadRequest,
			wantField: "stock",
		},
		{
			name:     "malformed json",
			body:     `{"name":`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "validation from usecase",
			body:      `{"name":""}`,
			createErr: e.NewValidationError(e.FieldError{Field: "name", Message: "Name is required"}),
			wantCode:  http.StatusBadRequest,
			wantField: "name",
		},
		{
			name:      "duplicate name",
			body:      `{"name":"Widget"}`,
			createErr: e.Wrap("create", e.ErrProductAlreadyExists),
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "storage failure",
			body:      `{"name":"Widget"}`,
			createErr: errors.New("disk full"),
			wantCode:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(fakePinger{})
			api.products.createErr = tt.createErr

			rec := api.do(t, http.MethodPost, "/api/products", strings.NewReader(tt.body), authorized(nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}

			body := decodeBody[ErrorResponse](t, rec)
			if body.Code != tt.wantCode {
				t.Fatalf("expected code %d in body, got %d", tt.wantCode, body.Code)
			}
			if tt.wantField != "" && (len(body.Errors) != 1 || body.Errors[0].Field != tt.wantField) {
				t.Fatalf("expected field error %q, got %+v", tt.wantField, body.Errors)
			}
			if tt.wantCode == http.StatusInternalServerError && strings.Contains(body.Message, "disk full") {
				t.Fatalf("internal error details leaked: %q", body.Message)
			}
		})
	}
}

func TestProductByIDRoutes(t *testing.T) {
	api := newTestAPI(fakePinger{})

	if rec := api.do(t, http.MethodGet, "/api/products/abc", nil, authorized(nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	if rec := api.do(t, http.MethodDelete, "/api/products/404", nil, authorized(nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec := api.do(t, http.MethodPut, "/api/products/7",
		strings.NewReader(`{"name":"Widget","stock":3,"changedBy":"alice"}`), authorized(nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if u := api.products.updated; u.ID != 7 || u.Stock != 3 || u.ChangedBy != "alice" {
		t.Fatalf("unexpected update request: %+v", u)
	}

	rec = api.do(t, http.MethodGet, "/api/products/7/history", nil, authorized(nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	history := decodeBody[[]HistoryEntryResponse](t, rec)
	if len(history) != 1 || history[0].ProductID != 7 || history[0].NewQuantity != 7 {
		t.Fatalf("unexpected history: %+v", history)
	}

	api.products.getErr = e.Wrap("get", e.ErrProductNotFound)
	if rec := api.do(t, http.MethodGet, "/api/products/9", nil, authorized(nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProductBodyMarksOmittedStock(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOmitted bool
	}{
		{name: "missing", body: `{"name":"Widget"}`, wantOmitted: true},
		{name: "null", body: `{"name":"Widget","stock":null}`, wantOmitted: true},
		{name: "empty string", body: `{"name":"Widget","stock":""}`, wantOmitted: true},
		{name: "zero", body: `{"name":"Widget","stock":0}`, wantOmitted: false},
		{name: "zero as string", body: `{"name":"Widget","stock":"0"}`, wantOmitted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(fakePinger{})

			rec := api.do(t, http.MethodPut, "/api/products/7", strings.NewReader(tt.body), authorized(nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := api.products.updated.StockOmitted; got != tt.wantOmitted {
				t.Fatalf("update: expected StockOmitted=%v, got %v", tt.wantOmitted, got)
			}

			rec = api.do(t, http.MethodPost, "/api/products", strings.NewReader(tt.body), authorized(nil))
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := api.products.created.StockOmitted; got != tt.wantOmitted {
				t.Fatalf("create: expected StockOmitted=%v, got %v", tt.wantOmitted, got)
			}
		})
	}
}

func TestSearchRouteIsNotTreatedAsID(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodGet, "/api/products/search?name=wid", nil, authorized(nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/products/search", nil, authorized(nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func TestImportProducts(t *testing.T) {
	api := newTestAPI(fakePinger{})

	body, contentType := multipartBody(t, csvFileField, "products.csv", "name,stock\nWidget,1\n")
	rec := api.do(t, http.MethodPost, "/api/products/import", body, authorized(map[string]string{"Content-Type": contentType}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.imports.fileName != "products.csv" || !strings.Contains(api.imports.body, "Widget") {
		t.Fatalf("file not passed to usecase: %q %q", api.imports.fileName, api.imports.body)
	}

	res := decodeBody[ImportResponse](t, rec)
	if res.Added != 1 || res.Skipped != 1 || len(res.Duplicates) != 1 || res.Duplicates[0].ExistingID != 3 {
		t.Fatalf("unexpected import response: %+v", res)
	}
}

func TestImportProductsRejects(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodPost, "/api/products/import", strings.NewReader(`{}`), authorized(map[string]string{"Content-Type": "application/json"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart, got %d", rec.Code)
	}

	body, contentType := multipartBody(t, "other", "products.csv", "name\nWidget\n")
	rec = api.do(t, http.MethodPost, "/api/products/import", body, authorized(map[string]string{"Content-Type": contentType}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing file, got %d", rec.Code)
	}
	if msg := decodeBody[ErrorResponse](t, rec).Message; msg != e.ErrNoFile.Error() {
		t.Fatalf("unexpected message %q", msg)
	}

	body, contentType = multipartBody(t, csvFileField, "big.csv", strings.Repeat("x", 4<<10))
	rec = api.do(t, http.MethodPost, "/api/products/import", body, authorized(map[string]string{"Content-Type": contentType}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized file, got %d", rec.Code)
	}
}

func TestExportProducts(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodGet, "/api/products/export", nil, authorized(nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="products.csv"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if rec.Body.String() != "id,name\n1,Widget\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(fakePinger{})

	rec := api.do(t, http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"bob","email":"bob@example.com","password":"secret1"}`), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if res := decodeBody[AuthResponse](t, rec); res.Token != validToken || res.User.Username != "bob" {
		t.Fatalf("unexpected register response: %+v", res)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"bob@example.com"}`), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"bob@example.com","password":"secret1"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"bob@example.com","password":"wrong"}`), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := newTestAPI(fakePinger{}).do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = newTestAPI(fakePinger{err: errors.New("down")}).do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestToHTTPResponseStripsWrapping(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{e.Wrap("a", e.Wrap("b", e.ErrInvalidID)), http.StatusBadRequest, e.ErrInvalidID.Error()},
		{e.Wrap("a", e.ErrInvalidToken), http.StatusForbidden, e.ErrInvalidToken.Error()},
		{e.Wrap("a", e.ErrMissingToken), http.StatusUnauthorized, e.ErrMissingToken.Error()},
		{errors.New("boom"), http.StatusInternalServerError, e.ErrInternalServerError.Error()},
	}

	for _, tt := range tests {
		code, msg := ToHTTPResponse(tt.err)
		if code != tt.wantCode || msg != tt.wantMsg {
			t.Errorf("ToHTTPResponse(%v) = %d %q, want %d %q", tt.err, code, msg, tt.wantCode, tt.wantMsg)
		}
	}
}
