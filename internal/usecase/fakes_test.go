package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
)

// fakeProductRepo — хранилище товаров в памяти с уникальностью имени без учета регистра.
type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]domain.Product

	lastCountFilter ProductFilter
	lastListQuery   *ProductQuery
	createErr       error
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[int64]domain.Product)}
	for _, p := range products {
		r.nextID++
		p.ID = r.nextID
		r.products[p.ID] = p
	}

	return r
}

func (r *fakeProductRepo) matches(p *domain.Product, f ProductFilter) bool {
	if f.Category != "" && (p.Category == nil || *p.Category != f.Category) {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}

	return true
}

func (r *fakeProductRepo) sorted() []domain.Product {
	res := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res
}

func (r *fakeProductRepo) List(_ context.Context, q *ProductQuery) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastListQuery = q

	var filtered []domain.Product
	for _, p := range r.sorted() {
		if r.matches(&p, q.Filter) {
			filtered = append(filtered, p)
		}
	}

	start := min(q.Offset(), len(filtered))
	end := min(start+q.Limit(), len(filtered))
	return filtered[start:end], nil
}

func (r *fakeProductRepo) Count(_ context.Context, f ProductFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCountFilter = f

	var n int64
	for _, p := range r.products {
		if r.matches(&p, f) {
			n++
		}
	}

	return n, nil
}

func (r *fakeProductRepo) Search(_ context.Context, name string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []domain.Product
	for _, p := range r.sorted() {
		if r.matches(&p, ProductFilter{Name: name}) {
			res = append(res, p)
		}
	}

	return res, nil
}

func (r *fakeProductRepo) ListAll(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.sorted()
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}

	return res, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	return &p, nil
}

func (r *fakeProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeProductRepo) FindByName(_ context.Context, name string, excludeID int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.findByNameLocked(name, excludeID)
}

func (r *fakeProductRepo) findByNameLocked(name string, excludeID int64) (*domain.Product, error) {
	for _, p := range r.sorted() {
		if strings.EqualFold(p.Name, name) && p.ID != excludeID {
			return &p, nil
		}
	}

	return nil, e.ErrProductNotFound
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, err := r.findByNameLocked(product.Name, 0); err == nil {
		return nil, e.ErrProductAlreadyExists
	}

	r.nextID++
	p := *product
	p.ID = r.nextID
	r.products[p.ID] = p

	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return nil, e.ErrProductNotFound
	}
	if _, err := r.findByNameLocked(product.Name, product.ID); err == nil {
		return nil, e.ErrProductAlreadyExists
	}

	r.products[product.ID] = *product
	p := *product
	return &p, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return e.ErrProductNotFound
	}
	delete(r.products, id)

	return nil
}

type fakeHistoryRepo struct {
	mu        sync.Mutex
	entries   []domain.InventoryHistoryEntry
	createErr error
}

func (h *fakeHistoryRepo) Create(_ context.Context, entry *domain.InventoryHistoryEntry) (*domain.InventoryHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.createErr != nil {
		return nil, h.createErr
	}

	res := *entry
	res.ID = int64(len(h.entries) + 1)
	h.entries = append(h.entries, res)

	return &res, nil
}

func (h *fakeHistoryRepo) ListByProduct(_ context.Context, productID int64) ([]domain.InventoryHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var res []domain.InventoryHistoryEntry
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].ProductID == productID {
			res = append(res, h.entries[i])
		}
	}

	return res, nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (o *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ev := *event
	ev.ID = int64(len(o.events) + 1)
	o.events = append(o.events, &ev)

	return &ev, nil
}

func (o *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (o *fakeOutboxRepo) MarkAsPending(context.Context, int64) error { return nil }

type fakeEncoder struct{}

func (fakeEncoder) EncodeStockChanged(event *StockChangedEvent) ([]byte, error) {
	return []byte(fmt.Sprintf("%s:%d:%d->%d", event.EventID, event.ProductID, event.OldQuantity, event.NewQuantity)), nil
}

// fakeTrManager выполняет функцию без транзакции и считает вызовы.
type fakeTrManager struct {
	mu     sync.Mutex
	do     int
	nested int
}

func (m *fakeTrManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.do++
	m.mu.Unlock()

	return fn(ctx)
}

func (m *fakeTrManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.nested++
	m.mu.Unlock()

	return fn(ctx)
}

type fakeCache struct {
	mu      sync.Mutex
	items   map[int64]ProductInfo
	deleted []int64
	getErr  error
	setGate chan struct{} // SetProduct ждет закрытия канала
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[int64]ProductInfo)}
}

func (c *fakeCache) GetProduct(_ context.Context, id int64) (*ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.items[id]
	if !ok {
		return nil, nil
	}

	return &p, nil
}

func (c *fakeCache) SetProduct(_ context.Context, product *ProductInfo) error {
	if c.setGate != nil {
		<-c.setGate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[product.ID] = *product

	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
	}
	c.deleted = append(c.deleted, ids...)

	return nil
}

func (c *fakeCache) deletedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int64(nil), c.deleted...)
}

func (c *fakeCache) has(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]

	return ok
}

// fakeUploads хранит загруженные файлы в памяти.
type fakeUploads struct {
	mu       sync.Mutex
	files    map[string][]byte
	released []string
	storeErr error
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{files: make(map[string][]byte)}
}

func (u *fakeUploads) Store(_ context.Context, req *StoreUploadReq) (*domain.Upload, error) {
	if u.storeErr != nil {
		return nil, u.storeErr
	}

	data, err := io.ReadAll(req.Data)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	key := fmt.Sprintf("imports/%d.csv", len(u.files)+1)
	u.files[key] = data

	return domain.NewUpload(key, int64(len(data)), req.ContentType), nil
}

func (u *fakeUploads) Open(_ context.Context, key string) (io.ReadCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	data, ok := u.files[key]
	if !ok {
		return nil, errors.New("no such upload")
	}

	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (u *fakeUploads) Release(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.files, key)
	u.released = append(u.released, key)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := *user
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, u)

	return &u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, e.ErrUserNotFound
}

func (f *fakeUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}

	return false, nil
}

// plainHasher — обратимый "хэш" для тестов.
type plainHasher struct {
	compares int
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *plainHasher) Compare(hash, password string) error {
	h.compares++
	if hash != "hashed:"+password {
		return e.ErrInvalidCredentials
	}

	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(user *domain.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

func (fakeTokens) Parse(token string) (*Claims, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil {
		return nil, e.ErrInvalidToken
	}

	return &Claims{UserID: id}, nil
}

func strPtr(s string) *string {
	return &s
}
