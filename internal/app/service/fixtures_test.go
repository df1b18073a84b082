package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/ikkim/moda-backend/internal/storage"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/ikkim/moda-backend/pkg/receipt"
	"github.com/ikkim/moda-backend/pkg/tryon"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

// serializeTransactions limits the pool to one connection. SQLite has no
// row locks, so this stands in for FOR UPDATE: concurrent transactions run
// one after another and each re-reads what the previous one committed.
func serializeTransactions(t *testing.T, conn *gorm.DB) {
	t.Helper()
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
}

func createUser(t *testing.T, conn *gorm.DB, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: email, Role: role}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// createProduct creates an active men's product with one Negro variant
// per stock value, sized S, M, L, XL in order.
func createProduct(t *testing.T, conn *gorm.DB, name string, price int64, stocks ...int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Category: model.CategoryMen,
		Brand:    model.BrandGuess,
		Price:    price,
		ImageURL: "https://cdn.moda.cl/products/" + name + ".jpg",
		Active:   true,
	}
	sizes := []string{"S", "M", "L", "XL"}
	for i, stock := range stocks {
		product.Variants = append(product.Variants, model.Variant{Size: sizes[i], Color: "Negro", Stock: stock})
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func createAddress(t *testing.T, conn *gorm.DB, userID uint) *model.Address {
	t.Helper()
	address := &model.Address{
		UserID:    userID,
		Street:    "Av. Providencia",
		Number:    "1234",
		District:  "Providencia",
		IsDefault: true,
	}
	require.NoError(t, conn.Create(address).Error)
	return address
}

func variantStock(t *testing.T, conn *gorm.DB, variantID uint) int {
	t.Helper()
	var v model.Variant
	require.NoError(t, conn.First(&v, variantID).Error)
	return v.Stock
}

func boolPtr(b bool) *bool { return &b }

type recordingMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Order
}

func (p *recordingPublisher) PublishOrderStatus(order *model.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *order)
}

func (p *recordingPublisher) published() []model.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Order, len(p.events))
	copy(out, p.events)
	return out
}

type fakeStorage struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = body
	return nil
}

func (s *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key + "?signature=abc", nil
}

func (s *fakeStorage) GeneratePresignedURLWithFolder(_ context.Context, filename, _, folder string) (*storage.PresignedURLResponse, error) {
	key := storage.NewKey(folder, filename)
	return &storage.PresignedURLResponse{
		UploadURL: "https://files.test/" + key + "?upload=1",
		FileURL:   "https://files.test/" + key,
		Key:       key,
	}, nil
}

type fakeGenerator struct {
	url   string
	err   error
	calls int
	last  tryon.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req tryon.Request) (string, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

type memoryCache struct {
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type failingRenderer struct{}

func (failingRenderer) Render(receipt.Document) ([]byte, error) {
	return nil, errors.New("font missing")
}

// orderFixture wires the order flow against a private database.
type orderFixture struct {
	db        *gorm.DB
	carts     CartService
	orders    OrderService
	payments  PaymentService
	mailer    *recordingMailer
	publisher *recordingPublisher
	logs      repository.NotificationRepository
}

func newOrderFixture(t *testing.T, opts ...OrderServiceOption) *orderFixture {
	t.Helper()
	conn := newTestDB(t)

	m := &recordingMailer{}
	pub := &recordingPublisher{}
	logs := repository.NewNotificationRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)

	notifier := NewOrderNotifier(m, logs, "MODA", time.Second)
	orders := NewOrderService(conn, orderRepo, repository.NewAddressRepository(conn), notifier, "MODA",
		append([]OrderServiceOption{WithOrderPublisher(pub)}, opts...)...)
	receipts := NewReceiptService(receipt.NewPDFRenderer(), "MODA")

	return &orderFixture{
		db:        conn,
		carts:     NewCartService(repository.NewCartRepository(conn), repository.NewProductRepository(conn)),
		orders:    orders,
		payments:  NewPaymentService(orders, receipts, m, time.Second),
		mailer:    m,
		publisher: pub,
		logs:      logs,
	}
}

// placeOrder fills the cart with qty units of variant and checks out with
// the courier.
func (f *orderFixture) placeOrder(t *testing.T, user *model.User, address *model.Address, variantID uint, qty int) *model.Order {
	t.Helper()
	_, err := f.carts.AddItem(user.ID, variantID, qty)
	require.NoError(t, err)
	order, err := f.orders.Checkout(context.Background(), user.ID, CheckoutRequest{
		AddressID:      address.ID,
		ShippingMethod: ShippingCourier,
		Email:          user.Email,
	})
	require.NoError(t, err)
	return order
}
