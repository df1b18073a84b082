package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/ikkim/moda-backend/internal/middleware"
	"github.com/ikkim/moda-backend/internal/storage"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/ikkim/moda-backend/pkg/receipt"
	"github.com/ikkim/moda-backend/pkg/tryon"
	"github.com/ikkim/moda-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type memoryMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *memoryMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memoryMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return nil
}

func (s *memoryStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key + "?signature=abc", nil
}

func (s *memoryStorage) GeneratePresignedURLWithFolder(_ context.Context, filename, _, folder string) (*storage.PresignedURLResponse, error) {
	key := storage.NewKey(folder, filename)
	return &storage.PresignedURLResponse{
		UploadURL: "https://files.test/" + key + "?upload=1",
		FileURL:   "https://files.test/" + key,
		Key:       key,
	}, nil
}

type stubGenerator struct {
	err error
}

func (g *stubGenerator) Generate(_ context.Context, _ tryon.Request) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "https://replicate.delivery/out/result.png", nil
}

// testEnv mounts every controller behind the real auth middleware on a
// private database.
type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	engine    *gin.Engine
	mailer    *memoryMailer
	storage   *memoryStorage
	generator *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	env := &testEnv{
		t:         t,
		db:        testDB,
		mailer:    &memoryMailer{},
		storage:   &memoryStorage{objects: make(map[string][]byte)},
		generator: &stubGenerator{},
	}

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	authService := service.NewAuthService(userRepo, testJWTSecret, 15*time.Minute, time.Hour)
	productService := service.NewProductService(productRepo, env.storage)
	cartService := service.NewCartService(repository.NewCartRepository(testDB), productRepo)
	addressService := service.NewAddressService(repository.NewAddressRepository(testDB))
	notifier := service.NewOrderNotifier(env.mailer, repository.NewNotificationRepository(testDB), "MODA", time.Second)
	orderService := service.NewOrderService(testDB, orderRepo, repository.NewAddressRepository(testDB), notifier, "MODA")
	receiptService := service.NewReceiptService(receipt.NewPDFRenderer(), "MODA")
	paymentService := service.NewPaymentService(orderService, receiptService, env.mailer, time.Second)
	tryOnService := service.NewTryOnService(productRepo, repository.NewTryOnRepository(testDB), env.storage, env.generator, nil, 5, time.Second)
	analyticsService := service.NewAnalyticsService(repository.NewAnalyticsRepository(testDB), nil, 0)

	authCtrl := NewAuthController(authService)
	productCtrl := NewProductController(productService)
	cartCtrl := NewCartController(cartService)
	addressCtrl := NewAddressController(addressService)
	orderCtrl := NewOrderController(orderService, receiptService)
	paymentCtrl := NewPaymentController(paymentService)
	tryOnCtrl := NewTryOnController(tryOnService)
	analyticsCtrl := NewAnalyticsController(analyticsService)
	uploadCtrl := NewUploadController(productService)

	auth := middleware.NewAuthMiddleware(testJWTSecret)
	authenticate := auth.Authenticate()

	r := gin.New()
	r.POST("/auth/register", authCtrl.Register)
	r.POST("/auth/login", authCtrl.Login)
	r.GET("/auth/me", authenticate, authCtrl.GetMe)

	r.GET("/products", productCtrl.ListProducts)
	r.GET("/products/:id", productCtrl.GetProduct)
	r.POST("/products/:id/try-on", authenticate, tryOnCtrl.Generate)
	r.POST("/try-on/events", auth.OptionalAuthenticate(), tryOnCtrl.RecordEvent)
	r.GET("/shipping-methods", orderCtrl.ShippingMethods)

	r.GET("/cart", authenticate, cartCtrl.GetCart)
	r.POST("/cart/items", authenticate, cartCtrl.AddItem)
	r.PUT("/cart/items/:id", authenticate, cartCtrl.UpdateItem)
	r.DELETE("/cart/items/:id", authenticate, cartCtrl.RemoveItem)

	r.GET("/addresses", authenticate, addressCtrl.ListAddresses)
	r.POST("/addresses", authenticate, addressCtrl.CreateAddress)
	r.PUT("/addresses/:id", authenticate, addressCtrl.UpdateAddress)
	r.DELETE("/addresses/:id", authenticate, addressCtrl.DeleteAddress)
	r.PUT("/addresses/:id/default", authenticate, addressCtrl.SetDefaultAddress)

	r.POST("/orders", authenticate, orderCtrl.Checkout)
	r.GET("/orders", authenticate, orderCtrl.ListMyOrders)
	r.GET("/orders/:id", authenticate, orderCtrl.GetMyOrder)
	r.GET("/orders/:id/receipt", authenticate, orderCtrl.DownloadReceipt)
	r.POST("/orders/:id/pay", authenticate, paymentCtrl.ConfirmPayment)

	admin := r.Group("/admin", authenticate, auth.RequireStaff())
	admin.GET("/products", productCtrl.AdminListProducts)
	admin.GET("/products/:id", productCtrl.AdminGetProduct)
	admin.POST("/products", productCtrl.CreateProduct)
	admin.PUT("/products/:id", productCtrl.UpdateProduct)
	admin.DELETE("/products/:id", productCtrl.DeactivateProduct)
	admin.POST("/variants/:id/restock", productCtrl.Restock)
	admin.POST("/uploads/presigned-url", uploadCtrl.GeneratePresignedURL)
	admin.GET("/orders", orderCtrl.AdminListOrders)
	admin.GET("/orders/:id", orderCtrl.AdminGetOrder)
	admin.PUT("/orders/:id/status", orderCtrl.UpdateOrderStatus)
	admin.GET("/analytics/dashboard", analyticsCtrl.Dashboard)
	admin.GET("/analytics/customers", analyticsCtrl.Customers)
	admin.GET("/analytics/report", analyticsCtrl.Report)

	env.engine = r
	return env
}

func (e *testEnv) createUser(email string, role model.UserRole) *model.User {
	e.t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: email, Role: role}
	require.NoError(e.t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) token(user *model.User) string {
	e.t.Helper()
	pair, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testJWTSecret, time.Hour, time.Hour)
	require.NoError(e.t, err)
	return pair.AccessToken
}

func (e *testEnv) createProduct(name string, price int64, stock int) *model.Product {
	e.t.Helper()
	product := &model.Product{
		Name:     name,
		Category: model.CategoryWomen,
		Brand:    model.BrandCK,
		Price:    price,
		ImageURL: "https://cdn.moda.cl/products/item.jpg",
		Active:   true,
		Variants: []model.Variant{{Size: "M", Color: "Negro", Stock: stock}},
	}
	require.NoError(e.t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) createAddress(userID uint) *model.Address {
	e.t.Helper()
	address := &model.Address{
		UserID:    userID,
		Street:    "Av. Providencia",
		Number:    "1234",
		District:  "Providencia",
		IsDefault: true,
	}
	require.NoError(e.t, e.db.Create(address).Error)
	return address
}

// do sends a JSON request; user may be nil for anonymous calls.
func (e *testEnv) do(method, path string, user *model.User, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, user)
}

func (e *testEnv) send(req *http.Request, user *model.User) *httptest.ResponseRecorder {
	e.t.Helper()
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(user))
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, w)["error"].(string)
	return code
}

var errUpstream = errors.New("upstream unavailable")
