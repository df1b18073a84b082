package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/moda-backend/config"
	"github.com/ikkim/moda-backend/internal/app/controller"
	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/app/repository"
	"github.com/ikkim/moda-backend/internal/app/service"
	"github.com/ikkim/moda-backend/internal/db"
	"github.com/ikkim/moda-backend/internal/middleware"
	"github.com/ikkim/moda-backend/internal/router"
	"github.com/ikkim/moda-backend/internal/storage"
	ws "github.com/ikkim/moda-backend/internal/websocket"
	"github.com/ikkim/moda-backend/pkg/mailer"
	"github.com/ikkim/moda-backend/pkg/receipt"
	"github.com/ikkim/moda-backend/pkg/tryon"
	"github.com/ikkim/moda-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type discardMailer struct{}

func (discardMailer) Send(context.Context, mailer.Message) error { return nil }

type nopStorage struct{}

func (nopStorage) PutObject(context.Context, string, string, []byte) error { return nil }

func (nopStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

func (nopStorage) GeneratePresignedURLWithFolder(_ context.Context, filename, _, folder string) (*storage.PresignedURLResponse, error) {
	key := storage.NewKey(folder, filename)
	return &storage.PresignedURLResponse{UploadURL: "https://files.test/" + key, FileURL: "https://files.test/" + key, Key: key}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, req tryon.Request) (string, error) {
	return req.GarmentImageURL + "?tryon=1", nil
}

type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Store:  config.StoreConfig{Name: "MODA", OrderNumberPrefix: "MODA"},
	}

	hub := ws.NewHub()
	go hub.Run()

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	authService := service.NewAuthService(userRepo, testSecret, 15*time.Minute, 7*24*time.Hour)
	productService := service.NewProductService(productRepo, nopStorage{})
	cartService := service.NewCartService(repository.NewCartRepository(testDB), productRepo)
	addressService := service.NewAddressService(addressRepo)
	notifier := service.NewOrderNotifier(discardMailer{}, repository.NewNotificationRepository(testDB), "MODA", time.Second)
	orderService := service.NewOrderService(testDB, orderRepo, addressRepo, notifier, "MODA", service.WithOrderPublisher(hub))
	receiptService := service.NewReceiptService(receipt.NewPDFRenderer(), "MODA")
	paymentService := service.NewPaymentService(orderService, receiptService, discardMailer{}, time.Second)
	tryOnService := service.NewTryOnService(productRepo, repository.NewTryOnRepository(testDB), nopStorage{}, echoGenerator{}, nil, 5, time.Second)
	analyticsService := service.NewAnalyticsService(repository.NewAnalyticsRepository(testDB), nil, 0)

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewProductController(productService),
		controller.NewCartController(cartService),
		controller.NewAddressController(addressService),
		controller.NewOrderController(orderService, receiptService),
		controller.NewPaymentController(paymentService),
		controller.NewTryOnController(tryOnService),
		controller.NewAnalyticsController(analyticsService),
		controller.NewUploadController(productService),
		controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(testSecret),
		cfg,
	)

	server := httptest.NewServer(r.Setup())
	t.Cleanup(func() {
		server.Close()
		db.CleanupTestDB(testDB)
	})

	return &TestServer{Server: server, DB: testDB}
}

func (ts *TestServer) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func accessToken(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	tokens := body["tokens"].(map[string]interface{})
	return tokens["access_token"].(string)
}

func TestCompleteUserJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	hash, err := util.HashPassword("staffpass123")
	require.NoError(t, err)
	require.NoError(t, ts.DB.Create(&model.User{
		Email: "staff@moda.cl", PasswordHash: hash, Name: "Equipo", Role: model.RoleStaff,
	}).Error)

	t.Log("Step 1: staff logs in and publishes a product")
	status, body := ts.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "staff@moda.cl", "password": "staffpass123",
	})
	require.Equal(t, http.StatusOK, status)
	staffToken := accessToken(t, body)

	status, body = ts.call(t, http.MethodPost, "/api/v1/admin/products", staffToken, service.ProductInput{
		Name:     "Parka Nuptse",
		Category: string(model.CategoryMen),
		Brand:    string(model.BrandNorthFace),
		Price:    149990,
		ImageURL: "https://cdn.moda.cl/products/nuptse.jpg",
		Variants: []service.VariantInput{{Size: "M", Color: "Negro", Stock: 2}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	product := body["product"].(map[string]interface{})
	productID := uint(product["id"].(float64))
	variantID := uint(product["variants"].([]interface{})[0].(map[string]interface{})["id"].(float64))

	t.Log("Step 2: customer registers and browses")
	status, body = ts.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "buyer@example.cl", "password": "password123", "name": "Compradora",
	})
	require.Equal(t, http.StatusCreated, status)
	token := accessToken(t, body)

	status, body = ts.call(t, http.MethodGet, "/api/v1/products?brand=northface", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])

	status, body = ts.call(t, http.MethodPost, "/api/v1/try-on/events", token, map[string]uint{"product_id": productID})
	require.Equal(t, http.StatusCreated, status, body)

	t.Log("Step 3: customer opens a live session")
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/api/v1/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Log("Step 4: cart, address and checkout")
	status, _ = ts.call(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"variant_id": variantID, "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = ts.call(t, http.MethodPost, "/api/v1/addresses", token, map[string]string{
		"street": "Av. Apoquindo", "number": "3000", "district": "Las Condes",
	})
	require.Equal(t, http.StatusCreated, status)
	addressID := uint(body["address"].(map[string]interface{})["id"].(float64))

	status, body = ts.call(t, http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"address_id": addressID, "shipping_method": service.ShippingFlash,
	})
	require.Equal(t, http.StatusCreated, status, body)
	order := body["order"].(map[string]interface{})
	orderID := uint(order["id"].(float64))
	assert.Equal(t, float64(149990+3990), order["total"])

	t.Log("Step 5: payment and fulfillment")
	status, body = ts.call(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/pay", orderID), token, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/orders/%d/status", orderID), staffToken, map[string]string{
		"status": string(model.OrderStatusShipped), "tracking_code": "BX-778",
	})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var shipped ws.OrderEvent
	for shipped.Status != model.OrderStatusShipped {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &shipped))
		assert.Equal(t, orderID, shipped.OrderID)
	}
	assert.Equal(t, "BX-778", shipped.TrackingCode)

	status, body = ts.call(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(model.OrderStatusShipped), body["order"].(map[string]interface{})["status"])

	t.Log("Step 6: staff reviews the dashboard")
	status, body = ts.call(t, http.MethodGet, "/api/v1/admin/analytics/dashboard", staffToken, nil)
	require.Equal(t, http.StatusOK, status)
	dashboard := body["dashboard"].(map[string]interface{})
	assert.Equal(t, float64(149990+3990), dashboard["revenue"])

	status, _ = ts.call(t, http.MethodGet, "/api/v1/admin/analytics/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHealthAndCORS(t *testing.T) {
	ts := setupIntegrationTest(t)

	status, body := ts.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	req, err := http.NewRequest(http.MethodOptions, ts.Server.URL+"/api/v1/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodOptions, ts.Server.URL+"/api/v1/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = ts.Server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
