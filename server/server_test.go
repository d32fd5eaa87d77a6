package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"storefront/database/handler"
	"storefront/database/memstore"
	"storefront/events"
	"storefront/middleware"
	"storefront/model"
	"storefront/service"
	"storefront/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t      *testing.T
	store  *memstore.Store
	images *storage.LocalStore
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	images, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	tokens := middleware.NewTokenService("test-secret", time.Hour)
	h := &handler.Handler{
		Users:   service.NewUserService(store.Users(), store.Products(), tokens).WithHashCost(bcrypt.MinCost),
		Catalog: service.NewCatalogService(store.Products()),
		Carts:   service.NewCartService(store.Carts(), store.Products()),
		Orders: service.NewOrderService(store.Orders(), store.Products(), events.NopPublisher{},
			service.OrderOptions{ClearCartOnCheckout: true}),
		Images: images,
	}
	srv := SetupRoutes(h, tokens, Options{
		UploadsDir: images.Dir(),
		Metrics:    middleware.NewMetrics(prometheus.NewRegistry()),
	})
	return &harness{t: t, store: store, images: images, router: srv.Engine}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (h *harness) register(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/users/register", "", model.RegisterRequest{
		FirstName: "Test", LastName: "User", Email: email, Password: "password1", MobileNo: "09171234567",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		User model.User `json:"user"`
	}
	decode(h.t, w, &body)
	return body.User.ID
}

func (h *harness) login(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/users/login", "", model.LoginRequest{Email: email, Password: "password1"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var body model.LoginResponse
	decode(h.t, w, &body)
	require.NotEmpty(h.t, body.Access)
	return body.Access
}

func (h *harness) createProduct(token string, fields map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.createProductWithImage(token, fields, "", nil)
}

func (h *harness) createProductWithImage(token string, fields map[string]string, filename string, image []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, form.WriteField(k, v))
	}
	if filename != "" {
		part, err := form.CreateFormFile("image", filename)
		require.NoError(h.t, err)
		_, err = part.Write(image)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, form.Close())
	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/users/register", "", model.RegisterRequest{
		FirstName: "Test", LastName: "User", Email: "short@example.com", Password: "1234567", MobileNo: "09171234567",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var failure struct {
		Message string `json:"message"`
		Error   struct {
			ErrorCode string `json:"errorCode"`
		} `json:"error"`
	}
	decode(t, w, &failure)
	assert.Equal(t, "Password must be at least 8 characters long", failure.Message)
	assert.Equal(t, "VALIDATION_ERROR", failure.Error.ErrorCode)

	w = h.do(http.MethodPost, "/users/register", "", model.RegisterRequest{
		FirstName: "Test", LastName: "User", Email: "buyer@example.com", Password: "password1", MobileNo: "09171234567",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password1")
	assert.NotContains(t, w.Body.String(), `"password"`)

	token := h.login("buyer@example.com")
	w = h.do(http.MethodGet, "/users/details", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details model.UserDetails
	decode(t, w, &details)
	assert.Equal(t, "buyer@example.com", details.Email)
	assert.Empty(t, details.LikedProducts)

	w = h.do(http.MethodGet, "/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodGet, "/users/details", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	adminID := h.register("admin@example.com")
	require.NoError(t, h.store.Users().SetAdmin(ctx, adminID))
	adminToken := h.login("admin@example.com")
	h.register("buyer@example.com")
	buyerToken := h.login("buyer@example.com")

	fields := map[string]string{
		"name": "Speaker", "description": "Bookshelf speaker", "price": "100.00", "stock": "5", "brand": "Acme",
	}
	w := h.createProduct(buyerToken, fields)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.createProduct(adminToken, fields)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Success bool          `json:"success"`
		Data    model.Product `json:"data"`
	}
	decode(t, w, &created)
	assert.True(t, created.Success)
	assert.Equal(t, model.DefaultCategory, created.Data.Category)
	productID := created.Data.ID

	w = h.do(http.MethodGet, "/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/cart/add-to-cart", buyerToken, map[string]interface{}{
		"productId": productID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart model.Cart
	decode(t, w, &cart)
	require.Len(t, cart.CartItems, 1)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(200)), cart.TotalPrice.String())

	w = h.do(http.MethodPatch, "/products/"+productID+"/sale", adminToken, map[string]interface{}{
		"isOnSale": true, "discountPercentage": 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sale struct {
		Message string        `json:"message"`
		Product model.Product `json:"product"`
	}
	decode(t, w, &sale)
	assert.Equal(t, "Sale updated", sale.Message)
	require.NotNil(t, sale.Product.Sale.SalePrice)
	assert.Equal(t, "80.00", sale.Product.Sale.SalePrice.StringFixed(2))

	w = h.do(http.MethodGet, "/products/sale", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var onSale []model.Product
	decode(t, w, &onSale)
	assert.Len(t, onSale, 1)

	w = h.do(http.MethodPost, "/users/like/"+productID, buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/users/like/"+productID, buyerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/orders/checkout", buyerToken, map[string]interface{}{
		"items": []interface{}{},
		"shippingInfo": model.ShippingInfo{
			FullName: "Test User", Address: "1 Main St", ContactNumber: "09171234567",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	checkout := model.CheckoutRequest{
		Items: []model.OrderItem{{ProductID: productID, Quantity: 2}},
		ShippingInfo: model.ShippingInfo{
			FullName: "Test User", Address: "1 Main St", ContactNumber: "09171234567",
		},
	}
	w = h.do(http.MethodPost, "/orders/checkout", buyerToken, checkout)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Message string      `json:"message"`
		Order   model.Order `json:"order"`
	}
	decode(t, w, &placed)
	assert.Equal(t, model.OrderStatusPending, placed.Order.Status)

	w = h.do(http.MethodGet, "/cart/get-cart", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cart)
	assert.Empty(t, cart.CartItems)
	assert.True(t, cart.TotalPrice.IsZero())

	w = h.do(http.MethodGet, "/orders/all-orders", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodPatch, "/orders/update-status/"+placed.Order.ID, adminToken, model.UpdateStatusRequest{
		Status: model.OrderStatusForDelivery,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPatch, "/orders/mark-received/"+placed.Order.ID, buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &placed)
	assert.Equal(t, model.OrderStatusDelivered, placed.Order.Status)

	w = h.do(http.MethodGet, "/products/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/vnd.openxmlformats"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestCreateProductImageUpload(t *testing.T) {
	h := newHarness(t)
	adminID := h.register("admin@example.com")
	require.NoError(t, h.store.Users().SetAdmin(context.Background(), adminID))
	token := h.login("admin@example.com")
	fields := map[string]string{"name": "Amp", "description": "Tube amp", "price": "450.00", "brand": "Acme"}

	w := h.createProductWithImage(token, fields, "notes.png", []byte("plain text pretending to be a png"))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	entries, err := os.ReadDir(h.images.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads are never written")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	w = h.createProductWithImage(token, fields, "amp front.png", png)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data model.Product `json:"data"`
	}
	decode(t, w, &created)
	require.True(t, strings.HasSuffix(created.Data.ImageFilename, "-amp_front.png"), created.Data.ImageFilename)
	saved, err := os.ReadFile(h.images.Path(created.Data.ImageFilename))
	require.NoError(t, err)
	assert.Equal(t, png, saved)

	w = h.do(http.MethodGet, "/uploads/"+created.Data.ImageFilename, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	healthy := OpsRouter(reg, func(context.Context) error { return nil })
	w := httptest.NewRecorder()
	healthy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := OpsRouter(reg, func(context.Context) error { return errors.New("db down") })
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	healthy.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
