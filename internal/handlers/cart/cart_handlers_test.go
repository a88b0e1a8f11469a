package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/repo"
	cartsvc "github.com/floralane/flower-shop/internal/service/cart"
)

type recordingPublisher struct {
	events []map[string]any
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, _ string, event interface{}) error {
	if m, ok := event.(map[string]any); ok {
		p.events = append(p.events, m)
	}
	return nil
}

type testEnv struct {
	E        *echo.Echo
	H        *CartHandler
	DB       *gorm.DB
	Producer *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}))

	producer := &recordingPublisher{}
	handler := &CartHandler{
		Svc: &cartsvc.Service{
			Carts:   &repo.CartRepo{DB: db},
			Catalog: &repo.GormCatalog{DB: db},
		},
		Producer: producer,
	}
	return &testEnv{E: echo.New(), H: handler, DB: db, Producer: producer}
}

func (env *testEnv) doJSONRequest(method, target string, body any, userID uint) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", "user")
	return rec, c
}

func (env *testEnv) seedProduct(t *testing.T, p models.Product) models.Product {
	t.Helper()
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

func TestGetCartCreatesEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil, 1)
	require.NoError(t, env.H.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Equal(t, uint(1), cart.UserID)
	require.Empty(t, cart.Items)
}

func TestAddToCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Rose Bouquet", Description: "dozen roses", Price: 450, InStock: true})

	load := map[string]uint{"product_id": p.ID, "quantity": 2}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load, 1)
	require.NoError(t, env.H.AddToCart(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(2), cart.Items[0].Quantity)
	require.Equal(t, 900.0, cart.TotalAmount)

	require.Len(t, env.Producer.events, 1)
	require.Equal(t, "cart_item_added", env.Producer.events[0]["type"])
}

func TestAddToCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	load := map[string]uint{"product_id": 99, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load, 1)

	err := env.H.AddToCart(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusNotFound, httpErr.Code)
	require.Empty(t, env.Producer.events)
}

func TestAddToCartOutOfStock(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Peony", Description: "sold out", Price: 500, InStock: false})

	load := map[string]uint{"product_id": p.ID, "quantity": 1}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", load, 1)

	err := env.H.AddToCart(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpdateCartItem(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Lily", Description: "white lily", Price: 120, InStock: true})

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": p.ID, "quantity": 1}, 1)
	require.NoError(t, env.H.AddToCart(c))

	rec, c := env.doJSONRequest(http.MethodPut, "/api/v1/cart/1", map[string]int{"quantity": 5}, 1)
	c.SetParamNames("id")
	c.SetParamValues(itoa(p.ID))
	require.NoError(t, env.H.UpdateCartItem(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Equal(t, uint(5), cart.Items[0].Quantity)
	require.Equal(t, 600.0, cart.TotalAmount)
}

func TestUpdateCartItemRejectsZeroQuantity(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Iris", Description: "blue iris", Price: 75, InStock: true})

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": p.ID, "quantity": 1}, 1)
	require.NoError(t, env.H.AddToCart(c))

	_, c = env.doJSONRequest(http.MethodPut, "/api/v1/cart/1", map[string]int{"quantity": 0}, 1)
	c.SetParamNames("id")
	c.SetParamValues(itoa(p.ID))

	err := env.H.UpdateCartItem(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestRemoveFromCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Fern", Description: "green fern", Price: 90, InStock: true})

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": p.ID, "quantity": 1}, 1)
	require.NoError(t, env.H.AddToCart(c))

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/cart/1", nil, 1)
	c.SetParamNames("id")
	c.SetParamValues(itoa(p.ID))
	require.NoError(t, env.H.RemoveFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Empty(t, cart.Items)
}

func TestClearCart(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, models.Product{Name: "Daisy", Description: "field daisy", Price: 30, InStock: true})

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", map[string]uint{"product_id": p.ID, "quantity": 3}, 1)
	require.NoError(t, env.H.AddToCart(c))

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/cart", nil, 1)
	require.NoError(t, env.H.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var cart models.Cart
	require.NoError(t, env.DB.Preload("Items").Where("user_id = ?", 1).First(&cart).Error)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalAmount)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
